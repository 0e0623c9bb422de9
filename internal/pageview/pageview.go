// Package pageview mints and resolves page-view identifiers. A page view is
// one rendering of the form; its controller lives as long as the view does.
package pageview

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const (
	// HeaderName carries the page-view ID on API requests.
	HeaderName = "X-Page-View-ID"
	// FormField carries the page-view ID on form posts.
	FormField = "page_id"
	idPrefix  = "pv_"
)

type contextKey int

const pageIDKey contextKey = iota

var idPattern = regexp.MustCompile(`^pv_[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// NewID returns a fresh page-view identifier.
func NewID() string {
	return idPrefix + uuid.NewString()
}

// IsValid reports whether id has the shape produced by NewID.
func IsValid(id string) bool {
	return idPattern.MatchString(id)
}

// WithID stores id in ctx.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, pageIDKey, id)
}

// IDFromContext extracts the page-view ID from ctx.
func IDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(pageIDKey).(string); ok {
		return v
	}
	return ""
}

// FromRequest returns the page-view ID named by the request header, the
// form field or the query string, in that order. Invalid IDs read as empty.
func FromRequest(r *http.Request) string {
	id := r.Header.Get(HeaderName)
	if id == "" {
		id = r.FormValue(FormField)
	}
	id = strings.TrimSpace(id)
	if !IsValid(id) {
		return ""
	}
	return id
}

// Middleware resolves the page-view ID of each request, minting a new one
// when the request carries none, and stores it in the request context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := FromRequest(r)
		if id == "" {
			id = NewID()
		}
		w.Header().Set(HeaderName, id)
		next.ServeHTTP(w, r.WithContext(WithID(r.Context(), id)))
	})
}
