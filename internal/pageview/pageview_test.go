package pageview

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestNewIDIsValid(t *testing.T) {
	id := NewID()
	if !IsValid(id) {
		t.Fatalf("NewID produced invalid id %q", id)
	}
	if NewID() == id {
		t.Fatal("expected distinct ids")
	}
}

func TestIsValidRejectsForeignShapes(t *testing.T) {
	for _, id := range []string{"", "default", "pv_", "anon_0123456789abcdef0123456789abcdef", "pv_../../etc"} {
		if IsValid(id) {
			t.Errorf("IsValid(%q) = true", id)
		}
	}
}

func TestFromRequest(t *testing.T) {
	id := NewID()

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(HeaderName, id)
	if got := FromRequest(r); got != id {
		t.Errorf("header: got %q", got)
	}

	form := url.Values{FormField: {id}}
	r = httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if got := FromRequest(r); got != id {
		t.Errorf("form: got %q", got)
	}

	r = httptest.NewRequest(http.MethodGet, "/?page_id=bogus", nil)
	if got := FromRequest(r); got != "" {
		t.Errorf("invalid id should be dropped, got %q", got)
	}
}

func TestMiddlewareMintsAndPreserves(t *testing.T) {
	var seen string
	h := Middleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = IDFromContext(r.Context())
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if !IsValid(seen) {
		t.Fatalf("expected minted id, got %q", seen)
	}
	if w.Header().Get(HeaderName) != seen {
		t.Errorf("expected id echoed in header")
	}

	existing := NewID()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(HeaderName, existing)
	h.ServeHTTP(httptest.NewRecorder(), r)
	if seen != existing {
		t.Errorf("expected existing id kept, got %q", seen)
	}
}
