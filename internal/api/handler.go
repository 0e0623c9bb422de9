// Package api provides HTTP handlers for the prediction form and its JSON API.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/ashureev/bank-marketing/internal/config"
	"github.com/ashureev/bank-marketing/internal/form"
	"github.com/ashureev/bank-marketing/internal/middleware"
	"github.com/ashureev/bank-marketing/internal/pageview"
	"github.com/ashureev/bank-marketing/internal/session"
	"github.com/go-chi/chi/v5"
)

// Handler provides common handler utilities.
type Handler struct {
	pages   *session.Manager
	cfg     *config.Config
	limiter *middleware.RateLimiter
}

// NewHandler creates a new Handler with common dependencies. A nil limiter
// leaves submissions unthrottled.
func NewHandler(pages *session.Manager, cfg *config.Config, limiter *middleware.RateLimiter) *Handler {
	return &Handler{
		pages:   pages,
		cfg:     cfg,
		limiter: limiter,
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// isDevelopment returns true if running in development mode.
func (h *Handler) isDevelopment() bool {
	return h.cfg == nil || h.cfg.IsDevelopment()
}

// throttle wraps submission routes with the rate limiter, if any.
func (h *Handler) throttle(next http.Handler) http.Handler {
	if h.limiter == nil {
		return next
	}
	return h.limiter.Handler(next)
}

// lookupPage resolves the {pageID} URL parameter to a live controller,
// writing the error response when there is none.
func (h *Handler) lookupPage(w http.ResponseWriter, r *http.Request) (*form.Controller, bool) {
	pageID := chi.URLParam(r, "pageID")
	if !pageview.IsValid(pageID) {
		Error(w, http.StatusBadRequest, "invalid page id")
		return nil, false
	}
	ctrl, ok := h.pages.Lookup(pageID)
	if !ok {
		Error(w, http.StatusNotFound, "page not found")
		return nil, false
	}
	return ctrl, true
}
