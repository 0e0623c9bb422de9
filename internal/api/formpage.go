package api

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/ashureev/bank-marketing/internal/domain"
	"github.com/ashureev/bank-marketing/internal/form"
	"github.com/ashureev/bank-marketing/internal/pageview"
	"github.com/ashureev/bank-marketing/web"
	"github.com/go-chi/chi/v5"
)

// FormHandler serves the server-rendered form page.
type FormHandler struct {
	*Handler
}

// NewFormHandler creates the form page handler.
func NewFormHandler(base *Handler) *FormHandler {
	return &FormHandler{Handler: base}
}

// RegisterRoutes registers the page and its static assets.
func (h *FormHandler) RegisterRoutes(r chi.Router) {
	r.Handle("/static/*", web.StaticHandler())
	r.Group(func(r chi.Router) {
		r.Use(pageview.Middleware)
		r.Get("/", h.Index)
		r.With(h.throttle).Post("/submit", h.Submit)
	})
}

// Index renders the form for the request's page view.
func (h *FormHandler) Index(w http.ResponseWriter, r *http.Request) {
	pageID := pageview.IDFromContext(r.Context())
	ctrl := h.pages.Get(pageID)
	h.render(w, pageID, ctrl.Snapshot().View())
}

// Submit stores the posted fields, runs a prediction and re-renders the page
// with the outcome.
func (h *FormHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	pageID := pageview.IDFromContext(r.Context())
	ctrl := h.pages.Get(pageID)
	for _, name := range domain.FieldNames() {
		if err := ctrl.UpdateField(name, r.PostForm.Get(name)); err != nil {
			slog.Error("Failed to update field", "error", err, "page_id", pageID, "field", name)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
	}

	snap := ctrl.Submit(r.Context())
	h.render(w, pageID, snap.View())
}

func (h *FormHandler) render(w http.ResponseWriter, pageID string, view form.View) {
	var buf bytes.Buffer
	if err := web.Render(&buf, web.NewPage(pageID, view)); err != nil {
		slog.Error("Failed to render form page", "error", err, "page_id", pageID)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Debug("Failed to write form page", "error", err, "page_id", pageID)
	}
}
