package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ashureev/bank-marketing/internal/domain"
	"github.com/ashureev/bank-marketing/internal/form"
	"github.com/ashureev/bank-marketing/internal/middleware"
	"github.com/ashureev/bank-marketing/internal/pageview"
	"github.com/go-chi/chi/v5"
)

// maxBodyBytes bounds JSON request bodies on the page API.
const maxBodyBytes = 1 << 16

// PageHandler serves the JSON API over page-view controllers.
type PageHandler struct {
	*Handler
	stream *StreamHandler
}

// NewPageHandler creates the JSON page API handler.
func NewPageHandler(base *Handler) *PageHandler {
	return &PageHandler{Handler: base, stream: NewStreamHandler(base)}
}

// RegisterRoutes registers the JSON API routes.
func (h *PageHandler) RegisterRoutes(r chi.Router) {
	origins := []string{"*"}
	if h.cfg != nil {
		origins = h.cfg.AllowedOrigins()
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.CORS(origins))
		r.Get("/fields", h.GetFields)
		r.Get("/config", h.GetConfig)
		r.Post("/pages", h.CreatePage)
		r.Route("/pages/{pageID}", func(r chi.Router) {
			r.Get("/", h.GetPage)
			r.Put("/fields/{field}", h.UpdateField)
			r.With(h.throttle).Post("/submit", h.Submit)
			r.Get("/stream", h.stream.ServeHTTP)
		})
	})
}

// GetFields returns the field catalog.
func (h *PageHandler) GetFields(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, domain.Catalog)
}

// GetConfig returns the client-relevant settings.
func (h *PageHandler) GetConfig(w http.ResponseWriter, _ *http.Request) {
	strict := true
	if h.cfg != nil {
		strict = h.cfg.StrictValidation
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"strict_validation": strict,
		"submit_label":      form.SubmitLabel,
		"busy_label":        form.BusyLabel,
	})
}

// CreatePage mints a page view with an empty form.
func (h *PageHandler) CreatePage(w http.ResponseWriter, _ *http.Request) {
	pageID := pageview.NewID()
	ctrl := h.pages.Get(pageID)

	w.Header().Set(pageview.HeaderName, pageID)
	JSON(w, http.StatusCreated, map[string]interface{}{
		"page_id": pageID,
		"view":    ctrl.Snapshot().View(),
	})
}

// GetPage returns the current view of a page.
func (h *PageHandler) GetPage(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.lookupPage(w, r)
	if !ok {
		return
	}
	JSON(w, http.StatusOK, ctrl.Snapshot().View())
}

type updateFieldRequest struct {
	Value *string `json:"value"`
}

// UpdateField stores the raw text of one field.
func (h *PageHandler) UpdateField(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.lookupPage(w, r)
	if !ok {
		return
	}

	var req updateFieldRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Value == nil {
		Error(w, http.StatusBadRequest, "value is required")
		return
	}

	field := chi.URLParam(r, "field")
	if err := ctrl.UpdateField(field, *req.Value); err != nil {
		if errors.Is(err, form.ErrUnknownField) {
			Error(w, http.StatusNotFound, "unknown field")
			return
		}
		slog.Error("Failed to update field", "error", err, "page_id", ctrl.ID(), "field", field)
		Error(w, http.StatusInternalServerError, "failed to update field")
		return
	}

	JSON(w, http.StatusOK, ctrl.Snapshot().View())
}

// Submit runs a prediction for the page and returns the resolved view.
// Prediction failures are part of the view, not HTTP errors.
func (h *PageHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.lookupPage(w, r)
	if !ok {
		return
	}
	snap := ctrl.Submit(r.Context())
	JSON(w, http.StatusOK, snap.View())
}
