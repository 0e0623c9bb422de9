package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/ashureev/bank-marketing/internal/form"
	"github.com/coder/websocket"
)

const (
	streamBuffer       = 4
	streamWriteTimeout = 5 * time.Second
)

// StreamHandler pushes a page's view over a websocket after every state
// change.
type StreamHandler struct {
	*Handler
}

// NewStreamHandler creates a new websocket stream handler.
func NewStreamHandler(base *Handler) *StreamHandler {
	return &StreamHandler{Handler: base}
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.lookupPage(w, r)
	if !ok {
		return
	}
	pageID := ctrl.ID()
	slog.Info("Stream connection request", "page_id", pageID, "ip", r.RemoteAddr)

	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "page_id", pageID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "stream ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr, "page_id", pageID)
		}
	}()

	// Clients only listen; CloseRead handles control frames and cancels ctx
	// when the peer goes away.
	ctx := ws.CloseRead(r.Context())

	updates, cancel := ctrl.Subscribe(streamBuffer)
	defer cancel()

	if err := writeView(ctx, ws, ctrl.Snapshot().View()); err != nil {
		slog.Debug("Failed to send initial view", "error", err, "page_id", pageID)
		return
	}

	for {
		select {
		case <-ctx.Done():
			slog.Debug("Stream closed by client", "page_id", pageID)
			return
		case snap, ok := <-updates:
			if !ok {
				slog.Info("Page view expired, ending stream", "page_id", pageID)
				return
			}
			if err := writeView(ctx, ws, snap.View()); err != nil {
				if ctx.Err() == nil {
					slog.Warn("WebSocket write error", "error", err, "page_id", pageID)
				}
				return
			}
		}
	}
}

func (h *StreamHandler) checkOrigin(r *http.Request) bool {
	if h.isDevelopment() {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if u, err := url.Parse(origin); err == nil && u.Host == r.Host {
		return true
	}
	for _, allowed := range h.cfg.AllowedOrigins() {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	slog.Warn("WebSocket origin rejected", "origin", origin, "allowed", h.cfg.FrontendURL)
	return false
}

func writeView(ctx context.Context, ws *websocket.Conn, view form.View) error {
	data, err := json.Marshal(view)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, streamWriteTimeout)
	defer cancel()
	return ws.Write(writeCtx, websocket.MessageText, data)
}
