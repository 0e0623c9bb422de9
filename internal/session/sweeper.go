package session

import (
	"context"
	"log/slog"
	"time"
)

// StartSweeper runs a background goroutine that periodically removes page
// views idle for longer than ttl. It stops when ctx is cancelled.
func StartSweeper(ctx context.Context, m *Manager, ttl, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		slog.Info("Page sweeper started", "interval", interval, "ttl", ttl)

		for {
			select {
			case <-ticker.C:
				m.Sweep(ttl)
			case <-ctx.Done():
				slog.Info("Page sweeper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

// Sweep removes every page view idle for longer than ttl and returns how many
// were removed.
func (m *Manager) Sweep(ttl time.Duration) int {
	ids := m.evictIdle(ttl)
	if len(ids) == 0 {
		return 0
	}

	slog.Info("Page sweeper cleanup completed", "removed", len(ids), "remaining", m.Len())
	return len(ids)
}
