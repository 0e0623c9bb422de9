// Package session keeps one form controller per live page view.
package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/ashureev/bank-marketing/internal/form"
)

// Factory builds the controller for a new page view.
type Factory func(pageID string) *form.Controller

type entry struct {
	ctrl     *form.Controller
	lastSeen time.Time
}

// Manager maps page-view IDs to their controllers.
type Manager struct {
	mu      sync.RWMutex
	pages   map[string]*entry
	factory Factory
	now     func() time.Time
}

// NewManager creates a manager that builds controllers with factory.
func NewManager(factory Factory) *Manager {
	return &Manager{
		pages:   make(map[string]*entry),
		factory: factory,
		now:     time.Now,
	}
}

// Get returns the controller for pageID, creating it on first use, and
// marks the page as seen.
func (m *Manager) Get(pageID string) *form.Controller {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.pages[pageID]; ok {
		e.lastSeen = m.now()
		return e.ctrl
	}

	ctrl := m.factory(pageID)
	m.pages[pageID] = &entry{ctrl: ctrl, lastSeen: m.now()}
	slog.Info("Page view registered", "page_id", pageID)
	return ctrl
}

// Lookup returns the controller for pageID without creating one.
func (m *Manager) Lookup(pageID string) (*form.Controller, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.pages[pageID]
	if !ok {
		return nil, false
	}
	e.lastSeen = m.now()
	return e.ctrl, true
}

// Len returns the number of live page views.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.pages)
}

// Remove drops the page view and closes its subscriptions.
func (m *Manager) Remove(pageID string) {
	m.mu.Lock()
	e, ok := m.pages[pageID]
	delete(m.pages, pageID)
	m.mu.Unlock()

	if ok {
		e.ctrl.Close()
		slog.Info("Page view removed", "page_id", pageID)
	}
}

// evictIdle removes page views idle for longer than ttl and closes their
// subscriptions. It returns the removed IDs.
func (m *Manager) evictIdle(ttl time.Duration) []string {
	m.mu.Lock()
	cutoff := m.now().Add(-ttl)
	var evicted []*entry
	var ids []string
	for id, e := range m.pages {
		if e.lastSeen.Before(cutoff) {
			delete(m.pages, id)
			evicted = append(evicted, e)
			ids = append(ids, id)
		}
	}
	m.mu.Unlock()

	for _, e := range evicted {
		e.ctrl.Close()
	}
	return ids
}
