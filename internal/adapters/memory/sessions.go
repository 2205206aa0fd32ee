// Package memory keeps editing sessions in process. Sessions are transient
// by nature, so nothing here survives a restart.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"mars_poster/internal/adapters/observability"
	"mars_poster/internal/domain"
)

type entry struct {
	s       domain.Session
	touched time.Time
}

// SessionStore is a domain.SessionStore with idle expiry.
type SessionStore struct {
	mu    sync.RWMutex
	items map[string]entry
	ttl   time.Duration
	now   func() time.Time
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{items: map[string]entry{}, ttl: ttl, now: time.Now}
}

func (m *SessionStore) expired(e entry, now time.Time) bool {
	return m.ttl > 0 && now.Sub(e.touched) > m.ttl
}

// Get returns the session and counts the read as activity.
func (m *SessionStore) Get(_ context.Context, id string) (domain.Session, error) {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.items[id]
	if !ok || m.expired(e, now) {
		return domain.Session{}, domain.ErrNotFound
	}
	e.touched = now
	m.items[id] = e
	return e.s, nil
}

func (m *SessionStore) Put(_ context.Context, s domain.Session) error {
	m.mu.Lock()
	m.items[s.ID] = entry{s: s, touched: m.now()}
	n := len(m.items)
	m.mu.Unlock()
	observability.ActiveSessions.Set(float64(n))
	return nil
}

func (m *SessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	_, ok := m.items[id]
	delete(m.items, id)
	n := len(m.items)
	m.mu.Unlock()
	observability.ActiveSessions.Set(float64(n))
	if !ok {
		return domain.ErrNotFound
	}
	return nil
}

// Len counts stored sessions, expired or not.
func (m *SessionStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Sweep drops idle sessions and returns how many were removed.
func (m *SessionStore) Sweep() int {
	now := m.now()
	m.mu.Lock()
	removed := 0
	for id, e := range m.items {
		if m.expired(e, now) {
			delete(m.items, id)
			removed++
		}
	}
	n := len(m.items)
	m.mu.Unlock()
	observability.ActiveSessions.Set(float64(n))
	return removed
}

// Run sweeps every interval until ctx is done.
func (m *SessionStore) Run(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := m.Sweep(); n > 0 {
				log.Debug().Int("removed", n).Msg("expired sessions swept")
			}
		}
	}
}
