package session

import (
	"context"
	"sync"

	"github.com/fjod/go_shop/internal/domain"
)

// MemoryStore is an in-process Store for tests and single-instance runs.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
	observer Observer
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]domain.Session)}
}

func (m *MemoryStore) OnChange(fn Observer) {
	m.observer = fn
}

func (m *MemoryStore) Set(_ context.Context, sid string, s domain.Session) error {
	m.mu.Lock()
	m.sessions[sid] = s
	m.mu.Unlock()

	if m.observer != nil {
		m.observer(sid, &s)
	}
	return nil
}

func (m *MemoryStore) Get(_ context.Context, sid string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sid]
	if !ok {
		return nil, ErrNoSession
	}
	copied := s
	return &copied, nil
}

func (m *MemoryStore) Clear(_ context.Context, sid string) error {
	m.mu.Lock()
	delete(m.sessions, sid)
	m.mu.Unlock()

	if m.observer != nil {
		m.observer(sid, nil)
	}
	return nil
}
