package session

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Store with the same sliding-TTL semantics as the
// Redis store. It backs tests and single-process setups without Redis.
//
// Safe for concurrent use.
type Memory struct {
	mu   sync.Mutex
	ttl  time.Duration
	now  func() time.Time
	logs map[string]*memorySession
}

type memorySession struct {
	turns    []Turn
	deadline time.Time
}

// NewMemory creates an in-process session store.
func NewMemory(ttl time.Duration) *Memory {
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &Memory{
		ttl:  ttl,
		now:  time.Now,
		logs: make(map[string]*memorySession),
	}
}

// live returns the session if it exists and has not expired. Expired
// sessions are reaped lazily on access.
func (m *Memory) live(sessionID string) *memorySession {
	s, ok := m.logs[sessionID]
	if !ok {
		return nil
	}
	if m.now().After(s.deadline) {
		delete(m.logs, sessionID)
		return nil
	}
	return s
}

// Append implements Store.
func (m *Memory) Append(_ context.Context, sessionID string, turn Turn) error {
	if err := turn.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.live(sessionID)
	if s == nil {
		s = &memorySession{}
		m.logs[sessionID] = s
	}
	s.turns = append(s.turns, turn)
	s.deadline = m.now().Add(m.ttl)
	return nil
}

// History implements Store.
func (m *Memory) History(_ context.Context, sessionID string) ([]Turn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.live(sessionID)
	if s == nil {
		return []Turn{}, nil
	}
	turns := make([]Turn, len(s.turns))
	copy(turns, s.turns)
	return turns, nil
}

// Touch implements Store.
func (m *Memory) Touch(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s := m.live(sessionID); s != nil {
		s.deadline = m.now().Add(m.ttl)
	}
	return nil
}

// Reset implements Store.
func (m *Memory) Reset(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.logs, sessionID)
	return nil
}
