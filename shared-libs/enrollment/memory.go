package enrollment

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Reader for local development and tests.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]Enrollment
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]Enrollment)}
}

// Put inserts or replaces an enrollment.
func (m *MemoryStore) Put(e Enrollment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.CompletedDays = append([]int(nil), e.CompletedDays...)
	m.items[e.UserID] = e
}

// Update applies fn to a stored enrollment under the write lock.
func (m *MemoryStore) Update(userID string, fn func(*Enrollment)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.items[userID]
	if !ok {
		return ErrNotFound
	}
	fn(&e)
	m.items[userID] = e
	return nil
}

// Get implements Reader.
func (m *MemoryStore) Get(_ context.Context, userID string) (Enrollment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.items[userID]
	if !ok {
		return Enrollment{}, ErrNotFound
	}
	e.CompletedDays = append([]int(nil), e.CompletedDays...)
	return e, nil
}

// All returns a snapshot of every stored enrollment.
func (m *MemoryStore) All() []Enrollment {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Enrollment, 0, len(m.items))
	for _, e := range m.items {
		e.CompletedDays = append([]int(nil), e.CompletedDays...)
		out = append(out, e)
	}
	return out
}
