package chat

import (
	"context"
	"sort"
	"sync"
)

type memoryRepository struct {
	mu      sync.RWMutex
	threads map[string][]Message
}

// NewMemoryRepository returns an in-memory repository intended for local development and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{threads: make(map[string][]Message)}
}

func (r *memoryRepository) Create(_ context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	thread := append(r.threads[msg.UserID], msg)
	sort.SliceStable(thread, func(i, j int) bool { return thread[i].CreatedAt.Before(thread[j].CreatedAt) })
	r.threads[msg.UserID] = thread
	return nil
}

func (r *memoryRepository) Thread(_ context.Context, userID string, limit int) ([]Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	thread := r.threads[userID]
	if limit > 0 && len(thread) > limit {
		thread = thread[len(thread)-limit:]
	}
	return append([]Message{}, thread...), nil
}
