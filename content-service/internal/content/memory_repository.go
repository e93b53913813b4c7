package content

import (
	"context"
	"sort"
	"sync"
)

type memoryRepository struct {
	mu   sync.RWMutex
	days map[int]DailyContent
}

// NewMemoryRepository returns an in-memory repository intended for local development and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{days: make(map[int]DailyContent)}
}

func (r *memoryRepository) Get(_ context.Context, day int) (DailyContent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.days[day]
	if !ok {
		return DailyContent{}, ErrNotFound
	}
	return c, nil
}

func (r *memoryRepository) List(_ context.Context, fromDay, toDay int) ([]DailyContent, error) {
	r.mu.RLock()
	out := make([]DailyContent, 0)
	for day, c := range r.days {
		if day >= fromDay && day <= toDay {
			out = append(out, c)
		}
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out, nil
}

func (r *memoryRepository) Upsert(_ context.Context, c DailyContent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.days[c.Day] = c
	return nil
}

func (r *memoryRepository) Delete(_ context.Context, day int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.days[day]; !ok {
		return ErrNotFound
	}
	delete(r.days, day)
	return nil
}
