package diary

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/aknedenik/akne-denik/shared-libs/enrollment"
)

type memoryRepository struct {
	mu          sync.RWMutex
	store       map[string]Log // LogID -> Log
	enrollments *enrollment.MemoryStore
}

// NewMemoryRepository returns an in-memory repository intended for local development and tests.
// Completions are mirrored into enrollments the way the Firestore repository updates the
// user document.
func NewMemoryRepository(enrollments *enrollment.MemoryStore) Repository {
	return &memoryRepository{
		store:       make(map[string]Log),
		enrollments: enrollments,
	}
}

func (r *memoryRepository) Complete(_ context.Context, log Log, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.store[log.ID]; exists {
		return ErrAlreadyCompleted
	}
	if r.enrollments != nil {
		err := r.enrollments.Update(log.UserID, func(e *enrollment.Enrollment) {
			for _, d := range e.CompletedDays {
				if d == log.Day {
					return
				}
			}
			e.CompletedDays = append(e.CompletedDays, log.Day)
			if log.Day > e.CurrentDay {
				e.CurrentDay = log.Day
			}
		})
		if err != nil {
			return ErrNotEnrolled
		}
	}

	r.store[log.ID] = cloneLog(log)
	return nil
}

func (r *memoryRepository) Get(_ context.Context, userID string, day int) (Log, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	log, ok := r.store[LogID(userID, day)]
	if !ok {
		return Log{}, ErrNotFound
	}
	return cloneLog(log), nil
}

func (r *memoryRepository) List(_ context.Context, userID string, fromDay, toDay int) ([]Log, error) {
	r.mu.RLock()
	out := make([]Log, 0)
	for _, log := range r.store {
		if log.UserID == userID && log.Day >= fromDay && log.Day <= toDay {
			out = append(out, cloneLog(log))
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out, nil
}
