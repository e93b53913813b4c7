package payment

import (
	"context"
	"sync"
	"time"

	"github.com/aknedenik/akne-denik/shared-libs/enrollment"
	"github.com/aknedenik/akne-denik/shared-libs/program"
)

type memoryRepository struct {
	mu          sync.Mutex
	events      map[string]string // event id -> type
	enrollments *enrollment.MemoryStore
}

// NewMemoryRepository returns an in-memory repository intended for local development and tests.
func NewMemoryRepository(enrollments *enrollment.MemoryStore) Repository {
	return &memoryRepository{
		events:      make(map[string]string),
		enrollments: enrollments,
	}
}

func (r *memoryRepository) Activate(_ context.Context, a Activation) (time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, seen := r.events[a.EventID]; seen {
		return time.Time{}, ErrDuplicateEvent
	}
	var end time.Time
	err := r.enrollments.Update(a.UserID, func(e *enrollment.Enrollment) {
		currentEnd := time.Time{}
		if e.Subscription.Status == program.SubscriptionActive {
			currentEnd = e.Subscription.CurrentPeriodEnd
		}
		end = PeriodEnd(currentEnd, a.Now, a.Days)
		e.Subscription = enrollment.Subscription{Status: program.SubscriptionActive, CurrentPeriodEnd: end}
	})
	if err != nil {
		return time.Time{}, ErrUnknownUser
	}
	r.events[a.EventID] = "payment_intent.succeeded"
	return end, nil
}

func (r *memoryRepository) MarkProcessed(_ context.Context, eventID, eventType string, _ time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, seen := r.events[eventID]; seen {
		return false, nil
	}
	r.events[eventID] = eventType
	return true, nil
}
