package user

import (
	"context"
	"sync"
	"time"
)

type memoryRepository struct {
	mu    sync.RWMutex
	store map[string]Profile
}

// NewMemoryRepository returns an in-memory repository intended for local development and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{store: make(map[string]Profile)}
}

func (r *memoryRepository) Get(_ context.Context, userID string) (Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.store[userID]
	if !ok {
		return Profile{}, ErrNotFound
	}
	return cloneProfile(p), nil
}

func (r *memoryRepository) Create(_ context.Context, profile Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.store[profile.UserID]; exists {
		return ErrConflict
	}
	r.store[profile.UserID] = cloneProfile(profile)
	return nil
}

func (r *memoryRepository) UpdateSettings(_ context.Context, userID string, patch SettingsPatch, now time.Time) (Profile, error) {
	return r.mutate(userID, now, func(p *Profile) error {
		p.Settings = patch.Apply(p.Settings)
		return nil
	})
}

func (r *memoryRepository) SaveOnboarding(_ context.Context, userID string, onboarding Onboarding, now time.Time) (Profile, error) {
	return r.mutate(userID, now, func(p *Profile) error {
		p.Onboarding = &onboarding
		return nil
	})
}

func (r *memoryRepository) ExtendTrial(_ context.Context, userID string, days int, now time.Time) (Profile, error) {
	return r.mutate(userID, now, func(p *Profile) error {
		if p.TrialExtendedDays > 0 {
			return ErrAlreadyExtended
		}
		p.TrialExtendedDays = days
		return nil
	})
}

func (r *memoryRepository) mutate(userID string, now time.Time, fn func(*Profile) error) (Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.store[userID]
	if !ok {
		return Profile{}, ErrNotFound
	}
	p = cloneProfile(p)
	if err := fn(&p); err != nil {
		return Profile{}, err
	}
	p.Version++
	p.UpdatedAt = now
	r.store[userID] = p
	return cloneProfile(p), nil
}
