package diary

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aknedenik/akne-denik/shared-libs/enrollment"
	"github.com/aknedenik/akne-denik/shared-libs/program"
)

// Service orchestrates the domain operations for diary entries.
type Service struct {
	repo        Repository
	enrollments enrollment.Reader
	clock       Clock
	policy      program.Policy
}

// NewService constructs a Service instance with the provided collaborators.
func NewService(repo Repository, enrollments enrollment.Reader, clock Clock, policy program.Policy) (*Service, error) {
	if repo == nil {
		return nil, errors.New("repo is required")
	}
	if enrollments == nil {
		return nil, errors.New("enrollment reader is required")
	}
	if clock == nil {
		return nil, errors.New("clock is required")
	}
	return &Service{repo: repo, enrollments: enrollments, clock: clock, policy: policy}, nil
}

// Complete records today's entry for the caller. The program day is derived from the
// registration date, never supplied by the client.
func (s *Service) Complete(ctx context.Context, input CompleteInput) (CompleteResult, error) {
	input.Note = strings.TrimSpace(input.Note)
	if err := input.Validate(); err != nil {
		return CompleteResult{}, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}

	e, err := s.enrollments.Get(ctx, input.UserID)
	if errors.Is(err, enrollment.ErrNotFound) {
		return CompleteResult{}, ErrNotEnrolled
	}
	if err != nil {
		return CompleteResult{}, err
	}

	now := s.clock.Now()
	day := e.ProgramDay(s.policy, now)
	if program.Completed(e.CompletedDays, day) {
		return CompleteResult{}, ErrAlreadyCompleted
	}

	photos := input.Photos
	if photos == nil {
		photos = []string{}
	}
	log := Log{
		ID:         LogID(input.UserID, day),
		UserID:     input.UserID,
		Day:        day,
		Date:       s.policy.DateOf(now),
		Mood:       input.Mood,
		SkinRating: input.SkinRating,
		Note:       input.Note,
		Photos:     photos,
		CreatedAt:  now.UTC(),
	}
	if err := s.repo.Complete(ctx, log, now.UTC()); err != nil {
		return CompleteResult{}, err
	}

	completed := program.Distinct(append(e.CompletedDays, day))
	return CompleteResult{
		Log:           log,
		ProgramDay:    day,
		CompletedDays: completed,
		Streak:        program.Streak(completed, day),
	}, nil
}

// Get returns the caller's entry for a program day.
func (s *Service) Get(ctx context.Context, userID string, day int) (Log, error) {
	if userID == "" || day < 1 || day > program.CalendarDays {
		return Log{}, ErrNotFound
	}
	return s.repo.Get(ctx, userID, day)
}

// List returns the caller's entries between two program days, inclusive, ordered by day.
func (s *Service) List(ctx context.Context, userID string, fromDay, toDay int) ([]Log, error) {
	if fromDay < 1 {
		fromDay = 1
	}
	if toDay <= 0 || toDay > program.CalendarDays {
		toDay = program.CalendarDays
	}
	if fromDay > toDay {
		return nil, fmt.Errorf("%w: from must not exceed to", ErrInvalidInput)
	}
	return s.repo.List(ctx, userID, fromDay, toDay)
}
