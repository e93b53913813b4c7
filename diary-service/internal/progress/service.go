package progress

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/aknedenik/akne-denik/diary-service/internal/diary"
	"github.com/aknedenik/akne-denik/shared-libs/enrollment"
	"github.com/aknedenik/akne-denik/shared-libs/program"
)

// Service computes chart statistics from diary entries and the user's enrollment.
type Service struct {
	logs        LogSource
	enrollments enrollment.Reader
	clock       Clock
	policy      program.Policy
}

// NewService creates a new progress service.
func NewService(logs LogSource, enrollments enrollment.Reader, clock Clock, policy program.Policy) (*Service, error) {
	if logs == nil {
		return nil, errors.New("log source is required")
	}
	if enrollments == nil {
		return nil, errors.New("enrollment reader is required")
	}
	if clock == nil {
		return nil, errors.New("clock is required")
	}
	return &Service{logs: logs, enrollments: enrollments, clock: clock, policy: policy}, nil
}

// GetProgress loads the enrollment and every entry concurrently and summarises them.
func (s *Service) GetProgress(ctx context.Context, userID string) (Stats, error) {
	if userID == "" {
		return Stats{}, ErrMissingUserID
	}

	var (
		e    enrollment.Enrollment
		logs []diary.Log
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		e, err = s.enrollments.Get(gctx, userID)
		if errors.Is(err, enrollment.ErrNotFound) {
			return ErrNotEnrolled
		}
		return err
	})
	g.Go(func() error {
		var err error
		logs, err = s.logs.List(gctx, userID, 1, program.CalendarDays)
		return err
	})
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}

	day := e.ProgramDay(s.policy, s.clock.Now())
	return Summarize(day, e.CompletedDays, logs), nil
}
