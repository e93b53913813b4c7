package content

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/aknedenik/akne-denik/shared-libs/enrollment"
	"github.com/aknedenik/akne-denik/shared-libs/program"
)

var validate = validator.New()

// Service serves the content calendar to users and admins.
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

// Today returns the content for the caller's current program day.
func (s *Service) Today(ctx context.Context, userID string) (TodayResponse, error) {
	e, err := s.enrollment(ctx, userID)
	if err != nil {
		return TodayResponse{}, err
	}
	now := s.clock.Now()
	day := e.ProgramDay(s.policy, now)

	c, err := s.repo.Get(ctx, day)
	if err != nil {
		return TodayResponse{}, err
	}
	return TodayResponse{
		ProgramDay:     day,
		CompletedToday: e.CompletedToday(s.policy, now),
		Content:        c,
	}, nil
}

// ForDay returns one day's content. Users may read up to their current program day; admins may
// read any day.
func (s *Service) ForDay(ctx context.Context, userID string, admin bool, day int) (DailyContent, error) {
	if day < 1 || day > program.CalendarDays {
		return DailyContent{}, fmt.Errorf("%w: day must be between 1 and %d", ErrInvalidInput, program.CalendarDays)
	}
	if !admin {
		e, err := s.enrollment(ctx, userID)
		if err != nil {
			return DailyContent{}, err
		}
		if day > e.ProgramDay(s.policy, s.clock.Now()) {
			return DailyContent{}, ErrFutureDay
		}
	}
	return s.repo.Get(ctx, day)
}

// List returns authored days in [fromDay, toDay] for the admin panel.
func (s *Service) List(ctx context.Context, fromDay, toDay int) ([]DailyContent, error) {
	if fromDay < 1 {
		fromDay = 1
	}
	if toDay <= 0 || toDay > program.CalendarDays {
		toDay = program.CalendarDays
	}
	if fromDay > toDay {
		return nil, fmt.Errorf("%w: from must not exceed to", ErrInvalidInput)
	}
	return s.repo.List(ctx, fromDay, toDay)
}

// Upsert creates or replaces a day's content.
func (s *Service) Upsert(ctx context.Context, adminID string, input UpsertInput) (DailyContent, error) {
	input.MotivationalText = strings.TrimSpace(input.MotivationalText)
	input.TaskText = strings.TrimSpace(input.TaskText)
	input.Category = strings.ToLower(strings.TrimSpace(input.Category))
	if err := validate.Struct(input); err != nil {
		return DailyContent{}, fmt.Errorf("%w: %s", ErrInvalidInput, describe(err))
	}

	c := DailyContent{
		Day:              input.Day,
		MotivationalText: input.MotivationalText,
		TaskText:         input.TaskText,
		IsPhotoDay:       input.IsPhotoDay,
		Category:         input.Category,
		UpdatedAt:        s.clock.Now().UTC(),
		UpdatedBy:        adminID,
	}
	if err := s.repo.Upsert(ctx, c); err != nil {
		return DailyContent{}, err
	}
	return c, nil
}

// Delete removes a day's content.
func (s *Service) Delete(ctx context.Context, day int) error {
	if day < 1 || day > program.CalendarDays {
		return fmt.Errorf("%w: day must be between 1 and %d", ErrInvalidInput, program.CalendarDays)
	}
	return s.repo.Delete(ctx, day)
}

func (s *Service) enrollment(ctx context.Context, userID string) (enrollment.Enrollment, error) {
	e, err := s.enrollments.Get(ctx, userID)
	if errors.Is(err, enrollment.ErrNotFound) {
		return enrollment.Enrollment{}, ErrNotEnrolled
	}
	return e, err
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Field() {
		case "Day":
			problems = append(problems, "day must be between 1 and 365")
		case "Category":
			problems = append(problems, "category must be one of: "+strings.Join(Categories, ", "))
		case "MotivationalText", "TaskText":
			field := strings.ToLower(fe.Field()[:1]) + fe.Field()[1:]
			if fe.Tag() == "required" {
				problems = append(problems, field+" is required")
			} else {
				problems = append(problems, field+" must be at most 2000 characters")
			}
		default:
			problems = append(problems, fe.Error())
		}
	}
	return strings.Join(problems, "; ")
}
