package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sharedauth "github.com/aknedenik/akne-denik/shared-libs/auth"
	"github.com/aknedenik/akne-denik/shared-libs/program"
)

// Service orchestrates registration, onboarding, settings and the trial.
type Service struct {
	repo   Repository
	clock  Clock
	policy program.Policy
}

// NewService constructs a Service instance with the provided collaborators.
func NewService(repo Repository, clock Clock, policy program.Policy) (*Service, error) {
	if repo == nil {
		return nil, errors.New("repo is required")
	}
	if clock == nil {
		return nil, errors.New("clock is required")
	}
	return &Service{repo: repo, clock: clock, policy: policy}, nil
}

// Register creates the profile for a freshly signed-up user. Calling it again for an
// existing user returns the stored profile with created=false.
func (s *Service) Register(ctx context.Context, session sharedauth.AuthenticatedUser, input RegisterInput) (ProfileResponse, bool, error) {
	if session.UserID == "" {
		return ProfileResponse{}, false, fmt.Errorf("%w: missing user id", ErrInvalidInput)
	}
	input.DisplayName = strings.TrimSpace(input.DisplayName)
	if err := validate.Struct(input); err != nil {
		return ProfileResponse{}, false, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}

	language := input.Language
	if language == "" {
		language = DefaultLanguage
	}

	now := s.clock.Now().UTC()
	profile := Profile{
		UserID:        session.UserID,
		Email:         strings.ToLower(strings.TrimSpace(session.Email)),
		DisplayName:   input.DisplayName,
		RegisteredAt:  now,
		CurrentDay:    1,
		CompletedDays: []int{},
		Settings: Settings{
			NotificationsEnabled: true,
			ReminderTime:         DefaultReminderTime,
			Language:             language,
		},
		Subscription: Subscription{Status: program.SubscriptionNone},
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err := s.repo.Create(ctx, profile)
	if errors.Is(err, ErrConflict) {
		existing, getErr := s.repo.Get(ctx, session.UserID)
		if getErr != nil {
			return ProfileResponse{}, false, getErr
		}
		return s.describe(existing), false, nil
	}
	if err != nil {
		return ProfileResponse{}, false, err
	}
	return s.describe(profile), true, nil
}

// Me returns the caller's profile with program day, trial, access and streak.
func (s *Service) Me(ctx context.Context, userID string) (ProfileResponse, error) {
	if userID == "" {
		return ProfileResponse{}, ErrNotFound
	}
	profile, err := s.repo.Get(ctx, userID)
	if err != nil {
		return ProfileResponse{}, err
	}
	return s.describe(profile), nil
}

// CompleteOnboarding stores the questionnaire answers.
func (s *Service) CompleteOnboarding(ctx context.Context, userID string, input OnboardingInput) (ProfileResponse, error) {
	if err := validate.Struct(input); err != nil {
		return ProfileResponse{}, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}
	now := s.clock.Now().UTC()
	onboarding := Onboarding{
		SkinType:     input.SkinType,
		AcneSeverity: input.AcneSeverity,
		Goals:        dedupe(input.Goals),
		CompletedAt:  now,
	}
	profile, err := s.repo.SaveOnboarding(ctx, userID, onboarding, now)
	if err != nil {
		return ProfileResponse{}, err
	}
	return s.describe(profile), nil
}

// UpdateSettings applies a partial settings update.
func (s *Service) UpdateSettings(ctx context.Context, userID string, patch SettingsPatch) (ProfileResponse, error) {
	if patch.Empty() {
		return ProfileResponse{}, fmt.Errorf("%w: no settings provided", ErrInvalidInput)
	}
	if patch.ReminderTime != nil {
		trimmed := strings.TrimSpace(*patch.ReminderTime)
		patch.ReminderTime = &trimmed
	}
	if err := validate.Struct(patch); err != nil {
		return ProfileResponse{}, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}
	profile, err := s.repo.UpdateSettings(ctx, userID, patch, s.clock.Now().UTC())
	if err != nil {
		return ProfileResponse{}, err
	}
	return s.describe(profile), nil
}

// ExtendTrial grants the one-time extension once the base trial has expired.
func (s *Service) ExtendTrial(ctx context.Context, userID string) (ProfileResponse, error) {
	profile, err := s.repo.Get(ctx, userID)
	if err != nil {
		return ProfileResponse{}, err
	}

	now := s.clock.Now()
	status := s.policy.Trial(profile.RegisteredAt, profile.TrialExtendedDays, now)
	if status.HasExtended {
		return ProfileResponse{}, ErrAlreadyExtended
	}
	if !status.CanExtend {
		return ProfileResponse{}, ErrTrialNotExtendable
	}

	updated, err := s.repo.ExtendTrial(ctx, userID, program.TrialExtensionDays, now.UTC())
	if err != nil {
		return ProfileResponse{}, err
	}
	return s.describe(updated), nil
}

func (s *Service) describe(p Profile) ProfileResponse {
	now := s.clock.Now()
	day := s.policy.ProgramDay(p.RegisteredAt, now)
	trial := s.policy.Trial(p.RegisteredAt, p.TrialExtendedDays, now)
	sub := program.SubscriptionState{Status: p.Subscription.Status, CurrentPeriodEnd: p.Subscription.CurrentPeriodEnd}
	if p.CompletedDays == nil {
		p.CompletedDays = []int{}
	}

	return ProfileResponse{
		Profile:        p,
		ProgramDay:     day,
		Trial:          trial,
		Access:         program.Decide(trial, sub, now),
		Streak:         program.Streak(p.CompletedDays, day),
		LongestStreak:  program.LongestStreak(p.CompletedDays),
		CompletedToday: program.Completed(p.CompletedDays, day),
	}
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
