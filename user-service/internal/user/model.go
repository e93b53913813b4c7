package user

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/aknedenik/akne-denik/shared-libs/program"
)

// Profile is the users/{uid} document.
type Profile struct {
	UserID            string       `json:"userId" firestore:"-"`
	Email             string       `json:"email" firestore:"email"`
	DisplayName       string       `json:"displayName" firestore:"displayName"`
	RegisteredAt      time.Time    `json:"registrationDate" firestore:"registrationDate"`
	CurrentDay        int          `json:"currentDay" firestore:"currentDay"`
	CompletedDays     []int        `json:"completedDays" firestore:"completedDays"`
	TrialExtendedDays int          `json:"trialExtendedDays" firestore:"trialExtendedDays"`
	Onboarding        *Onboarding  `json:"onboarding,omitempty" firestore:"onboarding,omitempty"`
	Settings          Settings     `json:"settings" firestore:"settings"`
	Subscription      Subscription `json:"subscription" firestore:"subscription"`
	Version           int64        `json:"version" firestore:"version"`
	CreatedAt         time.Time    `json:"createdAt" firestore:"createdAt"`
	UpdatedAt         time.Time    `json:"updatedAt" firestore:"updatedAt"`
}

// Onboarding holds the questionnaire answered after sign-up.
type Onboarding struct {
	SkinType     string    `json:"skinType" firestore:"skinType"`
	AcneSeverity string    `json:"acneSeverity" firestore:"acneSeverity"`
	Goals        []string  `json:"goals" firestore:"goals"`
	CompletedAt  time.Time `json:"completedAt" firestore:"completedAt"`
}

// Settings are the user-editable preferences.
type Settings struct {
	NotificationsEnabled bool   `json:"notificationsEnabled" firestore:"notificationsEnabled"`
	ReminderTime         string `json:"reminderTime" firestore:"reminderTime"`
	Language             string `json:"language" firestore:"language"`
	PushToken            string `json:"pushToken,omitempty" firestore:"pushToken"`
}

// Subscription is written by webhook-service once a payment succeeds.
type Subscription struct {
	Status           string    `json:"status" firestore:"status"`
	PaymentIntentID  string    `json:"paymentIntentId,omitempty" firestore:"paymentIntentId"`
	CurrentPeriodEnd time.Time `json:"currentPeriodEnd,omitempty" firestore:"currentPeriodEnd"`
	UpdatedAt        time.Time `json:"updatedAt,omitempty" firestore:"updatedAt"`
}

// Defaults applied at registration.
const (
	DefaultReminderTime = "20:00"
	DefaultLanguage     = "cs"
)

// ProfileResponse combines the stored profile with values derived by the program calculators.
type ProfileResponse struct {
	Profile
	ProgramDay     int                 `json:"programDay"`
	Trial          program.TrialStatus `json:"trial"`
	Access         program.Access      `json:"access"`
	Streak         int                 `json:"streak"`
	LongestStreak  int                 `json:"longestStreak"`
	CompletedToday bool                `json:"completedToday"`
}

// RegisterInput carries the optional fields captured on the sign-up form.
type RegisterInput struct {
	DisplayName string `validate:"max=80"`
	Language    string `validate:"omitempty,oneof=cs en"`
}

// OnboardingInput is the questionnaire payload.
type OnboardingInput struct {
	SkinType     string   `validate:"required,oneof=oily dry combination normal sensitive"`
	AcneSeverity string   `validate:"required,oneof=mild moderate severe"`
	Goals        []string `validate:"max=5,dive,oneof=clear-skin fewer-breakouts less-scarring routine confidence"`
}

// SettingsPatch updates only the fields that are set.
type SettingsPatch struct {
	NotificationsEnabled *bool
	ReminderTime         *string `validate:"omitempty,datetime=15:04"`
	Language             *string `validate:"omitempty,oneof=cs en"`
	PushToken            *string `validate:"omitempty,max=512"`
}

// Empty reports whether the patch changes nothing.
func (p SettingsPatch) Empty() bool {
	return p.NotificationsEnabled == nil && p.ReminderTime == nil && p.Language == nil && p.PushToken == nil
}

// Apply returns s with the patch applied.
func (p SettingsPatch) Apply(s Settings) Settings {
	if p.NotificationsEnabled != nil {
		s.NotificationsEnabled = *p.NotificationsEnabled
	}
	if p.ReminderTime != nil {
		s.ReminderTime = *p.ReminderTime
	}
	if p.Language != nil {
		s.Language = *p.Language
	}
	if p.PushToken != nil {
		s.PushToken = *p.PushToken
	}
	return s
}

var validate = validator.New()

// Repository defines the interface for user data access.
type Repository interface {
	Get(ctx context.Context, userID string) (Profile, error)
	Create(ctx context.Context, profile Profile) error
	UpdateSettings(ctx context.Context, userID string, patch SettingsPatch, now time.Time) (Profile, error)
	SaveOnboarding(ctx context.Context, userID string, onboarding Onboarding, now time.Time) (Profile, error)
	// ExtendTrial sets trialExtendedDays atomically, failing with ErrAlreadyExtended when
	// an extension was granted before.
	ExtendTrial(ctx context.Context, userID string, days int, now time.Time) (Profile, error)
}

var (
	// ErrNotFound indicates the user has not registered yet.
	ErrNotFound = errors.New("user not found")
	// ErrConflict indicates the profile already exists.
	ErrConflict = errors.New("user already exists")
	// ErrInvalidInput indicates the provided data failed validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrAlreadyExtended indicates the one-time trial extension was used.
	ErrAlreadyExtended = errors.New("trial already extended")
	// ErrTrialNotExtendable indicates the trial is still running or otherwise cannot be extended.
	ErrTrialNotExtendable = errors.New("trial cannot be extended")
)

// Clock delivers the current time; extracted for deterministic testing.
type Clock interface {
	Now() time.Time
}
