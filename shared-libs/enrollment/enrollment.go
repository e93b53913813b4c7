// Package enrollment reads the program-relevant part of a user document so services
// other than user-service can evaluate program day, trial and access.
package enrollment

import (
	"context"
	"errors"
	"time"

	"github.com/aknedenik/akne-denik/shared-libs/program"
)

// UsersCollection holds one document per Firebase uid.
const UsersCollection = "users"

// ErrNotFound indicates the user never registered.
var ErrNotFound = errors.New("enrollment not found")

// Settings mirrors the user's notification preferences.
type Settings struct {
	NotificationsEnabled bool   `firestore:"notificationsEnabled"`
	ReminderTime         string `firestore:"reminderTime"`
	Language             string `firestore:"language"`
	PushToken            string `firestore:"pushToken"`
}

// Subscription mirrors the billing state written by webhook-service.
type Subscription struct {
	Status           string    `firestore:"status"`
	CurrentPeriodEnd time.Time `firestore:"currentPeriodEnd"`
}

// Enrollment is a read-only projection of users/{uid}.
type Enrollment struct {
	UserID            string       `firestore:"-"`
	Email             string       `firestore:"email"`
	RegisteredAt      time.Time    `firestore:"registrationDate"`
	CurrentDay        int          `firestore:"currentDay"`
	CompletedDays     []int        `firestore:"completedDays"`
	TrialExtendedDays int          `firestore:"trialExtendedDays"`
	Settings          Settings     `firestore:"settings"`
	Subscription      Subscription `firestore:"subscription"`
}

// ProgramDay evaluates the user's current program day.
func (e Enrollment) ProgramDay(p program.Policy, now time.Time) int {
	return p.ProgramDay(e.RegisteredAt, now)
}

// Trial evaluates the user's trial.
func (e Enrollment) Trial(p program.Policy, now time.Time) program.TrialStatus {
	return p.Trial(e.RegisteredAt, e.TrialExtendedDays, now)
}

// SubscriptionState converts the stored subscription for the access decision.
func (e Enrollment) SubscriptionState() program.SubscriptionState {
	return program.SubscriptionState{
		Status:           e.Subscription.Status,
		CurrentPeriodEnd: e.Subscription.CurrentPeriodEnd,
	}
}

// Access evaluates whether premium features are unlocked.
func (e Enrollment) Access(p program.Policy, now time.Time) program.Access {
	return program.Decide(e.Trial(p, now), e.SubscriptionState(), now)
}

// CompletedToday reports whether the current program day is already logged.
func (e Enrollment) CompletedToday(p program.Policy, now time.Time) bool {
	return program.Completed(e.CompletedDays, e.ProgramDay(p, now))
}

// Reader loads enrollments by uid.
type Reader interface {
	Get(ctx context.Context, userID string) (Enrollment, error)
}
