// Package payment applies Stripe webhook events to user subscriptions.
package payment

import (
	"context"
	"errors"
	"time"
)

const (
	// EventsCollection records processed Stripe event ids.
	EventsCollection = "stripeEvents"
	// DefaultSubscriptionDays is the access period bought by one payment.
	DefaultSubscriptionDays = 365
)

// Outcomes reported back to Stripe in the acknowledgement body.
const (
	OutcomeActivated = "activated"
	OutcomeDuplicate = "duplicate"
	OutcomeLogged    = "logged"
	OutcomeIgnored   = "ignored"
)

var (
	// ErrInvalidSignature indicates the payload was not signed with the endpoint secret.
	ErrInvalidSignature = errors.New("invalid webhook signature")
	// ErrDuplicateEvent indicates the event was already applied.
	ErrDuplicateEvent = errors.New("event already processed")
	// ErrUnknownUser indicates the payment references a user without a profile.
	ErrUnknownUser = errors.New("user not found")
)

// Activation grants program access after a successful payment.
type Activation struct {
	EventID         string
	UserID          string
	PaymentIntentID string
	Days            int
	Now             time.Time
}

// Repository persists processed events and subscription state.
type Repository interface {
	// Activate records the event and extends the user's subscription atomically. It returns
	// ErrDuplicateEvent when the event id was seen before.
	Activate(ctx context.Context, a Activation) (time.Time, error)
	// MarkProcessed records an event that carries no state change. It returns false when the
	// event id was seen before.
	MarkProcessed(ctx context.Context, eventID, eventType string, now time.Time) (bool, error)
}

// Clock delivers the current time.
type Clock interface {
	Now() time.Time
}

// PeriodEnd extends from the later of now and the current end so early renewals keep
// the remaining days.
func PeriodEnd(currentEnd, now time.Time, days int) time.Time {
	start := now
	if currentEnd.After(now) {
		start = currentEnd
	}
	return start.AddDate(0, 0, days).UTC()
}
