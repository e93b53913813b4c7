// Package billing creates Stripe payments for the full program.
package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v76"

	"github.com/aknedenik/akne-denik/shared-libs/enrollment"
)

var (
	// ErrMissingUserID indicates the payer was not provided.
	ErrMissingUserID = errors.New("user id is required")
	// ErrNotEnrolled indicates the caller never registered.
	ErrNotEnrolled = errors.New("user is not enrolled in the program")
	// ErrAlreadySubscribed indicates the caller already paid for the current period.
	ErrAlreadySubscribed = errors.New("subscription already active")
)

// IntentCreator creates PaymentIntents. *paymentintent.Client satisfies it.
type IntentCreator interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// Clock delivers the current time.
type Clock interface {
	Now() time.Time
}

// Price is the one-off program price in the currency's smallest unit.
type Price struct {
	Amount   int64
	Currency string
}

// Intent is returned to the client to confirm the payment with Stripe.js.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"clientSecret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

// Service orchestrates payment creation.
type Service struct {
	intents     IntentCreator
	enrollments enrollment.Reader
	clock       Clock
	price       Price
}

// NewService constructs a billing Service.
func NewService(intents IntentCreator, enrollments enrollment.Reader, clock Clock, price Price) (*Service, error) {
	if intents == nil {
		return nil, errors.New("intent creator is required")
	}
	if enrollments == nil {
		return nil, errors.New("enrollment reader is required")
	}
	if clock == nil {
		return nil, errors.New("clock is required")
	}
	if price.Amount <= 0 {
		return nil, errors.New("price amount must be positive")
	}
	price.Currency = strings.ToLower(strings.TrimSpace(price.Currency))
	if price.Currency == "" {
		return nil, errors.New("price currency is required")
	}
	return &Service{intents: intents, enrollments: enrollments, clock: clock, price: price}, nil
}

// CreateIntent opens a PaymentIntent for userID. Repeated calls on the same day reuse the
// same Stripe idempotency key and therefore the same intent.
func (s *Service) CreateIntent(ctx context.Context, userID string) (Intent, error) {
	if strings.TrimSpace(userID) == "" {
		return Intent{}, ErrMissingUserID
	}
	e, err := s.enrollments.Get(ctx, userID)
	if errors.Is(err, enrollment.ErrNotFound) {
		return Intent{}, ErrNotEnrolled
	}
	if err != nil {
		return Intent{}, err
	}
	now := s.clock.Now()
	if e.SubscriptionState().Active(now) {
		return Intent{}, ErrAlreadySubscribed
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(s.price.Amount),
		Currency: stripe.String(s.price.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if e.Email != "" {
		params.ReceiptEmail = stripe.String(e.Email)
	}
	params.Context = ctx
	params.AddMetadata("userId", userID)
	params.SetIdempotencyKey(IdempotencyKey(userID, now))

	pi, err := s.intents.New(params)
	if err != nil {
		return Intent{}, fmt.Errorf("create payment intent: %w", err)
	}
	return Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
	}, nil
}

// IdempotencyKey scopes intent creation to one user per UTC day.
func IdempotencyKey(userID string, now time.Time) string {
	return "payment-intent-" + userID + "-" + now.UTC().Format("20060102")
}

type systemClock struct{}

// NewSystemClock returns a Clock backed by time.Now.
func NewSystemClock() Clock { return systemClock{} }

func (systemClock) Now() time.Time { return time.Now() }
