package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

// Verifier checks the Stripe-Signature header and decodes the event.
type Verifier func(payload []byte, signature string) (stripe.Event, error)

// NewStripeVerifier verifies events signed with the endpoint secret.
func NewStripeVerifier(secret string) Verifier {
	return func(payload []byte, signature string) (stripe.Event, error) {
		return webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		})
	}
}

// Result summarizes how an event was handled.
type Result struct {
	EventID   string     `json:"eventId"`
	Type      string     `json:"type"`
	Outcome   string     `json:"outcome"`
	UserID    string     `json:"userId,omitempty"`
	PeriodEnd *time.Time `json:"currentPeriodEnd,omitempty"`
}

// Service handles verified Stripe events.
type Service struct {
	verify Verifier
	repo   Repository
	clock  Clock
	days   int
	logger *slog.Logger
}

// NewService constructs a webhook Service.
func NewService(verify Verifier, repo Repository, clock Clock, days int, logger *slog.Logger) (*Service, error) {
	if verify == nil {
		return nil, errors.New("verifier is required")
	}
	if repo == nil {
		return nil, errors.New("repository is required")
	}
	if clock == nil {
		return nil, errors.New("clock is required")
	}
	if days <= 0 {
		days = DefaultSubscriptionDays
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{verify: verify, repo: repo, clock: clock, days: days, logger: logger}, nil
}

// Handle verifies and applies one webhook delivery.
func (s *Service) Handle(ctx context.Context, payload []byte, signature string) (Result, error) {
	event, err := s.verify(payload, signature)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	res := Result{EventID: event.ID, Type: string(event.Type)}
	now := s.clock.Now().UTC()

	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		return s.activate(ctx, event, res, now)
	case stripe.EventTypePaymentIntentPaymentFailed:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return Result{}, fmt.Errorf("decode payment intent: %w", err)
		}
		reason := ""
		if pi.LastPaymentError != nil {
			reason = pi.LastPaymentError.Msg
		}
		s.logger.Warn("payment failed",
			slog.String("eventId", event.ID),
			slog.String("paymentIntentId", pi.ID),
			slog.String("userId", pi.Metadata["userId"]),
			slog.String("reason", reason),
		)
		res.UserID = pi.Metadata["userId"]
		return s.markProcessed(ctx, event, res, OutcomeLogged, now)
	default:
		res.Outcome = OutcomeIgnored
		return res, nil
	}
}

func (s *Service) activate(ctx context.Context, event stripe.Event, res Result, now time.Time) (Result, error) {
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return Result{}, fmt.Errorf("decode payment intent: %w", err)
	}
	userID := strings.TrimSpace(pi.Metadata["userId"])
	if userID == "" {
		s.logger.Warn("payment without userId metadata", slog.String("eventId", event.ID), slog.String("paymentIntentId", pi.ID))
		return s.markProcessed(ctx, event, res, OutcomeIgnored, now)
	}
	res.UserID = userID

	end, err := s.repo.Activate(ctx, Activation{
		EventID:         event.ID,
		UserID:          userID,
		PaymentIntentID: pi.ID,
		Days:            s.days,
		Now:             now,
	})
	switch {
	case errors.Is(err, ErrDuplicateEvent):
		res.Outcome = OutcomeDuplicate
		return res, nil
	case errors.Is(err, ErrUnknownUser):
		// Retrying cannot create the profile; acknowledge and surface it in the logs.
		s.logger.Error("payment for unknown user",
			slog.String("eventId", event.ID),
			slog.String("userId", userID),
			slog.String("paymentIntentId", pi.ID),
		)
		res.Outcome = OutcomeIgnored
		return res, nil
	case err != nil:
		return Result{}, err
	}

	s.logger.Info("subscription activated",
		slog.String("eventId", event.ID),
		slog.String("userId", userID),
		slog.Time("currentPeriodEnd", end),
	)
	res.Outcome = OutcomeActivated
	res.PeriodEnd = &end
	return res, nil
}

func (s *Service) markProcessed(ctx context.Context, event stripe.Event, res Result, outcome string, now time.Time) (Result, error) {
	first, err := s.repo.MarkProcessed(ctx, event.ID, string(event.Type), now)
	if err != nil {
		return Result{}, err
	}
	if !first {
		res.Outcome = OutcomeDuplicate
		return res, nil
	}
	res.Outcome = outcome
	return res, nil
}

type systemClock struct{}

// NewSystemClock returns a Clock backed by time.Now.
func NewSystemClock() Clock { return systemClock{} }

func (systemClock) Now() time.Time { return time.Now() }
