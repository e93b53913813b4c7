package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/aknedenik/akne-denik/shared-libs/enrollment"
	"github.com/aknedenik/akne-denik/shared-libs/program"
)

type firestoreRepository struct {
	client *firestore.Client
}

// NewFirestoreRepository creates a Repository backed by the stripeEvents and users collections.
func NewFirestoreRepository(client *firestore.Client) Repository {
	return &firestoreRepository{client: client}
}

type eventDocument struct {
	Type        string    `firestore:"type"`
	UserID      string    `firestore:"userId,omitempty"`
	ProcessedAt time.Time `firestore:"processedAt"`
}

func (r *firestoreRepository) Activate(ctx context.Context, a Activation) (time.Time, error) {
	eventRef := r.client.Collection(EventsCollection).Doc(a.EventID)
	userRef := r.client.Collection(enrollment.UsersCollection).Doc(a.UserID)

	var end time.Time
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(eventRef); err == nil {
			return ErrDuplicateEvent
		} else if status.Code(err) != codes.NotFound {
			return err
		}

		userSnap, err := tx.Get(userRef)
		if status.Code(err) == codes.NotFound {
			return ErrUnknownUser
		}
		if err != nil {
			return err
		}
		var current struct {
			Subscription enrollment.Subscription `firestore:"subscription"`
		}
		if err := userSnap.DataTo(&current); err != nil {
			return fmt.Errorf("decode user: %w", err)
		}

		currentEnd := time.Time{}
		if current.Subscription.Status == program.SubscriptionActive {
			currentEnd = current.Subscription.CurrentPeriodEnd
		}
		end = PeriodEnd(currentEnd, a.Now, a.Days)

		if err := tx.Create(eventRef, eventDocument{
			Type:        "payment_intent.succeeded",
			UserID:      a.UserID,
			ProcessedAt: a.Now,
		}); err != nil {
			return err
		}
		return tx.Update(userRef, []firestore.Update{
			{Path: "subscription.status", Value: program.SubscriptionActive},
			{Path: "subscription.paymentIntentId", Value: a.PaymentIntentID},
			{Path: "subscription.currentPeriodEnd", Value: end},
			{Path: "subscription.updatedAt", Value: a.Now},
			{Path: "updatedAt", Value: a.Now},
			{Path: "version", Value: firestore.Increment(1)},
		})
	})

	switch {
	case err == nil:
		return end, nil
	case errors.Is(err, ErrDuplicateEvent), status.Code(err) == codes.AlreadyExists:
		return time.Time{}, ErrDuplicateEvent
	case errors.Is(err, ErrUnknownUser):
		return time.Time{}, ErrUnknownUser
	default:
		return time.Time{}, fmt.Errorf("activate subscription for %s: %w", a.UserID, err)
	}
}

func (r *firestoreRepository) MarkProcessed(ctx context.Context, eventID, eventType string, now time.Time) (bool, error) {
	_, err := r.client.Collection(EventsCollection).Doc(eventID).Create(ctx, eventDocument{
		Type:        eventType,
		ProcessedAt: now,
	})
	if status.Code(err) == codes.AlreadyExists {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
