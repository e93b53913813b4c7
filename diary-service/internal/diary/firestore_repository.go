package diary

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/aknedenik/akne-denik/shared-libs/enrollment"
)

type firestoreRepository struct {
	client *firestore.Client
}

// NewFirestoreRepository creates a Repository backed by the userLogs and users collections.
func NewFirestoreRepository(client *firestore.Client) Repository {
	return &firestoreRepository{client: client}
}

func (r *firestoreRepository) Complete(ctx context.Context, log Log, now time.Time) error {
	logRef := r.client.Collection(LogsCollection).Doc(log.ID)
	userRef := r.client.Collection(enrollment.UsersCollection).Doc(log.UserID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(logRef); err == nil {
			return ErrAlreadyCompleted
		} else if status.Code(err) != codes.NotFound {
			return err
		}

		userSnap, err := tx.Get(userRef)
		if status.Code(err) == codes.NotFound {
			return ErrNotEnrolled
		}
		if err != nil {
			return err
		}
		var current struct {
			CurrentDay int `firestore:"currentDay"`
		}
		if err := userSnap.DataTo(&current); err != nil {
			return fmt.Errorf("decode user: %w", err)
		}

		if err := tx.Create(logRef, log); err != nil {
			return err
		}

		updates := []firestore.Update{
			{Path: "completedDays", Value: firestore.ArrayUnion(log.Day)},
			{Path: "version", Value: firestore.Increment(1)},
			{Path: "updatedAt", Value: now},
		}
		if log.Day > current.CurrentDay {
			updates = append(updates, firestore.Update{Path: "currentDay", Value: log.Day})
		}
		return tx.Update(userRef, updates)
	})

	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrAlreadyCompleted), status.Code(err) == codes.AlreadyExists:
		return ErrAlreadyCompleted
	case errors.Is(err, ErrNotEnrolled):
		return ErrNotEnrolled
	default:
		return fmt.Errorf("complete day %d: %w", log.Day, err)
	}
}

func (r *firestoreRepository) Get(ctx context.Context, userID string, day int) (Log, error) {
	snap, err := r.client.Collection(LogsCollection).Doc(LogID(userID, day)).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return Log{}, ErrNotFound
	}
	if err != nil {
		return Log{}, err
	}
	return decodeLog(snap)
}

func (r *firestoreRepository) List(ctx context.Context, userID string, fromDay, toDay int) ([]Log, error) {
	iter := r.client.Collection(LogsCollection).
		Where("userId", "==", userID).
		Where("day", ">=", fromDay).
		Where("day", "<=", toDay).
		OrderBy("day", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	logs := make([]Log, 0)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		log, err := decodeLog(snap)
		if err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	return logs, nil
}

func decodeLog(snap *firestore.DocumentSnapshot) (Log, error) {
	var log Log
	if err := snap.DataTo(&log); err != nil {
		return Log{}, fmt.Errorf("decode diary entry: %w", err)
	}
	log.ID = snap.Ref.ID
	if log.Photos == nil {
		log.Photos = []string{}
	}
	return log, nil
}
