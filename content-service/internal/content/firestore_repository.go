package content

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type firestoreRepository struct {
	client *firestore.Client
}

// NewFirestoreRepository creates a Repository backed by the dailyContent collection.
func NewFirestoreRepository(client *firestore.Client) Repository {
	return &firestoreRepository{client: client}
}

func (r *firestoreRepository) doc(day int) *firestore.DocumentRef {
	return r.client.Collection(Collection).Doc(DocID(day))
}

func (r *firestoreRepository) Get(ctx context.Context, day int) (DailyContent, error) {
	snap, err := r.doc(day).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return DailyContent{}, ErrNotFound
	}
	if err != nil {
		return DailyContent{}, err
	}
	var c DailyContent
	if err := snap.DataTo(&c); err != nil {
		return DailyContent{}, fmt.Errorf("decode content: %w", err)
	}
	return c, nil
}

func (r *firestoreRepository) List(ctx context.Context, fromDay, toDay int) ([]DailyContent, error) {
	iter := r.client.Collection(Collection).
		Where("day", ">=", fromDay).
		Where("day", "<=", toDay).
		OrderBy("day", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	out := make([]DailyContent, 0)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		var c DailyContent
		if err := snap.DataTo(&c); err != nil {
			return nil, fmt.Errorf("decode content %s: %w", snap.Ref.ID, err)
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *firestoreRepository) Upsert(ctx context.Context, c DailyContent) error {
	_, err := r.doc(c.Day).Set(ctx, c)
	return err
}

func (r *firestoreRepository) Delete(ctx context.Context, day int) error {
	_, err := r.doc(day).Delete(ctx, firestore.Exists)
	if status.Code(err) == codes.NotFound {
		return ErrNotFound
	}
	return err
}
