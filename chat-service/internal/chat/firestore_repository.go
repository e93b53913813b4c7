package chat

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
)

type firestoreRepository struct {
	client *firestore.Client
}

// NewFirestoreRepository creates a Repository backed by the messages collection.
func NewFirestoreRepository(client *firestore.Client) Repository {
	return &firestoreRepository{client: client}
}

func (r *firestoreRepository) Create(ctx context.Context, msg Message) error {
	_, err := r.client.Collection(Collection).Doc(msg.ID).Create(ctx, msg)
	return err
}

func (r *firestoreRepository) Thread(ctx context.Context, userID string, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 1
	}
	iter := r.client.Collection(Collection).
		Where("userId", "==", userID).
		OrderBy("createdAt", firestore.Desc).
		Limit(limit).
		Documents(ctx)
	defer iter.Stop()

	reversed := make([]Message, 0, limit)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		var message Message
		if err := doc.DataTo(&message); err != nil {
			return nil, fmt.Errorf("unmarshal message: %w", err)
		}
		message.ID = doc.Ref.ID
		reversed = append(reversed, message)
	}

	for i, j := 0, len(reversed)-1; i < j; i, j = i+1, j-1 {
		reversed[i], reversed[j] = reversed[j], reversed[i]
	}
	return reversed, nil
}
