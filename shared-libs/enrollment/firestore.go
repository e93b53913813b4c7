package enrollment

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type firestoreReader struct {
	client *firestore.Client
}

// NewFirestoreReader reads enrollments from the users collection.
func NewFirestoreReader(client *firestore.Client) Reader {
	return &firestoreReader{client: client}
}

func (r *firestoreReader) Get(ctx context.Context, userID string) (Enrollment, error) {
	doc, err := r.client.Collection(UsersCollection).Doc(userID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return Enrollment{}, ErrNotFound
	}
	if err != nil {
		return Enrollment{}, err
	}

	var e Enrollment
	if err := doc.DataTo(&e); err != nil {
		return Enrollment{}, fmt.Errorf("decode enrollment: %w", err)
	}
	e.UserID = userID
	return e, nil
}
