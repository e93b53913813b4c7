package reminder

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/aknedenik/akne-denik/shared-libs/enrollment"
)

type firestoreSource struct {
	client *firestore.Client
}

// NewFirestoreSource queries users by their notification settings.
func NewFirestoreSource(client *firestore.Client) Source {
	return &firestoreSource{client: client}
}

func (s *firestoreSource) DueAt(ctx context.Context, hhmm string) ([]enrollment.Enrollment, error) {
	iter := s.client.Collection(enrollment.UsersCollection).
		Where("settings.notificationsEnabled", "==", true).
		Where("settings.reminderTime", "==", hhmm).
		Documents(ctx)
	defer iter.Stop()

	out := make([]enrollment.Enrollment, 0)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		var e enrollment.Enrollment
		if err := snap.DataTo(&e); err != nil {
			return nil, fmt.Errorf("decode user %s: %w", snap.Ref.ID, err)
		}
		e.UserID = snap.Ref.ID
		out = append(out, e)
	}
	return out, nil
}

type memorySource struct {
	store *enrollment.MemoryStore
}

// NewMemorySource filters an in-memory enrollment store; intended for local development and tests.
func NewMemorySource(store *enrollment.MemoryStore) Source {
	return &memorySource{store: store}
}

func (s *memorySource) DueAt(_ context.Context, hhmm string) ([]enrollment.Enrollment, error) {
	out := make([]enrollment.Enrollment, 0)
	for _, e := range s.store.All() {
		if e.Settings.NotificationsEnabled && e.Settings.ReminderTime == hhmm {
			out = append(out, e)
		}
	}
	return out, nil
}
