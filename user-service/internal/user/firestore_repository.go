package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/aknedenik/akne-denik/shared-libs/enrollment"
)

type firestoreRepository struct {
	client *firestore.Client
}

// NewFirestoreRepository stores profiles in the users collection.
func NewFirestoreRepository(client *firestore.Client) Repository {
	return &firestoreRepository{client: client}
}

func (r *firestoreRepository) doc(userID string) *firestore.DocumentRef {
	return r.client.Collection(enrollment.UsersCollection).Doc(userID)
}

func (r *firestoreRepository) Get(ctx context.Context, userID string) (Profile, error) {
	snap, err := r.doc(userID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, err
	}
	return decodeProfile(snap)
}

func (r *firestoreRepository) Create(ctx context.Context, profile Profile) error {
	_, err := r.doc(profile.UserID).Create(ctx, profile)
	if status.Code(err) == codes.AlreadyExists {
		return ErrConflict
	}
	return err
}

func (r *firestoreRepository) UpdateSettings(ctx context.Context, userID string, patch SettingsPatch, now time.Time) (Profile, error) {
	var updates []firestore.Update
	if patch.NotificationsEnabled != nil {
		updates = append(updates, firestore.Update{Path: "settings.notificationsEnabled", Value: *patch.NotificationsEnabled})
	}
	if patch.ReminderTime != nil {
		updates = append(updates, firestore.Update{Path: "settings.reminderTime", Value: *patch.ReminderTime})
	}
	if patch.Language != nil {
		updates = append(updates, firestore.Update{Path: "settings.language", Value: *patch.Language})
	}
	if patch.PushToken != nil {
		updates = append(updates, firestore.Update{Path: "settings.pushToken", Value: *patch.PushToken})
	}

	return r.mutate(ctx, userID, now, updates, func(p *Profile) error {
		p.Settings = patch.Apply(p.Settings)
		return nil
	})
}

func (r *firestoreRepository) SaveOnboarding(ctx context.Context, userID string, onboarding Onboarding, now time.Time) (Profile, error) {
	updates := []firestore.Update{{Path: "onboarding", Value: onboarding}}
	return r.mutate(ctx, userID, now, updates, func(p *Profile) error {
		p.Onboarding = &onboarding
		return nil
	})
}

func (r *firestoreRepository) ExtendTrial(ctx context.Context, userID string, days int, now time.Time) (Profile, error) {
	updates := []firestore.Update{{Path: "trialExtendedDays", Value: days}}
	return r.mutate(ctx, userID, now, updates, func(p *Profile) error {
		if p.TrialExtendedDays > 0 {
			return ErrAlreadyExtended
		}
		p.TrialExtendedDays = days
		return nil
	})
}

// mutate reads the profile, lets check reject or adjust it, and writes updates together
// with a version bump inside one transaction.
func (r *firestoreRepository) mutate(ctx context.Context, userID string, now time.Time, updates []firestore.Update, check func(*Profile) error) (Profile, error) {
	ref := r.doc(userID)
	var result Profile

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		profile, err := decodeProfile(snap)
		if err != nil {
			return err
		}
		if err := check(&profile); err != nil {
			return err
		}

		profile.Version++
		profile.UpdatedAt = now
		result = profile

		all := append([]firestore.Update{
			{Path: "version", Value: firestore.Increment(1)},
			{Path: "updatedAt", Value: now},
		}, updates...)
		return tx.Update(ref, all)
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrAlreadyExtended) {
			return Profile{}, err
		}
		return Profile{}, fmt.Errorf("update profile: %w", err)
	}
	return result, nil
}

func decodeProfile(snap *firestore.DocumentSnapshot) (Profile, error) {
	var p Profile
	if err := snap.DataTo(&p); err != nil {
		return Profile{}, fmt.Errorf("decode profile: %w", err)
	}
	p.UserID = snap.Ref.ID
	return p, nil
}
