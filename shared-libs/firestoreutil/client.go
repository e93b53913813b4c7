// Package firestoreutil opens Firestore clients the same way in every service.
package firestoreutil

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
)

// Config selects the project, named database and optional emulator.
type Config struct {
	ProjectID    string
	Database     string
	EmulatorHost string
}

// NewClient opens a client, pointing it at the emulator when one is configured.
// The emulator only serves the default database.
func NewClient(ctx context.Context, cfg Config) (*firestore.Client, error) {
	database := cfg.Database
	if database == "" {
		database = firestore.DefaultDatabaseID
	}
	if cfg.EmulatorHost != "" {
		if err := os.Setenv("FIRESTORE_EMULATOR_HOST", cfg.EmulatorHost); err != nil {
			return nil, fmt.Errorf("set FIRESTORE_EMULATOR_HOST: %w", err)
		}
		database = firestore.DefaultDatabaseID
	}

	client, err := firestore.NewClientWithDatabase(ctx, cfg.ProjectID, database)
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}
	return client, nil
}
