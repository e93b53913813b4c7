package config

import (
	"fmt"
	"strings"

	sharedauth "github.com/aknedenik/akne-denik/shared-libs/auth"
	"github.com/aknedenik/akne-denik/shared-libs/envconfig"
)

// Config encapsulates the runtime configuration for the content service.
type Config struct {
	Port            string `validate:"required"`
	GCPProjectID    string
	DataStore       DataStore `validate:"required"`
	ProgramTimezone string
	Auth            AuthConfig
	Firestore       FirestoreConfig
}

// DataStore enumerates supported persistence backends.
type DataStore string

const (
	// DataStoreMemory stores daily content in-memory (useful for local development/testing).
	DataStoreMemory DataStore = "memory"
	// DataStoreFirestore stores entries in Google Cloud Firestore.
	DataStoreFirestore DataStore = "firestore"
)

// AuthConfig stores authentication middleware setup.
type AuthConfig struct {
	Mode    sharedauth.Mode `validate:"required"`
	JWKSURL string
}

// FirestoreConfig tailors Firestore client behavior.
type FirestoreConfig struct {
	Database     string
	EmulatorHost string
}

// Load reads environment variables into Config with validation.
func Load() (Config, error) {
	cfg := Config{
		Port:            envconfig.Get("PORT", "8080"),
		GCPProjectID:    envconfig.Get("GCP_PROJECT_ID", ""),
		DataStore:       DataStore(strings.ToLower(envconfig.Get("DATASTORE", string(DataStoreFirestore)))),
		ProgramTimezone: envconfig.Get("PROGRAM_TIMEZONE", "UTC"),
		Auth: AuthConfig{
			Mode:    sharedauth.Mode(strings.ToLower(envconfig.Get("AUTH_MODE", string(sharedauth.ModeGateway)))),
			JWKSURL: envconfig.Get("FIREBASE_JWKS_URL", sharedauth.DefaultFirebaseJWKSURL),
		},
		Firestore: FirestoreConfig{
			Database:     envconfig.Get("FIRESTORE_DATABASE", ""),
			EmulatorHost: envconfig.Get("FIRESTORE_EMULATOR_HOST", ""),
		},
	}

	if err := envconfig.Validate(cfg); err != nil {
		return Config{}, err
	}
	if cfg.DataStore != DataStoreMemory && cfg.DataStore != DataStoreFirestore {
		return Config{}, fmt.Errorf("unsupported datastore: %s", cfg.DataStore)
	}
	if cfg.DataStore == DataStoreFirestore && cfg.GCPProjectID == "" {
		return Config{}, fmt.Errorf("gcp project id required when datastore=firestore")
	}
	switch cfg.Auth.Mode {
	case sharedauth.ModeFirebase:
		if cfg.GCPProjectID == "" {
			return Config{}, fmt.Errorf("GCP_PROJECT_ID is required when AUTH_MODE=firebase")
		}
	case sharedauth.ModeGateway, sharedauth.ModeNoop:
	default:
		return Config{}, fmt.Errorf("unsupported auth mode: %s", cfg.Auth.Mode)
	}
	return cfg, nil
}
