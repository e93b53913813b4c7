package config

import (
	"fmt"
	"strings"

	sharedauth "github.com/aknedenik/akne-denik/shared-libs/auth"
	"github.com/aknedenik/akne-denik/shared-libs/envconfig"
)

// Config encapsulates the runtime configuration for the chat service.
type Config struct {
	Port         string
	GCPProjectID string
	DataStore    DataStore
	Auth         AuthConfig
	Firestore    FirestoreConfig
	LLM          LLMConfig
}

// DataStore enumerates supported persistence backends.
type DataStore string

const (
	// DataStoreMemory keeps messages in-memory (useful for local development/testing).
	DataStoreMemory DataStore = "memory"
	// DataStoreFirestore stores messages in Google Cloud Firestore.
	DataStoreFirestore DataStore = "firestore"
)

// AuthConfig stores authentication middleware setup.
type AuthConfig struct {
	Mode    sharedauth.Mode
	JWKSURL string
}

// FirestoreConfig tailors Firestore client behavior.
type FirestoreConfig struct {
	Database     string
	EmulatorHost string
}

// LLMConfig defines how automatic coach replies are generated.
type LLMConfig struct {
	AutoReply       bool
	APIKey          string
	Model           string
	ContextMessages int
	MaxOutputTokens int
	UseVertex       bool
	Location        string
}

// Load reads environment variables into Config with validation.
func Load() (Config, error) {
	cfg := Config{
		Port:         envconfig.Get("PORT", "8080"),
		GCPProjectID: envconfig.Get("GCP_PROJECT_ID", ""),
		DataStore:    DataStore(strings.ToLower(envconfig.Get("DATASTORE", string(DataStoreFirestore)))),
		Auth: AuthConfig{
			Mode:    sharedauth.Mode(strings.ToLower(envconfig.Get("AUTH_MODE", string(sharedauth.ModeGateway)))),
			JWKSURL: envconfig.Get("FIREBASE_JWKS_URL", sharedauth.DefaultFirebaseJWKSURL),
		},
		Firestore: FirestoreConfig{
			Database:     envconfig.Get("FIRESTORE_DATABASE", ""),
			EmulatorHost: envconfig.Get("FIRESTORE_EMULATOR_HOST", ""),
		},
		LLM: LLMConfig{
			AutoReply:       envconfig.GetBool("CHAT_AUTO_REPLY", false),
			APIKey:          resolveAPIKey(),
			Model:           envconfig.Get("GEMINI_MODEL", "gemini-2.5-flash"),
			ContextMessages: envconfig.GetInt("CHAT_CONTEXT_MESSAGES", 16),
			MaxOutputTokens: envconfig.GetInt("CHAT_MAX_OUTPUT_TOKENS", 512),
			UseVertex:       envconfig.GetBool("GOOGLE_GENAI_USE_VERTEXAI", false),
			Location:        envconfig.Get("GOOGLE_CLOUD_LOCATION", ""),
		},
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func validate(cfg Config) error {
	if strings.TrimSpace(cfg.Port) == "" {
		return fmt.Errorf("port must be specified")
	}

	switch cfg.DataStore {
	case DataStoreMemory:
		// no-op
	case DataStoreFirestore:
		if cfg.GCPProjectID == "" {
			return fmt.Errorf("gcp project id required when datastore=firestore")
		}
	default:
		return fmt.Errorf("unsupported datastore: %s", cfg.DataStore)
	}

	switch cfg.Auth.Mode {
	case sharedauth.ModeFirebase:
		if cfg.GCPProjectID == "" {
			return fmt.Errorf("GCP_PROJECT_ID is required when AUTH_MODE=firebase")
		}
	case sharedauth.ModeGateway, sharedauth.ModeNoop:
		// no-op
	default:
		return fmt.Errorf("unsupported auth mode: %s", cfg.Auth.Mode)
	}

	if cfg.LLM.ContextMessages <= 0 {
		return fmt.Errorf("CHAT_CONTEXT_MESSAGES must be > 0")
	}
	if cfg.LLM.MaxOutputTokens <= 0 {
		return fmt.Errorf("CHAT_MAX_OUTPUT_TOKENS must be > 0")
	}
	if cfg.LLM.UseVertex && strings.TrimSpace(cfg.LLM.Location) == "" {
		return fmt.Errorf("GOOGLE_CLOUD_LOCATION is required when GOOGLE_GENAI_USE_VERTEXAI=true")
	}

	return nil
}

func resolveAPIKey() string {
	if apiKey := envconfig.Get("GEMINI_API_KEY", ""); strings.TrimSpace(apiKey) != "" {
		return apiKey
	}
	return envconfig.Get("GOOGLE_API_KEY", "")
}
