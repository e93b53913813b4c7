package config

import (
	"fmt"
	"net/url"
	"strings"

	sharedauth "github.com/aknedenik/akne-denik/shared-libs/auth"
	"github.com/aknedenik/akne-denik/shared-libs/envconfig"
)

// Config encapsulates the runtime configuration for the gateway.
type Config struct {
	Port            string `validate:"required"`
	GCPProjectID    string
	DataStore       DataStore `validate:"required"`
	ProgramTimezone string
	Auth            AuthConfig
	Firestore       FirestoreConfig
	Upstreams       Upstreams
	// UpstreamIDTokens attaches Google ID tokens to upstream calls (Cloud Run service-to-service).
	UpstreamIDTokens bool
	Stripe           StripeConfig
}

// DataStore enumerates where enrollments are read from for access gating.
type DataStore string

const (
	DataStoreMemory    DataStore = "memory"
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

// Upstreams holds the origin of every proxied service.
type Upstreams struct {
	User    *url.URL
	Diary   *url.URL
	Media   *url.URL
	Content *url.URL
	Chat    *url.URL
}

// StripeConfig configures program payments. Billing is disabled without a secret key.
type StripeConfig struct {
	SecretKey string
	Amount    int64
	Currency  string
}

// Enabled reports whether the billing route should be mounted.
func (s StripeConfig) Enabled() bool { return s.SecretKey != "" }

// Load reads environment variables into Config with validation.
func Load() (Config, error) {
	cfg := Config{
		Port:            envconfig.Get("PORT", "8080"),
		GCPProjectID:    envconfig.Get("GCP_PROJECT_ID", ""),
		DataStore:       DataStore(strings.ToLower(envconfig.Get("DATASTORE", string(DataStoreFirestore)))),
		ProgramTimezone: envconfig.Get("PROGRAM_TIMEZONE", "UTC"),
		Auth: AuthConfig{
			Mode:    sharedauth.Mode(strings.ToLower(envconfig.Get("AUTH_MODE", string(sharedauth.ModeFirebase)))),
			JWKSURL: envconfig.Get("FIREBASE_JWKS_URL", sharedauth.DefaultFirebaseJWKSURL),
		},
		Firestore: FirestoreConfig{
			Database:     envconfig.Get("FIRESTORE_DATABASE", ""),
			EmulatorHost: envconfig.Get("FIRESTORE_EMULATOR_HOST", ""),
		},
		UpstreamIDTokens: envconfig.GetBool("UPSTREAM_ID_TOKENS", false),
		Stripe: StripeConfig{
			SecretKey: envconfig.Get("STRIPE_SECRET_KEY", ""),
			Amount:    int64(envconfig.GetInt("PROGRAM_PRICE", 49900)),
			Currency:  strings.ToLower(envconfig.Get("PROGRAM_CURRENCY", "czk")),
		},
	}

	upstreams := []struct {
		env  string
		def  string
		dest **url.URL
	}{
		{"USER_URL", "http://user-service:8080", &cfg.Upstreams.User},
		{"DIARY_URL", "http://diary-service:8080", &cfg.Upstreams.Diary},
		{"MEDIA_URL", "http://media-service:8080", &cfg.Upstreams.Media},
		{"CONTENT_URL", "http://content-service:8080", &cfg.Upstreams.Content},
		{"CHAT_URL", "http://chat-service:8080", &cfg.Upstreams.Chat},
	}
	for _, u := range upstreams {
		parsed, err := ParseURLCompat(envconfig.Get(u.env, u.def))
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", u.env, err)
		}
		*u.dest = parsed
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
	case sharedauth.ModeNoop:
	default:
		// Gateway mode trusts forwarded headers and is never valid at the edge.
		return Config{}, fmt.Errorf("unsupported auth mode: %s", cfg.Auth.Mode)
	}
	if cfg.Stripe.Enabled() && cfg.Stripe.Amount <= 0 {
		return Config{}, fmt.Errorf("PROGRAM_PRICE must be positive")
	}
	return cfg, nil
}

// ParseURLCompat parses a required absolute URL from env.
// It is intentionally strict (requires scheme + host).
func ParseURLCompat(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("missing url")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid url: %s", raw)
	}
	return u, nil
}
