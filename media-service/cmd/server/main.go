package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	sharedauth "github.com/aknedenik/akne-denik/shared-libs/auth"
	"github.com/aknedenik/akne-denik/shared-libs/envconfig"
	"github.com/aknedenik/akne-denik/shared-libs/logging"
	sharedserver "github.com/aknedenik/akne-denik/shared-libs/server"

	"github.com/aknedenik/akne-denik/media-service/internal/httpapi"
	"github.com/aknedenik/akne-denik/media-service/internal/storage"
)

type config struct {
	Port         string `validate:"required"`
	GCPProjectID string
	Backend      string          `validate:"oneof=gcs memory"`
	BucketName   string          `validate:"required_if=Backend gcs"`
	URLTTL       time.Duration   `validate:"gt=0"`
	AuthMode     sharedauth.Mode `validate:"oneof=firebase gateway noop"`
	JWKSURL      string
}

func loadConfig() (config, error) {
	cfg := config{
		Port:         envconfig.Get("PORT", "8080"),
		GCPProjectID: envconfig.Get("GCP_PROJECT_ID", ""),
		Backend:      strings.ToLower(envconfig.Get("STORAGE_BACKEND", "gcs")),
		BucketName:   envconfig.Get("BUCKET_NAME", ""),
		URLTTL:       envconfig.GetDuration("SIGNED_URL_TTL", storage.DefaultURLTTL),
		AuthMode:     sharedauth.Mode(strings.ToLower(envconfig.Get("AUTH_MODE", string(sharedauth.ModeGateway)))),
		JWKSURL:      envconfig.Get("FIREBASE_JWKS_URL", sharedauth.DefaultFirebaseJWKSURL),
	}
	return cfg, envconfig.Validate(cfg)
}

func main() {
	ctx := context.Background()
	if err := envconfig.LoadDotEnv(); err != nil {
		panic(err)
	}
	cfg, err := loadConfig()
	if err != nil {
		panic(fmt.Errorf("config error: %w", err))
	}

	logger := logging.NewLogger("media-service")

	var (
		store   storage.ObjectStore = storage.NewMemoryStore()
		cleanup                     = func() error { return nil }
	)
	if cfg.Backend == "gcs" {
		store, cleanup, err = storage.NewGCSStore(ctx, cfg.BucketName)
		if err != nil {
			panic(fmt.Errorf("storage init error: %w", err))
		}
	}
	defer func() { _ = cleanup() }()

	storageService, err := storage.NewService(store, storage.NewSystemClock(), cfg.URLTTL)
	if err != nil {
		panic(fmt.Errorf("storage service init error: %w", err))
	}

	verifier, err := sharedauth.NewVerifier(sharedauth.Config{
		Mode:      cfg.AuthMode,
		ProjectID: cfg.GCPProjectID,
		JWKSURL:   cfg.JWKSURL,
		Logger:    logger,
	})
	if err != nil {
		panic(fmt.Errorf("auth verifier error: %w", err))
	}

	router := sharedserver.NewRouter("media-service", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(sharedauth.Middleware(verifier))
			httpapi.RegisterRoutes(r, storageService, logger)
		})
	})

	srv := sharedserver.NewHTTPServer(cfg.Port, router)
	if err := sharedserver.Run(ctx, srv, logger); err != nil && !errors.Is(err, http.ErrServerClosed) {
		panic(err)
	}
}
