package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/aknedenik/akne-denik/shared-libs/enrollment"
	"github.com/aknedenik/akne-denik/shared-libs/envconfig"
	"github.com/aknedenik/akne-denik/shared-libs/firestoreutil"
	"github.com/aknedenik/akne-denik/shared-libs/logging"
	sharedserver "github.com/aknedenik/akne-denik/shared-libs/server"

	"github.com/aknedenik/akne-denik/webhook-service/internal/httpapi"
	"github.com/aknedenik/akne-denik/webhook-service/internal/payment"
)

type config struct {
	Port                string `validate:"required"`
	GCPProjectID        string `validate:"required_if=DataStore firestore"`
	DataStore           string `validate:"oneof=firestore memory"`
	StripeWebhookSecret string `validate:"required"`
	SubscriptionDays    int    `validate:"gt=0"`
	FirestoreDatabase   string
	FirestoreEmulator   string
}

func loadConfig() (config, error) {
	cfg := config{
		Port:                envconfig.Get("PORT", "8080"),
		GCPProjectID:        envconfig.Get("GCP_PROJECT_ID", ""),
		DataStore:           strings.ToLower(envconfig.Get("DATASTORE", "firestore")),
		StripeWebhookSecret: envconfig.Get("STRIPE_WEBHOOK_SECRET", ""),
		SubscriptionDays:    envconfig.GetInt("SUBSCRIPTION_DAYS", payment.DefaultSubscriptionDays),
		FirestoreDatabase:   envconfig.Get("FIRESTORE_DATABASE", ""),
		FirestoreEmulator:   envconfig.Get("FIRESTORE_EMULATOR_HOST", ""),
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

	logger := logging.NewLogger("webhook-service")

	repo, cleanup, err := newRepository(ctx, cfg)
	if err != nil {
		panic(fmt.Errorf("repository init error: %w", err))
	}
	defer cleanup()

	service, err := payment.NewService(payment.NewStripeVerifier(cfg.StripeWebhookSecret), repo,
		payment.NewSystemClock(), cfg.SubscriptionDays, logger)
	if err != nil {
		panic(fmt.Errorf("service init error: %w", err))
	}

	router := sharedserver.NewRouter("webhook-service", func(r chi.Router) {
		httpapi.RegisterRoutes(r, service, logger)
	})

	srv := sharedserver.NewHTTPServer(cfg.Port, router)
	if err := sharedserver.Run(ctx, srv, logger); err != nil && !errors.Is(err, http.ErrServerClosed) {
		panic(err)
	}
}

func newRepository(ctx context.Context, cfg config) (payment.Repository, func(), error) {
	if cfg.DataStore == "memory" {
		return payment.NewMemoryRepository(enrollment.NewMemoryStore()), func() {}, nil
	}
	client, err := firestoreutil.NewClient(ctx, firestoreutil.Config{
		ProjectID:    cfg.GCPProjectID,
		Database:     cfg.FirestoreDatabase,
		EmulatorHost: cfg.FirestoreEmulator,
	})
	if err != nil {
		return nil, nil, err
	}
	return payment.NewFirestoreRepository(client), func() { _ = client.Close() }, nil
}
