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
	"github.com/aknedenik/akne-denik/shared-libs/enrollment"
	"github.com/aknedenik/akne-denik/shared-libs/envconfig"
	"github.com/aknedenik/akne-denik/shared-libs/firestoreutil"
	"github.com/aknedenik/akne-denik/shared-libs/logging"
	"github.com/aknedenik/akne-denik/shared-libs/program"
	sharedserver "github.com/aknedenik/akne-denik/shared-libs/server"

	"github.com/aknedenik/akne-denik/notification-service/internal/httpapi"
	"github.com/aknedenik/akne-denik/notification-service/internal/push"
	"github.com/aknedenik/akne-denik/notification-service/internal/reminder"
)

type config struct {
	Port              string `validate:"required"`
	GCPProjectID      string `validate:"required_if=DataStore firestore"`
	DataStore         string `validate:"oneof=firestore memory"`
	AuthMode          string `validate:"oneof=gateway noop"`
	ProgramTimezone   string
	ReminderTimezone  string
	ExpoEndpoint      string `validate:"omitempty,url"`
	ExpoAccessToken   string
	ReminderInterval  time.Duration `validate:"gte=0"`
	SendConcurrency   int           `validate:"gt=0"`
	FirestoreDatabase string
	FirestoreEmulator string
}

func loadConfig() (config, error) {
	cfg := config{
		Port:              envconfig.Get("PORT", "8080"),
		GCPProjectID:      envconfig.Get("GCP_PROJECT_ID", ""),
		DataStore:         strings.ToLower(envconfig.Get("DATASTORE", "firestore")),
		AuthMode:          strings.ToLower(envconfig.Get("AUTH_MODE", string(sharedauth.ModeGateway))),
		ProgramTimezone:   envconfig.Get("PROGRAM_TIMEZONE", "UTC"),
		ReminderTimezone:  envconfig.Get("REMINDER_TIMEZONE", "Europe/Prague"),
		ExpoEndpoint:      envconfig.Get("EXPO_PUSH_URL", push.DefaultEndpoint),
		ExpoAccessToken:   envconfig.Get("EXPO_ACCESS_TOKEN", ""),
		ReminderInterval:  envconfig.GetDuration("REMINDER_INTERVAL", 0),
		SendConcurrency:   envconfig.GetInt("PUSH_CONCURRENCY", 4),
		FirestoreDatabase: envconfig.Get("FIRESTORE_DATABASE", ""),
		FirestoreEmulator: envconfig.Get("FIRESTORE_EMULATOR_HOST", ""),
	}
	return cfg, envconfig.Validate(cfg)
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := envconfig.LoadDotEnv(); err != nil {
		panic(err)
	}
	cfg, err := loadConfig()
	if err != nil {
		panic(fmt.Errorf("config error: %w", err))
	}

	logger := logging.NewLogger("notification-service")

	policy, err := program.NewPolicy(cfg.ProgramTimezone)
	if err != nil {
		panic(fmt.Errorf("program timezone: %w", err))
	}

	slotZone, err := time.LoadLocation(cfg.ReminderTimezone)
	if err != nil {
		panic(fmt.Errorf("reminder timezone: %w", err))
	}

	source, cleanup, err := newSource(ctx, cfg)
	if err != nil {
		panic(fmt.Errorf("source init error: %w", err))
	}
	defer cleanup()

	dispatcher, err := reminder.NewDispatcher(source, push.NewClient(cfg.ExpoEndpoint, cfg.ExpoAccessToken),
		reminder.NewSystemClock(), policy, slotZone, cfg.SendConcurrency, logger)
	if err != nil {
		panic(fmt.Errorf("dispatcher init error: %w", err))
	}

	// With an interval the service schedules itself; otherwise Cloud Scheduler calls the endpoint.
	if cfg.ReminderInterval > 0 {
		go dispatcher.Run(ctx, cfg.ReminderInterval)
	}

	verifier, err := sharedauth.NewVerifier(sharedauth.Config{Mode: sharedauth.Mode(cfg.AuthMode), Logger: logger})
	if err != nil {
		panic(fmt.Errorf("auth verifier error: %w", err))
	}

	router := sharedserver.NewRouter("notification-service", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(sharedauth.Middleware(verifier))
			httpapi.RegisterRoutes(r, dispatcher, logger)
		})
	})

	srv := sharedserver.NewHTTPServer(cfg.Port, router)
	if err := sharedserver.Run(ctx, srv, logger); err != nil && !errors.Is(err, http.ErrServerClosed) {
		panic(err)
	}
}

func newSource(ctx context.Context, cfg config) (reminder.Source, func(), error) {
	if cfg.DataStore == "memory" {
		return reminder.NewMemorySource(enrollment.NewMemoryStore()), func() {}, nil
	}
	client, err := firestoreutil.NewClient(ctx, firestoreutil.Config{
		ProjectID:    cfg.GCPProjectID,
		Database:     cfg.FirestoreDatabase,
		EmulatorHost: cfg.FirestoreEmulator,
	})
	if err != nil {
		return nil, nil, err
	}
	return reminder.NewFirestoreSource(client), func() { _ = client.Close() }, nil
}
