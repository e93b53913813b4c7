package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	sharedauth "github.com/aknedenik/akne-denik/shared-libs/auth"
	"github.com/aknedenik/akne-denik/shared-libs/envconfig"
	"github.com/aknedenik/akne-denik/shared-libs/firestoreutil"
	"github.com/aknedenik/akne-denik/shared-libs/logging"
	"github.com/aknedenik/akne-denik/shared-libs/program"
	sharedserver "github.com/aknedenik/akne-denik/shared-libs/server"

	"github.com/aknedenik/akne-denik/user-service/internal/config"
	"github.com/aknedenik/akne-denik/user-service/internal/httpapi"
	"github.com/aknedenik/akne-denik/user-service/internal/user"
)

func main() {
	ctx := context.Background()
	if err := envconfig.LoadDotEnv(); err != nil {
		panic(err)
	}
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Errorf("config error: %w", err))
	}

	logger := logging.NewLogger("user-service")

	policy, err := program.NewPolicy(cfg.ProgramTimezone)
	if err != nil {
		panic(fmt.Errorf("program timezone: %w", err))
	}

	repo, cleanup, err := newRepository(ctx, cfg)
	if err != nil {
		panic(fmt.Errorf("repository init error: %w", err))
	}
	defer cleanup()

	userService, err := user.NewService(repo, user.NewSystemClock(), policy)
	if err != nil {
		panic(fmt.Errorf("user service init error: %w", err))
	}

	verifier, err := sharedauth.NewVerifier(sharedauth.Config{
		Mode:      cfg.Auth.Mode,
		ProjectID: cfg.GCPProjectID,
		JWKSURL:   cfg.Auth.JWKSURL,
		Logger:    logger,
	})
	if err != nil {
		panic(fmt.Errorf("auth verifier error: %w", err))
	}

	router := sharedserver.NewRouter("user-service", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(sharedauth.Middleware(verifier))
			httpapi.RegisterRoutes(r, userService, logger)
		})
	})

	srv := sharedserver.NewHTTPServer(cfg.Port, router)
	if err := sharedserver.Run(ctx, srv, logger); err != nil && !errors.Is(err, http.ErrServerClosed) {
		panic(err)
	}
}

func newRepository(ctx context.Context, cfg config.Config) (user.Repository, func(), error) {
	switch cfg.DataStore {
	case config.DataStoreFirestore:
		client, err := firestoreutil.NewClient(ctx, firestoreutil.Config{
			ProjectID:    cfg.GCPProjectID,
			Database:     cfg.Firestore.Database,
			EmulatorHost: cfg.Firestore.EmulatorHost,
		})
		if err != nil {
			return nil, nil, err
		}
		return user.NewFirestoreRepository(client), func() { _ = client.Close() }, nil
	default:
		return user.NewMemoryRepository(), func() {}, nil
	}
}
