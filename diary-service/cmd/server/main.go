package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	sharedauth "github.com/aknedenik/akne-denik/shared-libs/auth"
	"github.com/aknedenik/akne-denik/shared-libs/enrollment"
	"github.com/aknedenik/akne-denik/shared-libs/envconfig"
	"github.com/aknedenik/akne-denik/shared-libs/firestoreutil"
	"github.com/aknedenik/akne-denik/shared-libs/logging"
	"github.com/aknedenik/akne-denik/shared-libs/program"
	sharedserver "github.com/aknedenik/akne-denik/shared-libs/server"

	"github.com/aknedenik/akne-denik/diary-service/internal/config"
	"github.com/aknedenik/akne-denik/diary-service/internal/diary"
	"github.com/aknedenik/akne-denik/diary-service/internal/httpapi"
	"github.com/aknedenik/akne-denik/diary-service/internal/progress"
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

	logger := logging.NewLogger("diary-service")

	policy, err := program.NewPolicy(cfg.ProgramTimezone)
	if err != nil {
		panic(fmt.Errorf("program timezone: %w", err))
	}

	repo, enrollments, cleanup, err := newRepositories(ctx, cfg)
	if err != nil {
		panic(fmt.Errorf("repository init error: %w", err))
	}
	defer cleanup()

	clock := diary.NewSystemClock()
	diaryService, err := diary.NewService(repo, enrollments, clock, policy)
	if err != nil {
		panic(fmt.Errorf("diary service init error: %w", err))
	}
	progressService, err := progress.NewService(repo, enrollments, clock, policy)
	if err != nil {
		panic(fmt.Errorf("progress service init error: %w", err))
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

	router := sharedserver.NewRouter("diary-service", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(sharedauth.Middleware(verifier))
			httpapi.RegisterRoutes(r, diaryService, progressService, logger)
		})
	})

	srv := sharedserver.NewHTTPServer(cfg.Port, router)
	if err := sharedserver.Run(ctx, srv, logger); err != nil && !errors.Is(err, http.ErrServerClosed) {
		panic(err)
	}
}

func newRepositories(ctx context.Context, cfg config.Config) (diary.Repository, enrollment.Reader, func(), error) {
	switch cfg.DataStore {
	case config.DataStoreFirestore:
		client, err := firestoreutil.NewClient(ctx, firestoreutil.Config{
			ProjectID:    cfg.GCPProjectID,
			Database:     cfg.Firestore.Database,
			EmulatorHost: cfg.Firestore.EmulatorHost,
		})
		if err != nil {
			return nil, nil, nil, err
		}
		cleanup := func() {
			_ = client.Close()
		}
		return diary.NewFirestoreRepository(client), enrollment.NewFirestoreReader(client), cleanup, nil
	default:
		store := enrollment.NewMemoryStore()
		return diary.NewMemoryRepository(store), store, func() {}, nil
	}
}
