package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	sharedauth "github.com/aknedenik/akne-denik/shared-libs/auth"
	"github.com/aknedenik/akne-denik/shared-libs/enrollment"
	"github.com/aknedenik/akne-denik/shared-libs/envconfig"
	"github.com/aknedenik/akne-denik/shared-libs/firestoreutil"
	"github.com/aknedenik/akne-denik/shared-libs/logging"
	sharedserver "github.com/aknedenik/akne-denik/shared-libs/server"

	"github.com/aknedenik/akne-denik/chat-service/internal/chat"
	"github.com/aknedenik/akne-denik/chat-service/internal/config"
	"github.com/aknedenik/akne-denik/chat-service/internal/httpapi"
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

	logger := logging.NewLogger("chat-service")

	var (
		repo        chat.Repository
		enrollments enrollment.Reader
	)
	if cfg.DataStore == config.DataStoreFirestore {
		client, err := firestoreutil.NewClient(ctx, firestoreutil.Config{
			ProjectID:    cfg.GCPProjectID,
			Database:     cfg.Firestore.Database,
			EmulatorHost: cfg.Firestore.EmulatorHost,
		})
		if err != nil {
			panic(fmt.Errorf("firestore client: %w", err))
		}
		defer client.Close()
		repo = chat.NewFirestoreRepository(client)
		enrollments = enrollment.NewFirestoreReader(client)
	} else {
		repo = chat.NewMemoryRepository()
	}

	var assistant chat.Assistant
	if cfg.LLM.AutoReply {
		assistant, err = chat.NewGeminiAssistant(ctx, chat.AssistantConfig{
			APIKey:          cfg.LLM.APIKey,
			Model:           cfg.LLM.Model,
			MaxOutputTokens: cfg.LLM.MaxOutputTokens,
			UseVertex:       cfg.LLM.UseVertex,
			Project:         cfg.GCPProjectID,
			Location:        cfg.LLM.Location,
		})
		if err != nil {
			logger.Warn("falling back to template assistant", slog.String("reason", err.Error()))
			assistant = chat.NewTemplateAssistant()
		}
		defer assistant.Close()
	}

	chatService, err := chat.NewService(repo, assistant, enrollments, chat.NewSystemClock(), chat.Options{
		AutoReply:       cfg.LLM.AutoReply,
		ContextMessages: cfg.LLM.ContextMessages,
	}, logger)
	if err != nil {
		panic(fmt.Errorf("chat service init error: %w", err))
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

	router := sharedserver.NewRouter("chat-service", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(sharedauth.Middleware(verifier))
			httpapi.RegisterRoutes(r, chatService, logger)
		})
	})

	srv := sharedserver.NewHTTPServer(cfg.Port, router)
	if err := sharedserver.Run(ctx, srv, logger); err != nil && !errors.Is(err, http.ErrServerClosed) {
		panic(err)
	}
}
