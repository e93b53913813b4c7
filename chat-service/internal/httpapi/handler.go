package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	sharedauth "github.com/aknedenik/akne-denik/shared-libs/auth"
	"github.com/aknedenik/akne-denik/shared-libs/dto"
	sharederrors "github.com/aknedenik/akne-denik/shared-libs/errors"
	"github.com/aknedenik/akne-denik/shared-libs/logging"

	"github.com/aknedenik/akne-denik/chat-service/internal/chat"
)

const (
	// assistant replies can take a while
	serviceTimeout = 45 * time.Second
	maxBodyBytes   = 16 * 1024
)

type messageRequest struct {
	Text string `json:"text"`
}

// RegisterRoutes registers all chat routes.
func RegisterRoutes(r chi.Router, service *chat.Service, logger *slog.Logger) {
	r.Route("/v1/chat/messages", func(r chi.Router) {
		r.Get("/", getThread(service, logger))
		r.Post("/", sendMessage(service, logger))
	})
	r.Route("/v1/admin/chat/threads/{userId}/messages", func(r chi.Router) {
		r.Use(sharedauth.RequireAdmin)
		r.Get("/", getUserThread(service, logger))
		r.Post("/", coachReply(service, logger))
	})
}

func getThread(service *chat.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sharedauth.UserFromContext(r.Context())
		if !ok {
			writeError(w, r, http.StatusUnauthorized, sharederrors.CodeUnauthorized, "missing user ID")
			return
		}
		writeThread(w, r, service, logger, session.UserID, session.UserID)
	}
}

func getUserThread(service *chat.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, _ := sharedauth.UserFromContext(r.Context())
		writeThread(w, r, service, logger, chi.URLParam(r, "userId"), session.UserID)
	}
}

func writeThread(w http.ResponseWriter, r *http.Request, service *chat.Service, logger *slog.Logger, ownerID, callerID string) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			writeError(w, r, http.StatusBadRequest, sharederrors.CodeBadRequest, "limit must be a positive integer")
			return
		}
		limit = v
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	messages, err := service.Thread(ctx, ownerID, limit)
	if err != nil {
		respondServiceError(w, r, logger, "failed to load messages", err, callerID)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewList(messages))
}

func sendMessage(service *chat.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sharedauth.UserFromContext(r.Context())
		if !ok {
			writeError(w, r, http.StatusUnauthorized, sharederrors.CodeUnauthorized, "missing user ID")
			return
		}
		req, ok := decodeMessage(w, r)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
		defer cancel()

		res, err := service.Send(ctx, session.UserID, req.Text)
		if err != nil {
			respondServiceError(w, r, logger, "failed to send message", err, session.UserID)
			return
		}
		writeJSON(w, http.StatusCreated, res)
	}
}

func coachReply(service *chat.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, _ := sharedauth.UserFromContext(r.Context())
		req, ok := decodeMessage(w, r)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
		defer cancel()

		userID := chi.URLParam(r, "userId")
		msg, err := service.CoachReply(ctx, session.UserID, userID, req.Text)
		if err != nil {
			respondServiceError(w, r, logger, "failed to send coach reply", err, session.UserID)
			return
		}
		logger.Info("coach replied", slog.String("coachId", session.UserID), slog.String("userId", userID))
		writeJSON(w, http.StatusCreated, msg)
	}
}

func decodeMessage(w http.ResponseWriter, r *http.Request) (messageRequest, bool) {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	var req messageRequest
	if err := decoder.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, sharederrors.CodeBadRequest, "invalid JSON payload")
		return messageRequest{}, false
	}
	return req, true
}

func respondServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, message string, err error, userID string) {
	switch {
	case errors.Is(err, chat.ErrEmptyMessage), errors.Is(err, chat.ErrMessageTooLong), errors.Is(err, chat.ErrMissingUserID):
		writeError(w, r, http.StatusBadRequest, sharederrors.CodeBadRequest, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		logging.RequestError(r.Context(), logger, message, err, userID)
		writeError(w, r, http.StatusServiceUnavailable, sharederrors.CodeUnavailable, "request timed out")
	default:
		logging.RequestError(r.Context(), logger, message, err, userID)
		writeError(w, r, http.StatusInternalServerError, sharederrors.CodeInternal, message)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	sharederrors.Write(w, r, status, code, message)
}
