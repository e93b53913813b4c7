package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	sharedauth "github.com/aknedenik/akne-denik/shared-libs/auth"
	"github.com/aknedenik/akne-denik/shared-libs/dto"
	sharederrors "github.com/aknedenik/akne-denik/shared-libs/errors"
	"github.com/aknedenik/akne-denik/shared-libs/logging"

	"github.com/aknedenik/akne-denik/diary-service/internal/diary"
	"github.com/aknedenik/akne-denik/diary-service/internal/progress"
)

const (
	serviceTimeout        = 10 * time.Second
	maxCreatePayloadBytes = 64 * 1024
	codeAlreadyCompleted  = "already_completed"
)

type handler struct {
	diary    *diary.Service
	progress *progress.Service
	logger   *slog.Logger
}

type completeRequest struct {
	Mood       int      `json:"mood"`
	SkinRating int      `json:"skinRating"`
	Note       string   `json:"note"`
	Photos     []string `json:"photos"`
}

// RegisterRoutes registers the diary and progress routes.
func RegisterRoutes(r chi.Router, diarySvc *diary.Service, progressSvc *progress.Service, logger *slog.Logger) {
	h := &handler{diary: diarySvc, progress: progressSvc, logger: logger}
	r.Route("/v1/logs", func(r chi.Router) {
		r.Get("/", h.listLogs)
		r.Post("/", h.completeDay)
		r.Get("/{day}", h.getLog)
	})
	r.Get("/v1/progress", h.getProgress)
}

func (h *handler) completeDay(w http.ResponseWriter, r *http.Request) {
	session, ok := sharedauth.UserFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, sharederrors.CodeUnauthorized, "missing user ID")
		return
	}

	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCreatePayloadBytes))
	decoder.DisallowUnknownFields()
	var req completeRequest
	if err := decoder.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, sharederrors.CodeBadRequest, "invalid JSON payload")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	res, err := h.diary.Complete(ctx, diary.CompleteInput{
		UserID:     session.UserID,
		Mood:       req.Mood,
		SkinRating: req.SkinRating,
		Note:       req.Note,
		Photos:     req.Photos,
	})
	if err != nil {
		h.respondServiceError(w, r, "failed to complete day", err, session.UserID)
		return
	}
	h.logger.Info("day completed",
		slog.String("userId", session.UserID),
		slog.Int("day", res.ProgramDay),
		slog.Int("streak", res.Streak),
	)
	writeJSON(w, http.StatusCreated, res)
}

func (h *handler) listLogs(w http.ResponseWriter, r *http.Request) {
	session, ok := sharedauth.UserFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, sharederrors.CodeUnauthorized, "missing user ID")
		return
	}

	from, err := parseDayParam(r.URL.Query().Get("from"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, sharederrors.CodeBadRequest, "from must be a day between 1 and 365")
		return
	}
	to, err := parseDayParam(r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, sharederrors.CodeBadRequest, "to must be a day between 1 and 365")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	logs, err := h.diary.List(ctx, session.UserID, from, to)
	if err != nil {
		h.respondServiceError(w, r, "failed to list logs", err, session.UserID)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewList(logs))
}

func (h *handler) getLog(w http.ResponseWriter, r *http.Request) {
	session, ok := sharedauth.UserFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, sharederrors.CodeUnauthorized, "missing user ID")
		return
	}

	day, err := parseDayParam(chi.URLParam(r, "day"))
	if err != nil || day == 0 {
		writeError(w, r, http.StatusBadRequest, sharederrors.CodeBadRequest, "day must be between 1 and 365")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	log, err := h.diary.Get(ctx, session.UserID, day)
	if err != nil {
		h.respondServiceError(w, r, "failed to load log", err, session.UserID)
		return
	}
	writeJSON(w, http.StatusOK, log)
}

func (h *handler) getProgress(w http.ResponseWriter, r *http.Request) {
	session, ok := sharedauth.UserFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, sharederrors.CodeUnauthorized, "missing user ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	stats, err := h.progress.GetProgress(ctx, session.UserID)
	if err != nil {
		h.respondServiceError(w, r, "failed to compute progress", err, session.UserID)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *handler) respondServiceError(w http.ResponseWriter, r *http.Request, message string, err error, userID string) {
	switch {
	case errors.Is(err, diary.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, sharederrors.CodeBadRequest, err.Error())
	case errors.Is(err, diary.ErrNotFound):
		writeError(w, r, http.StatusNotFound, sharederrors.CodeNotFound, "log not found")
	case errors.Is(err, diary.ErrNotEnrolled), errors.Is(err, progress.ErrNotEnrolled):
		writeError(w, r, http.StatusNotFound, sharederrors.CodeNotFound, "profile not found; register first")
	case errors.Is(err, diary.ErrAlreadyCompleted):
		writeError(w, r, http.StatusConflict, codeAlreadyCompleted, "today's entry is already completed")
	case errors.Is(err, context.DeadlineExceeded):
		logging.RequestError(r.Context(), h.logger, message, err, userID)
		writeError(w, r, http.StatusServiceUnavailable, sharederrors.CodeUnavailable, "request timed out")
	default:
		logging.RequestError(r.Context(), h.logger, message, err, userID)
		writeError(w, r, http.StatusInternalServerError, sharederrors.CodeInternal, message)
	}
}

// parseDayParam returns 0 for an empty value.
func parseDayParam(value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	day, err := strconv.Atoi(value)
	if err != nil || day < 1 || day > 365 {
		return 0, errors.New("invalid day")
	}
	return day, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	sharederrors.Write(w, r, status, code, message)
}
