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

	"github.com/aknedenik/akne-denik/content-service/internal/content"
)

const (
	serviceTimeout = 8 * time.Second
	maxBodyBytes   = 32 * 1024
)

type handler struct {
	service *content.Service
	logger  *slog.Logger
}

type upsertRequest struct {
	MotivationalText string `json:"motivationalText"`
	TaskText         string `json:"taskText"`
	IsPhotoDay       bool   `json:"isPhotoDay"`
	Category         string `json:"category"`
}

// RegisterRoutes registers the user-facing and admin content routes.
func RegisterRoutes(r chi.Router, service *content.Service, logger *slog.Logger) {
	h := &handler{service: service, logger: logger}
	r.Route("/v1/content", func(r chi.Router) {
		r.Get("/today", h.today)
		r.Get("/{day}", h.forDay)
	})
	r.Route("/v1/admin/content", func(r chi.Router) {
		r.Use(sharedauth.RequireAdmin)
		r.Get("/", h.list)
		r.Put("/{day}", h.upsert)
		r.Delete("/{day}", h.remove)
	})
}

func (h *handler) today(w http.ResponseWriter, r *http.Request) {
	session, ok := sharedauth.UserFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, sharederrors.CodeUnauthorized, "missing user ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	resp, err := h.service.Today(ctx, session.UserID)
	if err != nil {
		h.respondServiceError(w, r, "failed to load today's content", err, session.UserID)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) forDay(w http.ResponseWriter, r *http.Request) {
	session, ok := sharedauth.UserFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, sharederrors.CodeUnauthorized, "missing user ID")
		return
	}
	day, ok := dayParam(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	c, err := h.service.ForDay(ctx, session.UserID, session.Admin, day)
	if err != nil {
		h.respondServiceError(w, r, "failed to load content", err, session.UserID)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *handler) list(w http.ResponseWriter, r *http.Request) {
	session, _ := sharedauth.UserFromContext(r.Context())
	from, _ := strconv.Atoi(r.URL.Query().Get("from"))
	to, _ := strconv.Atoi(r.URL.Query().Get("to"))

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	items, err := h.service.List(ctx, from, to)
	if err != nil {
		h.respondServiceError(w, r, "failed to list content", err, session.UserID)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewList(items))
}

func (h *handler) upsert(w http.ResponseWriter, r *http.Request) {
	session, _ := sharedauth.UserFromContext(r.Context())
	day, ok := dayParam(w, r)
	if !ok {
		return
	}

	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	var req upsertRequest
	if err := decoder.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, sharederrors.CodeBadRequest, "invalid JSON payload")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	c, err := h.service.Upsert(ctx, session.UserID, content.UpsertInput{
		Day:              day,
		MotivationalText: req.MotivationalText,
		TaskText:         req.TaskText,
		IsPhotoDay:       req.IsPhotoDay,
		Category:         req.Category,
	})
	if err != nil {
		h.respondServiceError(w, r, "failed to save content", err, session.UserID)
		return
	}
	h.logger.Info("content saved", slog.Int("day", day), slog.String("adminId", session.UserID))
	writeJSON(w, http.StatusOK, c)
}

func (h *handler) remove(w http.ResponseWriter, r *http.Request) {
	session, _ := sharedauth.UserFromContext(r.Context())
	day, ok := dayParam(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	if err := h.service.Delete(ctx, day); err != nil {
		h.respondServiceError(w, r, "failed to delete content", err, session.UserID)
		return
	}
	h.logger.Info("content deleted", slog.Int("day", day), slog.String("adminId", session.UserID))
	w.WriteHeader(http.StatusNoContent)
}

func dayParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	day, err := strconv.Atoi(strings.TrimSpace(chi.URLParam(r, "day")))
	if err != nil || day < 1 || day > 365 {
		writeError(w, r, http.StatusBadRequest, sharederrors.CodeBadRequest, "day must be between 1 and 365")
		return 0, false
	}
	return day, true
}

func (h *handler) respondServiceError(w http.ResponseWriter, r *http.Request, message string, err error, userID string) {
	switch {
	case errors.Is(err, content.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, sharederrors.CodeBadRequest, err.Error())
	case errors.Is(err, content.ErrNotFound):
		writeError(w, r, http.StatusNotFound, sharederrors.CodeNotFound, err.Error())
	case errors.Is(err, content.ErrNotEnrolled):
		writeError(w, r, http.StatusNotFound, sharederrors.CodeNotFound, "profile not found; register first")
	case errors.Is(err, content.ErrFutureDay):
		writeError(w, r, http.StatusForbidden, sharederrors.CodeForbidden, err.Error())
	default:
		logging.RequestError(r.Context(), h.logger, message, err, userID)
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
