package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	sharedauth "github.com/aknedenik/akne-denik/shared-libs/auth"
	sharederrors "github.com/aknedenik/akne-denik/shared-libs/errors"
	"github.com/aknedenik/akne-denik/shared-libs/logging"

	"github.com/aknedenik/akne-denik/media-service/internal/storage"
)

const (
	serviceTimeout = 30 * time.Second
	// multipart framing on top of the photo itself
	maxUploadBytes = storage.MaxPhotoBytes + 1<<20
)

// RegisterRoutes registers the photo routes.
func RegisterRoutes(r chi.Router, service *storage.Service, logger *slog.Logger) {
	r.Route("/v1/media/photos", func(r chi.Router) {
		r.Post("/", uploadPhoto(service, logger))
		r.Get("/url", signPhotoURL(service, logger))
	})
}

func uploadPhoto(service *storage.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sharedauth.UserFromContext(r.Context())
		if !ok {
			writeError(w, r, http.StatusUnauthorized, sharederrors.CodeUnauthorized, "missing user ID")
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, r, http.StatusRequestEntityTooLarge, sharederrors.CodeBadRequest, storage.ErrTooLarge.Error())
				return
			}
			writeError(w, r, http.StatusBadRequest, sharederrors.CodeBadRequest, "invalid multipart payload")
			return
		}
		defer func() {
			if r.MultipartForm != nil {
				_ = r.MultipartForm.RemoveAll()
			}
		}()

		file, header, err := r.FormFile("photo")
		if err != nil {
			writeError(w, r, http.StatusBadRequest, sharederrors.CodeBadRequest, "photo file is required")
			return
		}
		defer file.Close()

		ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
		defer cancel()

		photo, err := service.UploadPhoto(ctx, storage.Upload{
			UserID:      session.UserID,
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Data:        file,
		})
		if err != nil {
			respondServiceError(w, r, logger, "failed to upload photo", err, session.UserID)
			return
		}
		logger.Info("photo uploaded", slog.String("userId", session.UserID), slog.String("path", photo.Path), slog.Int64("bytes", photo.Size))
		writeJSON(w, http.StatusCreated, photo)
	}
}

func signPhotoURL(service *storage.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sharedauth.UserFromContext(r.Context())
		if !ok {
			writeError(w, r, http.StatusUnauthorized, sharederrors.CodeUnauthorized, "missing user ID")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
		defer cancel()

		photo, err := service.SignURL(ctx, session.UserID, r.URL.Query().Get("path"))
		if err != nil {
			respondServiceError(w, r, logger, "failed to sign photo url", err, session.UserID)
			return
		}
		writeJSON(w, http.StatusOK, photo)
	}
}

func respondServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, message string, err error, userID string) {
	switch {
	case errors.Is(err, storage.ErrUnsupportedType), errors.Is(err, storage.ErrInvalidPath):
		writeError(w, r, http.StatusBadRequest, sharederrors.CodeBadRequest, err.Error())
	case errors.Is(err, storage.ErrTooLarge):
		writeError(w, r, http.StatusRequestEntityTooLarge, sharederrors.CodeBadRequest, err.Error())
	case errors.Is(err, storage.ErrForbidden):
		writeError(w, r, http.StatusForbidden, sharederrors.CodeForbidden, err.Error())
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
