package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	sharedauth "github.com/aknedenik/akne-denik/shared-libs/auth"
	sharederrors "github.com/aknedenik/akne-denik/shared-libs/errors"
	"github.com/aknedenik/akne-denik/shared-libs/logging"

	"github.com/aknedenik/akne-denik/user-service/internal/user"
)

const (
	serviceTimeout  = 8 * time.Second
	maxBodyBytes    = 64 * 1024
	codeNotExtended = "trial_not_extendable"
)

// RegisterRoutes registers all user routes
func RegisterRoutes(r chi.Router, service *user.Service, logger *slog.Logger) {
	r.Route("/v1/users/me", func(r chi.Router) {
		r.Get("/", getProfile(service, logger))
		r.Post("/", register(service, logger))
		r.Put("/onboarding", completeOnboarding(service, logger))
		r.Patch("/settings", updateSettings(service, logger))
		r.Post("/trial/extend", extendTrial(service, logger))
	})
}

func register(service *user.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sharedauth.UserFromContext(r.Context())
		if !ok {
			writeError(w, r, http.StatusUnauthorized, sharederrors.CodeUnauthorized, "missing user ID")
			return
		}

		var body struct {
			DisplayName string `json:"displayName"`
			Language    string `json:"language"`
		}
		if err := decodeJSON(w, r, &body, true); err != nil {
			writeError(w, r, http.StatusBadRequest, sharederrors.CodeBadRequest, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
		defer cancel()

		resp, created, err := service.Register(ctx, session, user.RegisterInput{DisplayName: body.DisplayName, Language: body.Language})
		if err != nil {
			respondServiceError(w, r, logger, "failed to register user", err, session.UserID)
			return
		}

		status := http.StatusOK
		if created {
			status = http.StatusCreated
			logger.Info("user registered", slog.String("userId", session.UserID))
		}
		writeJSON(w, status, resp)
	}
}

func getProfile(service *user.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sharedauth.UserFromContext(r.Context())
		if !ok {
			writeError(w, r, http.StatusUnauthorized, sharederrors.CodeUnauthorized, "missing user ID")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
		defer cancel()

		resp, err := service.Me(ctx, session.UserID)
		if err != nil {
			respondServiceError(w, r, logger, "failed to load profile", err, session.UserID)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func completeOnboarding(service *user.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sharedauth.UserFromContext(r.Context())
		if !ok {
			writeError(w, r, http.StatusUnauthorized, sharederrors.CodeUnauthorized, "missing user ID")
			return
		}

		var body struct {
			SkinType     string   `json:"skinType"`
			AcneSeverity string   `json:"acneSeverity"`
			Goals        []string `json:"goals"`
		}
		if err := decodeJSON(w, r, &body, false); err != nil {
			writeError(w, r, http.StatusBadRequest, sharederrors.CodeBadRequest, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
		defer cancel()

		resp, err := service.CompleteOnboarding(ctx, session.UserID, user.OnboardingInput{
			SkinType:     body.SkinType,
			AcneSeverity: body.AcneSeverity,
			Goals:        body.Goals,
		})
		if err != nil {
			respondServiceError(w, r, logger, "failed to save onboarding", err, session.UserID)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func updateSettings(service *user.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sharedauth.UserFromContext(r.Context())
		if !ok {
			writeError(w, r, http.StatusUnauthorized, sharederrors.CodeUnauthorized, "missing user ID")
			return
		}

		var body struct {
			NotificationsEnabled *bool   `json:"notificationsEnabled"`
			ReminderTime         *string `json:"reminderTime"`
			Language             *string `json:"language"`
			PushToken            *string `json:"pushToken"`
		}
		if err := decodeJSON(w, r, &body, false); err != nil {
			writeError(w, r, http.StatusBadRequest, sharederrors.CodeBadRequest, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
		defer cancel()

		resp, err := service.UpdateSettings(ctx, session.UserID, user.SettingsPatch{
			NotificationsEnabled: body.NotificationsEnabled,
			ReminderTime:         body.ReminderTime,
			Language:             body.Language,
			PushToken:            body.PushToken,
		})
		if err != nil {
			respondServiceError(w, r, logger, "failed to update settings", err, session.UserID)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func extendTrial(service *user.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sharedauth.UserFromContext(r.Context())
		if !ok {
			writeError(w, r, http.StatusUnauthorized, sharederrors.CodeUnauthorized, "missing user ID")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
		defer cancel()

		resp, err := service.ExtendTrial(ctx, session.UserID)
		if err != nil {
			respondServiceError(w, r, logger, "failed to extend trial", err, session.UserID)
			return
		}
		logger.Info("trial extended", slog.String("userId", session.UserID))
		writeJSON(w, http.StatusOK, resp)
	}
}

var errInvalidPayload = errors.New("invalid request body")

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return nil
		}
		return errInvalidPayload
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return errInvalidPayload
	}
	return nil
}

func respondServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, message string, err error, userID string) {
	switch {
	case errors.Is(err, user.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, sharederrors.CodeBadRequest, err.Error())
	case errors.Is(err, user.ErrNotFound):
		writeError(w, r, http.StatusNotFound, sharederrors.CodeNotFound, "profile not found; register first")
	case errors.Is(err, user.ErrAlreadyExtended), errors.Is(err, user.ErrTrialNotExtendable):
		writeError(w, r, http.StatusConflict, codeNotExtended, err.Error())
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
