package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	sharedauth "github.com/aknedenik/akne-denik/shared-libs/auth"
	sharederrors "github.com/aknedenik/akne-denik/shared-libs/errors"
	"github.com/aknedenik/akne-denik/shared-libs/logging"

	"github.com/aknedenik/akne-denik/notification-service/internal/reminder"
)

const serviceTimeout = 50 * time.Second

// Dispatcher runs one reminder pass.
type Dispatcher interface {
	Dispatch(ctx context.Context) (reminder.Summary, error)
}

// RegisterRoutes wires the scheduler endpoint. Callers must carry the admin claim.
func RegisterRoutes(r chi.Router, dispatcher Dispatcher, logger *slog.Logger) {
	r.With(sharedauth.RequireAdmin).Post("/internal/reminders/dispatch", dispatch(dispatcher, logger))
}

func dispatch(dispatcher Dispatcher, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := sharedauth.UserFromContext(r.Context())

		ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
		defer cancel()

		summary, err := dispatcher.Dispatch(ctx)
		if err != nil {
			logging.RequestError(ctx, logger, "dispatch reminders failed", err, user.UserID)
			sharederrors.Write(w, r, http.StatusInternalServerError, sharederrors.CodeInternal, "internal error")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(summary)
	}
}
