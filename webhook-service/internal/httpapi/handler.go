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

	sharederrors "github.com/aknedenik/akne-denik/shared-libs/errors"
	"github.com/aknedenik/akne-denik/shared-libs/logging"

	"github.com/aknedenik/akne-denik/webhook-service/internal/payment"
)

const (
	// maxPayloadBytes follows Stripe's guidance for webhook bodies.
	maxPayloadBytes = 65536
	serviceTimeout  = 10 * time.Second
	signatureHeader = "Stripe-Signature"
)

// RegisterRoutes wires the Stripe webhook endpoint. Authentication is the payload signature.
func RegisterRoutes(r chi.Router, service *payment.Service, logger *slog.Logger) {
	r.Post("/webhooks/stripe", handleStripe(service, logger))
}

type ackResponse struct {
	Received bool `json:"received"`
	payment.Result
}

func handleStripe(service *payment.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
		if err != nil {
			writeError(w, r, http.StatusRequestEntityTooLarge, sharederrors.CodeBadRequest, "payload too large")
			return
		}
		signature := r.Header.Get(signatureHeader)
		if signature == "" {
			writeError(w, r, http.StatusBadRequest, sharederrors.CodeBadRequest, "missing Stripe-Signature header")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
		defer cancel()

		res, err := service.Handle(ctx, payload, signature)
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, ackResponse{Received: true, Result: res})
		case errors.Is(err, payment.ErrInvalidSignature):
			logging.WithRequestID(ctx, logger).Warn("rejected webhook", slog.Any("error", err))
			writeError(w, r, http.StatusBadRequest, sharederrors.CodeBadRequest, "invalid signature")
		default:
			// A non-2xx makes Stripe redeliver the event.
			logging.RequestError(ctx, logger, "webhook processing failed", err, res.UserID)
			writeError(w, r, http.StatusInternalServerError, sharederrors.CodeInternal, "internal error")
		}
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
