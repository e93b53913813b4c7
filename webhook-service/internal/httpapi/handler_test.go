package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stripe/stripe-go/v76"

	"github.com/aknedenik/akne-denik/shared-libs/enrollment"

	"github.com/aknedenik/akne-denik/webhook-service/internal/payment"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

// fakeVerifier accepts signature "ok" and decodes the payload as the event.
func fakeVerifier(payload []byte, signature string) (stripe.Event, error) {
	if signature != "ok" {
		return stripe.Event{}, errors.New("no signatures found matching the expected signature")
	}
	var event stripe.Event
	err := json.Unmarshal(payload, &event)
	return event, err
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	store := enrollment.NewMemoryStore()
	store.Put(enrollment.Enrollment{UserID: "u1"})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := payment.NewService(fakeVerifier, payment.NewMemoryRepository(store),
		fixedClock{now: time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)}, 365, logger)
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}
	r := chi.NewRouter()
	RegisterRoutes(r, svc, logger)
	return r
}

func post(h http.Handler, body, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewBufferString(body))
	if signature != "" {
		req.Header.Set(signatureHeader, signature)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

const succeeded = `{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_1","metadata":{"userId":"u1"}}}}`

func TestStripeWebhook(t *testing.T) {
	h := newTestRouter(t)

	rec := post(h, succeeded, "ok")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var ack struct {
		Received bool   `json:"received"`
		Outcome  string `json:"outcome"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &ack); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !ack.Received || ack.Outcome != payment.OutcomeActivated {
		t.Fatalf("unexpected ack %+v", ack)
	}

	rec = post(h, succeeded, "ok")
	_ = json.Unmarshal(rec.Body.Bytes(), &ack)
	if rec.Code != http.StatusOK || ack.Outcome != payment.OutcomeDuplicate {
		t.Fatalf("expected duplicate ack, got %d %+v", rec.Code, ack)
	}
}

func TestStripeWebhookRejections(t *testing.T) {
	h := newTestRouter(t)

	if rec := post(h, succeeded, ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without signature, got %d", rec.Code)
	}
	if rec := post(h, succeeded, "forged"); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad signature, got %d", rec.Code)
	}
	big := bytes.Repeat([]byte("x"), maxPayloadBytes+1)
	if rec := post(h, string(big), "ok"); rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
}
