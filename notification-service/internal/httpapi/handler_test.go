package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	sharedauth "github.com/aknedenik/akne-denik/shared-libs/auth"

	"github.com/aknedenik/akne-denik/notification-service/internal/reminder"
)

type fakeDispatcher struct {
	summary reminder.Summary
	err     error
	calls   int
}

func (f *fakeDispatcher) Dispatch(context.Context) (reminder.Summary, error) {
	f.calls++
	return f.summary, f.err
}

func newRouter(t *testing.T, d Dispatcher) http.Handler {
	t.Helper()
	verifier, err := sharedauth.NewVerifier(sharedauth.Config{Mode: sharedauth.ModeGateway})
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	r := chi.NewRouter()
	r.Use(sharedauth.Middleware(verifier))
	RegisterRoutes(r, d, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return r
}

func request(h http.Handler, admin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/internal/reminders/dispatch", nil)
	req.Header.Set(sharedauth.HeaderUserID, "scheduler")
	req.Header.Set(sharedauth.HeaderUserAdmin, admin)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestDispatchEndpoint(t *testing.T) {
	d := &fakeDispatcher{summary: reminder.Summary{Slot: "19:30", Due: 3, Sent: 2, Skipped: 1}}
	h := newRouter(t, d)

	rec := request(h, "true")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got reminder.Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != d.summary {
		t.Fatalf("unexpected summary %+v", got)
	}
}

func TestDispatchEndpointRequiresAdmin(t *testing.T) {
	d := &fakeDispatcher{}
	if rec := request(newRouter(t, d), "false"); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if d.calls != 0 {
		t.Fatal("dispatcher must not run for non-admin callers")
	}
}

func TestDispatchEndpointFailure(t *testing.T) {
	h := newRouter(t, &fakeDispatcher{err: errors.New("firestore down")})
	if rec := request(h, "true"); rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
