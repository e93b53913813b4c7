package httpapi

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	sharedauth "github.com/aknedenik/akne-denik/shared-libs/auth"
	"github.com/aknedenik/akne-denik/shared-libs/program"

	"github.com/aknedenik/akne-denik/user-service/internal/user"
)

type stubClock struct{ now time.Time }

func (c *stubClock) Now() time.Time { return c.now }

func newTestRouter(t *testing.T, clock *stubClock) http.Handler {
	t.Helper()
	svc, err := user.NewService(user.NewMemoryRepository(), clock, program.DefaultPolicy())
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(sharedauth.Middleware(mustVerifier(t)))
		RegisterRoutes(r, svc, logger)
	})
	return r
}

func mustVerifier(t *testing.T) sharedauth.Verifier {
	t.Helper()
	v, err := sharedauth.NewVerifier(sharedauth.Config{Mode: sharedauth.ModeNoop})
	if err != nil {
		t.Fatalf("NewVerifier returned error: %v", err)
	}
	return v
}

func do(t *testing.T, h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRegisterAndFetchProfile(t *testing.T) {
	start := time.Date(2025, time.January, 5, 10, 0, 0, 0, time.UTC)
	clock := &stubClock{now: start}
	h := newTestRouter(t, clock)

	if rec := do(t, h, http.MethodGet, "/v1/users/me", "u1", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before registration, got %d", rec.Code)
	}

	rec := do(t, h, http.MethodPost, "/v1/users/me", "u1", `{"displayName":"Eva"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec := do(t, h, http.MethodPost, "/v1/users/me", "u1", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for repeated registration, got %d", rec.Code)
	}

	clock.now = start.AddDate(0, 0, 2)
	rec = do(t, h, http.MethodGet, "/v1/users/me", "u1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		DisplayName string              `json:"displayName"`
		ProgramDay  int                 `json:"programDay"`
		Trial       program.TrialStatus `json:"trial"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.DisplayName != "Eva" || body.ProgramDay != 3 || body.Trial.RemainingDays != 1 {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestExtendTrialEndpoint(t *testing.T) {
	start := time.Date(2025, time.January, 5, 10, 0, 0, 0, time.UTC)
	clock := &stubClock{now: start}
	h := newTestRouter(t, clock)
	do(t, h, http.MethodPost, "/v1/users/me", "u1", "")

	if rec := do(t, h, http.MethodPost, "/v1/users/me/trial/extend", "u1", ""); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 while trial active, got %d", rec.Code)
	}

	clock.now = start.AddDate(0, 0, 3)
	if rec := do(t, h, http.MethodPost, "/v1/users/me/trial/extend", "u1", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	rec := do(t, h, http.MethodPost, "/v1/users/me/trial/extend", "u1", "")
	if rec.Code != http.StatusConflict || !strings.Contains(rec.Body.String(), codeNotExtended) {
		t.Fatalf("expected 409 %s, got %d: %s", codeNotExtended, rec.Code, rec.Body.String())
	}
}

func TestUpdateSettingsValidation(t *testing.T) {
	h := newTestRouter(t, &stubClock{now: time.Date(2025, time.January, 5, 10, 0, 0, 0, time.UTC)})
	do(t, h, http.MethodPost, "/v1/users/me", "u1", "")

	if rec := do(t, h, http.MethodPatch, "/v1/users/me/settings", "u1", `{"theme":"dark"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown fields must be rejected, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPatch, "/v1/users/me/settings", "u1", `{"language":"de"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("unsupported language must be rejected, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPatch, "/v1/users/me/settings", "u1", `{"language":"en","reminderTime":"06:15"}`); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestOnboardingEndpoint(t *testing.T) {
	h := newTestRouter(t, &stubClock{now: time.Date(2025, time.January, 5, 10, 0, 0, 0, time.UTC)})

	body := `{"skinType":"combination","acneSeverity":"mild","goals":["routine"]}`
	if rec := do(t, h, http.MethodPut, "/v1/users/me/onboarding", "u1", body); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before registration, got %d", rec.Code)
	}
	do(t, h, http.MethodPost, "/v1/users/me", "u1", "")
	if rec := do(t, h, http.MethodPut, "/v1/users/me/onboarding", "u1", body); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRequiresAuthentication(t *testing.T) {
	h := newTestRouter(t, &stubClock{now: time.Now()})
	if rec := do(t, h, http.MethodGet, "/v1/users/me", "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
