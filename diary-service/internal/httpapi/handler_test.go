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
	"github.com/aknedenik/akne-denik/shared-libs/enrollment"
	"github.com/aknedenik/akne-denik/shared-libs/program"

	"github.com/aknedenik/akne-denik/diary-service/internal/diary"
	"github.com/aknedenik/akne-denik/diary-service/internal/progress"
)

type stubClock struct{ now time.Time }

func (c *stubClock) Now() time.Time { return c.now }

var registered = time.Date(2025, time.September, 1, 9, 0, 0, 0, time.UTC)

func newTestRouter(t *testing.T, clock *stubClock) http.Handler {
	t.Helper()
	store := enrollment.NewMemoryStore()
	store.Put(enrollment.Enrollment{UserID: "u1", RegisteredAt: registered})
	repo := diary.NewMemoryRepository(store)

	diarySvc, err := diary.NewService(repo, store, clock, program.DefaultPolicy())
	if err != nil {
		t.Fatalf("diary.NewService returned error: %v", err)
	}
	progressSvc, err := progress.NewService(repo, store, clock, program.DefaultPolicy())
	if err != nil {
		t.Fatalf("progress.NewService returned error: %v", err)
	}
	verifier, err := sharedauth.NewVerifier(sharedauth.Config{Mode: sharedauth.ModeNoop})
	if err != nil {
		t.Fatalf("NewVerifier returned error: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(sharedauth.Middleware(verifier))
		RegisterRoutes(r, diarySvc, progressSvc, logger)
	})
	return r
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

func TestCompleteDayFlow(t *testing.T) {
	clock := &stubClock{now: registered}
	h := newTestRouter(t, clock)

	rec := do(t, h, http.MethodPost, "/v1/logs", "u1", `{"mood":4,"skinRating":2,"note":"ok"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var res diary.CompleteResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if res.ProgramDay != 1 || res.Log.ID != "u1_001" {
		t.Fatalf("unexpected result: %+v", res)
	}

	rec = do(t, h, http.MethodPost, "/v1/logs", "u1", `{"mood":4,"skinRating":2}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for second completion, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), codeAlreadyCompleted) {
		t.Fatalf("expected %s code, got %s", codeAlreadyCompleted, rec.Body.String())
	}

	if rec := do(t, h, http.MethodGet, "/v1/logs/1", "u1", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for day 1, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/v1/logs/2", "u1", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for day 2, got %d", rec.Code)
	}

	rec = do(t, h, http.MethodGet, "/v1/logs?from=1&to=30", "u1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var list struct {
		Items []diary.Log `json:"items"`
		Count int         `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if list.Count != 1 {
		t.Fatalf("expected 1 log, got %d", list.Count)
	}
}

func TestCompleteDayValidation(t *testing.T) {
	h := newTestRouter(t, &stubClock{now: registered})

	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed", `{"mood":`, http.StatusBadRequest},
		{"unknown field", `{"mood":3,"skinRating":3,"day":9}`, http.StatusBadRequest},
		{"mood out of range", `{"mood":9,"skinRating":3}`, http.StatusBadRequest},
		{"foreign photo", `{"mood":3,"skinRating":3,"photos":["photos/u2/x.jpg"]}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := do(t, h, http.MethodPost, "/v1/logs", "u1", tt.body); rec.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestUnregisteredUserGetsNotFound(t *testing.T) {
	h := newTestRouter(t, &stubClock{now: registered})

	if rec := do(t, h, http.MethodPost, "/v1/logs", "ghost", `{"mood":3,"skinRating":3}`); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/v1/progress", "ghost", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestProgressEndpoint(t *testing.T) {
	clock := &stubClock{now: registered}
	h := newTestRouter(t, clock)

	for i := 0; i < 2; i++ {
		if rec := do(t, h, http.MethodPost, "/v1/logs", "u1", `{"mood":3,"skinRating":4}`); rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", rec.Code)
		}
		clock.now = clock.now.Add(24 * time.Hour)
	}

	rec := do(t, h, http.MethodGet, "/v1/progress", "u1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var stats progress.Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.ProgramDay != 3 || stats.CompletedCount != 2 || stats.CurrentStreak != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestInvalidDayParameter(t *testing.T) {
	h := newTestRouter(t, &stubClock{now: registered})

	for _, path := range []string{"/v1/logs/0", "/v1/logs/366", "/v1/logs/abc", "/v1/logs?from=x"} {
		if rec := do(t, h, http.MethodGet, path, "u1", ""); rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", path, rec.Code)
		}
	}
}

func TestRequiresAuthentication(t *testing.T) {
	h := newTestRouter(t, &stubClock{now: registered})
	if rec := do(t, h, http.MethodGet, "/v1/logs", "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
