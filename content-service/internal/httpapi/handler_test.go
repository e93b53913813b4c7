package httpapi

import (
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

	"github.com/aknedenik/akne-denik/content-service/internal/content"
)

type stubClock struct{ now time.Time }

func (c stubClock) Now() time.Time { return c.now }

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	reg := time.Date(2025, time.June, 1, 8, 0, 0, 0, time.UTC)
	store := enrollment.NewMemoryStore()
	store.Put(enrollment.Enrollment{UserID: "u1", RegisteredAt: reg})

	svc, err := content.NewService(content.NewMemoryRepository(), store, stubClock{now: reg}, program.DefaultPolicy())
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}
	verifier, err := sharedauth.NewVerifier(sharedauth.Config{Mode: sharedauth.ModeNoop})
	if err != nil {
		t.Fatalf("NewVerifier returned error: %v", err)
	}
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(sharedauth.Middleware(verifier))
		RegisterRoutes(r, svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	})
	return r
}

func do(h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	h := newTestRouter(t)

	if rec := do(h, http.MethodPut, "/v1/admin/content/1", "u1", `{"motivationalText":"a","taskText":"b"}`); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", rec.Code)
	}
	if rec := do(h, http.MethodPut, "/v1/admin/content/1", "admin:root", `{"motivationalText":"a","taskText":"b"}`); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestContentCalendarFlow(t *testing.T) {
	h := newTestRouter(t)

	if rec := do(h, http.MethodGet, "/v1/content/today", "u1", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before authoring, got %d", rec.Code)
	}

	for _, day := range []string{"1", "2"} {
		rec := do(h, http.MethodPut, "/v1/admin/content/"+day, "admin:root", `{"motivationalText":"hi","taskText":"do","isPhotoDay":true}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("upsert day %s: expected 200, got %d", day, rec.Code)
		}
	}

	if rec := do(h, http.MethodGet, "/v1/content/today", "u1", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec := do(h, http.MethodGet, "/v1/content/2", "u1", ""); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for future day, got %d", rec.Code)
	}
	if rec := do(h, http.MethodGet, "/v1/content/2", "admin:root", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", rec.Code)
	}

	rec := do(h, http.MethodGet, "/v1/admin/content?from=1&to=10", "admin:root", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"count":2`) {
		t.Fatalf("unexpected list response %d: %s", rec.Code, rec.Body.String())
	}

	if rec := do(h, http.MethodDelete, "/v1/admin/content/2", "admin:root", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if rec := do(h, http.MethodDelete, "/v1/admin/content/2", "admin:root", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestContentValidation(t *testing.T) {
	h := newTestRouter(t)

	if rec := do(h, http.MethodPut, "/v1/admin/content/400", "admin:root", `{"motivationalText":"a","taskText":"b"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for day 400, got %d", rec.Code)
	}
	if rec := do(h, http.MethodPut, "/v1/admin/content/3", "admin:root", `{"motivationalText":"","taskText":"b"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank text, got %d", rec.Code)
	}
}
