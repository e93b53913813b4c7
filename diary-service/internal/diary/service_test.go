package diary

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aknedenik/akne-denik/shared-libs/enrollment"
	"github.com/aknedenik/akne-denik/shared-libs/program"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

var registered = time.Date(2025, time.March, 1, 21, 30, 0, 0, time.UTC)

func newTestService(t *testing.T, clock *fakeClock) (*Service, *enrollment.MemoryStore) {
	t.Helper()
	store := enrollment.NewMemoryStore()
	store.Put(enrollment.Enrollment{UserID: "u1", RegisteredAt: registered})
	svc, err := NewService(NewMemoryRepository(store), store, clock, program.DefaultPolicy())
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}
	return svc, store
}

func TestNewServiceRequiresCollaborators(t *testing.T) {
	store := enrollment.NewMemoryStore()
	if _, err := NewService(nil, store, &fakeClock{}, program.DefaultPolicy()); err == nil {
		t.Fatal("expected error for nil repo")
	}
	if _, err := NewService(NewMemoryRepository(store), nil, &fakeClock{}, program.DefaultPolicy()); err == nil {
		t.Fatal("expected error for nil enrollment reader")
	}
	if _, err := NewService(NewMemoryRepository(store), store, nil, program.DefaultPolicy()); err == nil {
		t.Fatal("expected error for nil clock")
	}
}

func TestCompleteDerivesDayFromRegistration(t *testing.T) {
	clock := &fakeClock{now: registered.Add(3 * time.Hour)} // next calendar day
	svc, store := newTestService(t, clock)

	res, err := svc.Complete(context.Background(), CompleteInput{
		UserID:     "u1",
		Mood:       4,
		SkinRating: 3,
		Note:       "  less redness  ",
		Photos:     []string{"photos/u1/a.jpg"},
	})
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if res.ProgramDay != 2 {
		t.Fatalf("expected program day 2, got %d", res.ProgramDay)
	}
	if res.Log.ID != "u1_002" {
		t.Fatalf("unexpected log id %q", res.Log.ID)
	}
	if res.Log.Note != "less redness" {
		t.Fatalf("expected trimmed note, got %q", res.Log.Note)
	}
	if res.Streak != 0 {
		t.Fatalf("expected streak 0 with day 1 missed, got %d", res.Streak)
	}

	e, err := store.Get(context.Background(), "u1")
	if err != nil {
		t.Fatalf("store.Get returned error: %v", err)
	}
	if len(e.CompletedDays) != 1 || e.CompletedDays[0] != 2 || e.CurrentDay != 2 {
		t.Fatalf("enrollment not updated: %+v", e)
	}
}

func TestCompleteBuildsStreakAcrossDays(t *testing.T) {
	clock := &fakeClock{now: registered}
	svc, _ := newTestService(t, clock)

	var last CompleteResult
	for i := 0; i < 3; i++ {
		res, err := svc.Complete(context.Background(), CompleteInput{UserID: "u1", Mood: 3, SkinRating: 3})
		if err != nil {
			t.Fatalf("day %d: Complete returned error: %v", i+1, err)
		}
		last = res
		clock.now = clock.now.Add(24 * time.Hour)
	}
	if last.ProgramDay != 3 || last.Streak != 2 {
		t.Fatalf("expected day 3 with streak 2, got %+v", last)
	}

	logs, err := svc.List(context.Background(), "u1", 0, 0)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(logs) != 3 || logs[0].Day != 1 || logs[2].Day != 3 {
		t.Fatalf("unexpected logs: %+v", logs)
	}
}

func TestCompleteRejectsSecondEntryForSameDay(t *testing.T) {
	clock := &fakeClock{now: registered}
	svc, _ := newTestService(t, clock)
	input := CompleteInput{UserID: "u1", Mood: 2, SkinRating: 2}

	if _, err := svc.Complete(context.Background(), input); err != nil {
		t.Fatalf("first Complete returned error: %v", err)
	}
	if _, err := svc.Complete(context.Background(), input); !errors.Is(err, ErrAlreadyCompleted) {
		t.Fatalf("expected ErrAlreadyCompleted, got %v", err)
	}
}

func TestCompleteConcurrentRequestsStoreOneEntry(t *testing.T) {
	clock := &fakeClock{now: registered}
	svc, store := newTestService(t, clock)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Complete(context.Background(), CompleteInput{UserID: "u1", Mood: 5, SkinRating: 5})
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			} else if !errors.Is(err, ErrAlreadyCompleted) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Fatalf("expected exactly one success, got %d", successes)
	}
	e, _ := store.Get(context.Background(), "u1")
	if len(e.CompletedDays) != 1 {
		t.Fatalf("expected one completed day, got %v", e.CompletedDays)
	}
}

func TestCompleteValidation(t *testing.T) {
	clock := &fakeClock{now: registered}
	svc, _ := newTestService(t, clock)

	tests := []struct {
		name  string
		input CompleteInput
		want  string
	}{
		{"mood too low", CompleteInput{UserID: "u1", Mood: 0, SkinRating: 3}, "mood"},
		{"skin too high", CompleteInput{UserID: "u1", Mood: 3, SkinRating: 6}, "skinRating"},
		{"note too long", CompleteInput{UserID: "u1", Mood: 3, SkinRating: 3, Note: strings.Repeat("x", MaxNoteLength+1)}, "note"},
		{"too many photos", CompleteInput{UserID: "u1", Mood: 3, SkinRating: 3, Photos: []string{
			"photos/u1/1.jpg", "photos/u1/2.jpg", "photos/u1/3.jpg", "photos/u1/4.jpg",
		}}, "photos"},
		{"foreign photo", CompleteInput{UserID: "u1", Mood: 3, SkinRating: 3, Photos: []string{"photos/u2/a.jpg"}}, "does not belong"},
		{"traversal", CompleteInput{UserID: "u1", Mood: 3, SkinRating: 3, Photos: []string{"photos/u1/../u2/a.jpg"}}, "does not belong"},
		{"duplicate photo", CompleteInput{UserID: "u1", Mood: 3, SkinRating: 3, Photos: []string{"photos/u1/a.jpg", "photos/u1/a.jpg"}}, "twice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Complete(context.Background(), tt.input)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected %q in error, got %v", tt.want, err)
			}
		})
	}
}

func TestCompleteRequiresEnrollment(t *testing.T) {
	clock := &fakeClock{now: registered}
	svc, _ := newTestService(t, clock)

	_, err := svc.Complete(context.Background(), CompleteInput{UserID: "stranger", Mood: 3, SkinRating: 3})
	if !errors.Is(err, ErrNotEnrolled) {
		t.Fatalf("expected ErrNotEnrolled, got %v", err)
	}
}

func TestGetAndListBounds(t *testing.T) {
	clock := &fakeClock{now: registered}
	svc, _ := newTestService(t, clock)

	if _, err := svc.Get(context.Background(), "u1", 0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for day 0, got %v", err)
	}
	if _, err := svc.Get(context.Background(), "u1", 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound before completion, got %v", err)
	}
	if _, err := svc.List(context.Background(), "u1", 10, 5); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for inverted range, got %v", err)
	}
}

func TestLogID(t *testing.T) {
	if got := LogID("abc", 7); got != "abc_007" {
		t.Fatalf("unexpected id %q", got)
	}
	if got := LogID("abc", 365); got != "abc_365" {
		t.Fatalf("unexpected id %q", got)
	}
}

func TestMemoryRepositoryReturnsCopies(t *testing.T) {
	clock := &fakeClock{now: registered}
	svc, _ := newTestService(t, clock)

	if _, err := svc.Complete(context.Background(), CompleteInput{
		UserID: "u1", Mood: 3, SkinRating: 3, Photos: []string{"photos/u1/a.jpg"},
	}); err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}

	got, err := svc.Get(context.Background(), "u1", 1)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	got.Photos[0] = "photos/u2/stolen.jpg"

	logs, err := svc.List(context.Background(), "u1", 1, 1)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	logs[0].Photos[0] = "photos/u2/other.jpg"

	again, _ := svc.Get(context.Background(), "u1", 1)
	if again.Photos[0] != "photos/u1/a.jpg" {
		t.Fatalf("stored photos were mutated through a returned value: %v", again.Photos)
	}
}
