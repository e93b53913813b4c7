package reminder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aknedenik/akne-denik/shared-libs/enrollment"
	"github.com/aknedenik/akne-denik/shared-libs/program"

	"github.com/aknedenik/akne-denik/notification-service/internal/push"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type fakeSender struct {
	mu      sync.Mutex
	batches [][]push.Message
	sendFn  func([]push.Message) ([]push.Ticket, error)
}

func (f *fakeSender) Send(_ context.Context, messages []push.Message) ([]push.Ticket, error) {
	f.mu.Lock()
	f.batches = append(f.batches, messages)
	f.mu.Unlock()
	if f.sendFn != nil {
		return f.sendFn(messages)
	}
	tickets := make([]push.Ticket, len(messages))
	for i := range tickets {
		tickets[i] = push.Ticket{Status: "ok"}
	}
	return tickets, nil
}

func (f *fakeSender) sent() []push.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []push.Message
	for _, b := range f.batches {
		out = append(out, b...)
	}
	return out
}

// 18:30 UTC is 19:30 in Prague during winter time.
var now = time.Date(2025, time.January, 10, 18, 30, 0, 0, time.UTC)

func settings(lang, token string) enrollment.Settings {
	return enrollment.Settings{NotificationsEnabled: true, ReminderTime: "19:30", Language: lang, PushToken: token}
}

func prague(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Prague")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}
	return loc
}

func newDispatcher(t *testing.T, store *enrollment.MemoryStore, sender Sender) *Dispatcher {
	return newDispatcherAt(t, store, sender, now)
}

// newDispatcherAt counts program days in UTC and reads reminder slots in Prague time.
func newDispatcherAt(t *testing.T, store *enrollment.MemoryStore, sender Sender, at time.Time) *Dispatcher {
	t.Helper()
	d, err := NewDispatcher(NewMemorySource(store), sender, fixedClock{now: at}, program.DefaultPolicy(), prague(t), 2,
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewDispatcher returned error: %v", err)
	}
	return d
}

func TestDispatchSelectsEligibleUsers(t *testing.T) {
	store := enrollment.NewMemoryStore()
	day2 := now.Add(-24 * time.Hour)
	store.Put(enrollment.Enrollment{UserID: "cs", RegisteredAt: day2, Settings: settings("cs", "tok-cs")})
	store.Put(enrollment.Enrollment{UserID: "en", RegisteredAt: day2, Settings: settings("en", "tok-en")})
	store.Put(enrollment.Enrollment{UserID: "done", RegisteredAt: day2, CompletedDays: []int{2}, Settings: settings("cs", "tok-done")})
	store.Put(enrollment.Enrollment{UserID: "notoken", RegisteredAt: day2, Settings: settings("cs", "")})
	store.Put(enrollment.Enrollment{UserID: "blocked", RegisteredAt: now.AddDate(0, 0, -20), TrialExtendedDays: 1, Settings: settings("cs", "tok-b")})
	store.Put(enrollment.Enrollment{UserID: "finished", RegisteredAt: now.AddDate(-1, 0, -5),
		Subscription: enrollment.Subscription{Status: program.SubscriptionActive},
		Settings:     settings("cs", "tok-f")})
	other := settings("cs", "tok-o")
	other.ReminderTime = "08:00"
	store.Put(enrollment.Enrollment{UserID: "other-slot", RegisteredAt: day2, Settings: other})

	sender := &fakeSender{}
	summary, err := newDispatcher(t, store, sender).Dispatch(context.Background())
	if err != nil {
		t.Fatalf("Dispatch returned error: %v", err)
	}
	if summary.Slot != "19:30" || summary.Due != 6 || summary.Sent != 2 || summary.Skipped != 4 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	byToken := map[string]push.Message{}
	for _, m := range sender.sent() {
		byToken[m.To] = m
	}
	if !strings.Contains(byToken["tok-cs"].Body, "den 2") {
		t.Fatalf("unexpected czech body %q", byToken["tok-cs"].Body)
	}
	if !strings.Contains(byToken["tok-en"].Body, "Day 2") {
		t.Fatalf("unexpected english body %q", byToken["tok-en"].Body)
	}
}

func TestDispatchBatchesAndCountsFailures(t *testing.T) {
	store := enrollment.NewMemoryStore()
	for i := 0; i < push.MaxBatch+5; i++ {
		store.Put(enrollment.Enrollment{
			UserID:       fmt.Sprintf("u%03d", i),
			RegisteredAt: now,
			Settings:     settings("cs", fmt.Sprintf("tok-%03d", i)),
		})
	}
	sender := &fakeSender{sendFn: func(messages []push.Message) ([]push.Ticket, error) {
		if len(messages) < push.MaxBatch {
			return nil, errors.New("expo unavailable")
		}
		tickets := make([]push.Ticket, len(messages))
		for i := range tickets {
			tickets[i] = push.Ticket{Status: "ok"}
		}
		tickets[0] = push.Ticket{Status: "error"}
		return tickets, nil
	}}

	summary, err := newDispatcher(t, store, sender).Dispatch(context.Background())
	if err != nil {
		t.Fatalf("Dispatch returned error: %v", err)
	}
	if len(sender.batches) != 2 {
		t.Fatalf("expected 2 batches, got %d", len(sender.batches))
	}
	if summary.Sent != push.MaxBatch-1 || summary.Failed != 6 {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

type failingSource struct{}

func (failingSource) DueAt(context.Context, string) ([]enrollment.Enrollment, error) {
	return nil, errors.New("query failed")
}

func TestDispatchPropagatesSourceErrors(t *testing.T) {
	d, err := NewDispatcher(failingSource{}, &fakeSender{}, fixedClock{now: now}, program.DefaultPolicy(), nil, 0, nil)
	if err != nil {
		t.Fatalf("NewDispatcher returned error: %v", err)
	}
	if _, err := d.Dispatch(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	d := newDispatcher(t, enrollment.NewMemoryStore(), &fakeSender{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx, time.Millisecond)
		close(done)
	}()
	time.Sleep(5 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestDispatchUsesProgramCalendarAcrossReminderMidnight(t *testing.T) {
	registered := time.Date(2025, time.January, 10, 10, 0, 0, 0, time.UTC)
	// 23:30 UTC is already 00:30 on the next day in Prague.
	at := time.Date(2025, time.January, 10, 23, 30, 0, 0, time.UTC)
	slot := enrollment.Settings{NotificationsEnabled: true, ReminderTime: "00:30", Language: "cs"}

	store := enrollment.NewMemoryStore()
	done := slot
	done.PushToken = "tok-done"
	store.Put(enrollment.Enrollment{UserID: "done", RegisteredAt: registered, CompletedDays: []int{1}, Settings: done})
	open := slot
	open.PushToken = "tok-open"
	store.Put(enrollment.Enrollment{UserID: "open", RegisteredAt: registered, Settings: open})

	sender := &fakeSender{}
	summary, err := newDispatcherAt(t, store, sender, at).Dispatch(context.Background())
	if err != nil {
		t.Fatalf("Dispatch returned error: %v", err)
	}
	if summary.Slot != "00:30" || summary.Due != 2 || summary.Sent != 1 || summary.Skipped != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	sent := sender.sent()
	if len(sent) != 1 || sent[0].To != "tok-open" {
		t.Fatalf("expected only the open user to be reminded, got %+v", sent)
	}
	if sent[0].Data["day"] != "1" || !strings.Contains(sent[0].Body, "den 1") {
		t.Fatalf("expected program day 1, got %q %v", sent[0].Body, sent[0].Data)
	}
}

func TestDispatchSlotFallsBackToPolicyLocation(t *testing.T) {
	d, err := NewDispatcher(failingSource{}, &fakeSender{}, fixedClock{now: now}, program.DefaultPolicy(), nil, 0, nil)
	if err != nil {
		t.Fatalf("NewDispatcher returned error: %v", err)
	}
	if got := d.slot(now); got != "18:30" {
		t.Fatalf("expected UTC slot 18:30, got %q", got)
	}
}
