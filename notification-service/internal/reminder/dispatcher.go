package reminder

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aknedenik/akne-denik/shared-libs/enrollment"
	"github.com/aknedenik/akne-denik/shared-libs/program"

	"github.com/aknedenik/akne-denik/notification-service/internal/push"
)

const defaultConcurrency = 4

// Dispatcher selects due users and sends their reminders.
type Dispatcher struct {
	source      Source
	sender      Sender
	clock       Clock
	policy      program.Policy
	slotZone    *time.Location
	logger      *slog.Logger
	concurrency int
}

// NewDispatcher constructs a Dispatcher. slotZone is the zone users pick their reminder
// time in; program days always follow policy. A nil slotZone uses the policy location.
// concurrency bounds parallel Expo requests.
func NewDispatcher(source Source, sender Sender, clock Clock, policy program.Policy, slotZone *time.Location, concurrency int, logger *slog.Logger) (*Dispatcher, error) {
	if source == nil {
		return nil, errors.New("source is required")
	}
	if sender == nil {
		return nil, errors.New("sender is required")
	}
	if clock == nil {
		return nil, errors.New("clock is required")
	}
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		source:      source,
		sender:      sender,
		clock:       clock,
		policy:      policy,
		slotZone:    slotZone,
		logger:      logger,
		concurrency: concurrency,
	}, nil
}

// Dispatch sends reminders for the current minute in the program location.
func (d *Dispatcher) Dispatch(ctx context.Context) (Summary, error) {
	now := d.clock.Now()
	slot := d.slot(now)
	summary := Summary{Slot: slot}

	due, err := d.source.DueAt(ctx, slot)
	if err != nil {
		return summary, err
	}
	summary.Due = len(due)

	messages := make([]push.Message, 0, len(due))
	for _, e := range due {
		if !d.eligible(e, now) {
			summary.Skipped++
			continue
		}
		messages = append(messages, buildMessage(strings.TrimSpace(e.Settings.PushToken), e.Settings.Language, e.ProgramDay(d.policy, now)))
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(d.concurrency)
	for start := 0; start < len(messages); start += push.MaxBatch {
		batch := messages[start:min(start+push.MaxBatch, len(messages))]
		g.Go(func() error {
			tickets, err := d.sender.Send(ctx, batch)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				d.logger.Error("push batch failed", slog.Int("size", len(batch)), slog.Any("error", err))
				summary.Failed += len(batch)
				return nil
			}
			for i, t := range tickets {
				if t.OK() {
					summary.Sent++
					continue
				}
				summary.Failed++
				d.logger.Warn("push rejected",
					slog.String("token", batch[i].To),
					slog.String("error", t.Details.Error),
					slog.String("message", t.Message),
				)
			}
			return nil
		})
	}
	_ = g.Wait()

	d.logger.Info("reminders dispatched",
		slog.String("slot", slot),
		slog.Int("due", summary.Due),
		slog.Int("sent", summary.Sent),
		slog.Int("skipped", summary.Skipped),
		slog.Int("failed", summary.Failed),
	)
	return summary, nil
}

func (d *Dispatcher) slot(now time.Time) string {
	if d.slotZone != nil {
		return now.In(d.slotZone).Format(TimeLayout)
	}
	return d.policy.In(now).Format(TimeLayout)
}

// eligible filters users who cannot or need not be reminded today.
func (d *Dispatcher) eligible(e enrollment.Enrollment, now time.Time) bool {
	if !e.Settings.NotificationsEnabled || strings.TrimSpace(e.Settings.PushToken) == "" {
		return false
	}
	if !e.RegisteredAt.IsZero() && d.policy.DaysBetween(e.RegisteredAt, now) >= program.CalendarDays {
		return false
	}
	if !e.Access(d.policy, now).Allowed {
		return false
	}
	return !e.CompletedToday(d.policy, now)
}

// Run dispatches on every tick of interval until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := d.Dispatch(ctx); err != nil && !errors.Is(err, context.Canceled) {
				d.logger.Error("scheduled dispatch failed", slog.Any("error", err))
			}
		}
	}
}

type systemClock struct{}

// NewSystemClock returns a Clock backed by time.Now.
func NewSystemClock() Clock { return systemClock{} }

func (systemClock) Now() time.Time { return time.Now() }
