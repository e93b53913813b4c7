// Package reminder sends the daily "log your skin" push reminder.
package reminder

import (
	"context"
	"time"

	"github.com/aknedenik/akne-denik/shared-libs/enrollment"

	"github.com/aknedenik/akne-denik/notification-service/internal/push"
)

// TimeLayout is the stored settings.reminderTime format.
const TimeLayout = "15:04"

// Source lists users whose reminder is scheduled at the given HH:MM.
type Source interface {
	DueAt(ctx context.Context, hhmm string) ([]enrollment.Enrollment, error)
}

// Sender delivers a batch of push messages.
type Sender interface {
	Send(ctx context.Context, messages []push.Message) ([]push.Ticket, error)
}

// Clock delivers the current time.
type Clock interface {
	Now() time.Time
}

// Summary reports one dispatch run.
type Summary struct {
	Slot    string `json:"slot"`
	Due     int    `json:"due"`
	Sent    int    `json:"sent"`
	Skipped int    `json:"skipped"`
	Failed  int    `json:"failed"`
}
