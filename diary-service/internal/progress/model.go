package progress

import (
	"context"
	"errors"
	"time"

	"github.com/aknedenik/akne-denik/diary-service/internal/diary"
)

// TrendWindow is the number of logged days compared at each end of the series.
const TrendWindow = 7

// DayPoint is one entry of the mood and skin chart series.
type DayPoint struct {
	Day        int       `json:"day"`
	Date       time.Time `json:"date"`
	Mood       int       `json:"mood"`
	SkinRating int       `json:"skinRating"`
	Photos     int       `json:"photos"`
}

// Stats summarises a user's program so far.
type Stats struct {
	ProgramDay        int        `json:"programDay"`
	CompletedCount    int        `json:"completedCount"`
	CompletionRate    float64    `json:"completionRate"`
	CurrentStreak     int        `json:"currentStreak"`
	LongestStreak     int        `json:"longestStreak"`
	AverageMood       float64    `json:"averageMood"`
	AverageSkinRating float64    `json:"averageSkinRating"`
	SkinTrend         float64    `json:"skinTrend"`
	PhotoDays         int        `json:"photoDays"`
	Series            []DayPoint `json:"series"`
}

// LogSource lists diary entries; diary.Repository satisfies it.
type LogSource interface {
	List(ctx context.Context, userID string, fromDay, toDay int) ([]diary.Log, error)
}

// Clock delivers the current time.
type Clock interface {
	Now() time.Time
}

var (
	// ErrMissingUserID indicates a required user id was absent.
	ErrMissingUserID = errors.New("user id is required")
	// ErrNotEnrolled indicates the caller never registered.
	ErrNotEnrolled = errors.New("user is not registered")
)
