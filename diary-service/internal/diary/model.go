package diary

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	// LogsCollection stores one document per user and program day.
	LogsCollection = "userLogs"
	// MaxPhotos caps the photos attached to a single entry.
	MaxPhotos = 3
	// MaxNoteLength caps the free-text note, in characters.
	MaxNoteLength = 2000
)

// Log is a completed daily diary entry. Entries are immutable once written.
type Log struct {
	ID         string    `json:"id" firestore:"-"`
	UserID     string    `json:"userId" firestore:"userId"`
	Day        int       `json:"day" firestore:"day"`
	Date       time.Time `json:"date" firestore:"date"`
	Mood       int       `json:"mood" firestore:"mood"`
	SkinRating int       `json:"skinRating" firestore:"skinRating"`
	Note       string    `json:"note,omitempty" firestore:"note"`
	Photos     []string  `json:"photos" firestore:"photos"`
	CreatedAt  time.Time `json:"createdAt" firestore:"createdAt"`
}

// LogID is the deterministic document id that makes a second entry for the same day collide.
func LogID(userID string, day int) string {
	return fmt.Sprintf("%s_%03d", userID, day)
}

// PhotoPrefix is the storage path prefix every photo of userID must live under.
func PhotoPrefix(userID string) string {
	return "photos/" + userID + "/"
}

var validate = validator.New()

// CompleteInput captures the data required to complete today's entry.
type CompleteInput struct {
	UserID     string   `validate:"required"`
	Mood       int      `validate:"min=1,max=5"`
	SkinRating int      `validate:"min=1,max=5"`
	Note       string   `validate:"max=2000"`
	Photos     []string `validate:"max=3,dive,required"`
}

// Validate ensures the input fields meet the domain constraints.
func (i CompleteInput) Validate() error {
	var problems []string
	if err := validate.Struct(i); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				problems = append(problems, describeFieldError(fe))
			}
		} else {
			problems = append(problems, err.Error())
		}
	}

	prefix := PhotoPrefix(i.UserID)
	seen := make(map[string]struct{}, len(i.Photos))
	for _, p := range i.Photos {
		if p == "" {
			continue
		}
		if !strings.HasPrefix(p, prefix) || strings.Contains(p, "..") {
			problems = append(problems, fmt.Sprintf("photo %q does not belong to the user", p))
		}
		if _, dup := seen[p]; dup {
			problems = append(problems, fmt.Sprintf("photo %q is listed twice", p))
		}
		seen[p] = struct{}{}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Field() {
	case "Mood":
		return "mood must be between 1 and 5"
	case "SkinRating":
		return "skinRating must be between 1 and 5"
	case "Note":
		return fmt.Sprintf("note must be at most %d characters", MaxNoteLength)
	case "Photos":
		return fmt.Sprintf("at most %d photos are allowed", MaxPhotos)
	case "UserID":
		return "user id is required"
	default:
		return fmt.Sprintf("%s is invalid", strings.ToLower(fe.Field()))
	}
}

// CompleteResult is returned after today's entry is stored.
type CompleteResult struct {
	Log           Log   `json:"log"`
	ProgramDay    int   `json:"programDay"`
	CompletedDays []int `json:"completedDays"`
	Streak        int   `json:"streak"`
}

// Repository encapsulates persistence for diary entries.
type Repository interface {
	// Complete stores the log and marks its day completed on the user document in one
	// atomic step. It fails with ErrAlreadyCompleted when the day already has an entry.
	Complete(ctx context.Context, log Log, now time.Time) error
	Get(ctx context.Context, userID string, day int) (Log, error)
	List(ctx context.Context, userID string, fromDay, toDay int) ([]Log, error)
}

var (
	// ErrNotFound indicates the requested entry does not exist for the user.
	ErrNotFound = errors.New("diary entry not found")
	// ErrAlreadyCompleted indicates the program day already has an entry.
	ErrAlreadyCompleted = errors.New("program day already completed")
	// ErrNotEnrolled indicates the caller has no user document.
	ErrNotEnrolled = errors.New("user is not registered")
	// ErrInvalidInput indicates the provided data failed validation.
	ErrInvalidInput = errors.New("invalid input")
)

// Clock delivers the current time; extracted for deterministic testing.
type Clock interface {
	Now() time.Time
}
