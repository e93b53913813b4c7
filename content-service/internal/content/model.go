package content

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Collection stores one document per program day, keyed by DocID.
const Collection = "dailyContent"

// Categories accepted for a day's content.
var Categories = []string{"skincare", "mindset", "nutrition", "lifestyle"}

// DailyContent is the admin-authored material shown on a program day.
type DailyContent struct {
	Day              int       `json:"day" firestore:"day"`
	MotivationalText string    `json:"motivationalText" firestore:"motivationalText"`
	TaskText         string    `json:"taskText" firestore:"taskText"`
	IsPhotoDay       bool      `json:"isPhotoDay" firestore:"isPhotoDay"`
	Category         string    `json:"category,omitempty" firestore:"category"`
	UpdatedAt        time.Time `json:"updatedAt" firestore:"updatedAt"`
	UpdatedBy        string    `json:"updatedBy,omitempty" firestore:"updatedBy"`
}

// DocID formats the document id for a program day.
func DocID(day int) string {
	return fmt.Sprintf("%03d", day)
}

// UpsertInput is what an admin submits for one day.
type UpsertInput struct {
	Day              int    `validate:"min=1,max=365"`
	MotivationalText string `validate:"required,max=2000"`
	TaskText         string `validate:"required,max=2000"`
	IsPhotoDay       bool
	Category         string `validate:"omitempty,oneof=skincare mindset nutrition lifestyle"`
}

// TodayResponse pairs the caller's program day with its content.
type TodayResponse struct {
	ProgramDay     int          `json:"programDay"`
	CompletedToday bool         `json:"completedToday"`
	Content        DailyContent `json:"content"`
}

// Repository encapsulates persistence for daily content.
type Repository interface {
	Get(ctx context.Context, day int) (DailyContent, error)
	List(ctx context.Context, fromDay, toDay int) ([]DailyContent, error)
	Upsert(ctx context.Context, c DailyContent) error
	Delete(ctx context.Context, day int) error
}

var (
	// ErrNotFound indicates no content was authored for the day.
	ErrNotFound = errors.New("content not found")
	// ErrFutureDay indicates a non-admin asked for a day beyond their program day.
	ErrFutureDay = errors.New("content for this day is not available yet")
	// ErrNotEnrolled indicates the caller never registered.
	ErrNotEnrolled = errors.New("user is not registered")
	// ErrInvalidInput indicates the provided data failed validation.
	ErrInvalidInput = errors.New("invalid input")
)

// Clock delivers the current time.
type Clock interface {
	Now() time.Time
}
