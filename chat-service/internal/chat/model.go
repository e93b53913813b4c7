package chat

import (
	"context"
	"errors"
	"time"
)

const (
	// Collection stores every chat message; a thread is all messages sharing userId.
	Collection = "messages"
	// MaxMessageLength caps a single message, in characters.
	MaxMessageLength = 2000
	// DefaultLimit is the page size when the client does not ask for one.
	DefaultLimit = 50
	// MaxLimit caps the page size.
	MaxLimit = 200
)

// Authors of a message.
const (
	AuthorUser  = "user"
	AuthorCoach = "coach"
)

// AssistantID is the authorId stored on generated coach replies.
const AssistantID = "assistant"

// Message is one entry of a user's coaching thread.
type Message struct {
	ID        string    `json:"id" firestore:"-"`
	UserID    string    `json:"userId" firestore:"userId"`
	Author    string    `json:"author" firestore:"author"`
	AuthorID  string    `json:"authorId" firestore:"authorId"`
	Text      string    `json:"text" firestore:"text"`
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt"`
}

// SendResult is returned when a user posts a message.
type SendResult struct {
	Message Message  `json:"message"`
	Reply   *Message `json:"reply,omitempty"`
}

// Repository encapsulates persistence for chat messages.
type Repository interface {
	Create(ctx context.Context, msg Message) error
	// Thread returns the newest limit messages of userID's thread, oldest first.
	Thread(ctx context.Context, userID string, limit int) ([]Message, error)
}

var (
	// ErrEmptyMessage indicates a blank message.
	ErrEmptyMessage = errors.New("message must not be empty")
	// ErrMessageTooLong indicates the message exceeds MaxMessageLength.
	ErrMessageTooLong = errors.New("message must be at most 2000 characters")
	// ErrMissingUserID indicates the thread owner was not provided.
	ErrMissingUserID = errors.New("user id is required")
)

// Clock delivers the current time.
type Clock interface {
	Now() time.Time
}
