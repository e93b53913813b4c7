package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/aknedenik/akne-denik/shared-libs/enrollment"
)

// Options tune reply generation.
type Options struct {
	// AutoReply makes Send generate a coach reply through the assistant.
	AutoReply bool
	// ContextMessages is how many thread messages are passed to the assistant.
	ContextMessages int
}

// Service stores coaching threads and generates automatic replies.
type Service struct {
	repo        Repository
	assistant   Assistant
	fallback    Assistant
	enrollments enrollment.Reader
	clock       Clock
	opts        Options
	logger      *slog.Logger
}

// NewService wires the chat service with persistence and responder. A nil assistant uses the
// template assistant; enrollments is optional and only supplies the preferred language.
func NewService(repo Repository, assistant Assistant, enrollments enrollment.Reader, clock Clock, opts Options, logger *slog.Logger) (*Service, error) {
	if repo == nil {
		return nil, errors.New("repository is required")
	}
	if clock == nil {
		return nil, errors.New("clock is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	fallback := NewTemplateAssistant()
	if assistant == nil {
		assistant = fallback
	}
	if opts.ContextMessages <= 0 {
		opts.ContextMessages = 16
	}
	return &Service{
		repo:        repo,
		assistant:   assistant,
		fallback:    fallback,
		enrollments: enrollments,
		clock:       clock,
		opts:        opts,
		logger:      logger,
	}, nil
}

// Thread returns the newest messages of a user's thread, oldest first.
func (s *Service) Thread(ctx context.Context, userID string, limit int) ([]Message, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrMissingUserID
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return s.repo.Thread(ctx, userID, limit)
}

// Send stores the user's message and, when auto reply is on, a generated coach reply.
func (s *Service) Send(ctx context.Context, userID, text string) (SendResult, error) {
	msg, err := s.store(ctx, userID, AuthorUser, userID, text)
	if err != nil {
		return SendResult{}, err
	}
	result := SendResult{Message: msg}
	if !s.opts.AutoReply {
		return result, nil
	}

	history, err := s.repo.Thread(ctx, userID, s.opts.ContextMessages)
	if err != nil {
		return SendResult{}, fmt.Errorf("load context: %w", err)
	}
	// the new message is the prompt, not context
	if n := len(history); n > 0 && history[n-1].ID == msg.ID {
		history = history[:n-1]
	}

	lang := detectLanguage(msg.Text, history, s.preferredLanguage(ctx, userID))
	replyText, err := s.assistant.Respond(ctx, lang, msg.Text, history)
	if err != nil {
		s.logger.Warn("assistant failed, using template reply",
			slog.String("userId", userID),
			slog.String("error", err.Error()),
		)
		replyText, _ = s.fallback.Respond(ctx, lang, msg.Text, history)
	}

	reply, err := s.store(ctx, userID, AuthorCoach, AssistantID, replyText)
	if err != nil {
		return SendResult{}, fmt.Errorf("store reply: %w", err)
	}
	result.Reply = &reply
	return result, nil
}

// CoachReply stores a message written by a human coach into userID's thread.
func (s *Service) CoachReply(ctx context.Context, coachID, userID, text string) (Message, error) {
	return s.store(ctx, userID, AuthorCoach, coachID, text)
}

func (s *Service) store(ctx context.Context, userID, author, authorID, text string) (Message, error) {
	if strings.TrimSpace(userID) == "" {
		return Message{}, ErrMissingUserID
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, ErrEmptyMessage
	}
	if utf8.RuneCountInString(text) > MaxMessageLength {
		return Message{}, ErrMessageTooLong
	}

	id, err := uuid.NewV7()
	if err != nil {
		return Message{}, fmt.Errorf("generate message id: %w", err)
	}
	msg := Message{
		ID:        id.String(),
		UserID:    userID,
		Author:    author,
		AuthorID:  authorID,
		Text:      text,
		CreatedAt: s.clock.Now().UTC(),
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		return Message{}, fmt.Errorf("create message: %w", err)
	}
	return msg, nil
}

func (s *Service) preferredLanguage(ctx context.Context, userID string) string {
	if s.enrollments == nil {
		return ""
	}
	e, err := s.enrollments.Get(ctx, userID)
	if err != nil {
		return ""
	}
	return e.Settings.Language
}

type systemClock struct{}

// NewSystemClock returns a Clock backed by time.Now.
func NewSystemClock() Clock { return systemClock{} }

func (systemClock) Now() time.Time { return time.Now() }
