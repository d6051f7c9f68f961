// Package notify delivers fire-and-forget notifications to employees.
package notify

import (
	"context"
	"errors"
	"log/slog"
)

// Notification is one message for one recipient. ActionRef points the
// recipient at the entity to look at, e.g. "request/12".
type Notification struct {
	RecipientID int64  `json:"recipient_id"`
	Title       string `json:"title"`
	Message     string `json:"message"`
	ActionRef   string `json:"action_ref,omitempty"`
}

// Sink delivers notifications. Delivery failures never affect the caller's
// operation; they are returned only so the caller can log them.
type Sink interface {
	Notify(ctx context.Context, n Notification) error
}

// LogSink writes notifications to the structured log.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Notify(ctx context.Context, n Notification) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "notification",
		"recipient", n.RecipientID, "title", n.Title, "message", n.Message, "ref", n.ActionRef)
	return nil
}

// Multi fans a notification out to every sink and joins their errors.
type Multi []Sink

func (m Multi) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, s := range m {
		if err := s.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every notification.
type Discard struct{}

func (Discard) Notify(context.Context, Notification) error { return nil }
