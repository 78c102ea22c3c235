// Package delivery hands user notifications to an outbound channel.
package delivery

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Message is a notification addressed to a user.
type Message struct {
	NotificationID uuid.UUID `json:"notification_id"`
	UserID         uuid.UUID `json:"user_id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	Text           string    `json:"message"`
	CreatedAt      time.Time `json:"created_at"`
}

// Deliverer sends one message. A nil error means the message was accepted
// and must not be sent again.
type Deliverer interface {
	Deliver(ctx context.Context, msg Message) error
}

// Log writes messages to the structured log. It is the default deliverer
// when no webhook is configured.
type Log struct {
	logger *slog.Logger
}

func NewLog(logger *slog.Logger) *Log {
	return &Log{logger: logger.With("deliverer", "log")}
}

func (l *Log) Deliver(ctx context.Context, msg Message) error {
	l.logger.InfoContext(
		ctx,
		"notification delivered",
		"notification_id", msg.NotificationID,
		"user_id", msg.UserID,
		"email", msg.Email,
		"message", msg.Text,
	)
	return nil
}
