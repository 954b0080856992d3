package push

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/albapepper/coach-notify/internal/notifications"
)

// Log is a sender that only logs. Used in development and when no push
// provider is configured.
type Log struct {
	logger *slog.Logger
}

// NewLog creates a log-only sender.
func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger}
}

// Send implements notifications.Sender.
func (l *Log) Send(_ context.Context, msg notifications.Message) (string, error) {
	id := "log-" + uuid.NewString()
	l.logger.Info("Push notification (log only)",
		"delivery_id", id,
		"user_id", msg.RecipientID,
		"category", msg.Category,
		"title", msg.Title,
		"body", msg.Body,
	)
	return id, nil
}
