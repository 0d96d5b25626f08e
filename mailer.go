package goPasswordless

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// LogMailer is a [Mailer] that writes messages to the log instead of
// sending them. It never fails, which makes it the right default for
// development and tests; production deployments supply a real transport.
type LogMailer struct {
	// Logger receives the messages. Defaults to [slog.Default].
	Logger *slog.Logger
}

// Send logs the message and returns a generated delivery id.
func (m *LogMailer) Send(_ context.Context, msg Message) (string, error) {
	logger := m.Logger
	if logger == nil {
		logger = slog.Default()
	}

	deliveryID := uuid.NewString()
	logger.Info("mail delivered to log",
		"delivery_id", deliveryID,
		"to", msg.To,
		"subject", msg.Subject,
		"text", msg.Text,
	)
	return deliveryID, nil
}
