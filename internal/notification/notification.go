package notification

import (
	"context"
	"log/slog"

	"github.com/ripple-mobile/ripple_mobile/internal/logging"
)

const (
	// KindTransferSent is the debit notice sent to a payer.
	KindTransferSent = "transfer_sent"
	// KindTransferReceived is the credit notice sent to a payee.
	KindTransferReceived = "transfer_received"
	// KindTransferFailed tells the payer a transfer did not go through.
	KindTransferFailed = "transfer_failed"
	// KindTransferPending tells the payer a transfer's outcome is not yet known.
	KindTransferPending = "transfer_pending"
	KindBalance         = "balance"
	KindHistory         = "history"
	KindWelcome         = "welcome"
	// KindRegistrationFailed tells the caller the account was not created.
	KindRegistrationFailed = "registration_failed"
)

// Message describes a text notification addressed to a phone number.
type Message struct {
	Kind        string
	Destination string
	Body        string
}

// Notifier delivers notifications to downstream systems.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier writes notifications to the logger. It is the default
// sink when no SMS outbox is configured.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification", "kind", message.Kind, logging.Phone(message.Destination), "body", message.Body)
	return nil
}
