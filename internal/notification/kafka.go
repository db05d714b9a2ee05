package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/ripple-mobile/ripple_mobile/internal/logging"
)

// MessageWriter is the subset of *kafka.Writer used by KafkaNotifier.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// outboxEvent is the JSON record consumed by the SMS delivery worker.
type outboxEvent struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	Destination string    `json:"destination"`
	Body        string    `json:"body"`
	CreatedAt   time.Time `json:"created_at"`
}

// KafkaNotifier publishes messages to an SMS outbox topic. Messages are
// keyed by destination so one phone's texts stay ordered.
type KafkaNotifier struct {
	writer  MessageWriter
	timeout time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

// NewKafkaNotifier wraps writer. timeout bounds each publish.
func NewKafkaNotifier(writer MessageWriter, timeout time.Duration, logger *slog.Logger) *KafkaNotifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &KafkaNotifier{
		writer:  writer,
		timeout: timeout,
		logger:  logger.With(slog.String("component", "sms-outbox")),
		now:     time.Now,
	}
}

// Send publishes message once. Failures are returned, not retried.
func (n *KafkaNotifier) Send(ctx context.Context, message Message) error {
	event := outboxEvent{
		ID:          uuid.NewString(),
		Kind:        message.Kind,
		Destination: message.Destination,
		Body:        message.Body,
		CreatedAt:   n.now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode sms event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()
	err = n.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(message.Destination),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "kind", Value: []byte(message.Kind)},
		},
	})
	if err != nil {
		return fmt.Errorf("publish sms event: %w", err)
	}
	n.logger.Debug("sms queued", slog.String("id", event.ID), slog.String("kind", event.Kind), logging.Phone(event.Destination))
	return nil
}
