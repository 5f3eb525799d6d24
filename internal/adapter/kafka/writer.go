// Package kafka publishes dashboard interaction events.
package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/quake-dashboard/internal/config"
	"github.com/couchcryptid/quake-dashboard/internal/domain"
)

// messageWriter is the subset of *kafkago.Writer used by Writer.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer produces interaction events to a Kafka topic.
// It implements dashboard.InteractionRecorder.
type Writer struct {
	writer  messageWriter
	logger  *slog.Logger
	timeout time.Duration
}

// NewWriter creates a Kafka producer for the configured interactions topic.
// Each interaction is written on its own from inside a filter request, so
// batches flush at one message rather than waiting out the batch timeout.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaInteractionsTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireOne,
		BatchSize:              1,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger, timeout: 5 * time.Second}
}

// RecordInteraction publishes one interaction keyed by session id, so a
// session's events stay ordered within a partition.
func (w *Writer) RecordInteraction(ctx context.Context, in domain.Interaction) error {
	msg, err := serializeToMessage(in)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish interaction %s: %w", in.ID, err)
	}
	w.logger.Debug("interaction published", "id", in.ID, "action", in.Action, "session_id", in.SessionID)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an Interaction into a Kafka message.
func serializeToMessage(in domain.Interaction) (kafkago.Message, error) {
	data, err := json.Marshal(in)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize interaction: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(in.SessionID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "action", Value: []byte(in.Action)},
			{Key: "occurred_at", Value: []byte(in.OccurredAt.Format(time.RFC3339))},
		},
	}, nil
}
