// Package kafka publishes outbox messages to a Kafka topic.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/heartmarshall/ndep-backend/internal/config"
	"github.com/heartmarshall/ndep-backend/internal/domain"
)

// Header keys set on every published message.
const (
	HeaderEventType = "event_type"
	HeaderMessageID = "message_id"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes outbox messages to Kafka, keyed by aggregate ID so that
// all events of one evidence item land on the same partition in order.
type Publisher struct {
	writer messageWriter
	topic  string
	log    *slog.Logger
}

// NewPublisher creates a synchronous kafka-go writer from cfg.
func NewPublisher(cfg config.KafkaConfig, logger *slog.Logger) (*Publisher, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return nil, errors.New("kafka: brokers and topic are required")
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = 100 * time.Millisecond
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}

	log := logger.With("component", "kafka_publisher")
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    batchSize,
		BatchTimeout: batchTimeout,
		RequiredAcks: requiredAcks(cfg.RequiredAcks),
		WriteTimeout: writeTimeout,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...any) {
			log.Error(fmt.Sprintf(msg, args...))
		}),
	}

	log.Info("kafka publisher created",
		slog.Any("brokers", cfg.Brokers),
		slog.String("topic", cfg.Topic),
	)
	return newPublisher(w, cfg.Topic, log), nil
}

func newPublisher(w messageWriter, topic string, log *slog.Logger) *Publisher {
	return &Publisher{writer: w, topic: topic, log: log}
}

// requiredAcks maps the config value; anything unknown waits for all replicas.
func requiredAcks(v string) kafka.RequiredAcks {
	switch v {
	case "none":
		return kafka.RequireNone
	case "one":
		return kafka.RequireOne
	default:
		return kafka.RequireAll
	}
}

// Publish writes msgs in one batch. It returns only after the broker
// acknowledged them according to the configured acks.
func (p *Publisher) Publish(ctx context.Context, msgs []domain.OutboxMessage) error {
	if len(msgs) == 0 {
		return nil
	}

	out := make([]kafka.Message, len(msgs))
	for i, m := range msgs {
		out[i] = kafka.Message{
			Key:   []byte(m.AggregateID),
			Value: m.Payload,
			Time:  m.CreatedAt,
			Headers: []kafka.Header{
				{Key: HeaderEventType, Value: []byte(m.EventType)},
				{Key: HeaderMessageID, Value: []byte(m.ID.String())},
			},
		}
	}

	if err := p.writer.WriteMessages(ctx, out...); err != nil {
		return fmt.Errorf("kafka publish %d messages to %s: %w", len(msgs), p.topic, err)
	}
	p.log.DebugContext(ctx, "published", slog.Int("count", len(msgs)))
	return nil
}

// Close flushes pending writes and releases the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
