package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/covid-data-tracker/internal/config"
	"github.com/couchcryptid/covid-data-tracker/internal/domain"
	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
)

// Publisher produces cleaned observations to a Kafka topic.
// It implements pipeline.Publisher.
type Publisher struct {
	writer *kafkago.Writer
	clock  clockwork.Clock
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured topic.
func NewPublisher(cfg *config.Config, clock clockwork.Clock, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchSize:    500,
	}
	return &Publisher{writer: w, clock: clock, logger: logger}
}

// Publish serializes and writes all observations in a single WriteMessages
// call. Messages are keyed by location and date, so reruns of the same
// dataset produce the same keys.
func (p *Publisher) Publish(ctx context.Context, rows []domain.Observation) error {
	if len(rows) == 0 {
		return nil
	}
	processedAt := p.clock.Now().UTC()
	msgs := make([]kafkago.Message, len(rows))
	for i := range rows {
		msg, err := serializeToMessage(rows[i], processedAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write observations: %w", err)
	}
	p.logger.Debug("observations published", "topic", p.writer.Topic, "count", len(msgs))
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// Message is the JSON value of every published record.
type Message struct {
	domain.Observation
	ProcessedAt time.Time `json:"processed_at"`
}

// serializeToMessage marshals an Observation into a Kafka message.
func serializeToMessage(o domain.Observation, processedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(Message{Observation: o, ProcessedAt: processedAt})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize observation %s: %w", o.Key(), err)
	}
	return kafkago.Message{
		Key:   []byte(o.Key()),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "location", Value: []byte(o.Location)},
			{Key: "iso_code", Value: []byte(o.ISOCode)},
			{Key: "processed_at", Value: []byte(processedAt.Format(time.RFC3339))},
		},
	}, nil
}
