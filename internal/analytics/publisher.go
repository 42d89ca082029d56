package analytics

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/segmentio/kafka-go"
)

// Publisher sends query events to Kafka. Publishing is strictly best-effort:
// a broker outage must never fail the user interaction that produced the
// event. A nil *Publisher is valid and drops everything.
type Publisher struct {
	writer *kafka.Writer
	log    *slog.Logger
}

// NewPublisher returns a publisher for the given brokers, or nil when no
// brokers are configured.
func NewPublisher(brokers []string, topic string, log *slog.Logger) *Publisher {
	if len(brokers) == 0 {
		return nil
	}
	return &Publisher{
		writer: kafka.NewWriter(kafka.WriterConfig{
			Brokers:     brokers,
			Topic:       topic,
			MaxAttempts: 3,
		}),
		log: log,
	}
}

// Publish writes one event, logging failures instead of returning them.
func (p *Publisher) Publish(ctx context.Context, ev Event) {
	if p == nil {
		return
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		p.log.Warn("marshal query event", slog.Any("err", err))
		return
	}

	msg := kafka.Message{Key: []byte(ev.UserID), Value: payload}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Warn("publish query event", slog.Any("err", err), slog.String("event_id", ev.ID))
	}
}

// Close releases the underlying Kafka writer.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}
