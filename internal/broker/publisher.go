package broker

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
	"github.com/yanun0323/errors"
)

// Topic names shared between the producer jobs and their consumers.
const (
	TopicPrices       = "prices"
	TopicLatestPrices = "latest_prices"
	TopicSession      = "session"
)

// Publisher serializes values to JSON and writes them to a single topic.
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher wraps a kafka writer.
func NewPublisher(writer *kafka.Writer) *Publisher {
	return &Publisher{writer: writer}
}

// Publish marshals the value and writes one message keyed by key.
func (p *Publisher) Publish(ctx context.Context, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, "marshal broker message")
	}
	msg := kafka.Message{Value: payload}
	if key != "" {
		msg.Key = []byte(key)
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return errors.Wrapf(err, "write to topic %s", p.writer.Topic)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
