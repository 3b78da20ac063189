package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Producer writes CloudEvents to Kafka topics.
type Producer struct {
	writer *kafkago.Writer
	logger *zap.Logger
}

// NewProducer creates a Producer for the given brokers. The topic is chosen
// per message.
func NewProducer(brokers []string, logger *zap.Logger) *Producer {
	return &Producer{
		writer: &kafkago.Writer{
			Addr:                   kafkago.TCP(brokers...),
			Balancer:               &kafkago.Hash{},
			RequiredAcks:           kafkago.RequireOne,
			BatchTimeout:           10 * time.Millisecond,
			AllowAutoTopicCreation: true,
		},
		logger: logger,
	}
}

// PublishEvent writes evt to topic keyed by the event id. Use PublishKeyed
// when events about one entity must stay ordered.
func (p *Producer) PublishEvent(ctx context.Context, topic string, evt CloudEvent) error {
	return p.PublishKeyed(ctx, topic, evt.ID, evt)
}

// PublishKeyed writes evt to topic with an explicit partition key.
func (p *Producer) PublishKeyed(ctx context.Context, topic, key string, evt CloudEvent) error {
	value, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal cloud event: %w", err)
	}

	if err := p.writer.WriteMessages(ctx, kafkago.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
	}); err != nil {
		return fmt.Errorf("failed to write message to %s: %w", topic, err)
	}

	p.logger.Debug("event published",
		zap.String("topic", topic),
		zap.String("type", evt.Type),
		zap.String("id", evt.ID),
	)
	return nil
}

// Close flushes pending writes.
func (p *Producer) Close() error {
	return p.writer.Close()
}

// Publisher is implemented by Producer and NopProducer.
type Publisher interface {
	PublishEvent(ctx context.Context, topic string, evt CloudEvent) error
	PublishKeyed(ctx context.Context, topic, key string, evt CloudEvent) error
	Close() error
}

// NopProducer discards events. It stands in for Producer when no brokers are
// configured.
type NopProducer struct{}

// PublishEvent implements the same method of Producer.
func (NopProducer) PublishEvent(context.Context, string, CloudEvent) error { return nil }

// PublishKeyed implements the same method of Producer.
func (NopProducer) PublishKeyed(context.Context, string, string, CloudEvent) error { return nil }

// Close implements the same method of Producer.
func (NopProducer) Close() error { return nil }
