package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	defaultHandleAttempts = 5
	defaultRetryBackoff   = 200 * time.Millisecond
	maxRetryBackoff       = 5 * time.Second
)

// MessageHandler processes one message. A non-nil error is retried in place;
// the message is committed only once the handler succeeds.
type MessageHandler func(ctx context.Context, msg kafkago.Message) error

type messageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Consumer reads one topic as a member of a consumer group.
type Consumer struct {
	reader   messageReader
	logger   *zap.Logger
	attempts int
	backoff  time.Duration
}

// NewConsumer creates a Consumer.
func NewConsumer(brokers []string, groupID, topic string, logger *zap.Logger) *Consumer {
	return &Consumer{
		reader: kafkago.NewReader(kafkago.ReaderConfig{
			Brokers:  brokers,
			GroupID:  groupID,
			Topic:    topic,
			MinBytes: 1,
			MaxBytes: 10e6,
		}),
		logger:   logger.With(zap.String("topic", topic), zap.String("group_id", groupID)),
		attempts: defaultHandleAttempts,
		backoff:  defaultRetryBackoff,
	}
}

// Consume blocks, passing each message to handle, until ctx is cancelled.
//
// A message whose handler keeps failing stops the loop with an error and is
// left uncommitted, so the group resumes from it on the next start. Later
// offsets are never committed past it.
func (c *Consumer) Consume(ctx context.Context, handle MessageHandler) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("failed to fetch message: %w", err)
		}

		if err := c.handleWithRetry(ctx, handle, msg); err != nil {
			return err
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Warn("failed to commit message",
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
		}
	}
}

func (c *Consumer) handleWithRetry(ctx context.Context, handle MessageHandler, msg kafkago.Message) error {
	wait := c.backoff
	var err error
	for attempt := 1; ; attempt++ {
		if err = handle(ctx, msg); err == nil {
			return nil
		}
		c.logger.Error("message handler failed",
			zap.Int("partition", msg.Partition),
			zap.Int64("offset", msg.Offset),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if attempt >= c.attempts {
			break
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		wait = min(wait*2, maxRetryBackoff)
	}
	return fmt.Errorf("message at partition %d offset %d failed after %d attempts: %w",
		msg.Partition, msg.Offset, c.attempts, err)
}

// Close leaves the group and closes the reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
