// Package kafka carries typed JSON events over segmentio/kafka-go. A
// Producer[T] publishes values of T to a topic; a Consumer[T] decodes each
// message into T, hands it to a Handler and commits it once handled.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/pkg/resilience"
)

const (
	headerContentType = "content-type"
	headerSentAt      = "sent-at"
)

// ErrSkip may be returned (wrapped) by a Handler to commit a message it
// chose not to act on.
var ErrSkip = errors.New("message skipped")

type Handler[T any] func(ctx context.Context, key string, v T) error

type Consumer[T any] struct {
	reader  *kafka.Reader
	handler Handler[T]
	retry   resilience.Backoff
	logger  *slog.Logger
}

// ConsumerOption adjusts the reader configuration.
type ConsumerOption func(*kafka.ReaderConfig)

// FromBeginning makes a new consumer group start at the oldest retained
// message instead of the newest.
func FromBeginning() ConsumerOption {
	return func(rc *kafka.ReaderConfig) { rc.StartOffset = kafka.FirstOffset }
}

func NewConsumer[T any](cfg config.KafkaConfig, topic string, h Handler[T], opts ...ConsumerOption) *Consumer[T] {
	rc := kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       topic,
		GroupID:     cfg.ConsumerGroup,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.LastOffset,
	}
	for _, opt := range opts {
		opt(&rc)
	}
	return &Consumer[T]{
		reader:  kafka.NewReader(rc),
		handler: h,
		retry:   resilience.Backoff{Attempts: 3, Initial: 500 * time.Millisecond},
		logger:  slog.Default().With("component", "kafka-consumer", "topic", topic, "group", cfg.ConsumerGroup),
	}
}

// Start consumes until ctx is cancelled, then returns nil. Close the
// consumer after Start returns.
func (c *Consumer[T]) Start(ctx context.Context) error {
	c.logger.Info("consumer started")
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("consumer stopping")
				return nil
			}
			c.logger.Error("fetch failed", "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}
		if !c.process(ctx, msg) {
			continue
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.logger.Error("commit failed", "partition", msg.Partition, "offset", msg.Offset, "error", err)
		}
	}
}

// process handles one message and reports whether it should be committed.
// Messages that do not decode are committed so they cannot wedge the
// partition; a handler that keeps failing leaves its message uncommitted.
func (c *Consumer[T]) process(ctx context.Context, msg kafka.Message) bool {
	log := c.logger.With("partition", msg.Partition, "offset", msg.Offset, "key", string(msg.Key))
	v, err := decode[T](msg.Value)
	if err != nil {
		log.Error("dropping undecodable message", "error", err)
		return true
	}
	err = resilience.Retry(ctx, "kafka-handle", c.retry, func(ctx context.Context) error {
		err := c.handle(ctx, string(msg.Key), v)
		if errors.Is(err, ErrSkip) {
			return resilience.Permanent(err)
		}
		return err
	})
	switch {
	case err == nil:
		return true
	case errors.Is(err, ErrSkip):
		log.Warn("message skipped", "reason", err)
		return true
	default:
		log.Error("handler failed", "error", err)
		return false
	}
}

// handle runs the handler, turning a panic into a permanent error so one bad
// message cannot stop the consumer.
func (c *Consumer[T]) handle(ctx context.Context, key string, v T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = resilience.Permanent(fmt.Errorf("handler panicked: %v", r))
		}
	}()
	return c.handler(ctx, key, v)
}

func (c *Consumer[T]) Close() error {
	return c.reader.Close()
}

func decode[T any](value []byte) (T, error) {
	var v T
	if err := json.Unmarshal(value, &v); err != nil {
		return v, fmt.Errorf("decoding %T: %w", v, err)
	}
	return v, nil
}
