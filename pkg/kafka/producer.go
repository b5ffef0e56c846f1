package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/pkg/resilience"
)

// Producer publishes values of type T to one topic as JSON.
type Producer[T any] struct {
	writer *kafka.Writer
	logger *slog.Logger
}

func NewProducer[T any](cfg config.KafkaConfig, topic string) *Producer[T] {
	return &Producer[T]{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			BatchTimeout:           10 * time.Millisecond,
			MaxAttempts:            1,
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
		},
		logger: slog.Default().With("component", "kafka-producer", "topic", topic),
	}
}

// Publish writes v synchronously under key, retrying broker errors with
// backoff. Values that cannot be encoded fail without a retry.
func (p *Producer[T]) Publish(ctx context.Context, key string, v T) error {
	value, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %T: %w", v, err)
	}
	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{Key: headerContentType, Value: []byte("application/json")},
			{Key: headerSentAt, Value: []byte(strconv.FormatInt(time.Now().UnixMilli(), 10))},
		},
	}
	err = resilience.Retry(ctx, "kafka-publish", resilience.Backoff{Attempts: 4, Initial: 250 * time.Millisecond}, func(ctx context.Context) error {
		return p.writer.WriteMessages(ctx, msg)
	})
	if err != nil {
		p.logger.Error("publish failed", "key", key, "error", err)
		return fmt.Errorf("publishing %s: %w", key, err)
	}
	p.logger.Debug("published", "key", key, "bytes", len(value))
	return nil
}

func (p *Producer[T]) Close() error {
	return p.writer.Close()
}
