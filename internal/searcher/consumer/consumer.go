package consumer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/pkg/proto"
)

// ReloadConsumer wraps a Kafka consumer of index.complete events.
type ReloadConsumer struct {
	consumer *kafka.Consumer[proto.IndexComplete]
	logger   *slog.Logger
}

// New creates a ReloadConsumer backed by the given Kafka consumer, which
// should have been built with HandleIndexComplete.
func New(kafkaConsumer *kafka.Consumer[proto.IndexComplete]) *ReloadConsumer {
	return &ReloadConsumer{
		consumer: kafkaConsumer,
		logger:   slog.Default().With("component", "reload-consumer"),
	}
}

// Start begins consuming. It blocks until ctx is cancelled.
func (rc *ReloadConsumer) Start(ctx context.Context) error {
	rc.logger.Info("reload consumer starting")
	return rc.consumer.Start(ctx)
}

func (rc *ReloadConsumer) Close() error {
	return rc.consumer.Close()
}

// HandleIndexComplete returns a Handler that reloads the snapshot an event
// announces. Events without a version are skipped; a failed open is
// returned so the message stays uncommitted.
func HandleIndexComplete(r *Reloader) kafka.Handler[proto.IndexComplete] {
	logger := slog.Default().With("component", "reload-consumer")
	return func(ctx context.Context, key string, event proto.IndexComplete) error {
		if event.Version == "" {
			return fmt.Errorf("index.complete event %q without version: %w", key, kafka.ErrSkip)
		}
		resp, err := r.ReloadEvent(ctx, event)
		if err != nil {
			return err
		}
		logger.Info("snapshot reloaded from event",
			"version", resp.Version,
			"previous_version", resp.PreviousVersion,
			"documents", resp.Documents,
			"changed", resp.Changed,
		)
		return nil
	}
}
