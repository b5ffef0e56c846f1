package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/catalog"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/embed"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/indexer/segment"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/pkg/proto"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	textDir := flag.String("text-dir", "", "override indexer.textDir")
	outDir := flag.String("out", "", "override indexer.dataDir")
	keep := flag.Int("keep", 3, "number of snapshot files to retain")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *textDir != "" {
		cfg.Indexer.TextDir = *textDir
	}
	if *outDir != "" {
		cfg.Indexer.DataDir = *outDir
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup("indexer", cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting indexer",
		"text_dir", cfg.Indexer.TextDir,
		"data_dir", cfg.Indexer.DataDir,
		"workers", cfg.Indexer.Workers,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *keep); err != nil {
		slog.Error("indexer failed", "error", err)
		os.Exit(1)
	}
	slog.Info("indexer finished")
}

func run(ctx context.Context, cfg *config.Config, keep int) error {
	m := metrics.New()
	if cfg.Metrics.Enabled {
		shutdown := m.Serve(cfg.Metrics.Port)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			shutdown(shutdownCtx)
		}()
	}

	normalizer, err := tokenizer.NewFromFile(cfg.Analysis.StopwordsPath)
	if err != nil {
		return fmt.Errorf("loading stopwords: %w", err)
	}
	slog.Info("normalizer ready", "stopwords", normalizer.StopWordCount())

	docs, err := corpus.Load(ctx, corpus.Options{
		Dir:           cfg.Indexer.TextDir,
		Extension:     cfg.Indexer.Extension,
		TitleFromPath: cfg.Indexer.TitleFromPath,
	})
	if err != nil {
		return err
	}

	var provider embed.Provider
	if cfg.Indexer.VectorsPath != "" {
		vocab := indexer.Vocabulary(normalizer, docs)
		vectors, err := embed.LoadVecFile(cfg.Indexer.VectorsPath, vocab, tokenizer.Fold)
		if err != nil {
			return err
		}
		provider = embed.NewCached(vectors, cfg.Indexer.VectorCacheSize)
	}

	engine := indexer.NewEngine(normalizer, provider, indexer.Options{
		Workers: cfg.Indexer.Workers,
		Lexical: index.LexicalOptions{
			SmoothIDF: cfg.Ranking.TFIDFSmoothIDF,
			Normalize: cfg.Ranking.TFIDFNormalize,
			Fields:    cfg.Ranking.TextFields,
		},
	}, m)
	snap, err := engine.Build(ctx, docs)
	if err != nil {
		return err
	}

	writer := segment.NewWriter(cfg.Indexer.DataDir)
	path, err := writer.Write(snap)
	if err != nil {
		return err
	}
	if removed, err := writer.Prune(keep); err != nil {
		slog.Warn("pruning old snapshots failed", "error", err)
	} else if removed > 0 {
		slog.Info("old snapshots pruned", "removed", removed, "kept", keep)
	}

	// The snapshot is durable from here on; the catalog and the event are
	// attempted independently and either failure fails the run.
	var failed []error
	if cfg.Postgres.Enabled {
		if err := recordCatalog(ctx, cfg.Postgres, snap, path); err != nil {
			failed = append(failed, err)
		}
	}
	if cfg.Kafka.Enabled {
		if err := publish(ctx, cfg.Kafka, snap, path); err != nil {
			failed = append(failed, err)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("snapshot %s written but post-build steps failed: %v", snap.Version, failed)
	}
	return nil
}

func recordCatalog(ctx context.Context, cfg config.PostgresConfig, snap *index.Snapshot, path string) error {
	client, err := postgres.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connecting to catalog: %w", err)
	}
	defer client.Close()
	c := catalog.New(client.DB)
	if err := c.EnsureSchema(ctx); err != nil {
		return err
	}
	return c.Record(ctx, snap, path)
}

func publish(ctx context.Context, cfg config.KafkaConfig, snap *index.Snapshot, path string) error {
	producer := kafka.NewProducer[proto.IndexComplete](cfg, cfg.Topics.IndexComplete)
	defer producer.Close()
	return producer.Publish(ctx, snap.Version, proto.IndexComplete{
		Version:   snap.Version,
		Path:      path,
		Documents: snap.DocCount(),
		Terms:     snap.Terms(),
		Dimension: snap.Dimension(),
		BuiltAt:   snap.BuiltAt.UnixNano(),
	})
}
