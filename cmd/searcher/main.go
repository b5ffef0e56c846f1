package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/embed"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/indexer/segment"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/searcher/consumer"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/searcher/expansion"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/searcher/scorer"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/pkg/middleware"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/pkg/redis"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup("searcher", cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting search service", "port", cfg.Server.Port, "data_dir", cfg.Indexer.DataDir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	if cfg.Metrics.Enabled {
		shutdownMetrics := m.Serve(cfg.Metrics.Port)
		defer shutdownMetrics(context.Background())
	}

	normalizer, err := tokenizer.NewFromFile(cfg.Analysis.StopwordsPath)
	if err != nil {
		slog.Error("failed to load stopwords", "error", err)
		os.Exit(1)
	}
	dictionary, err := expansion.Load(cfg.Analysis.SynonymsPath)
	if err != nil {
		slog.Error("failed to load synonym dictionary", "error", err)
		os.Exit(1)
	}

	snap, err := segment.OpenLatest(cfg.Indexer.DataDir)
	if err != nil {
		slog.Error("failed to open snapshot", "data_dir", cfg.Indexer.DataDir, "error", err)
		os.Exit(1)
	}
	m.SnapshotDocuments.Set(float64(snap.DocCount()))

	var provider embed.Provider
	if cfg.Indexer.VectorsPath != "" && cfg.Ranking.SemanticWeight > 0 {
		vectors, err := embed.LoadVecFile(cfg.Indexer.VectorsPath, nil, tokenizer.Fold)
		if err != nil {
			slog.Error("failed to load word vectors", "error", err)
			os.Exit(1)
		}
		provider = embed.NewCached(vectors, cfg.Indexer.VectorCacheSize)
	}

	exec := executor.New(parser.New(normalizer, dictionary, cfg.Search.ExpandSynonyms), provider, executor.Options{
		BM25F: scorer.BM25FParams{
			K1:           cfg.Ranking.BM25K1,
			B:            cfg.Ranking.BM25B,
			FieldWeights: cfg.Ranking.BM25FieldWeights,
		},
		SemanticWeight:     cfg.Ranking.SemanticWeight,
		DefaultTopN:        cfg.Search.DefaultLimit,
		MaxTopN:            cfg.Search.MaxResults,
		DefaultTFIDFWeight: cfg.Search.DefaultTFIDFWeight,
		QueryTimeout:       cfg.Search.QueryTimeout,
		Trace:              cfg.Tracing.Enabled,
		Metrics:            m,
	})
	exec.Swap(snap)

	checker := health.NewChecker(2 * time.Second)
	checker.Register("snapshot", func(ctx context.Context) health.Result {
		s := exec.Load()
		if s == nil {
			return health.Result{Status: health.StatusDown, Detail: "no snapshot loaded"}
		}
		return health.Result{Status: health.StatusUp, Detail: fmt.Sprintf("%s, %d documents", s.Version, s.DocCount())}
	})

	var queryCache *cache.QueryCache
	if cfg.Redis.Enabled {
		redisClient, err := pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, search caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			queryCache = cache.New(redisClient, normalizer, cfg.Redis.CacheTTL, m)
			checker.Register("redis", health.Ping(redisClient.Ping, false))
			slog.Info("search cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	var invalidator consumer.Invalidator
	if queryCache != nil {
		invalidator = queryCache
	}
	reloader := consumer.NewReloader(cfg.Indexer.DataDir, exec, invalidator, m)

	if cfg.Kafka.Enabled {
		kafkaConsumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.IndexComplete, consumer.HandleIndexComplete(reloader))
		reloadConsumer := consumer.New(kafkaConsumer)
		defer reloadConsumer.Close()
		go func() {
			if err := reloadConsumer.Start(ctx); err != nil {
				slog.Error("reload consumer stopped", "error", err)
			}
		}()
		slog.Info("listening for index.complete events",
			"topic", cfg.Kafka.Topics.IndexComplete,
			"group", cfg.Kafka.ConsumerGroup,
		)
	}

	texts := corpus.Store{Dir: cfg.Indexer.TextDir, Extension: cfg.Indexer.Extension}
	h := handler.New(exec, queryCache, reloader, texts, m)

	mux := h.Routes()
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	chain := middleware.Chain(mux,
		middleware.RequestID,
		middleware.Metrics(m, slices.Concat(handler.Paths, []string{"/health/live", "/health/ready"})...),
		middleware.CORS(middleware.DefaultCORSConfig(cfg.Server.CORSOrigins)),
		middleware.Timeout(cfg.Server.WriteTimeout),
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("search service listening", "addr", server.Addr, "snapshot", snap.Version)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("search service stopped")
}
