// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Server, Postgres, Kafka, Redis, Indexer, Ranking, Search, etc.).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Postgres PostgresConfig `yaml:"postgres"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Redis    RedisConfig    `yaml:"redis"`
	Indexer  IndexerConfig  `yaml:"indexer"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Ranking  RankingConfig  `yaml:"ranking"`
	Search   SearchConfig   `yaml:"search"`
	Logging  LoggingConfig  `yaml:"logging"`
	Tracing  TracingConfig  `yaml:"tracing"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	CORSOrigins     []string      `yaml:"corsOrigins"`
}

// PostgresConfig holds PostgreSQL connection parameters. The catalog is
// optional; when Enabled is false the indexer skips it.
type PostgresConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Enabled       bool        `yaml:"enabled"`
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	IndexComplete string `yaml:"indexComplete"`
}

// RedisConfig holds Redis connection and caching parameters.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// IndexerConfig controls where the corpus is read from, where snapshots are
// written, and how the build pool is sized.
type IndexerConfig struct {
	TextDir         string `yaml:"textDir"`
	Extension       string `yaml:"extension"`
	DataDir         string `yaml:"dataDir"`
	Workers         int    `yaml:"workers"`
	TitleFromPath   bool   `yaml:"titleFromPath"`
	VectorsPath     string `yaml:"vectorsPath"`
	VectorCacheSize int    `yaml:"vectorCacheSize"`
}

// AnalysisConfig points at the stopword list and the synonym dictionary.
// An empty StopwordsPath selects the built-in Spanish list.
type AnalysisConfig struct {
	StopwordsPath string `yaml:"stopwordsPath"`
	SynonymsPath  string `yaml:"synonymsPath"`
}

// RankingConfig holds the scoring parameters.
type RankingConfig struct {
	TFIDFSmoothIDF   bool               `yaml:"tfidfSmoothIdf"`
	TFIDFNormalize   bool               `yaml:"tfidfNormalize"`
	BM25K1           float64            `yaml:"bm25K1"`
	BM25B            float64            `yaml:"bm25B"`
	BM25FieldWeights map[string]float64 `yaml:"bm25FieldWeights"`
	SemanticWeight   float64            `yaml:"semanticWeight"`
	// TextFields feed TF-IDF and the document embeddings; every field
	// reaches BM25F.
	TextFields []string `yaml:"textFields"`
}

// SearchConfig controls query execution limits and timeouts.
type SearchConfig struct {
	MaxResults         int           `yaml:"maxResults"`
	DefaultLimit       int           `yaml:"defaultLimit"`
	DefaultTFIDFWeight float64       `yaml:"defaultTfidfWeight"`
	QueryTimeout       time.Duration `yaml:"queryTimeout"`
	ExpandSynonyms     bool          `yaml:"expandSynonyms"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TracingConfig controls per-stage span logging.
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with sensible defaults for any
// missing values. The result is not validated; call Validate.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}
	return cfg, nil
}

// Validate rejects out-of-range ranking and search parameters.
func (c *Config) Validate() error {
	var errs []error
	if c.Ranking.BM25K1 < 0 {
		errs = append(errs, fmt.Errorf("ranking.bm25K1 must be >= 0, got %v", c.Ranking.BM25K1))
	}
	if !unit(c.Ranking.BM25B) {
		errs = append(errs, fmt.Errorf("ranking.bm25B must be in [0,1], got %v", c.Ranking.BM25B))
	}
	if !unit(c.Ranking.SemanticWeight) {
		errs = append(errs, fmt.Errorf("ranking.semanticWeight must be in [0,1], got %v", c.Ranking.SemanticWeight))
	}
	for field, w := range c.Ranking.BM25FieldWeights {
		if w < 0 {
			errs = append(errs, fmt.Errorf("ranking.bm25FieldWeights[%s] must be >= 0, got %v", field, w))
		}
	}
	if !unit(c.Search.DefaultTFIDFWeight) {
		errs = append(errs, fmt.Errorf("search.defaultTfidfWeight must be in [0,1], got %v", c.Search.DefaultTFIDFWeight))
	}
	if c.Search.DefaultLimit < 1 {
		errs = append(errs, fmt.Errorf("search.defaultLimit must be >= 1, got %d", c.Search.DefaultLimit))
	}
	if c.Search.MaxResults < c.Search.DefaultLimit {
		errs = append(errs, fmt.Errorf("search.maxResults (%d) must be >= defaultLimit (%d)", c.Search.MaxResults, c.Search.DefaultLimit))
	}
	if c.Search.QueryTimeout <= 0 {
		errs = append(errs, fmt.Errorf("search.queryTimeout must be positive, got %s", c.Search.QueryTimeout))
	}
	if c.Indexer.Workers < 1 {
		errs = append(errs, fmt.Errorf("indexer.workers must be >= 1, got %d", c.Indexer.Workers))
	}
	if c.Indexer.DataDir == "" {
		errs = append(errs, errors.New("indexer.dataDir must be set"))
	}
	return errors.Join(errs...)
}

func unit(x float64) bool {
	return x >= 0 && x <= 1
}

// defaultConfig returns a Config with defaults suited to local development.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			CORSOrigins:     []string{"*"},
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "hybridsearch",
			User:            "hybridsearch",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "hybridsearch-searcher",
			Topics: KafkaTopics{
				IndexComplete: "index.complete",
			},
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
			CacheTTL: 60 * time.Second,
		},
		Indexer: IndexerConfig{
			TextDir:         "data/text",
			Extension:       ".txt",
			DataDir:         "data/index",
			Workers:         4,
			TitleFromPath:   true,
			VectorCacheSize: 50000,
		},
		Ranking: RankingConfig{
			TFIDFSmoothIDF:   true,
			TFIDFNormalize:   true,
			BM25K1:           1.5,
			BM25B:            0.75,
			BM25FieldWeights: map[string]float64{"title": 2.0, "body": 1.0},
			SemanticWeight:   0,
			TextFields:       []string{"body"},
		},
		Search: SearchConfig{
			MaxResults:         100,
			DefaultLimit:       10,
			DefaultTFIDFWeight: 0.5,
			QueryTimeout:       2 * time.Second,
			ExpandSynonyms:     true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// envOverrides maps HS_* variables onto config fields. Each setter parses
// the raw value and reports malformed input.
func envOverrides(cfg *Config) map[string]func(string) error {
	str := func(dst *string) func(string) error {
		return func(v string) error { *dst = v; return nil }
	}
	integer := func(dst *int) func(string) error {
		return func(v string) error {
			n, err := strconv.Atoi(v)
			*dst = n
			return err
		}
	}
	float := func(dst *float64) func(string) error {
		return func(v string) error {
			f, err := strconv.ParseFloat(v, 64)
			*dst = f
			return err
		}
	}
	boolean := func(dst *bool) func(string) error {
		return func(v string) error {
			b, err := strconv.ParseBool(v)
			*dst = b
			return err
		}
	}
	list := func(dst *[]string) func(string) error {
		return func(v string) error {
			*dst = strings.Split(v, ",")
			return nil
		}
	}
	return map[string]func(string) error{
		"HS_SERVER_PORT":             integer(&cfg.Server.Port),
		"HS_POSTGRES_ENABLED":        boolean(&cfg.Postgres.Enabled),
		"HS_POSTGRES_HOST":           str(&cfg.Postgres.Host),
		"HS_POSTGRES_PORT":           integer(&cfg.Postgres.Port),
		"HS_POSTGRES_DATABASE":       str(&cfg.Postgres.Database),
		"HS_POSTGRES_USER":           str(&cfg.Postgres.User),
		"HS_POSTGRES_PASSWORD":       str(&cfg.Postgres.Password),
		"HS_POSTGRES_SSLMODE":        str(&cfg.Postgres.SSLMode),
		"HS_KAFKA_ENABLED":           boolean(&cfg.Kafka.Enabled),
		"HS_KAFKA_BROKERS":           list(&cfg.Kafka.Brokers),
		"HS_KAFKA_CONSUMER_GROUP":    str(&cfg.Kafka.ConsumerGroup),
		"HS_REDIS_ENABLED":           boolean(&cfg.Redis.Enabled),
		"HS_REDIS_ADDR":              str(&cfg.Redis.Addr),
		"HS_REDIS_PASSWORD":          str(&cfg.Redis.Password),
		"HS_INDEXER_TEXT_DIR":        str(&cfg.Indexer.TextDir),
		"HS_INDEXER_DATA_DIR":        str(&cfg.Indexer.DataDir),
		"HS_INDEXER_WORKERS":         integer(&cfg.Indexer.Workers),
		"HS_INDEXER_VECTORS_PATH":    str(&cfg.Indexer.VectorsPath),
		"HS_ANALYSIS_STOPWORDS_PATH": str(&cfg.Analysis.StopwordsPath),
		"HS_ANALYSIS_SYNONYMS_PATH":  str(&cfg.Analysis.SynonymsPath),
		"HS_RANKING_SEMANTIC_WEIGHT": float(&cfg.Ranking.SemanticWeight),
		"HS_LOGGING_LEVEL":           str(&cfg.Logging.Level),
		"HS_LOGGING_FORMAT":          str(&cfg.Logging.Format),
	}
}

func applyEnvOverrides(cfg *Config) error {
	var errs []error
	for name, set := range envOverrides(cfg) {
		v, ok := os.LookupEnv(name)
		if !ok || v == "" {
			continue
		}
		if err := set(v); err != nil {
			errs = append(errs, fmt.Errorf("%s=%q: %w", name, v, err))
		}
	}
	return errors.Join(errs...)
}
