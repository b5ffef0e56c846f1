package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults do not validate: %v", err)
	}
	if cfg.Ranking.BM25K1 != 1.5 || cfg.Ranking.BM25B != 0.75 {
		t.Errorf("bm25 defaults = %v/%v", cfg.Ranking.BM25K1, cfg.Ranking.BM25B)
	}
	if cfg.Ranking.BM25FieldWeights["title"] != 2 {
		t.Errorf("title weight = %v", cfg.Ranking.BM25FieldWeights["title"])
	}
	if len(cfg.Ranking.TextFields) != 1 || cfg.Ranking.TextFields[0] != "body" {
		t.Errorf("text fields = %v, want [body]", cfg.Ranking.TextFields)
	}
	if cfg.Search.DefaultLimit != 10 || cfg.Search.DefaultTFIDFWeight != 0.5 {
		t.Errorf("search defaults = %+v", cfg.Search)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	yamlDoc := `
ranking:
  bm25K1: 1.2
  semanticWeight: 0.3
search:
  queryTimeout: 500ms
  expandSynonyms: false
indexer:
  workers: 8
`
	if err := os.WriteFile(path, []byte(yamlDoc), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HS_INDEXER_DATA_DIR", "/tmp/snapshots")
	t.Setenv("HS_KAFKA_BROKERS", "a:9092,b:9092")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Ranking.BM25K1 != 1.2 || cfg.Ranking.SemanticWeight != 0.3 {
		t.Errorf("ranking = %+v", cfg.Ranking)
	}
	if cfg.Ranking.BM25B != 0.75 {
		t.Errorf("unset key should keep default, got b=%v", cfg.Ranking.BM25B)
	}
	if cfg.Search.QueryTimeout != 500*time.Millisecond || cfg.Search.ExpandSynonyms {
		t.Errorf("search = %+v", cfg.Search)
	}
	if cfg.Indexer.Workers != 8 || cfg.Indexer.DataDir != "/tmp/snapshots" {
		t.Errorf("indexer = %+v", cfg.Indexer)
	}
	if len(cfg.Kafka.Brokers) != 2 {
		t.Errorf("brokers = %v", cfg.Kafka.Brokers)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("HS_REDIS_ENABLED", "true")
	t.Setenv("HS_KAFKA_CONSUMER_GROUP", "searcher-2")
	t.Setenv("HS_RANKING_SEMANTIC_WEIGHT", "0.4")
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Redis.Enabled || cfg.Kafka.ConsumerGroup != "searcher-2" || cfg.Ranking.SemanticWeight != 0.4 {
		t.Errorf("overrides not applied: redis=%v group=%q weight=%v", cfg.Redis.Enabled, cfg.Kafka.ConsumerGroup, cfg.Ranking.SemanticWeight)
	}

	t.Setenv("HS_SERVER_PORT", "eighty")
	t.Setenv("HS_KAFKA_ENABLED", "maybe")
	_, err = Load("")
	if err == nil || !strings.Contains(err.Error(), "HS_SERVER_PORT") || !strings.Contains(err.Error(), "HS_KAFKA_ENABLED") {
		t.Errorf("err = %v, want both malformed variables reported", err)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("ranking: [1, 2"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"negative k1", func(c *Config) { c.Ranking.BM25K1 = -1 }, "bm25K1"},
		{"b above one", func(c *Config) { c.Ranking.BM25B = 1.5 }, "bm25B"},
		{"semantic weight", func(c *Config) { c.Ranking.SemanticWeight = 2 }, "semanticWeight"},
		{"field weight", func(c *Config) { c.Ranking.BM25FieldWeights["body"] = -1 }, "bm25FieldWeights"},
		{"tfidf weight", func(c *Config) { c.Search.DefaultTFIDFWeight = -0.1 }, "defaultTfidfWeight"},
		{"limit", func(c *Config) { c.Search.DefaultLimit = 0 }, "defaultLimit"},
		{"timeout", func(c *Config) { c.Search.QueryTimeout = 0 }, "queryTimeout"},
		{"workers", func(c *Config) { c.Indexer.Workers = 0 }, "workers"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want error mentioning %q", err, tt.want)
			}
		})
	}
}

func TestDevelopmentConfigIsValid(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "configs", "development.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
	if cfg.Ranking.BM25FieldWeights["title"] != 2.0 || cfg.Kafka.Topics.IndexComplete != "index.complete" {
		t.Errorf("ranking = %+v kafka = %+v", cfg.Ranking, cfg.Kafka)
	}
}
