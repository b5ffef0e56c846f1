// Command loadtest drives concurrent search traffic against a running
// searcher and reports throughput, latency percentiles and cache hit rate.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/pkg/proto"
)

var defaultQueries = []string{
	"perro",
	"la casa del bosque",
	"canción de amor",
	"historia de españa",
	"el niño y el mar",
	"pájaros al amanecer",
	"guerra y paz",
	"la ciudad y los perros",
	"poesía",
	"cien años de soledad",
	"río",
	"corazón",
}

type Config struct {
	BaseURL     string
	Concurrency int
	Duration    time.Duration
	Top         int
	Weight      string
	Queries     []string
}

// loadQueries reads a YAML list of query strings.
func loadQueries(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading queries file: %w", err)
	}
	var queries []string
	if err := yaml.Unmarshal(data, &queries); err != nil {
		return nil, fmt.Errorf("parsing queries file %s: %w", path, err)
	}
	if len(queries) == 0 {
		return nil, fmt.Errorf("queries file %s is empty", path)
	}
	return queries, nil
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "base URL of the search service")
	concurrency := flag.Int("concurrency", 10, "number of concurrent workers")
	duration := flag.Duration("duration", 30*time.Second, "test duration")
	top := flag.Int("top", 10, "results per query")
	weight := flag.String("weight", "", "TF-IDF weight sent with every query (server default when empty)")
	queriesPath := flag.String("queries", "", "YAML list of queries (built-in list when empty)")
	flag.Parse()

	queries := defaultQueries
	if *queriesPath != "" {
		var err error
		if queries, err = loadQueries(*queriesPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	cfg := Config{
		BaseURL:     *baseURL,
		Concurrency: *concurrency,
		Duration:    *duration,
		Top:         *top,
		Weight:      *weight,
		Queries:     queries,
	}

	fmt.Println("=== Hybrid Search Load Test ===")
	fmt.Printf("Target:      %s\n", cfg.BaseURL)
	fmt.Printf("Concurrency: %d\n", cfg.Concurrency)
	fmt.Printf("Duration:    %s\n", cfg.Duration)
	fmt.Printf("Queries:     %d unique\n", len(cfg.Queries))
	fmt.Println()

	start := time.Now()
	stats := run(cfg)
	summary := stats.Summarize(time.Since(start))
	summary.Print(os.Stdout)

	if summary.Total == 0 {
		fmt.Println()
		fmt.Println("WARNING: No requests completed. Is the service running?")
		os.Exit(1)
	}
}

func searchURL(cfg Config, query string) string {
	v := url.Values{}
	v.Set("q", query)
	v.Set("top", strconv.Itoa(cfg.Top))
	if cfg.Weight != "" {
		v.Set("weight", cfg.Weight)
	}
	return cfg.BaseURL + "/api/v1/search?" + v.Encode()
}

func run(cfg Config) *Stats {
	stats := NewStats()
	client := &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        cfg.Concurrency * 2,
			MaxIdleConnsPerHost: cfg.Concurrency * 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration)
	defer cancel()

	var wg sync.WaitGroup
	for w := 0; w < cfg.Concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := worker; ctx.Err() == nil; i++ {
				o := do(ctx, client, searchURL(cfg, cfg.Queries[i%len(cfg.Queries)]))
				if ctx.Err() != nil && o.Err != nil {
					return
				}
				stats.Record(o)
			}
		}(w)
	}
	wg.Wait()
	return stats
}

func do(ctx context.Context, client *http.Client, rawURL string) Outcome {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Outcome{Err: err}
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return Outcome{Latency: time.Since(start), Err: err}
	}
	defer resp.Body.Close()
	o := Outcome{StatusCode: resp.StatusCode}
	if resp.StatusCode == http.StatusOK {
		var body proto.SearchResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			o.Err = fmt.Errorf("decoding response: %w", err)
		}
		o.Cached = body.Cached
		o.Results = body.Total
	}
	o.Latency = time.Since(start)
	return o
}
