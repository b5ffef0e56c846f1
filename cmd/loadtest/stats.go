package main

import (
	"fmt"
	"io"
	"math"
	"sort"
	"sync"
	"time"
)

// Stats accumulates per-request outcomes from all workers.
type Stats struct {
	mu          sync.Mutex
	total       int64
	success     int64
	errors      int64
	cacheHits   int64
	empty       int64
	latencies   []time.Duration
	statusCodes map[int]int64
}

func NewStats() *Stats {
	return &Stats{
		latencies:   make([]time.Duration, 0, 100000),
		statusCodes: make(map[int]int64),
	}
}

// Outcome is one completed request.
type Outcome struct {
	Latency    time.Duration
	StatusCode int
	Err        error
	Cached     bool
	Results    int
}

func (s *Stats) Record(o Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total++
	if o.Err != nil {
		s.errors++
		return
	}
	s.statusCodes[o.StatusCode]++
	if o.StatusCode < 200 || o.StatusCode >= 300 {
		s.errors++
		return
	}
	s.success++
	if o.Cached {
		s.cacheHits++
	}
	if o.Results == 0 {
		s.empty++
	}
	s.latencies = append(s.latencies, o.Latency)
}

// Summary is the aggregate view printed at the end of a run.
type Summary struct {
	Total, Success, Errors, CacheHits, Empty int64
	RPS                                      float64
	Min, Avg, P50, P90, P95, P99, Max        time.Duration
	StdDev                                   time.Duration
	StatusCodes                              map[int]int64
}

func (s *Stats) Summarize(elapsed time.Duration) Summary {
	s.mu.Lock()
	latencies := append([]time.Duration(nil), s.latencies...)
	sum := Summary{
		Total:       s.total,
		Success:     s.success,
		Errors:      s.errors,
		CacheHits:   s.cacheHits,
		Empty:       s.empty,
		StatusCodes: make(map[int]int64, len(s.statusCodes)),
	}
	for code, n := range s.statusCodes {
		sum.StatusCodes[code] = n
	}
	s.mu.Unlock()

	if elapsed > 0 {
		sum.RPS = float64(sum.Total) / elapsed.Seconds()
	}
	if len(latencies) == 0 {
		return sum
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	var total time.Duration
	for _, l := range latencies {
		total += l
	}
	sum.Avg = total / time.Duration(len(latencies))
	var sq float64
	for _, l := range latencies {
		d := float64(l - sum.Avg)
		sq += d * d
	}
	sum.StdDev = time.Duration(math.Sqrt(sq / float64(len(latencies))))
	sum.Min = latencies[0]
	sum.Max = latencies[len(latencies)-1]
	sum.P50 = percentile(latencies, 50)
	sum.P90 = percentile(latencies, 90)
	sum.P95 = percentile(latencies, 95)
	sum.P99 = percentile(latencies, 99)
	return sum
}

func (sum Summary) Print(w io.Writer) {
	fmt.Fprintln(w, "=== Results ===")
	fmt.Fprintf(w, "Total Requests:  %d\n", sum.Total)
	fmt.Fprintf(w, "Successful:      %d\n", sum.Success)
	fmt.Fprintf(w, "Errors:          %d\n", sum.Errors)
	if sum.Total > 0 {
		fmt.Fprintf(w, "Error Rate:      %.2f%%\n", float64(sum.Errors)/float64(sum.Total)*100)
		fmt.Fprintf(w, "Requests/sec:    %.2f\n", sum.RPS)
	}
	if sum.Success > 0 {
		fmt.Fprintf(w, "Cache Hit Rate:  %.2f%%\n", float64(sum.CacheHits)/float64(sum.Success)*100)
		fmt.Fprintf(w, "Empty Results:   %d\n", sum.Empty)
	}
	if sum.Max > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "=== Latency ===")
		fmt.Fprintf(w, "Min:    %s\n", sum.Min)
		fmt.Fprintf(w, "Avg:    %s\n", sum.Avg)
		fmt.Fprintf(w, "P50:    %s\n", sum.P50)
		fmt.Fprintf(w, "P90:    %s\n", sum.P90)
		fmt.Fprintf(w, "P95:    %s\n", sum.P95)
		fmt.Fprintf(w, "P99:    %s\n", sum.P99)
		fmt.Fprintf(w, "Max:    %s\n", sum.Max)
		fmt.Fprintf(w, "StdDev: %s\n", sum.StdDev)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Status Codes ===")
	codes := make([]int, 0, len(sum.StatusCodes))
	for code := range sum.StatusCodes {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	for _, code := range codes {
		fmt.Fprintf(w, "  %d: %d\n", code, sum.StatusCodes[code])
	}
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	idx = max(0, min(idx, len(sorted)-1))
	return sorted[idx]
}
