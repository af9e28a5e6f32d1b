package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/soltixdb/orelens/internal/analytics"
)

// BenchmarkConfig holds benchmark configuration
type BenchmarkConfig struct {
	BaseURL        string
	NumMines       int
	NumPoints      int
	SpikeRate      float64
	Duration       time.Duration
	AnalyzeWorkers int
	ReportWorkers  int
	DataWorkers    int
	ReportFormat   string
	APIKey         string
	OutputDir      string
	HTTPClient     *http.Client // Shared HTTP client for connection pooling
}

// Metrics holds latencies and counters for one request kind
type Metrics struct {
	Latencies  []float64
	Success    int64
	Errors     int64
	FirstError string
	mu         sync.Mutex
}

func (m *Metrics) record(latency float64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Latencies = append(m.Latencies, latency)
	if err != nil {
		atomic.AddInt64(&m.Errors, 1)
		if m.FirstError == "" {
			m.FirstError = err.Error()
		}
		return
	}
	atomic.AddInt64(&m.Success, 1)
}

// Result represents benchmark results
type Result struct {
	Operation  string
	TotalOps   int64
	SuccessOps int64
	ErrorOps   int64
	Duration   time.Duration
	Throughput float64 // ops/sec
	AvgLatency float64 // ms
	MinLatency float64 // ms
	MaxLatency float64 // ms
	P50Latency float64 // ms
	P95Latency float64 // ms
	P99Latency float64 // ms
	ErrorMsg   string  // First error message
}

// worker issues one request kind in a loop until the context ends
type worker struct {
	name    string
	count   int
	metrics *Metrics
	do      func(ctx context.Context, rng *rand.Rand) error
}

func main() {
	config := BenchmarkConfig{}
	flag.StringVar(&config.BaseURL, "url", "http://127.0.0.1:8080", "Base URL of the API")
	flag.IntVar(&config.NumMines, "mines", 5, "Number of mines in each synthetic dataset")
	flag.IntVar(&config.NumPoints, "points", 365, "Number of daily points per mine")
	flag.Float64Var(&config.SpikeRate, "spike-rate", 0.02, "Fraction of points replaced by a spike")
	flag.DurationVar(&config.Duration, "duration", 60*time.Second, "Benchmark duration")
	flag.IntVar(&config.AnalyzeWorkers, "analyze-workers", 8, "Concurrent POST /v1/analyze workers")
	flag.IntVar(&config.ReportWorkers, "report-workers", 1, "Concurrent POST /v1/report workers")
	flag.IntVar(&config.DataWorkers, "data-workers", 0, "Concurrent GET /v1/data workers (hits the configured source)")
	flag.StringVar(&config.ReportFormat, "report-format", "html", "Report format for report workers (html, pdf)")
	flag.StringVar(&config.APIKey, "api-key", "", "API key for authentication")
	flag.StringVar(&config.OutputDir, "out", "benchmark_results", "Directory for the results file")
	flag.Parse()

	config.HTTPClient = &http.Client{
		Timeout: 60 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	fmt.Printf("=== Orelens Benchmark Tool ===\n")
	fmt.Printf("Configuration:\n")
	writeConfig(os.Stdout, config)
	fmt.Printf("\n")

	workers := []*worker{
		{name: "Analyze", count: config.AnalyzeWorkers, metrics: &Metrics{}, do: func(ctx context.Context, rng *rand.Rand) error {
			return post(ctx, config, "/v1/analyze", map[string]interface{}{"data": syntheticFrame(rng, config)})
		}},
		{name: "Report", count: config.ReportWorkers, metrics: &Metrics{}, do: func(ctx context.Context, rng *rand.Rand) error {
			return post(ctx, config, "/v1/report?format="+config.ReportFormat, map[string]interface{}{"data": syntheticFrame(rng, config)})
		}},
		{name: "Data", count: config.DataWorkers, metrics: &Metrics{}, do: func(ctx context.Context, _ *rand.Rand) error {
			return request(ctx, config, http.MethodGet, "/v1/data", nil)
		}},
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.Duration)
	defer cancel()

	go progressReporter(ctx, workers, config.Duration, time.Now())

	g, gctx := errgroup.WithContext(ctx)
	for _, w := range workers {
		for i := 0; i < w.count; i++ {
			w, seed := w, int64(i+1)
			g.Go(func() error {
				runWorker(gctx, w, rand.New(rand.NewSource(seed)))
				return nil
			})
		}
	}
	_ = g.Wait()

	var results []Result
	fmt.Printf("\n=== Benchmark Results ===\n\n")
	for _, w := range workers {
		if w.count == 0 {
			continue
		}
		r := calculateResult(w.name, w.metrics, config.Duration)
		results = append(results, r)
		writeResult(os.Stdout, r)
		fmt.Println()
	}

	saveResults(config, results)
}

func runWorker(ctx context.Context, w *worker, rng *rand.Rand) {
	for ctx.Err() == nil {
		start := time.Now()
		err := w.do(ctx, rng)
		if ctx.Err() != nil {
			// Requests cut off by the end of the run are not counted
			return
		}
		w.metrics.record(time.Since(start).Seconds()*1000, err)
	}
}

// syntheticFrame builds daily production with weekly seasonality, noise and
// occasional spikes or drops
func syntheticFrame(rng *rand.Rand, config BenchmarkConfig) *analytics.Frame {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	frame := &analytics.Frame{
		Dates: make([]string, config.NumPoints),
		Mines: make(analytics.Dataset, config.NumMines),
	}
	for i := range frame.Dates {
		frame.Dates[i] = start.AddDate(0, 0, i).Format(analytics.DateLayout)
	}

	for m := range frame.Mines {
		base := 500 + rng.Float64()*1500
		values := make(analytics.Series, config.NumPoints)
		for i := range values {
			v := base * (1 + 0.1*float64(i%7-3)/3 + rng.NormFloat64()*0.05)
			if rng.Float64() < config.SpikeRate {
				if rng.Intn(2) == 0 {
					v *= 2 + rng.Float64()
				} else {
					v *= 0.1 * rng.Float64()
				}
			}
			values[i] = v
		}
		frame.Mines[m] = analytics.NamedSeries{Name: fmt.Sprintf("Mine %02d", m+1), Values: values}
	}
	return frame
}

func progressReporter(ctx context.Context, workers []*worker, duration time.Duration, startTime time.Time) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		elapsed := time.Since(startTime)
		line := fmt.Sprintf("[%s remaining]", (duration - elapsed).Round(time.Second))
		for _, w := range workers {
			if w.count == 0 {
				continue
			}
			ok := atomic.LoadInt64(&w.metrics.Success)
			line += fmt.Sprintf(" %s: %d (%.0f/s, %d errors)", w.name, ok,
				float64(ok)/elapsed.Seconds(), atomic.LoadInt64(&w.metrics.Errors))
		}
		fmt.Println(line)
	}
}

func post(ctx context.Context, config BenchmarkConfig, path string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return request(ctx, config, http.MethodPost, path, bytes.NewReader(data))
}

func request(ctx context.Context, config BenchmarkConfig, method, path string, body io.Reader) error {
	req, err := http.NewRequestWithContext(ctx, method, config.BaseURL+path, body)
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Connection", "keep-alive")
	if config.APIKey != "" {
		req.Header.Set("X-API-Key", config.APIKey)
	}

	resp, err := config.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	// Read and discard body to reuse connection
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return nil
}

func calculateResult(operation string, m *Metrics, duration time.Duration) Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := Result{
		Operation:  operation,
		TotalOps:   m.Success + m.Errors,
		SuccessOps: m.Success,
		ErrorOps:   m.Errors,
		Duration:   duration,
		Throughput: float64(m.Success) / duration.Seconds(),
		ErrorMsg:   m.FirstError,
	}
	if len(m.Latencies) == 0 {
		return result
	}

	latencies := m.Latencies
	sort.Float64s(latencies)

	result.MinLatency = latencies[0]
	result.MaxLatency = latencies[len(latencies)-1]
	result.P50Latency = analytics.Percentile(latencies, 50)
	result.P95Latency = analytics.Percentile(latencies, 95)
	result.P99Latency = analytics.Percentile(latencies, 99)
	result.AvgLatency, _ = analytics.MeanStdDev(latencies)
	return result
}

func writeConfig(w io.Writer, config BenchmarkConfig) {
	_, _ = fmt.Fprintf(w, "  URL: %s\n", config.BaseURL)
	_, _ = fmt.Fprintf(w, "  Mines: %d\n", config.NumMines)
	_, _ = fmt.Fprintf(w, "  Points: %d\n", config.NumPoints)
	_, _ = fmt.Fprintf(w, "  Spike Rate: %.3f\n", config.SpikeRate)
	_, _ = fmt.Fprintf(w, "  Duration: %s\n", config.Duration)
	_, _ = fmt.Fprintf(w, "  Analyze Workers: %d\n", config.AnalyzeWorkers)
	_, _ = fmt.Fprintf(w, "  Report Workers: %d (%s)\n", config.ReportWorkers, config.ReportFormat)
	_, _ = fmt.Fprintf(w, "  Data Workers: %d\n", config.DataWorkers)
}

func writeResult(w io.Writer, r Result) {
	total := float64(r.TotalOps)
	if total == 0 {
		total = 1
	}
	_, _ = fmt.Fprintf(w, "=== %s Operations ===\n", r.Operation)
	_, _ = fmt.Fprintf(w, "Total Operations: %d\n", r.TotalOps)
	_, _ = fmt.Fprintf(w, "Success:          %d (%.2f%%)\n", r.SuccessOps, float64(r.SuccessOps)/total*100)
	_, _ = fmt.Fprintf(w, "Errors:           %d (%.2f%%)\n", r.ErrorOps, float64(r.ErrorOps)/total*100)
	_, _ = fmt.Fprintf(w, "Duration:         %s\n", r.Duration)
	_, _ = fmt.Fprintf(w, "Throughput:       %.2f ops/sec\n", r.Throughput)
	if r.ErrorOps > 0 && r.ErrorMsg != "" {
		_, _ = fmt.Fprintf(w, "First Error:      %s\n", r.ErrorMsg)
	}
	_, _ = fmt.Fprintf(w, "\nLatency (ms):\n")
	_, _ = fmt.Fprintf(w, "  Min:  %.2f\n", r.MinLatency)
	_, _ = fmt.Fprintf(w, "  Avg:  %.2f\n", r.AvgLatency)
	_, _ = fmt.Fprintf(w, "  P50:  %.2f\n", r.P50Latency)
	_, _ = fmt.Fprintf(w, "  P95:  %.2f\n", r.P95Latency)
	_, _ = fmt.Fprintf(w, "  P99:  %.2f\n", r.P99Latency)
	_, _ = fmt.Fprintf(w, "  Max:  %.2f\n", r.MaxLatency)
}

func saveResults(config BenchmarkConfig, results []Result) {
	if err := os.MkdirAll(config.OutputDir, 0o755); err != nil {
		fmt.Printf("Failed to create result directory: %v\n", err)
		return
	}

	filename := filepath.Join(config.OutputDir, fmt.Sprintf("api_benchmark_%s.txt", time.Now().Format("20060102_150405")))
	f, err := os.Create(filename)
	if err != nil {
		fmt.Printf("Failed to create result file: %v\n", err)
		return
	}
	defer func() { _ = f.Close() }()

	_, _ = fmt.Fprintf(f, "=== Orelens API Benchmark Results ===\n")
	_, _ = fmt.Fprintf(f, "Date: %s\n\n", time.Now().Format("2006-01-02 15:04:05"))
	_, _ = fmt.Fprintf(f, "Configuration:\n")
	writeConfig(f, config)
	_, _ = fmt.Fprintf(f, "\n")

	for _, r := range results {
		writeResult(f, r)
		_, _ = fmt.Fprintf(f, "\n")
	}

	fmt.Printf("Results saved to: %s\n", filename)
}
