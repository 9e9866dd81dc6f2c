package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"sync"
	"text/tabwriter"
	"time"

	"sensor-anomaly-analyzer/models"
)

// usage: go run tools/loadtest.go -url http://localhost:8080/analyze -threads 4 -conns 100 -duration 30s -batch 500

type loadStats struct {
	mu        sync.Mutex
	latencies []time.Duration
	failures  int
	anomalies int
}

func (s *loadStats) record(latency time.Duration, anomalies int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !ok {
		s.failures++
		return
	}
	s.latencies = append(s.latencies, latency)
	s.anomalies += anomalies
}

func main() {
	url := flag.String("url", "http://localhost:8080/analyze", "analyze endpoint")
	threads := flag.Int("threads", 4, "number of HTTP clients")
	conns := flag.Int("conns", 100, "concurrent requests spread over the clients")
	duration := flag.Duration("duration", 30*time.Second, "test length")
	batchSize := flag.Int("batch", 500, "records per request")
	flag.Parse()

	if *threads < 1 || *conns < 1 || *batchSize < 1 {
		fmt.Fprintln(os.Stderr, "threads, conns and batch must be positive")
		os.Exit(2)
	}
	perClient := *conns / *threads
	if perClient == 0 {
		perClient = 1
	}

	fmt.Printf("posting %d-record batches to %s for %v (%d clients x %d requests in flight)\n",
		*batchSize, *url, *duration, *threads, perClient)

	stats := &loadStats{latencies: make([]time.Duration, 0, 10000)}
	deadline := time.Now().Add(*duration)
	started := time.Now()

	var wg sync.WaitGroup
	for c := 0; c < *threads; c++ {
		client := &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        perClient,
				MaxIdleConnsPerHost: perClient,
				IdleConnTimeout:     90 * time.Second,
			},
		}
		for i := 0; i < perClient; i++ {
			wg.Add(1)
			go func(seed int64) {
				defer wg.Done()
				for time.Now().Before(deadline) {
					latency, anomalies, err := postBatch(client, *url, generateBatch(*batchSize, seed))
					stats.record(latency, anomalies, err == nil)
					seed++
				}
			}(int64(c*perClient + i))
		}
	}
	wg.Wait()

	printSummary(os.Stdout, stats, time.Since(started), *batchSize)
}

// generateBatch builds a one-second-spaced record sequence with a temperature step,
// a vibration spike and a low-voltage run so that every check has something to find.
func generateBatch(size int, seed int64) []models.Record {
	records := make([]models.Record, size)
	for i := range records {
		r := models.Record{
			Timestamp:   float64(i),
			Temperature: 25 + float64((seed+int64(i))%3)*0.5,
			VibrationX:  1,
			VibrationY:  1,
			Voltage:     5,
		}
		switch {
		case i%97 == 42:
			r.VibrationX, r.VibrationY = 6, 9
		case i%200 >= 120 && i%200 < 135:
			r.Voltage = 4.1
		case i%300 == 250:
			r.Temperature += 8
		}
		records[i] = r
	}
	return records
}

func postBatch(client *http.Client, url string, records []models.Record) (time.Duration, int, error) {
	body, err := json.Marshal(map[string]any{
		"source":  "loadtest",
		"records": records,
	})
	if err != nil {
		return 0, 0, err
	}

	start := time.Now()
	resp, err := client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return 0, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return 0, 0, fmt.Errorf("status %d", resp.StatusCode)
	}

	var result models.AnalysisResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, 0, err
	}
	return time.Since(start), result.Report.Summary.Total(), nil
}

func percentile(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := len(sorted) * p / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func printSummary(w io.Writer, stats *loadStats, elapsed time.Duration, batchSize int) {
	stats.mu.Lock()
	lat := append([]time.Duration(nil), stats.latencies...)
	failures, anomalies := stats.failures, stats.anomalies
	stats.mu.Unlock()

	sort.Slice(lat, func(i, j int) bool { return lat[i] < lat[j] })

	var total time.Duration
	for _, d := range lat {
		total += d
	}
	var mean time.Duration
	if len(lat) > 0 {
		mean = total / time.Duration(len(lat))
	}

	ok := len(lat)
	seconds := elapsed.Seconds()

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "elapsed\t%v\n", elapsed.Round(time.Millisecond))
	fmt.Fprintf(tw, "requests ok / failed\t%d / %d\n", ok, failures)
	fmt.Fprintf(tw, "requests/sec\t%.1f\n", float64(ok+failures)/seconds)
	fmt.Fprintf(tw, "records/sec\t%.0f\n", float64(ok*batchSize)/seconds)
	fmt.Fprintf(tw, "anomalies reported\t%d\n", anomalies)
	if ok > 0 {
		fmt.Fprintf(tw, "latency min / mean / max\t%v / %v / %v\n", lat[0], mean, lat[ok-1])
		fmt.Fprintf(tw, "latency p50 / p95 / p99\t%v / %v / %v\n",
			percentile(lat, 50), percentile(lat, 95), percentile(lat, 99))
	}
	tw.Flush()
}
