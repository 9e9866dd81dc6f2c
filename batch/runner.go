// Package batch analyses a set of input files and writes one report per file.
package batch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"sensor-anomaly-analyzer/analytics"
	"sensor-anomaly-analyzer/cache"
	"sensor-anomaly-analyzer/metrics"
	"sensor-anomaly-analyzer/models"
	"sensor-anomaly-analyzer/report"
	"sensor-anomaly-analyzer/source"
)

type Status string

const (
	StatusOK Status = "ok"
	// StatusNoData means the source could not be found or parsed, so the engine never ran.
	StatusNoData Status = "no_data"
	StatusError  Status = "error"
)

type Outcome struct {
	Path       string
	Source     string
	Status     Status
	Result     *models.AnalysisResult
	ReportPath string
	Err        error
}

type Options struct {
	OutputDir string
	Workers   int
	Store     cache.ResultStore
}

type Runner struct {
	logger    *slog.Logger
	engine    *analytics.AnalyticsEngine
	store     cache.ResultStore
	outputDir string
	workers   int
}

func NewRunner(logger *slog.Logger, engine *analytics.AnalyticsEngine, opts Options) *Runner {
	if logger == nil {
		logger = slog.Default()
	}

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > 16 {
		workers = 16
	}

	store := opts.Store
	if store == nil {
		store = cache.NoopStore{}
	}

	return &Runner{
		logger:    logger,
		engine:    engine,
		store:     store,
		outputDir: opts.OutputDir,
		workers:   workers,
	}
}

// Run processes every path and returns one Outcome per path in the same order. A failing
// source never stops the others. Sources not started before ctx is done are reported as errors.
// Sources whose names collide get distinct names so that no report overwrites another.
func (r *Runner) Run(ctx context.Context, paths []string) []Outcome {
	outcomes := make([]Outcome, len(paths))
	names := source.UniqueNames(paths)
	jobs := make(chan int)

	workers := r.workers
	if workers > len(paths) {
		workers = len(paths)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				outcomes[idx] = r.process(ctx, paths[idx], names[idx])
			}
		}()
	}

	for idx := range paths {
		if ctx.Err() != nil {
			outcomes[idx] = Outcome{
				Path:   paths[idx],
				Source: names[idx],
				Status: StatusError,
				Err:    ctx.Err(),
			}
			continue
		}
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	return outcomes
}

func (r *Runner) process(ctx context.Context, path, name string) Outcome {
	start := time.Now()
	out := Outcome{Path: path, Source: name}
	logger := r.logger.With(slog.String("source", out.Source))

	records, err := source.LoadFile(path)
	if err != nil {
		out.Err = err
		out.Status = StatusError
		if errors.Is(err, source.ErrNotFound) || errors.Is(err, source.ErrMalformed) {
			out.Status = StatusNoData
		}
		logger.Error("could not process data file", slog.String("path", path), slog.Any("error", err))
		metrics.ObserveRun(time.Since(start), string(out.Status), 0)
		return out
	}

	result := models.NewAnalysisResult(out.Source, len(records), r.engine.Analyze(records))
	out.Result = &result

	if r.outputDir != "" {
		reportPath, err := report.WriteFile(r.outputDir, result)
		if err != nil {
			out.Err = err
			out.Status = StatusError
			logger.Error("write report failed", slog.Any("error", err))
			metrics.ObserveRun(time.Since(start), string(out.Status), len(records))
			return out
		}
		out.ReportPath = reportPath
	}

	if err := r.store.SaveAnalysis(ctx, result); err != nil {
		logger.Warn("failed to cache analysis", slog.String("run_id", result.RunID), slog.Any("error", err))
	}

	out.Status = StatusOK
	logger.Info("source analysed",
		slog.String("run_id", result.RunID),
		slog.Int("records", len(records)),
		slog.Int("anomalies", len(result.Report.Anomalies)),
		slog.String("report", out.ReportPath))
	metrics.ObserveRun(time.Since(start), string(out.Status), len(records))
	return out
}

// AllFailed reports whether no outcome succeeded. An empty slice counts as failed.
func AllFailed(outcomes []Outcome) bool {
	for _, o := range outcomes {
		if o.Status == StatusOK {
			return false
		}
	}
	return true
}
