package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"sensor-anomaly-analyzer/analytics"
	"sensor-anomaly-analyzer/batch"
	"sensor-anomaly-analyzer/cache"
	"sensor-anomaly-analyzer/config"
	"sensor-anomaly-analyzer/handlers"
	"sensor-anomaly-analyzer/metrics"
	"sensor-anomaly-analyzer/report"
	"sensor-anomaly-analyzer/source"
	"sensor-anomaly-analyzer/utils"
)

func main() {
	var (
		configPath string
		inputPath  string
		outputDir  string
		serve      bool
	)
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.StringVar(&inputPath, "input", "", "JSON data file or directory of files (overrides config)")
	flag.StringVar(&outputDir, "output", "", "Directory for report files (overrides config)")
	flag.BoolVar(&serve, "serve", false, "Run the HTTP analysis service instead of a batch run")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("path", configPath), slog.Any("error", err))
		os.Exit(1)
	}
	if inputPath != "" {
		cfg.Input.Path = inputPath
	}
	if outputDir != "" {
		cfg.Output.Dir = outputDir
	}

	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("failed to register metrics", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := openStore(ctx, logger, cfg.Redis)
	defer store.Close()

	engine := analytics.NewAnalyticsEngine(logger, metrics.ObserveAnomaly)

	if serve {
		if err := runServer(ctx, logger, cfg, engine, store); err != nil {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
		return
	}

	if !runBatch(ctx, logger, cfg, engine, store) {
		os.Exit(1)
	}
}

// openStore connects to redis when enabled. An unreachable redis degrades to NoopStore.
func openStore(ctx context.Context, logger *slog.Logger, cfg config.RedisConfig) cache.ResultStore {
	if !cfg.Enabled {
		return cache.NoopStore{}
	}

	client, err := cache.NewRedisClient(ctx, cache.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		MaxRetries:   cfg.MaxRetries,
		TTL:          cfg.ResultTTL,
	})
	if err != nil {
		logger.Warn("redis unavailable, results will not be cached", slog.String("addr", cfg.Addr), slog.Any("error", err))
		return cache.NoopStore{}
	}

	logger.Info("connected to redis", slog.String("addr", cfg.Addr))
	return client
}

func runBatch(ctx context.Context, logger *slog.Logger, cfg *config.Config, engine *analytics.AnalyticsEngine, store cache.ResultStore) bool {
	paths, err := source.Resolve(cfg.Input.Path)
	if err != nil {
		logger.Error("could not resolve input", slog.String("path", cfg.Input.Path), slog.Any("error", err))
		return false
	}
	if len(paths) == 0 {
		logger.Warn("no input files found", slog.String("path", cfg.Input.Path))
		return false
	}

	runner := batch.NewRunner(logger, engine, batch.Options{
		OutputDir: cfg.Output.Dir,
		Workers:   cfg.Input.Workers,
		Store:     store,
	})

	outcomes := runner.Run(ctx, paths)
	for _, o := range outcomes {
		if o.Result == nil {
			continue
		}
		if err := report.Render(os.Stdout, *o.Result); err != nil {
			logger.Warn("failed to render report", slog.String("source", o.Source), slog.Any("error", err))
		}
	}

	return !batch.AllFailed(outcomes)
}

func runServer(ctx context.Context, logger *slog.Logger, cfg *config.Config, engine *analytics.AnalyticsEngine, store cache.ResultStore) error {
	handler := handlers.NewAnalysisHandler(logger, engine, store, cfg.Server.MaxBodyBytes)

	srv := &http.Server{
		Addr:           cfg.Server.Address,
		Handler:        handlers.NewRouter(handler),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", slog.String("address", cfg.Server.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info("server exited")
	return nil
}
