package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/okian/vigil/internal/adapters/http/api"
	"github.com/okian/vigil/internal/adapters/llm"
	"github.com/okian/vigil/internal/adapters/repository"
	app "github.com/okian/vigil/internal/app"
	"github.com/okian/vigil/internal/config"
	"github.com/okian/vigil/internal/seed"
	"github.com/okian/vigil/pkg/logger"
	"github.com/okian/vigil/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout           = 10 * time.Second
	writeTimeout          = 60 * time.Second
	idleTimeout           = 60 * time.Second
	readHeaderTimeout     = 5 * time.Second
	shutdownTimeout       = 30 * time.Second
	systemMetricsInterval = 10 * time.Second
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics;
	// we collect our own custom system metrics instead.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	completer, err := llm.NewGemini(ctx, cfg.LLM.APIKey,
		llm.WithModel(cfg.LLM.Model),
		llm.WithTimeout(time.Duration(cfg.LLM.TimeoutMS)*time.Millisecond),
		llm.WithMaxRetries(cfg.LLM.MaxRetries),
	)
	if err != nil {
		os.Stderr.WriteString("failed to build LLM client: " + err.Error() + "\n")
		return
	}

	store, err := buildStore(cfg)
	if err != nil {
		os.Stderr.WriteString("failed to build store: " + err.Error() + "\n")
		return
	}

	// The synthetic cohort backs the check-in and milestone stores until
	// the fellowship platform integration lands.
	cohort := seed.NewCohort(cfg.Cohort.Size,
		seed.WithSeed(cfg.Cohort.Seed),
		seed.WithWeek(cfg.Cohort.Week),
	)

	svc := app.New(
		app.WithLogger(log),
		app.WithStore(store),
		app.WithCompleter(completer),
		app.WithCheckInStore(cohort),
		app.WithMilestoneStore(cohort),
		app.WithRoster(cohort),
		app.WithCohortSource(cohort),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.DraftQueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithLookbackWeeks(cfg.LookbackWeeks),
		app.WithAssessInterval(time.Duration(cfg.AssessIntervalMS)*time.Millisecond),
		app.WithWeights(cfg.Weights),
		app.WithTrendAmplifier(cfg.TrendAmplifier),
		app.WithTierThresholds(cfg.TierThresholds),
		app.WithConcernCutoffs(cfg.ConcernCutoffs),
		app.WithDraftLimits(cfg.DraftMinMessageLen, cfg.DraftParseRetries),
	)
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		return
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)

	// HTTP mux and routes.
	mux := http.NewServeMux()
	api.NewServer(svc).Register(mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
			return
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

// buildStore selects warning/assessment persistence from configuration.
func buildStore(cfg *config.Config) (repository.Store, error) {
	if cfg.Store == "sqlite" {
		return repository.NewSQLiteStore(cfg.SQLitePath)
	}
	return repository.NewMemStore(), nil
}

// startSystemMetricsUpdater periodically refreshes process-level gauges.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			metrics.UpdateSystemMemoryUsage(m.Alloc)
			metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
		}
	}
}
