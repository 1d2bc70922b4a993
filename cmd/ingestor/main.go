package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jstrand/coingecko-data/internal/api"
	"github.com/jstrand/coingecko-data/internal/collector"
	"github.com/jstrand/coingecko-data/internal/config"
	"github.com/jstrand/coingecko-data/internal/database"
	"github.com/jstrand/coingecko-data/internal/model"
	"github.com/jstrand/coingecko-data/internal/normalize"
	"github.com/jstrand/coingecko-data/internal/scheduler"
	"github.com/jstrand/coingecko-data/internal/version"
	"github.com/jstrand/coingecko-data/internal/warehouse"
)

func main() {
	configPath := flag.String("config", "configs/ingestor.yaml", "path to config file")
	once := flag.Bool("once", false, "execute a single run and exit")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting ingestor",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"api_url", cfg.API.BaseURL,
		"pages", cfg.Collector.Pages,
		"interval", cfg.Scheduler.Interval,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Connect to warehouse
	logger.Info("connecting to warehouse",
		"host", cfg.Warehouse.Host,
		"port", cfg.Warehouse.Port,
		"database", cfg.Warehouse.Name,
	)

	pool, err := database.Connect(ctx, cfg.Warehouse)
	if err != nil {
		logger.Error("failed to connect to warehouse", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	loader := warehouse.New(pool, logger)
	if err := loader.EnsureSchema(ctx); err != nil {
		logger.Error("failed to ensure warehouse schema", "error", err)
		os.Exit(1)
	}

	logger.Info("warehouse connected")

	// Create API client and pipeline components
	apiClient := api.NewClient(
		cfg.API.BaseURL,
		cfg.API.APIKey,
		api.WithLogger(logger),
		api.WithTimeout(cfg.API.Timeout),
		api.WithRetries(cfg.API.MaxRetries, cfg.API.RetryBackoff),
		api.WithRateLimitWait(cfg.API.RateLimitWait),
	)

	coll := collector.New(collector.Config{
		Pages:          cfg.Collector.Pages,
		PerPage:        cfg.Collector.PerPage,
		InterPageDelay: cfg.Collector.InterPageDelay,
	}, apiClient, logger)

	job := scheduler.New(scheduler.Config{
		Interval:   cfg.Scheduler.Interval,
		RunTimeout: cfg.Scheduler.RunTimeout,
	}, coll, scheduler.NormalizerFunc(normalize.Batch), loader, logger)

	// One-shot mode: run the pipeline once and report the outcome via the
	// exit code (for external schedulers that own the cadence).
	if *once {
		rec := job.RunOnce(ctx)
		if rec.Outcome != model.OutcomeSucceeded {
			os.Exit(1)
		}
		return
	}

	// Start health server
	healthServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Health.Port),
		Handler: createHealthHandler(pool, job),
	}

	go func() {
		logger.Info("starting health server", "port", cfg.Health.Port)
		if err := healthServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("health server error", "error", err)
		}
	}()

	// Start the scheduled job
	if err := job.Start(ctx); err != nil {
		logger.Error("failed to start job", "error", err)
		os.Exit(1)
	}

	logger.Info("ingestor running",
		"health_url", fmt.Sprintf("http://localhost:%d/health", cfg.Health.Port),
	)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := job.Stop(shutdownCtx); err != nil {
		logger.Warn("job stop timed out", "error", err)
	}
	healthServer.Shutdown(shutdownCtx)

	logger.Info("ingestor stopped")
}

// createHealthHandler creates the HTTP handler for health checks.
func createHealthHandler(pool *pgxpool.Pool, job *scheduler.Job) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := struct {
			Status     string         `json:"status"`
			Components map[string]any `json:"components"`
		}{
			Status:     "healthy",
			Components: make(map[string]any),
		}

		// Check warehouse
		if err := pool.Ping(ctx); err != nil {
			health.Status = "unhealthy"
			health.Components["warehouse"] = map[string]string{
				"status": "disconnected",
				"error":  err.Error(),
			}
		} else {
			health.Components["warehouse"] = "connected"
		}

		// Report last run
		health.Components["job"] = map[string]any{
			"state": string(job.State()),
		}
		if last := job.LastRun(); last != nil {
			runInfo := map[string]any{
				"id":         last.ID.String(),
				"started_at": last.StartedAt,
				"duration":   last.Duration.String(),
				"outcome":    string(last.Outcome),
				"raw_rows":   last.RawCount,
				"clean_rows": last.CleanCount,
			}
			if last.Err != nil {
				runInfo["error"] = last.Err.Error()
			}
			health.Components["last_run"] = runInfo

			if last.Outcome == model.OutcomeFailed {
				health.Status = "degraded"
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})

	return mux
}
