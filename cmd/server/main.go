package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/ormside/listflow/internal/config"
	"github.com/ormside/listflow/internal/importer"
	"github.com/ormside/listflow/internal/jobstore"
	"github.com/ormside/listflow/internal/layout"
	"github.com/ormside/listflow/internal/logging"
	"github.com/ormside/listflow/internal/mutate"
	"github.com/ormside/listflow/internal/store"
	"github.com/ormside/listflow/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"db_max_conns", cfg.Database.MaxConns,
		"import_max_concurrent", cfg.Import.MaxConcurrent,
		"bulk_batch_size", cfg.Bulk.BatchSize,
	)

	// Parse and configure connection pool
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		slog.Error("failed to parse database URL", "error", err)
		os.Exit(1)
	}

	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	// Connect to database
	ctx := context.Background()
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		slog.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	if u, err := url.Parse(cfg.Database.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}

	// Job registry: Redis when configured, otherwise in-memory
	jobs := newJobStore(ctx, cfg)

	listings := store.NewPostgresListingStore(pool)
	accounts := store.NewPostgresAccountLookup(pool)
	layouts := layout.Builtin()
	slog.Info("layouts registered", "count", layouts.Len())

	limiter := importer.NewLimiter(cfg.Import.MaxConcurrent, cfg.Import.MaxWaitTime)
	imports := importer.NewService(listings, accounts, jobs, layouts, limiter, importer.Options{
		MaxFileSize:         cfg.Import.MaxFileSize,
		ConfidenceThreshold: cfg.Import.ConfidenceThreshold,
	})
	mutations := mutate.NewService(listings, mutate.Options{
		BatchSize:            cfg.Bulk.BatchSize,
		MaxConcurrentBatches: cfg.Bulk.MaxConcurrentBatches,
	})

	server := web.NewServer(imports, mutations, layouts, cfg.Server)

	// Create cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())

	// Sweep terminal jobs past their retention
	go sweepJobs(jobCtx, jobs, cfg.Import.JobRetention, cfg.Import.SweepInterval)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		// Stop background jobs
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Wait for active imports to complete (with timeout)
		if active := limiter.ActiveCount(); active > 0 {
			slog.Info("waiting for imports to complete", "active", active)
			if err := imports.Drain(shutdownCtx); err != nil {
				slog.Warn("imports did not complete in time", "error", err)
			} else {
				slog.Info("all imports completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(cfg.Server.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// newJobStore selects the job registry implementation. With Redis, terminal
// jobs expire by TTL; in memory they are removed by the sweep goroutine.
func newJobStore(ctx context.Context, cfg *config.Config) jobstore.Store {
	if cfg.Redis.Addr == "" {
		slog.Info("using in-memory job store")
		return jobstore.NewMemoryStore()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		slog.Error("failed to ping redis", "addr", cfg.Redis.Addr, "error", err)
		os.Exit(1)
	}

	slog.Info("using redis job store", "addr", cfg.Redis.Addr)
	return jobstore.NewRedisStore(client, cfg.Import.JobRetention)
}

// sweepJobs periodically removes terminal jobs older than the retention.
func sweepJobs(ctx context.Context, jobs jobstore.Store, retention, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := jobs.Sweep(ctx, retention)
			if err != nil {
				slog.Warn("job sweep failed", "error", err)
				continue
			}
			if removed > 0 {
				slog.Debug("swept terminal jobs", "removed", removed)
			}
		}
	}
}
