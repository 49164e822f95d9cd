package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"

	"github.com/coffeeaccount/respect-service/internal/config"
	"github.com/coffeeaccount/respect-service/internal/database"
	"github.com/coffeeaccount/respect-service/internal/jobs"
	"github.com/coffeeaccount/respect-service/internal/logging"
	"github.com/coffeeaccount/respect-service/internal/redis"
	"github.com/coffeeaccount/respect-service/internal/respect"
	"github.com/coffeeaccount/respect-service/internal/retry"
	"github.com/coffeeaccount/respect-service/internal/server"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

// startupRetry covers dependencies that may come up after us (compose,
// rolling deploys).
var startupRetry = retry.Policy{
	MaxAttempts:    5,
	InitialBackoff: 500 * time.Millisecond,
	OnRetry: func(attempt int, err error, backoff time.Duration) {
		slog.Warn("Dependency not ready, retrying", "attempt", attempt, "backoff", backoff, "error", err)
	},
}

func setupDB(cfg *config.Config) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := retry.Do(ctx, startupRetry, nil, func() (*pgxpool.Pool, error) {
		return database.Connect(ctx, cfg.DatabaseURL)
	})
	if err != nil {
		logging.WithError(err).Error("Failed to connect to database")
		os.Exit(1)
	}

	if err := database.RunMigrationsWithLock(ctx, pool); err != nil {
		logging.WithError(err).Error("Failed to run migrations")
		os.Exit(1)
	}

	return pool
}

func setupRedis(cfg *config.Config) *redis.Client {
	if cfg.RedisURL == "" {
		slog.Info("Redis not configured, running without respect cache")
		return nil
	}

	// A bad URL is permanent; an unreachable server is worth retrying.
	client, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		logging.WithError(err).Error("Failed to create Redis client")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := retry.DoVoid(ctx, startupRetry, nil, func() error {
		return client.Ping(ctx)
	}); err != nil {
		logging.WithError(err).Error("Failed to connect to Redis")
		os.Exit(1)
	}
	return client
}

func runGracefulShutdown(srv *server.Server, scheduler *jobs.Scheduler) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		if scheduler != nil {
			scheduler.Stop()
		}

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	// Initialize structured logging
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	pool := setupDB(cfg)
	defer pool.Close()

	redisClient := setupRedis(cfg)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	repo := database.NewLedgerRepo(pool)

	engineOpts := []respect.Option{
		respect.WithPointOverrides(cfg.PointOverrides),
		respect.WithCapOverrides(cfg.CapOverrides),
	}
	if redisClient != nil {
		cache := redis.NewRespectCache(redisClient.Underlying(), cfg.CacheTTL)
		engineOpts = append(engineOpts, respect.WithCache(cache))
	}
	engine := respect.NewEngine(repo, clock, engineOpts...)

	var scheduler *jobs.Scheduler
	if cfg.DecaySchedule != "" {
		var err error
		scheduler, err = jobs.NewScheduler(engine, cfg.DecaySchedule, cfg.DecayPercent)
		if err != nil {
			slog.Error("Failed to create decay scheduler", "error", err)
			os.Exit(1)
		}
		scheduler.Start()
	}

	// Pass nil explicitly when Redis is absent to avoid a typed-nil interface.
	var srv *server.Server
	if redisClient != nil {
		srv = server.NewServer(cfg, engine, pool, redisClient, clock)
	} else {
		srv = server.NewServer(cfg, engine, pool, nil, clock)
	}

	done := runGracefulShutdown(srv, scheduler)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
