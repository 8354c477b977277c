package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/eleitores/internal/config"
	"github.com/JonMunkholm/eleitores/internal/core"
	"github.com/JonMunkholm/eleitores/internal/logging"
	"github.com/JonMunkholm/eleitores/internal/session"
	"github.com/JonMunkholm/eleitores/internal/store"
	"github.com/JonMunkholm/eleitores/internal/web"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"db_max_conns", cfg.Database.MaxConns,
		"import_max_concurrent", cfg.Import.MaxConcurrent,
		"commit_batch_size", cfg.Import.CommitBatchSize,
		"session_backend", cfg.Session.Backend,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := connectDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	eleitores := store.New(pool)
	if cfg.Database.Migrate {
		if err := eleitores.Migrate(ctx); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
		slog.Info("schema applied")
	}

	opts := []web.Option{web.WithHealthCheck("database", pool)}

	var (
		sessions core.SessionStore
		janitor  *session.MemoryStore
	)
	switch cfg.Session.Backend {
	case session.BackendRedis:
		client, err := connectRedis(ctx, cfg.Session.RedisURL)
		if err != nil {
			return err
		}
		defer client.Close()

		rs := session.NewRedisStore(client, cfg.Session.TTL)
		sessions = rs
		opts = append(opts, web.WithHealthCheck("redis", rs))
	default:
		janitor = session.NewMemoryStore(cfg.Session.TTL)
		sessions = janitor
	}

	service := core.NewService(sessions, eleitores, eleitores, core.ServiceConfig{
		Origin:          cfg.Import.Origin,
		CommitBatchSize: cfg.Import.CommitBatchSize,
		MaxConcurrent:   cfg.Import.MaxConcurrent,
		MaxWaitTime:     cfg.Import.MaxWaitTime,
	}, core.NewMetrics(prometheus.DefaultRegisterer))

	server := web.NewServer(service, cfg, opts...)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("server starting", "addr", cfg.Server.Addr())
		return server.Start()
	})

	if janitor != nil {
		g.Go(func() error {
			return janitor.RunJanitor(gctx, cfg.Session.SweepInterval)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Let in-flight decode/transform work finish before closing listeners
		if status := service.LimiterStatus(); status.Active > 0 {
			slog.Info("waiting for imports to complete", "active", status.Active)
			if err := service.WaitForImports(shutdownCtx); err != nil {
				slog.Warn("imports did not complete in time", "error", err)
			} else {
				slog.Info("all imports completed")
			}
		}

		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("server stopped")
	return nil
}

func connectDatabase(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if u, err := url.Parse(cfg.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}
	return pool, nil
}

func connectRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	slog.Info("connected to redis", "addr", opts.Addr, "db", opts.DB)
	return client, nil
}
