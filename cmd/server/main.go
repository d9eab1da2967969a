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

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/csvcast/internal/config"
	"github.com/JonMunkholm/csvcast/internal/core"
	"github.com/JonMunkholm/csvcast/internal/logging"
	"github.com/JonMunkholm/csvcast/internal/metrics"
	"github.com/JonMunkholm/csvcast/internal/store"
	"github.com/JonMunkholm/csvcast/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"convert_max_concurrent", cfg.Convert.MaxConcurrent,
		"convert_workers", cfg.Convert.Workers,
		"policy", cfg.CSV.Policy,
		"database", cfg.Database.Enabled(),
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var sink *store.Sink
	if cfg.Database.Enabled() {
		sink, err = store.Open(ctx, cfg.Database.URL, store.PoolConfig{
			MaxConns:        cfg.Database.MaxConns,
			MinConns:        cfg.Database.MinConns,
			MaxConnLifetime: cfg.Database.MaxConnLifetime,
			MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		})
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer sink.Close()

		if u, err := url.Parse(cfg.Database.URL); err == nil {
			slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
		} else {
			slog.Info("connected to database")
		}
	} else {
		slog.Info("no database configured, loading disabled")
	}

	m := metrics.New()
	service := core.NewService(core.Config{
		Workers:           cfg.Convert.Workers,
		ChunkRows:         cfg.Convert.ChunkRows,
		MaxConcurrentJobs: cfg.Convert.MaxConcurrent,
		MaxWait:           cfg.Convert.MaxWaitTime,
		JobTimeout:        cfg.Convert.Timeout,
		MaxInputBytes:     cfg.Convert.MaxBodySize,
	}, m)

	server, err := web.NewServer(service, sink, m, cfg)
	if err != nil {
		slog.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", cfg.Server.Addr())
		errCh <- server.Start(ctx)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server stopped", "error", err)
			os.Exit(1)
		}
		return
	case <-ctx.Done():
	}

	slog.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Stop accepting requests, then wait for conversions already admitted.
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	if status := service.LimiterStatus(); status.Active > 0 {
		slog.Info("waiting for conversions to complete", "active", status.Active)
	}
	if err := service.Shutdown(shutdownCtx); err != nil {
		slog.Warn("conversions did not complete in time", "error", err)
	}

	slog.Info("server stopped")
}
