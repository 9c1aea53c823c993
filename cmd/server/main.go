package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/orcaflow/internal/config"
	"github.com/JonMunkholm/orcaflow/internal/core"
	"github.com/JonMunkholm/orcaflow/internal/logging"
	"github.com/JonMunkholm/orcaflow/internal/web"
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
		"sources", cfg.Pipeline.SourceAName+"/"+cfg.Pipeline.SourceBName,
		"max_concurrent_runs", cfg.Upload.MaxConcurrent,
		"max_file_size", cfg.Upload.MaxFileSize,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	service, err := core.NewService(core.Options{
		SourceAName:       cfg.Pipeline.SourceAName,
		SourceBName:       cfg.Pipeline.SourceBName,
		SourceADelay:      cfg.Pipeline.SourceADelay,
		SourceBDelay:      cfg.Pipeline.SourceBDelay,
		ConsolidateDelay:  cfg.Pipeline.ConsolidateDelay,
		RunTimeout:        cfg.Pipeline.RunTimeout,
		ReadingProgress:   cfg.Pipeline.ReadingProgress,
		MaxConcurrentRuns: cfg.Upload.MaxConcurrent,
		MaxWaitTime:       cfg.Upload.MaxWaitTime,
		SessionTTL:        cfg.Session.TTL,
	})
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	server := web.NewServer(cfg, service)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		service.StartSessionJanitor(gctx, cfg.Session.SweepInterval)
		return nil
	})

	g.Go(func() error {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := service.Limiter().Status(); status.Active > 0 {
			slog.Info("waiting for runs to complete", "active", status.Active)
			if err := service.WaitForRuns(shutdownCtx); err != nil {
				slog.Warn("runs did not complete in time", "error", err)
			} else {
				slog.Info("all runs completed")
			}
		}

		// Ends the event streams so Shutdown is not held by them.
		service.Close()

		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
