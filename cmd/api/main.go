package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/saturnino-fabrica-de-software/facematch/internal/api"
	"github.com/saturnino-fabrica-de-software/facematch/internal/config"
	"github.com/saturnino-fabrica-de-software/facematch/internal/face"
)

const initRetryInterval = 5 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Environment, cfg.LogLevel)
	slog.SetDefault(logger)

	logger.Info("starting Face Match API",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
		slog.String("store", cfg.StoreBackend),
		slog.String("provider", cfg.ProviderType),
		slog.Float64("threshold", cfg.SimilarityThreshold),
	)

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	comps, err := face.Build(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to build components: %w", err)
	}
	defer func() {
		if err := comps.Close(); err != nil {
			logger.Error("close components", slog.Any("error", err))
		}
	}()

	// The model loads in the background; /ready reports 503 until it is done.
	go func() {
		if err := comps.Runtime.InitWithRetry(ctx, initRetryInterval); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("extractor initialization abandoned", slog.Any("error", err))
		}
	}()

	// Setup router
	router := api.NewRouter(logger, cfg, &api.Dependencies{
		Service:   comps.Service,
		Readiness: comps.Runtime,
		Archive:   comps.Archive,
		Limits:    comps.Limits,
	})
	router.Setup()

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("server listening", slog.String("addr", addr))
		if err := router.Listen(addr); err != nil {
			errChan <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("shutting down server...")
	if err := router.Shutdown(); err != nil {
		logger.Error("shutdown error", slog.Any("error", err))
	}

	logger.Info("server stopped")

	return nil
}
