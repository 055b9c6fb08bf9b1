package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"schoolhub/internal/app"
	"schoolhub/internal/config"
	"schoolhub/internal/logger"
)

// Main entry point; graceful shutdown on SIGINT/SIGTERM ensures proper resource cleanup
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// ARCHITECTURAL DISCOVERY: Separate run function keeps deferred cleanup running on error paths
func run() error {
	// STEP 1: Load configuration (defaults < YAML file < environment, seeded from .env)
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.New(cfg.Logging)

	// STEP 2: Signal-aware root context
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// STEP 3: Build and run the application
	application, err := app.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	defer application.Close()

	log.Info("starting schoolhub", "addr", application.Addr())
	if err := application.Run(ctx); err != nil {
		return fmt.Errorf("application error: %w", err)
	}
	return nil
}
