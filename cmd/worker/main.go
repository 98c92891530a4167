package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"stockwatch/internal/app"
	"stockwatch/internal/config"
	"stockwatch/internal/worker"
	"stockwatch/internal/worker/processors"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Initialize logger
	logger := app.NewLogger(cfg)
	defer logger.Sync()

	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize: %v", err)
	}
	defer a.Close()

	processor := processors.NewEventProcessor(a.Repo, a.Enforcer, a.Service, cfg.FallbackPageSize, logger)
	w := worker.New(worker.NewReader(cfg), processor, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start worker
	logger.Info("Starting worker on topic %s...", cfg.KafkaPlanTopic)
	if err := w.Start(ctx); err != nil {
		logger.Error("Worker stopped: %v", err)
	}

	logger.Info("Shutting down worker...")
	w.Stop()
}
