package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"

	"stockwatch/internal/api"
	"stockwatch/internal/app"
	"stockwatch/internal/config"
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

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.Env,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
		}); err != nil {
			logger.Error("Sentry init failed: %v", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Initialize services
	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize: %v", err)
	}
	defer a.Close()

	if err := a.DB.Migrate(); err != nil {
		logger.Fatal("Failed to migrate database: %v", err)
	}

	// Initialize API server
	server := api.New(cfg, logger, api.Dependencies{
		Repo:     a.Repo,
		Webhooks: a.Service,
		Enforcer: a.Enforcer,
		Syncer:   a.Service,
		Ping:     a.Ping,
	})

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		logger.Error("Server shutdown error: %v", err)
	}
}
