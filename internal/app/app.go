package app

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"stockwatch/internal/alerts"
	"stockwatch/internal/config"
	shopifyconnector "stockwatch/internal/connectors/shopify"
	"stockwatch/internal/database"
	"stockwatch/internal/inventory"
	"stockwatch/internal/logger"
	"stockwatch/internal/quota"
	"stockwatch/internal/repository"
)

// App is the shared service graph used by every binary.
type App struct {
	Config     *config.Config
	Logger     *logger.Logger
	DB         *database.Database
	Repo       *repository.Repository
	Redis      *redis.Client
	Enforcer   *quota.Enforcer
	Dispatcher *alerts.Dispatcher
	Service    *inventory.Service
}

// NewLogger picks the JSON logger in production and the console one elsewhere.
func NewLogger(cfg *config.Config) *logger.Logger {
	if cfg.IsProduction() {
		return logger.New(cfg.LogLevel)
	}
	return logger.NewDevelopment(cfg.LogLevel)
}

func New(cfg *config.Config, log *logger.Logger) (*App, error) {
	db, err := database.New(cfg.DatabaseURL, database.Options{
		Driver:  cfg.DatabaseDriver,
		Verbose: log.Level() == "debug",
	})
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Logger: log, DB: db, Repo: repository.New(db.DB)}

	var guard alerts.DedupGuard
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		a.Redis = redis.NewClient(opts)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.Redis.Ping(ctx).Err(); err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		guard = alerts.NewRedisGuard(a.Redis, cfg.AlertDedupWindow)
		log.Info("Alert dedup using redis")
	}

	var email alerts.EmailSender
	if cfg.SMTPHost != "" {
		sender, err := alerts.NewSMTPSender(alerts.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			Timeout:  cfg.AlertSendTimeout,
		})
		if err != nil {
			a.Close()
			return nil, err
		}
		email = sender
	} else {
		log.Warn("SMTP_HOST not set, email alerts disabled")
	}

	a.Enforcer = quota.NewEnforcer(a.Repo, log)
	a.Dispatcher = alerts.NewDispatcher(a.Repo, guard, email, alerts.NewWebhookChatSender(cfg.ChatTimeout), log, alerts.Options{
		DedupWindow: cfg.AlertDedupWindow,
		SendTimeout: cfg.AlertSendTimeout,
	})
	a.Service = inventory.NewService(a.Repo, shopifyconnector.New(cfg, log), a.Dispatcher, a.Enforcer, log, inventory.ResolverOptions{
		PageSize: cfg.FallbackPageSize,
		MaxPages: cfg.FallbackMaxPages,
	})
	return a, nil
}

// Ping checks the database connection.
func (a *App) Ping(ctx context.Context) error {
	sqlDB, err := a.DB.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (a *App) Close() {
	if a.Redis != nil {
		a.Redis.Close()
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Warn("Failed to close database: %v", err)
		}
	}
}
