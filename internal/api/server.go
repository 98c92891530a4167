package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"stockwatch/internal/api/handlers"
	"stockwatch/internal/api/middleware"
	"stockwatch/internal/config"
	"stockwatch/internal/logger"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
)

// Dependencies are the services the routes are served from.
type Dependencies struct {
	Repo     handlers.StoreRepository
	Webhooks handlers.WebhookService
	Enforcer handlers.PlanEnforcer
	Syncer   handlers.StoreSyncer
	// Ping checks the database for /healthz. Nil reports healthy.
	Ping func(ctx context.Context) error
}

type Server struct {
	config *config.Config
	logger *logger.Logger
	router *gin.Engine
	server *http.Server
}

func New(cfg *config.Config, logger *logger.Logger, deps Dependencies) *Server {
	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS(cfg.CORSOrigins))
	if cfg.SentryDSN != "" {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true, Timeout: 2 * time.Second}))
	}

	// Initialize handlers
	shopifyHandler := handlers.NewShopifyHandler(deps.Webhooks, logger)
	productHandler := handlers.NewProductHandler(deps.Repo, logger)
	storeHandler := handlers.NewStoreHandler(deps.Repo, deps.Enforcer, deps.Syncer, cfg.FallbackPageSize, logger)

	router.GET("/healthz", func(c *gin.Context) {
		if deps.Ping != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := deps.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	// Shopify webhooks
	webhooks := router.Group("/webhooks", middleware.ShopifyWebhook(cfg.ShopifyAPISecret, logger))
	{
		webhooks.POST("/inventory_levels/update", shopifyHandler.InventoryLevelsUpdate)
		webhooks.POST("/products/delete", shopifyHandler.ProductsDelete)
		webhooks.POST("/app/uninstalled", shopifyHandler.AppUninstalled)
	}

	// Routes
	v1 := router.Group("/api/v1", middleware.RequireAPIKey(cfg.AdminAPIKey))
	{
		stores := v1.Group("/stores/:shop")
		{
			stores.GET("/products", productHandler.List)
			stores.PUT("/products/:id/override", productHandler.UpdateOverride)
			stores.GET("/alerts", productHandler.Alerts)
			stores.POST("/plan", storeHandler.ChangePlan)
			stores.POST("/sync", storeHandler.Sync)
		}
	}

	return &Server{
		config: cfg,
		logger: logger,
		router: router,
	}
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%s", s.config.APIHost, s.config.APIPort)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Starting server on " + addr)
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
