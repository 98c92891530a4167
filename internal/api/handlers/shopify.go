package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"stockwatch/internal/api/middleware"
	"stockwatch/internal/inventory"
	"stockwatch/internal/logger"
	"stockwatch/internal/services/shopify"

	"github.com/gin-gonic/gin"
)

// WebhookService is the inventory pipeline as seen by the webhook endpoints.
type WebhookService interface {
	HandleInventoryUpdate(ctx context.Context, shopDomain string, event inventory.InventoryLevelEvent) (*inventory.Outcome, error)
	HandleProductDeleted(ctx context.Context, shopDomain string, productID int64) error
	HandleUninstall(ctx context.Context, shopDomain string) error
}

// ShopifyHandler serves the Shopify webhooks. Once the signature middleware
// has passed, every response is 200 and failures are only logged.
type ShopifyHandler struct {
	service WebhookService
	logger  *logger.Logger
}

func NewShopifyHandler(service WebhookService, logger *logger.Logger) *ShopifyHandler {
	return &ShopifyHandler{
		service: service,
		logger:  logger,
	}
}

func (h *ShopifyHandler) bind(c *gin.Context, out interface{}) bool {
	body, _ := c.Get(middleware.ContextWebhookBody)
	raw, _ := body.([]byte)
	if err := json.Unmarshal(raw, out); err != nil {
		h.logger.Warn("Malformed %s webhook %s from %s: %v", c.GetHeader(shopify.HeaderTopic), c.GetString(middleware.ContextWebhookID), c.GetString(middleware.ContextShopDomain), err)
		c.JSON(http.StatusOK, gin.H{"status": "ignored", "reason": "malformed payload"})
		return false
	}
	return true
}

func (h *ShopifyHandler) InventoryLevelsUpdate(c *gin.Context) {
	var payload shopify.InventoryLevelPayload
	if !h.bind(c, &payload) {
		return
	}
	shop := c.GetString(middleware.ContextShopDomain)

	outcome, err := h.service.HandleInventoryUpdate(c.Request.Context(), shop, inventory.InventoryLevelEvent{
		InventoryItemID: payload.InventoryItemID,
		LocationID:      payload.LocationID,
		Available:       payload.Available,
		UpdatedAt:       payload.UpdatedAt,
	})
	if err != nil {
		h.logger.Error("Failed to process inventory update for %s item %d (webhook %s): %v", shop, payload.InventoryItemID, c.GetString(middleware.ContextWebhookID), err)
	}
	if outcome == nil {
		c.JSON(http.StatusOK, gin.H{"status": "error"})
		return
	}

	errs := make([]string, 0, len(outcome.Errors))
	for _, e := range outcome.Errors {
		errs = append(errs, e.Error())
	}
	c.JSON(http.StatusOK, gin.H{
		"status":     outcome.Status,
		"product_id": outcome.ProductID,
		"previous":   outcome.Previous,
		"current":    outcome.Current,
		"transition": outcome.Transition,
		"alerts":     len(outcome.Alerts),
		"errors":     errs,
	})
}

func (h *ShopifyHandler) ProductsDelete(c *gin.Context) {
	var payload shopify.ProductDeletePayload
	if !h.bind(c, &payload) {
		return
	}
	shop := c.GetString(middleware.ContextShopDomain)

	if err := h.service.HandleProductDeleted(c.Request.Context(), shop, payload.ID); err != nil {
		h.logger.Error("Failed to process product delete for %s product %d (webhook %s): %v", shop, payload.ID, c.GetString(middleware.ContextWebhookID), err)
		c.JSON(http.StatusOK, gin.H{"status": "error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "processed"})
}

func (h *ShopifyHandler) AppUninstalled(c *gin.Context) {
	var payload shopify.AppUninstalledPayload
	if !h.bind(c, &payload) {
		return
	}
	shop := c.GetString(middleware.ContextShopDomain)
	if shop == "" {
		shop = payload.MyshopifyDomain
	}

	if err := h.service.HandleUninstall(c.Request.Context(), shop); err != nil {
		h.logger.Error("Failed to process uninstall for %s (webhook %s): %v", shop, c.GetString(middleware.ContextWebhookID), err)
		c.JSON(http.StatusOK, gin.H{"status": "error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "processed"})
}
