package middleware

import (
	"crypto/subtle"
	"io"
	"net/http"
	"strings"

	"stockwatch/internal/logger"
	"stockwatch/internal/services/shopify"

	"github.com/gin-gonic/gin"
)

const (
	ContextWebhookBody = "webhook_body"
	ContextShopDomain  = "shop_domain"
	ContextWebhookID   = "webhook_id"

	maxWebhookBody = 1 << 20
)

// ShopifyWebhook verifies the HMAC signature over the raw body. Verified
// requests carry the body, shop domain and delivery id on the context. A body
// that cannot be read cannot be verified either, so it is rejected as 401.
func ShopifyWebhook(secret string, logger *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		topic := c.GetHeader(shopify.HeaderTopic)
		shop := c.GetHeader(shopify.HeaderShopDomain)
		webhookID := c.GetHeader(shopify.HeaderWebhookID)

		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
		if err != nil {
			logger.Warn("Unreadable webhook %s id=%s from %s: %v", topic, webhookID, shop, err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid signature"})
			return
		}

		if err := shopify.VerifyWebhook(body, c.GetHeader(shopify.HeaderHmac), secret); err != nil {
			logger.Warn("Rejected webhook %s id=%s from %s: %v", topic, webhookID, shop, err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid signature"})
			return
		}

		logger.Debug("Verified webhook %s id=%s from %s", topic, webhookID, shop)
		c.Set(ContextWebhookBody, body)
		c.Set(ContextShopDomain, shop)
		c.Set(ContextWebhookID, webhookID)
		c.Next()
	}
}

// RequireAPIKey guards the admin endpoints with a bearer key. An empty key
// leaves them open, which is only meant for local development.
func RequireAPIKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" {
			c.Next()
			return
		}
		given := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if subtle.ConstantTimeCompare([]byte(given), []byte(key)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}
