package shopify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
)

const (
	HeaderHmac        = "X-Shopify-Hmac-Sha256"
	HeaderShopDomain  = "X-Shopify-Shop-Domain"
	HeaderTopic       = "X-Shopify-Topic"
	HeaderWebhookID   = "X-Shopify-Webhook-Id"
	HeaderAccessToken = "X-Shopify-Access-Token"
)

const (
	TopicInventoryLevelsUpdate = "inventory_levels/update"
	TopicProductsDelete        = "products/delete"
	TopicAppUninstalled        = "app/uninstalled"
)

var ErrInvalidSignature = errors.New("invalid webhook signature")

// VerifyWebhook checks the base64 HMAC-SHA256 of the raw body against the
// signature header. An empty secret never verifies.
func VerifyWebhook(body []byte, signature, secret string) error {
	if secret == "" || signature == "" {
		return ErrInvalidSignature
	}
	given, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return ErrInvalidSignature
	}
	if !hmac.Equal(given, Sign(body, secret)) {
		return ErrInvalidSignature
	}
	return nil
}

// Sign returns the raw HMAC-SHA256 of body.
func Sign(body []byte, secret string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return mac.Sum(nil)
}

// SignatureHeader is Sign encoded the way Shopify sends it.
func SignatureHeader(body []byte, secret string) string {
	return base64.StdEncoding.EncodeToString(Sign(body, secret))
}
