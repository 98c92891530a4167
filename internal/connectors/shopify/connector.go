package shopify

import (
	"context"
	"errors"
	"fmt"

	"stockwatch/internal/config"
	"stockwatch/internal/inventory"
	"stockwatch/internal/logger"
	"stockwatch/internal/models"
	shopifyapi "stockwatch/internal/services/shopify"
)

// ShopifyConnector hands out a catalog bound to one store's credentials.
type ShopifyConnector struct {
	config      *config.Config
	logger      *logger.Logger
	transformer *shopifyapi.Transformer
	// baseURL is set in tests to point every store at one server.
	baseURL string
}

func New(cfg *config.Config, logger *logger.Logger) *ShopifyConnector {
	return &ShopifyConnector{
		config:      cfg,
		logger:      logger,
		transformer: shopifyapi.NewTransformer(),
	}
}

func (sc *ShopifyConnector) CatalogFor(store *models.StoreAccount) inventory.Catalog {
	client := shopifyapi.NewClient(store.ShopDomain, store.AccessToken, sc.logger, shopifyapi.ClientOptions{
		APIVersion: sc.config.ShopifyAPIVersion,
		Timeout:    sc.config.ShopifyTimeout,
		BaseURL:    sc.baseURL,
	})
	return &catalog{client: client, transformer: sc.transformer}
}

type catalog struct {
	client      *shopifyapi.Client
	transformer *shopifyapi.Transformer
}

func (c *catalog) GetProduct(ctx context.Context, productID int64) (*inventory.Product, error) {
	p, err := c.client.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, shopifyapi.ErrNotFound) {
			return nil, fmt.Errorf("product %d: %w", productID, inventory.ErrProductNotFound)
		}
		return nil, err
	}
	return c.transformer.TransformProduct(p), nil
}

func (c *catalog) ListProducts(ctx context.Context, pageSize int, pageInfo string) (*inventory.ProductPage, error) {
	resp, err := c.client.GetProducts(ctx, pageSize, pageInfo)
	if err != nil {
		return nil, err
	}
	return &inventory.ProductPage{
		Products:     c.transformer.TransformProducts(resp.Products),
		NextPageInfo: resp.NextPageInfo,
	}, nil
}

func (c *catalog) SetProductVisibility(ctx context.Context, productID int64, visible bool) error {
	return c.client.SetProductStatus(ctx, productID, shopifyapi.VisibilityStatus(visible))
}
