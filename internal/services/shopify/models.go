package shopify

import (
	"time"
)

// Product represents a Shopify product
type Product struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Handle      string     `json:"handle"`
	Status      string     `json:"status"`
	Variants    []Variant  `json:"variants"`
	UpdatedAt   time.Time  `json:"updated_at"`
	PublishedAt *time.Time `json:"published_at"`
}

// Variant represents a product variant
type Variant struct {
	ID                  int64  `json:"id"`
	ProductID           int64  `json:"product_id"`
	Title               string `json:"title"`
	Sku                 string `json:"sku"`
	Position            int    `json:"position"`
	InventoryManagement string `json:"inventory_management"`
	InventoryItemID     int64  `json:"inventory_item_id"`
	InventoryQuantity   int    `json:"inventory_quantity"`
}

// Product statuses. Hiding a product moves it to draft.
const (
	ProductStatusActive   = "active"
	ProductStatusDraft    = "draft"
	ProductStatusArchived = "archived"
)

// ProductsResponse represents the response from products API
type ProductsResponse struct {
	Products     []Product `json:"products"`
	NextPageInfo string    `json:"-"`
}

// InventoryLevelPayload is the inventory_levels/update webhook body.
type InventoryLevelPayload struct {
	InventoryItemID int64  `json:"inventory_item_id"`
	LocationID      int64  `json:"location_id"`
	Available       *int   `json:"available"`
	UpdatedAt       string `json:"updated_at"`
}

// ProductDeletePayload is the products/delete webhook body.
type ProductDeletePayload struct {
	ID int64 `json:"id"`
}

// AppUninstalledPayload is the app/uninstalled webhook body (a shop object).
type AppUninstalledPayload struct {
	ID              int64  `json:"id"`
	Domain          string `json:"domain"`
	MyshopifyDomain string `json:"myshopify_domain"`
}
