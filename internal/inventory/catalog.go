package inventory

import (
	"context"
	"errors"

	"stockwatch/internal/models"
)

// ErrProductNotFound is returned by a Catalog when the product no longer exists.
var ErrProductNotFound = errors.New("product not found")

// Variant is the catalog's view of one sellable variant.
type Variant struct {
	ID              int64
	SKU             string
	Quantity        int
	InventoryItemID int64
}

// Product is the authoritative catalog view of a product and all its variants.
type Product struct {
	ID       int64
	Title    string
	Status   string
	Variants []Variant
}

// Active reports whether the catalog currently publishes the product.
func (p *Product) Active() bool {
	return p.Status == "" || p.Status == "active"
}

// VariantByItem returns the variant owning the inventory item, if any.
func (p *Product) VariantByItem(inventoryItemID int64) (*Variant, bool) {
	for i := range p.Variants {
		if p.Variants[i].InventoryItemID == inventoryItemID {
			return &p.Variants[i], true
		}
	}
	return nil, false
}

type ProductPage struct {
	Products     []Product
	NextPageInfo string
}

// Catalog is the source-of-truth product API for a single store.
type Catalog interface {
	GetProduct(ctx context.Context, productID int64) (*Product, error)
	ListProducts(ctx context.Context, pageSize int, pageInfo string) (*ProductPage, error)
	SetProductVisibility(ctx context.Context, productID int64, visible bool) error
}

// CatalogProvider hands out a Catalog bound to a store's credentials.
type CatalogProvider interface {
	CatalogFor(store *models.StoreAccount) Catalog
}
