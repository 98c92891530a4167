package shopify

import (
	"stockwatch/internal/inventory"
)

type Transformer struct{}

func NewTransformer() *Transformer {
	return &Transformer{}
}

// TransformProduct converts a Shopify product into the catalog shape the
// inventory pipeline works on. Variants are kept in position order.
func (t *Transformer) TransformProduct(shopifyProduct *Product) *inventory.Product {
	variants := make([]inventory.Variant, 0, len(shopifyProduct.Variants))
	for _, v := range shopifyProduct.Variants {
		variants = append(variants, inventory.Variant{
			ID:              v.ID,
			SKU:             v.Sku,
			Quantity:        v.InventoryQuantity,
			InventoryItemID: v.InventoryItemID,
		})
	}

	return &inventory.Product{
		ID:       shopifyProduct.ID,
		Title:    shopifyProduct.Title,
		Status:   shopifyProduct.Status,
		Variants: variants,
	}
}

// TransformProducts converts a page of products.
func (t *Transformer) TransformProducts(products []Product) []inventory.Product {
	out := make([]inventory.Product, 0, len(products))
	for i := range products {
		out = append(out, *t.TransformProduct(&products[i]))
	}
	return out
}

// VisibilityStatus maps the visible flag onto a product status.
func VisibilityStatus(visible bool) string {
	if visible {
		return ProductStatusActive
	}
	return ProductStatusDraft
}
