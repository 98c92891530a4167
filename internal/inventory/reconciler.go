package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"stockwatch/internal/models"
)

// ProductStore persists the aggregate TrackedProduct rows.
type ProductStore interface {
	GetTrackedProduct(ctx context.Context, storeID string, productID int64) (*models.TrackedProduct, error)
	SaveTrackedProduct(ctx context.Context, product *models.TrackedProduct) error
}

// Reconciliation is the outcome of recomputing one product's aggregate stock.
type Reconciliation struct {
	Tracked  *models.TrackedProduct
	Previous int
	Current  int
	Created  bool
}

// Changed reports whether the aggregate moved since the last observation.
func (r *Reconciliation) Changed() bool {
	return r.Previous != r.Current
}

// Admission decides whether a store may start tracking another product.
type Admission interface {
	CanTrack(ctx context.Context, store *models.StoreAccount) (bool, error)
}

type Reconciler struct {
	products  ProductStore
	admission Admission
	now       func() time.Time
}

func NewReconciler(products ProductStore, admission Admission) *Reconciler {
	return &Reconciler{products: products, admission: admission, now: time.Now}
}

// Reconcile recomputes the aggregate from the catalog's variant quantities and
// upserts the TrackedProduct. The visibility status is carried over untouched.
func (r *Reconciler) Reconcile(ctx context.Context, store *models.StoreAccount, product *Product) (*Reconciliation, error) {
	storeID := store.ID
	existing, err := r.products.GetTrackedProduct(ctx, storeID, product.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tracked product %d: %w", product.ID, err)
	}
	if existing != nil && existing.Deactivated() {
		return nil, ErrDeactivated
	}
	if existing == nil && r.admission != nil {
		ok, err := r.admission.CanTrack(ctx, store)
		if err != nil {
			return nil, fmt.Errorf("failed to check plan quota: %w", err)
		}
		if !ok {
			return nil, ErrOverQuota
		}
	}

	current := AggregateQuantity(product.Variants)
	now := r.now()

	rec := &Reconciliation{Current: current}
	tracked := existing
	if tracked == nil {
		rec.Created = true
		status := models.StatusVisible
		if !product.Active() {
			status = models.StatusHidden
		}
		tracked = &models.TrackedProduct{
			StoreID:   storeID,
			ProductID: product.ID,
			Status:    status,
		}
	} else {
		rec.Previous = tracked.CurrentQuantity
	}

	tracked.Title = product.Title
	tracked.SKU = CombinedSKU(product.Variants)
	tracked.PreviousQuantity = rec.Previous
	tracked.CurrentQuantity = current
	tracked.LastCheckedAt = &now

	if err := r.products.SaveTrackedProduct(ctx, tracked); err != nil {
		return nil, fmt.Errorf("failed to save tracked product %d: %w", product.ID, err)
	}
	rec.Tracked = tracked
	return rec, nil
}

// AggregateQuantity sums stock across all variants. Negative variant stock
// (oversold) counts as zero so a product never reports below zero overall.
func AggregateQuantity(variants []Variant) int {
	total := 0
	for _, v := range variants {
		if v.Quantity > 0 {
			total += v.Quantity
		}
	}
	return total
}

// CombinedSKU joins non-empty variant SKUs in variant order, for display only.
func CombinedSKU(variants []Variant) string {
	skus := make([]string, 0, len(variants))
	for _, v := range variants {
		if sku := strings.TrimSpace(v.SKU); sku != "" {
			skus = append(skus, sku)
		}
	}
	return strings.Join(skus, ", ")
}
