package inventory

import (
	"context"
	"errors"
	"fmt"

	"stockwatch/internal/logger"
	"stockwatch/internal/models"
)

// ItemIndex is the fast lookup tier: inventory item id -> product/variant.
type ItemIndex interface {
	LookupItem(ctx context.Context, storeID string, inventoryItemID int64) (*models.InventoryItemIndex, error)
	SaveItem(ctx context.Context, entry *models.InventoryItemIndex) error
	DeleteItem(ctx context.Context, storeID string, inventoryItemID int64) error
}

type ResolutionSource string

const (
	SourceIndex ResolutionSource = "index"
	SourceScan  ResolutionSource = "scan"
)

type Resolution struct {
	Product *Product
	Variant Variant
	Source  ResolutionSource
}

type ResolverOptions struct {
	PageSize int
	MaxPages int
}

// Resolver maps an inventory item to its owning product. It consults the
// index first and falls back to a bounded catalog scan, repairing the index
// on a fallback hit. Product data is never mutated here.
type Resolver struct {
	index  ItemIndex
	logger *logger.Logger
	opts   ResolverOptions
}

func NewResolver(index ItemIndex, logger *logger.Logger, opts ResolverOptions) *Resolver {
	if opts.PageSize <= 0 {
		opts.PageSize = 250
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = 1
	}
	return &Resolver{index: index, logger: logger, opts: opts}
}

func (r *Resolver) Resolve(ctx context.Context, catalog Catalog, storeID string, inventoryItemID int64) (*Resolution, error) {
	if res, ok := r.fromIndex(ctx, catalog, storeID, inventoryItemID); ok {
		return res, nil
	}
	return r.scan(ctx, catalog, storeID, inventoryItemID)
}

// fromIndex returns ok=false on any miss; stale entries are dropped.
func (r *Resolver) fromIndex(ctx context.Context, catalog Catalog, storeID string, itemID int64) (*Resolution, bool) {
	entry, err := r.index.LookupItem(ctx, storeID, itemID)
	if err != nil {
		r.logger.Warn("item index lookup failed store=%s item=%d: %v", storeID, itemID, err)
		return nil, false
	}
	if entry == nil {
		return nil, false
	}

	product, err := catalog.GetProduct(ctx, entry.ProductID)
	if err == nil {
		if variant, found := product.VariantByItem(itemID); found {
			return &Resolution{Product: product, Variant: *variant, Source: SourceIndex}, true
		}
		err = fmt.Errorf("variant for item %d no longer on product", itemID)
	}

	r.logger.Info("dropping stale index entry store=%s item=%d product=%d: %v", storeID, itemID, entry.ProductID, err)
	if delErr := r.index.DeleteItem(ctx, storeID, itemID); delErr != nil {
		r.logger.Warn("failed to delete stale index entry store=%s item=%d: %v", storeID, itemID, delErr)
	}
	return nil, false
}

func (r *Resolver) scan(ctx context.Context, catalog Catalog, storeID string, itemID int64) (*Resolution, error) {
	pageInfo := ""
	for page := 0; page < r.opts.MaxPages; page++ {
		resp, err := catalog.ListProducts(ctx, r.opts.PageSize, pageInfo)
		if err != nil {
			return nil, &UpstreamFetchError{Err: err}
		}

		for i := range resp.Products {
			product := &resp.Products[i]
			variant, found := product.VariantByItem(itemID)
			if !found {
				continue
			}

			entry := &models.InventoryItemIndex{
				StoreID:         storeID,
				InventoryItemID: itemID,
				ProductID:       product.ID,
				VariantID:       variant.ID,
			}
			if err := r.index.SaveItem(ctx, entry); err != nil {
				r.logger.Warn("failed to repair item index store=%s item=%d: %v", storeID, itemID, err)
			}
			return &Resolution{Product: product, Variant: *variant, Source: SourceScan}, nil
		}

		if resp.NextPageInfo == "" {
			break
		}
		pageInfo = resp.NextPageInfo
	}
	return nil, ErrUnresolvedItem
}

// IsUnresolved reports whether err means the item is simply not tracked.
func IsUnresolved(err error) bool {
	return errors.Is(err, ErrUnresolvedItem)
}
