package inventory

import (
	"errors"
	"fmt"
)

var (
	// ErrUnresolvedItem means no tracked product owns the inventory item.
	// Callers acknowledge the event as a no-op.
	ErrUnresolvedItem = errors.New("inventory item not tracked")

	// ErrDeactivated means the product is outside the store's plan quota.
	ErrDeactivated = errors.New("product deactivated by plan quota")

	// ErrOverQuota means the store's plan cannot track another product.
	ErrOverQuota = errors.New("plan product limit reached")

	// ErrStoreNotFound means the shop domain has no installed account.
	ErrStoreNotFound = errors.New("store not found")
)

// UpstreamFetchError wraps a catalog failure while reading product data.
type UpstreamFetchError struct {
	ProductID int64
	Err       error
}

func (e *UpstreamFetchError) Error() string {
	if e.ProductID == 0 {
		return fmt.Sprintf("catalog fetch failed: %v", e.Err)
	}
	return fmt.Sprintf("catalog fetch failed for product %d: %v", e.ProductID, e.Err)
}

func (e *UpstreamFetchError) Unwrap() error {
	return e.Err
}

// MutationError wraps a failed visibility change in the catalog.
type MutationError struct {
	ProductID int64
	Visible   bool
	Err       error
}

func (e *MutationError) Error() string {
	action := "hide"
	if e.Visible {
		action = "publish"
	}
	return fmt.Sprintf("failed to %s product %d: %v", action, e.ProductID, e.Err)
}

func (e *MutationError) Unwrap() error {
	return e.Err
}
