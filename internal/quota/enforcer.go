package quota

import (
	"context"
	"fmt"
	"time"

	"stockwatch/internal/logger"
	"stockwatch/internal/models"
)

// Store is the persistence the enforcer needs. Both listings must be ordered
// most recently updated first, ties broken by id.
type Store interface {
	ListActiveProducts(ctx context.Context, storeID string) ([]models.TrackedProduct, error)
	ListDeactivatedProducts(ctx context.Context, storeID string) ([]models.TrackedProduct, error)
	CountActiveProducts(ctx context.Context, storeID string) (int64, error)
	// ApplyQuota sets the plan and moves the given rows in one transaction
	// without touching their updated_at.
	ApplyQuota(ctx context.Context, storeID string, plan models.Plan, deactivate, restore []string, at time.Time) error
}

type Result struct {
	StoreID     string      `json:"store_id"`
	Plan        models.Plan `json:"plan"`
	Limit       string      `json:"limit"`
	Active      int         `json:"active"`
	Deactivated int         `json:"deactivated"`
	Restored    int         `json:"restored"`
}

type Enforcer struct {
	store  Store
	logger *logger.Logger
	now    func() time.Time
}

func NewEnforcer(store Store, logger *logger.Logger) *Enforcer {
	return &Enforcer{store: store, logger: logger, now: time.Now}
}

// Enforce brings the store's tracked products in line with plan. Running it
// twice with the same plan changes nothing the second time.
func (e *Enforcer) Enforce(ctx context.Context, storeID string, plan models.Plan) (*Result, error) {
	if !Valid(plan) {
		return nil, fmt.Errorf("unknown plan %q", plan)
	}
	limit := PlanLimit(plan)

	active, err := e.store.ListActiveProducts(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active products: %w", err)
	}
	deactivated, err := e.store.ListDeactivatedProducts(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list deactivated products: %w", err)
	}

	var toDeactivate, toRestore []string
	switch {
	case limit.Unlimited:
		toRestore = ids(deactivated)
	case len(active) > limit.Max:
		toDeactivate = ids(active[limit.Max:])
	default:
		room := limit.Max - len(active)
		if room > len(deactivated) {
			room = len(deactivated)
		}
		toRestore = ids(deactivated[:room])
	}

	if err := e.store.ApplyQuota(ctx, storeID, plan, toDeactivate, toRestore, e.now()); err != nil {
		return nil, fmt.Errorf("failed to apply quota: %w", err)
	}

	result := &Result{
		StoreID:     storeID,
		Plan:        plan,
		Limit:       limit.String(),
		Active:      len(active) - len(toDeactivate) + len(toRestore),
		Deactivated: len(toDeactivate),
		Restored:    len(toRestore),
	}
	if result.Deactivated > 0 || result.Restored > 0 {
		e.logger.Info("Quota enforced for store %s on plan %s: %d deactivated, %d restored",
			storeID, plan, result.Deactivated, result.Restored)
	}
	return result, nil
}

// CanTrack reports whether the store has room for one more tracked product.
func (e *Enforcer) CanTrack(ctx context.Context, store *models.StoreAccount) (bool, error) {
	limit := PlanLimit(store.Plan)
	if limit.Unlimited {
		return true, nil
	}
	count, err := e.store.CountActiveProducts(ctx, store.ID)
	if err != nil {
		return false, fmt.Errorf("failed to count tracked products: %w", err)
	}
	return limit.Allows(int(count) + 1), nil
}

func ids(products []models.TrackedProduct) []string {
	out := make([]string, len(products))
	for i := range products {
		out[i] = products[i].ID
	}
	return out
}
