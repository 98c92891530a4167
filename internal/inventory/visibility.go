package inventory

import (
	"context"
	"fmt"

	"stockwatch/internal/models"
)

// StatusWriter persists a confirmed visibility change. autoHidden records
// whether the hidden state was set by auto-hide.
type StatusWriter interface {
	UpdateProductStatus(ctx context.Context, id string, status models.VisibilityStatus, autoHidden bool) error
}

type Transition string

const (
	NoTransition        Transition = "none"
	TransitionHide      Transition = "hide"
	TransitionRepublish Transition = "republish"
	// TransitionSettle resolves a pending row to the catalog's current state
	// without a catalog call.
	TransitionSettle Transition = "settle"
)

// Decision is the pure output of the visibility table.
type Decision struct {
	Transition Transition
	Target     models.VisibilityStatus
	AutoHidden bool
}

// Decide applies the visibility table to a reconciled product. catalogActive
// is the catalog's own published state, used to settle pending rows. Only
// products hidden by auto-hide are republished; a merchant's own drafts stay
// unpublished.
func Decide(store *models.StoreAccount, override *models.ProductOverride, tracked *models.TrackedProduct, catalogActive bool) Decision {
	current := tracked.Status
	switch current {
	case models.StatusDeactivated:
		return Decision{Transition: NoTransition, Target: current}
	case models.StatusPending:
		current = models.StatusHidden
		if catalogActive {
			current = models.StatusVisible
		}
	}

	excluded := override.SkipAutoHide()
	qty := tracked.CurrentQuantity

	switch {
	case current == models.StatusVisible && qty == 0 && store.AutoHideEnabled && !excluded:
		return Decision{Transition: TransitionHide, Target: models.StatusHidden, AutoHidden: true}
	case current == models.StatusHidden && qty > 0 && store.AutoRepublishEnabled && !excluded && tracked.AutoHidden:
		return Decision{Transition: TransitionRepublish, Target: models.StatusVisible}
	}
	autoHidden := current == models.StatusHidden && tracked.AutoHidden
	if current != tracked.Status {
		return Decision{Transition: TransitionSettle, Target: current, AutoHidden: autoHidden}
	}
	return Decision{Transition: NoTransition, Target: current, AutoHidden: autoHidden}
}

// VisibilityMachine drives Visible <-> Hidden transitions. The catalog is
// mutated first and the local status is only written after it succeeds.
type VisibilityMachine struct {
	statuses StatusWriter
}

func NewVisibilityMachine(statuses StatusWriter) *VisibilityMachine {
	return &VisibilityMachine{statuses: statuses}
}

func (m *VisibilityMachine) Apply(ctx context.Context, catalog Catalog, store *models.StoreAccount, override *models.ProductOverride, tracked *models.TrackedProduct, catalogActive bool) (Transition, error) {
	decision := Decide(store, override, tracked, catalogActive)

	switch decision.Transition {
	case NoTransition:
		return NoTransition, nil
	case TransitionHide, TransitionRepublish:
		visible := decision.Transition == TransitionRepublish
		if err := catalog.SetProductVisibility(ctx, tracked.ProductID, visible); err != nil {
			return NoTransition, &MutationError{ProductID: tracked.ProductID, Visible: visible, Err: err}
		}
	}

	if err := m.statuses.UpdateProductStatus(ctx, tracked.ID, decision.Target, decision.AutoHidden); err != nil {
		return decision.Transition, fmt.Errorf("failed to persist status %s for product %d: %w", decision.Target, tracked.ProductID, err)
	}
	tracked.Status = decision.Target
	tracked.AutoHidden = decision.AutoHidden
	return decision.Transition, nil
}
