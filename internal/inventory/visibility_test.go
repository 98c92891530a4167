package inventory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockwatch/internal/models"
)

func TestDecide(t *testing.T) {
	excluded := &models.ProductOverride{ExcludeFromAutoHide: true}
	cases := []struct {
		name      string
		status    models.VisibilityStatus
		qty       int
		autoHide  bool
		republish bool
		override  *models.ProductOverride
		active    bool
		auto      bool
		want      Transition
		target    models.VisibilityStatus
	}{
		{"hide at zero", models.StatusVisible, 0, true, false, nil, true, false, TransitionHide, models.StatusHidden},
		{"auto hide disabled", models.StatusVisible, 0, false, true, nil, true, false, NoTransition, models.StatusVisible},
		{"excluded from auto hide", models.StatusVisible, 0, true, true, excluded, true, false, NoTransition, models.StatusVisible},
		{"already hidden", models.StatusHidden, 0, true, true, nil, false, true, NoTransition, models.StatusHidden},
		{"republish", models.StatusHidden, 3, true, true, nil, false, true, TransitionRepublish, models.StatusVisible},
		{"republish disabled", models.StatusHidden, 3, true, false, nil, false, true, NoTransition, models.StatusHidden},
		{"excluded from republish", models.StatusHidden, 3, true, true, excluded, false, true, NoTransition, models.StatusHidden},
		{"visible with stock", models.StatusVisible, 3, true, true, nil, true, false, NoTransition, models.StatusVisible},
		{"pending settles visible", models.StatusPending, 3, true, true, nil, true, false, TransitionSettle, models.StatusVisible},
		{"pending zero hides", models.StatusPending, 0, true, true, nil, true, false, TransitionHide, models.StatusHidden},
		{"pending auto-hidden republishes", models.StatusPending, 2, true, true, nil, false, true, TransitionRepublish, models.StatusVisible},
		{"pending auto-hidden without republish", models.StatusPending, 2, true, false, nil, false, true, TransitionSettle, models.StatusHidden},
		{"merchant draft stays hidden", models.StatusHidden, 3, true, true, nil, false, false, NoTransition, models.StatusHidden},
		{"pending merchant draft settles hidden", models.StatusPending, 2, true, true, nil, false, false, TransitionSettle, models.StatusHidden},
		{"deactivated untouched", models.StatusDeactivated, 0, true, true, nil, true, false, NoTransition, models.StatusDeactivated},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := &models.StoreAccount{AutoHideEnabled: tc.autoHide, AutoRepublishEnabled: tc.republish}
			tracked := &models.TrackedProduct{Status: tc.status, CurrentQuantity: tc.qty, AutoHidden: tc.auto}
			d := Decide(store, tc.override, tracked, tc.active)
			assert.Equal(t, tc.want, d.Transition)
			assert.Equal(t, tc.target, d.Target)
		})
	}
}

func TestApplyHidesOnlyAfterCatalogConfirms(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	tracked := &models.TrackedProduct{StoreID: "store-1", ProductID: 100, Status: models.StatusVisible}
	require.NoError(t, store.SaveTrackedProduct(ctx, tracked))

	catalog := &fakeCatalog{products: []Product{tshirt()}, visibleErr: errCatalogDown}
	m := NewVisibilityMachine(store)

	transition, err := m.Apply(ctx, catalog, testStore(), nil, tracked, true)
	var mutation *MutationError
	require.ErrorAs(t, err, &mutation)
	assert.Equal(t, NoTransition, transition)
	assert.Equal(t, models.StatusVisible, store.tracked("store-1", 100).Status)
	assert.Equal(t, 0, store.statusWrites)

	catalog.visibleErr = nil
	transition, err = m.Apply(ctx, catalog, testStore(), nil, tracked, true)
	require.NoError(t, err)
	assert.Equal(t, TransitionHide, transition)
	assert.Equal(t, models.StatusHidden, store.tracked("store-1", 100).Status)
	assert.Equal(t, []bool{false, false}, catalog.visibility)

	transition, err = m.Apply(ctx, catalog, testStore(), nil, tracked, false)
	require.NoError(t, err)
	assert.Equal(t, NoTransition, transition)
	assert.Len(t, catalog.visibility, 2, "hiding a hidden product issues no call")
}
