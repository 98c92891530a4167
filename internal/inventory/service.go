package inventory

import (
	"context"
	"errors"
	"fmt"

	"stockwatch/internal/logger"
	"stockwatch/internal/models"
)

// Store is the persistence surface the webhook pipeline needs.
type Store interface {
	ItemIndex
	ProductStore
	StatusWriter
	GetStoreByDomain(ctx context.Context, shopDomain string) (*models.StoreAccount, error)
	GetOverride(ctx context.Context, storeID string, productID int64) (*models.ProductOverride, error)
	DeleteProduct(ctx context.Context, storeID string, productID int64) error
	UninstallStore(ctx context.Context, storeID string) error
}

// AlertDispatcher decides on and delivers stock alerts for a reconciliation.
type AlertDispatcher interface {
	Dispatch(ctx context.Context, store *models.StoreAccount, override *models.ProductOverride, rec *Reconciliation) ([]models.AlertRecord, error)
}

// InventoryLevelEvent is the inventory_levels/update webhook body. Available
// is informational only; stock is always re-read from the catalog.
type InventoryLevelEvent struct {
	InventoryItemID int64  `json:"inventory_item_id"`
	LocationID      int64  `json:"location_id"`
	Available       *int   `json:"available"`
	UpdatedAt       string `json:"updated_at,omitempty"`
}

type OutcomeStatus string

const (
	OutcomeProcessed     OutcomeStatus = "processed"
	OutcomeUntracked     OutcomeStatus = "untracked"
	OutcomeDeactivated   OutcomeStatus = "deactivated"
	OutcomeOverQuota     OutcomeStatus = "over_quota"
	OutcomeUnknownStore  OutcomeStatus = "unknown_store"
	OutcomeUpstreamError OutcomeStatus = "upstream_error"
)

// Outcome summarises what one event did. Failures of isolated downstream
// calls (mutation, notification) are collected in Errors and never abort.
type Outcome struct {
	Status     OutcomeStatus        `json:"status"`
	ProductID  int64                `json:"product_id,omitempty"`
	Source     ResolutionSource     `json:"source,omitempty"`
	Previous   int                  `json:"previous"`
	Current    int                  `json:"current"`
	Transition Transition           `json:"transition,omitempty"`
	Alerts     []models.AlertRecord `json:"-"`
	Errors     []error              `json:"-"`
}

type Service struct {
	store      Store
	catalogs   CatalogProvider
	resolver   *Resolver
	reconciler *Reconciler
	visibility *VisibilityMachine
	alerts     AlertDispatcher
	logger     *logger.Logger
}

func NewService(store Store, catalogs CatalogProvider, alerts AlertDispatcher, admission Admission, logger *logger.Logger, opts ResolverOptions) *Service {
	return &Service{
		store:      store,
		catalogs:   catalogs,
		resolver:   NewResolver(store, logger, opts),
		reconciler: NewReconciler(store, admission),
		visibility: NewVisibilityMachine(store),
		alerts:     alerts,
		logger:     logger,
	}
}

// HandleInventoryUpdate runs one inventory event through resolve, reconcile,
// visibility and alerting. A non-nil error is only returned for local
// persistence failures and upstream fetch failures; every other condition is
// reported through the Outcome.
func (s *Service) HandleInventoryUpdate(ctx context.Context, shopDomain string, event InventoryLevelEvent) (*Outcome, error) {
	log := s.logger.With("shop", shopDomain, "inventory_item_id", event.InventoryItemID)

	store, err := s.store.GetStoreByDomain(ctx, shopDomain)
	if err != nil {
		if errors.Is(err, ErrStoreNotFound) {
			log.Info("inventory update for unknown store ignored")
			return &Outcome{Status: OutcomeUnknownStore}, nil
		}
		return nil, fmt.Errorf("failed to load store %s: %w", shopDomain, err)
	}

	catalog := s.catalogs.CatalogFor(store)

	res, err := s.resolver.Resolve(ctx, catalog, store.ID, event.InventoryItemID)
	if err != nil {
		if IsUnresolved(err) {
			log.Debug("inventory item not tracked")
			return &Outcome{Status: OutcomeUntracked}, nil
		}
		log.Error("failed to resolve inventory item: %v", err)
		return &Outcome{Status: OutcomeUpstreamError}, err
	}

	outcome := &Outcome{Status: OutcomeProcessed, ProductID: res.Product.ID, Source: res.Source}
	log = log.With("product_id", res.Product.ID)

	rec, err := s.reconciler.Reconcile(ctx, store, res.Product)
	switch {
	case errors.Is(err, ErrDeactivated):
		log.Debug("product deactivated by plan quota, skipping")
		outcome.Status = OutcomeDeactivated
		return outcome, nil
	case errors.Is(err, ErrOverQuota):
		log.Info("plan product limit reached, not tracking product")
		outcome.Status = OutcomeOverQuota
		return outcome, nil
	case err != nil:
		return nil, err
	}
	outcome.Previous = rec.Previous
	outcome.Current = rec.Current

	override, err := s.store.GetOverride(ctx, store.ID, res.Product.ID)
	if err != nil {
		log.Warn("failed to load product override, using store defaults: %v", err)
		override = nil
	}

	transition, err := s.visibility.Apply(ctx, catalog, store, override, rec.Tracked, res.Product.Active())
	if err != nil {
		log.Error("visibility transition failed: %v", err)
		outcome.Errors = append(outcome.Errors, err)
	}
	outcome.Transition = transition

	if s.alerts != nil {
		records, err := s.alerts.Dispatch(ctx, store, override, rec)
		if err != nil {
			log.Error("alert dispatch failed: %v", err)
			outcome.Errors = append(outcome.Errors, err)
		}
		outcome.Alerts = records
	}

	log.Info("inventory reconciled previous=%d current=%d transition=%s alerts=%d source=%s",
		rec.Previous, rec.Current, transition, len(outcome.Alerts), res.Source)
	return outcome, nil
}

// HandleProductDeleted drops the tracked row and its index entries.
func (s *Service) HandleProductDeleted(ctx context.Context, shopDomain string, productID int64) error {
	store, err := s.store.GetStoreByDomain(ctx, shopDomain)
	if err != nil {
		if errors.Is(err, ErrStoreNotFound) {
			return nil
		}
		return err
	}
	if err := s.store.DeleteProduct(ctx, store.ID, productID); err != nil {
		return fmt.Errorf("failed to delete product %d: %w", productID, err)
	}
	s.logger.Info("tracked product removed shop=%s product_id=%d", shopDomain, productID)
	return nil
}

// HandleUninstall soft-deletes the store and everything hanging off it.
func (s *Service) HandleUninstall(ctx context.Context, shopDomain string) error {
	store, err := s.store.GetStoreByDomain(ctx, shopDomain)
	if err != nil {
		if errors.Is(err, ErrStoreNotFound) {
			return nil
		}
		return err
	}
	if err := s.store.UninstallStore(ctx, store.ID); err != nil {
		return fmt.Errorf("failed to uninstall store %s: %w", shopDomain, err)
	}
	s.logger.Info("store uninstalled shop=%s", shopDomain)
	return nil
}

type SyncResult struct {
	Scanned int `json:"scanned"`
	Tracked int `json:"tracked"`
	Skipped int `json:"skipped"`
	Alerted int `json:"alerted"`
	Pages   int `json:"pages"`
}

// SyncStore walks the whole catalog once, refreshing aggregates and the item
// index. Visibility is left to the next webhook, which acts on stored state.
// Alerts are evaluated for rows whose stock moved, since the sync overwrites
// the previous quantity the next webhook would have compared against.
func (s *Service) SyncStore(ctx context.Context, store *models.StoreAccount, pageSize int) (*SyncResult, error) {
	catalog := s.catalogs.CatalogFor(store)
	result := &SyncResult{}
	pageInfo := ""

	for {
		page, err := catalog.ListProducts(ctx, pageSize, pageInfo)
		if err != nil {
			return result, &UpstreamFetchError{Err: err}
		}
		result.Pages++

		for i := range page.Products {
			product := &page.Products[i]
			result.Scanned++

			for _, v := range product.Variants {
				if v.InventoryItemID == 0 {
					continue
				}
				entry := &models.InventoryItemIndex{
					StoreID:         store.ID,
					InventoryItemID: v.InventoryItemID,
					ProductID:       product.ID,
					VariantID:       v.ID,
				}
				if err := s.store.SaveItem(ctx, entry); err != nil {
					s.logger.Warn("failed to index item %d: %v", v.InventoryItemID, err)
				}
			}

			rec, err := s.reconciler.Reconcile(ctx, store, product)
			if err != nil {
				if errors.Is(err, ErrDeactivated) || errors.Is(err, ErrOverQuota) {
					result.Skipped++
					continue
				}
				return result, err
			}
			result.Tracked++

			if s.alerts != nil && !rec.Created && rec.Changed() {
				override, err := s.store.GetOverride(ctx, store.ID, product.ID)
				if err != nil {
					s.logger.Warn("failed to load override for product %d, using store defaults: %v", product.ID, err)
					override = nil
				}
				if _, err := s.alerts.Dispatch(ctx, store, override, rec); err != nil {
					s.logger.Error("sync alert dispatch failed for product %d: %v", product.ID, err)
				}
				result.Alerted++
			}
		}

		if page.NextPageInfo == "" {
			return result, nil
		}
		pageInfo = page.NextPageInfo
	}
}
