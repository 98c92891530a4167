package processors

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stockwatch/internal/inventory"
	"stockwatch/internal/logger"
	"stockwatch/internal/models"
	"stockwatch/internal/quota"
)

const (
	EventPlanChanged   = "plan.changed"
	EventSyncRequested = "sync.requested"
)

// Event is one message on the plan topic.
type Event struct {
	Type       string      `json:"type"`
	ShopDomain string      `json:"shop_domain"`
	Plan       models.Plan `json:"plan,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
}

type StoreLookup interface {
	GetStoreByDomain(ctx context.Context, shopDomain string) (*models.StoreAccount, error)
}

type Enforcer interface {
	Enforce(ctx context.Context, storeID string, plan models.Plan) (*quota.Result, error)
}

type Syncer interface {
	SyncStore(ctx context.Context, store *models.StoreAccount, pageSize int) (*inventory.SyncResult, error)
}

// ErrInvalidEvent marks messages that can never succeed; they are skipped
// rather than retried.
var ErrInvalidEvent = errors.New("invalid event")

type EventProcessor struct {
	stores   StoreLookup
	enforcer Enforcer
	syncer   Syncer
	pageSize int
	logger   *logger.Logger
}

func NewEventProcessor(stores StoreLookup, enforcer Enforcer, syncer Syncer, pageSize int, logger *logger.Logger) *EventProcessor {
	return &EventProcessor{
		stores:   stores,
		enforcer: enforcer,
		syncer:   syncer,
		pageSize: pageSize,
		logger:   logger,
	}
}

func (ep *EventProcessor) Process(ctx context.Context, event Event) error {
	if event.ShopDomain == "" {
		return fmt.Errorf("%w: missing shop_domain", ErrInvalidEvent)
	}

	store, err := ep.stores.GetStoreByDomain(ctx, event.ShopDomain)
	if err != nil {
		if errors.Is(err, inventory.ErrStoreNotFound) {
			ep.logger.Info("Skipping %s for unknown store %s", event.Type, event.ShopDomain)
			return nil
		}
		return err
	}

	switch event.Type {
	case EventPlanChanged:
		if !quota.Valid(event.Plan) {
			return fmt.Errorf("%w: unknown plan %q", ErrInvalidEvent, event.Plan)
		}
		result, err := ep.enforcer.Enforce(ctx, store.ID, event.Plan)
		if err != nil {
			return err
		}
		ep.logger.Info("Plan %s applied to %s: %d active, %d deactivated, %d restored",
			event.Plan, store.ShopDomain, result.Active, result.Deactivated, result.Restored)
	case EventSyncRequested:
		result, err := ep.syncer.SyncStore(ctx, store, ep.pageSize)
		if err != nil {
			return err
		}
		ep.logger.Info("Synced %s: %d scanned, %d tracked, %d skipped", store.ShopDomain, result.Scanned, result.Tracked, result.Skipped)
	default:
		ep.logger.Debug("Ignoring event type %q", event.Type)
	}
	return nil
}
