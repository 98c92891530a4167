package alerts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"stockwatch/internal/inventory"
	"stockwatch/internal/logger"
	"stockwatch/internal/models"
	"stockwatch/internal/quota"
)

// Store persists alert audit records.
type Store interface {
	AlertHistory
	CreateAlertRecords(ctx context.Context, records []models.AlertRecord) error
	MarkAlerted(ctx context.Context, trackedID string, at time.Time) error
}

// NotificationError is one channel's delivery failure.
type NotificationError struct {
	Channel   models.AlertChannel
	ProductID int64
	Err       error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("%s alert for product %d failed: %v", e.Channel, e.ProductID, e.Err)
}

func (e *NotificationError) Unwrap() error {
	return e.Err
}

type Options struct {
	DedupWindow time.Duration
	SendTimeout time.Duration
}

type Dispatcher struct {
	store  Store
	guard  DedupGuard
	email  EmailSender
	chat   ChatSender
	logger *logger.Logger
	opts   Options
	now    func() time.Time
}

// NewDispatcher wires the channels. A nil guard falls back to the
// AlertRecord-based guard; a nil sender disables that channel. Pass an untyped
// nil, not a nil pointer, to disable a channel.
func NewDispatcher(store Store, guard DedupGuard, email EmailSender, chat ChatSender, logger *logger.Logger, opts Options) *Dispatcher {
	if opts.DedupWindow <= 0 {
		opts.DedupWindow = 24 * time.Hour
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = 15 * time.Second
	}
	if guard == nil {
		guard = NewRecordGuard(store, opts.DedupWindow)
	}
	return &Dispatcher{
		store:  store,
		guard:  guard,
		email:  email,
		chat:   chat,
		logger: logger,
		opts:   opts,
		now:    time.Now,
	}
}

type target struct {
	channel models.AlertChannel
	address string
}

// Dispatch evaluates the alert rules for a reconciliation and fans the alert
// out to every enabled channel. It writes exactly one AlertRecord per channel
// attempted. Channel failures are returned joined but never stop the other
// channels.
func (d *Dispatcher) Dispatch(ctx context.Context, store *models.StoreAccount, override *models.ProductOverride, rec *inventory.Reconciliation) ([]models.AlertRecord, error) {
	if override.SkipAlerts() {
		return nil, nil
	}

	threshold := override.Threshold(store.LowStockThreshold)
	// A first observation has no real previous level to restock from.
	restock := !rec.Created && store.RestockAlertsEnabled && quota.FeaturesFor(store.Plan).RestockAlerts
	kind, ok := Evaluate(rec.Previous, rec.Current, threshold, restock)
	if !ok {
		return nil, nil
	}

	targets := d.targets(store)
	if len(targets) == 0 {
		return nil, nil
	}

	tracked := rec.Tracked
	now := d.now()
	allowed, err := d.guard.Allow(ctx, store.ID, tracked.ProductID, now)
	if err != nil {
		return nil, err
	}
	if !allowed {
		d.logger.Debug("alert %s for product %d suppressed by dedup window", kind, tracked.ProductID)
		return nil, nil
	}

	msg := render(alertView{
		Shop:      store.ShopDomain,
		Title:     tracked.Title,
		SKU:       tracked.SKU,
		ProductID: tracked.ProductID,
		Kind:      kind,
		Quantity:  rec.Current,
		Threshold: threshold,
	})

	records := make([]models.AlertRecord, 0, len(targets))
	var errs []error
	delivered := false

	for _, t := range targets {
		record := models.AlertRecord{
			StoreID:   store.ID,
			ProductID: tracked.ProductID,
			Kind:      kind,
			Quantity:  rec.Current,
			Threshold: threshold,
			Channel:   t.channel,
			Status:    models.AlertSent,
			Details: datatypes.JSONMap{
				"title":    tracked.Title,
				"sku":      tracked.SKU,
				"previous": rec.Previous,
				"subject":  msg.Subject,
			},
			CreatedAt: now,
		}

		if err := d.send(ctx, t, msg); err != nil {
			nerr := &NotificationError{Channel: t.channel, ProductID: tracked.ProductID, Err: err}
			d.logger.Warn("%v", nerr)
			record.Status = models.AlertFailed
			record.Error = err.Error()
			errs = append(errs, nerr)
		} else {
			delivered = true
		}
		records = append(records, record)
	}

	if err := d.store.CreateAlertRecords(ctx, records); err != nil {
		errs = append(errs, fmt.Errorf("failed to record alerts: %w", err))
	}
	if delivered {
		if err := d.store.MarkAlerted(ctx, tracked.ID, now); err != nil {
			errs = append(errs, fmt.Errorf("failed to update last alert time: %w", err))
		} else {
			tracked.LastAlertAt = &now
		}
	}

	d.logger.Info("alert %s for product %d sent to %d channel(s)", kind, tracked.ProductID, len(records))
	return records, errors.Join(errs...)
}

func (d *Dispatcher) targets(store *models.StoreAccount) []target {
	var out []target
	if d.email != nil && store.EmailAlertsEnabled && store.NotificationEmail != "" {
		out = append(out, target{channel: models.ChannelEmail, address: store.NotificationEmail})
	}
	if d.chat != nil && store.ChatAlertsEnabled && store.ChatWebhookURL != "" && quota.FeaturesFor(store.Plan).ChatAlerts {
		out = append(out, target{channel: models.ChannelChat, address: store.ChatWebhookURL})
	}
	return out
}

func (d *Dispatcher) send(ctx context.Context, t target, msg Message) error {
	ctx, cancel := context.WithTimeout(ctx, d.opts.SendTimeout)
	defer cancel()

	switch t.channel {
	case models.ChannelEmail:
		return d.email.Send(ctx, t.address, msg.Subject, msg.Body)
	case models.ChannelChat:
		return d.chat.Send(ctx, t.address, msg.chatText())
	}
	return fmt.Errorf("unknown channel %q", t.channel)
}
