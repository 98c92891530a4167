package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"stockwatch/internal/models"
)

func (r *Repository) LookupItem(ctx context.Context, storeID string, inventoryItemID int64) (*models.InventoryItemIndex, error) {
	var entry models.InventoryItemIndex
	err := r.conn(ctx).
		Where("store_id = ? AND inventory_item_id = ?", storeID, inventoryItemID).
		First(&entry).Error
	if err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (r *Repository) SaveItem(ctx context.Context, entry *models.InventoryItemIndex) error {
	return r.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "store_id"}, {Name: "inventory_item_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"product_id", "variant_id", "updated_at"}),
	}).Create(entry).Error
}

func (r *Repository) DeleteItem(ctx context.Context, storeID string, inventoryItemID int64) error {
	return r.conn(ctx).
		Where("store_id = ? AND inventory_item_id = ?", storeID, inventoryItemID).
		Delete(&models.InventoryItemIndex{}).Error
}

func (r *Repository) GetTrackedProduct(ctx context.Context, storeID string, productID int64) (*models.TrackedProduct, error) {
	var product models.TrackedProduct
	err := r.conn(ctx).
		Where("store_id = ? AND product_id = ?", storeID, productID).
		First(&product).Error
	if err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

var reconciledColumns = []string{"title", "sku", "current_quantity", "previous_quantity", "last_checked_at", "updated_at"}

// SaveTrackedProduct writes the reconciled aggregate. Existing rows only get
// their quantity columns updated so a concurrent quota or visibility change
// to status is never overwritten.
func (r *Repository) SaveTrackedProduct(ctx context.Context, product *models.TrackedProduct) error {
	db := r.conn(ctx)
	if product.ID != "" {
		return db.Model(product).Select(reconciledColumns).Updates(product).Error
	}

	return db.Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "store_id"}, {Name: "product_id"}},
			DoUpdates: clause.AssignmentColumns(reconciledColumns),
		}).Create(product).Error
		if err != nil {
			return err
		}
		// On conflict the row keeps its original id and visibility state.
		var stored models.TrackedProduct
		if err := tx.Select("id", "status", "auto_hidden").
			Where("store_id = ? AND product_id = ?", product.StoreID, product.ProductID).
			First(&stored).Error; err != nil {
			return err
		}
		product.ID = stored.ID
		product.Status = stored.Status
		product.AutoHidden = stored.AutoHidden
		return nil
	})
}

func (r *Repository) UpdateProductStatus(ctx context.Context, id string, status models.VisibilityStatus, autoHidden bool) error {
	return r.conn(ctx).Model(&models.TrackedProduct{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":      status,
		"auto_hidden": autoHidden,
	}).Error
}

// MarkAlerted records the last successful alert without touching updated_at,
// which orders products for quota enforcement.
func (r *Repository) MarkAlerted(ctx context.Context, trackedID string, at time.Time) error {
	return r.conn(ctx).Model(&models.TrackedProduct{}).Where("id = ?", trackedID).UpdateColumn("last_alert_at", at).Error
}

func (r *Repository) DeleteProduct(ctx context.Context, storeID string, productID int64) error {
	return r.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("store_id = ? AND product_id = ?", storeID, productID).Delete(&models.InventoryItemIndex{}).Error; err != nil {
			return err
		}
		return tx.Where("store_id = ? AND product_id = ?", storeID, productID).Delete(&models.TrackedProduct{}).Error
	})
}

type ProductFilter struct {
	Status models.VisibilityStatus
	Limit  int
	Offset int
}

func (r *Repository) ListTrackedProducts(ctx context.Context, storeID string, filter ProductFilter) ([]models.TrackedProduct, int64, error) {
	query := r.conn(ctx).Model(&models.TrackedProduct{}).Where("store_id = ?", storeID)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 || limit > 250 {
		limit = 50
	}

	var products []models.TrackedProduct
	err := query.Order("updated_at DESC, id").Limit(limit).Offset(filter.Offset).Find(&products).Error
	return products, total, err
}

func (r *Repository) GetOverride(ctx context.Context, storeID string, productID int64) (*models.ProductOverride, error) {
	var override models.ProductOverride
	err := r.conn(ctx).Where("store_id = ? AND product_id = ?", storeID, productID).First(&override).Error
	if err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &override, nil
}

func (r *Repository) SaveOverride(ctx context.Context, override *models.ProductOverride) error {
	return r.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "store_id"}, {Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"exclude_from_auto_hide", "exclude_from_alerts", "custom_threshold", "updated_at"}),
	}).Create(override).Error
}
