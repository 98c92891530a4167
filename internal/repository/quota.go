package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"stockwatch/internal/models"
)

func (r *Repository) ListActiveProducts(ctx context.Context, storeID string) ([]models.TrackedProduct, error) {
	var products []models.TrackedProduct
	err := r.conn(ctx).
		Where("store_id = ? AND status <> ?", storeID, models.StatusDeactivated).
		Order("updated_at DESC, id").
		Find(&products).Error
	return products, err
}

func (r *Repository) ListDeactivatedProducts(ctx context.Context, storeID string) ([]models.TrackedProduct, error) {
	var products []models.TrackedProduct
	err := r.conn(ctx).
		Where("store_id = ? AND status = ?", storeID, models.StatusDeactivated).
		Order("updated_at DESC, id").
		Find(&products).Error
	return products, err
}

func (r *Repository) CountActiveProducts(ctx context.Context, storeID string) (int64, error) {
	var count int64
	err := r.conn(ctx).Model(&models.TrackedProduct{}).
		Where("store_id = ? AND status <> ?", storeID, models.StatusDeactivated).
		Count(&count).Error
	return count, err
}

// ApplyQuota uses UpdateColumns so updated_at keeps reflecting real activity.
func (r *Repository) ApplyQuota(ctx context.Context, storeID string, plan models.Plan, deactivate, restore []string, at time.Time) error {
	return r.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.StoreAccount{}).Where("id = ?", storeID).Update("plan", plan).Error; err != nil {
			return err
		}
		if len(deactivate) > 0 {
			err := tx.Model(&models.TrackedProduct{}).
				Where("store_id = ? AND id IN ?", storeID, deactivate).
				UpdateColumns(map[string]interface{}{
					"status":         models.StatusDeactivated,
					"deactivated_at": at,
				}).Error
			if err != nil {
				return err
			}
		}
		if len(restore) > 0 {
			err := tx.Model(&models.TrackedProduct{}).
				Where("store_id = ? AND id IN ?", storeID, restore).
				UpdateColumns(map[string]interface{}{
					"status":         models.StatusPending,
					"deactivated_at": nil,
				}).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}
