package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"stockwatch/internal/inventory"
	"stockwatch/internal/models"
)

func (r *Repository) GetStoreByDomain(ctx context.Context, shopDomain string) (*models.StoreAccount, error) {
	var store models.StoreAccount
	if err := r.conn(ctx).Where("shop_domain = ?", shopDomain).First(&store).Error; err != nil {
		if notFound(err) {
			return nil, inventory.ErrStoreNotFound
		}
		return nil, err
	}
	return &store, nil
}

func (r *Repository) ListStores(ctx context.Context) ([]models.StoreAccount, error) {
	var stores []models.StoreAccount
	err := r.conn(ctx).Order("shop_domain").Find(&stores).Error
	return stores, err
}

// InstallStore creates the store or revives a previously uninstalled one with
// the same domain, keeping its id and settings.
func (r *Repository) InstallStore(ctx context.Context, store *models.StoreAccount) error {
	return r.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.StoreAccount
		err := tx.Unscoped().Where("shop_domain = ?", store.ShopDomain).First(&existing).Error
		if notFound(err) {
			return tx.Create(store).Error
		}
		if err != nil {
			return err
		}

		updates := map[string]interface{}{"deleted_at": nil}
		if store.AccessToken != "" {
			updates["access_token"] = store.AccessToken
		}
		if err := tx.Unscoped().Model(&existing).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to restore store: %w", err)
		}
		existing.DeletedAt = gorm.DeletedAt{}
		*store = existing
		return nil
	})
}

// UninstallStore soft-deletes the store and removes its tracked products,
// index entries and overrides. Alert records are kept for audit.
func (r *Repository) UninstallStore(ctx context.Context, storeID string) error {
	return r.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("store_id = ?", storeID).Delete(&models.InventoryItemIndex{}).Error; err != nil {
			return err
		}
		if err := tx.Where("store_id = ?", storeID).Delete(&models.ProductOverride{}).Error; err != nil {
			return err
		}
		if err := tx.Where("store_id = ?", storeID).Delete(&models.TrackedProduct{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.StoreAccount{}, "id = ?", storeID).Error
	})
}
