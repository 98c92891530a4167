package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InventoryItemIndex maps a Shopify inventory item to the product/variant that
// owns it. Entries are a lookup cache and are re-validated against the catalog.
type InventoryItemIndex struct {
	ID              string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	StoreID         string    `json:"store_id" gorm:"type:varchar(36);not null;uniqueIndex:ux_item_index_store_item,priority:1"`
	InventoryItemID int64     `json:"inventory_item_id" gorm:"not null;uniqueIndex:ux_item_index_store_item,priority:2"`
	ProductID       int64     `json:"product_id" gorm:"not null;index"`
	VariantID       int64     `json:"variant_id" gorm:"not null"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (InventoryItemIndex) TableName() string {
	return "inventory_item_index"
}

func (i *InventoryItemIndex) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.New().String()
	}
	return nil
}
