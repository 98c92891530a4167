package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductOverride struct {
	ID                  string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	StoreID             string    `json:"store_id" gorm:"type:varchar(36);not null;uniqueIndex:ux_override_store_product,priority:1"`
	ProductID           int64     `json:"product_id" gorm:"not null;uniqueIndex:ux_override_store_product,priority:2"`
	ExcludeFromAutoHide bool      `json:"exclude_from_auto_hide"`
	ExcludeFromAlerts   bool      `json:"exclude_from_alerts"`
	CustomThreshold     *int      `json:"custom_threshold"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Threshold returns the custom threshold when set, otherwise the store default.
func (o *ProductOverride) Threshold(storeDefault int) int {
	if o != nil && o.CustomThreshold != nil {
		return *o.CustomThreshold
	}
	return storeDefault
}

func (o *ProductOverride) SkipAutoHide() bool {
	return o != nil && o.ExcludeFromAutoHide
}

func (o *ProductOverride) SkipAlerts() bool {
	return o != nil && o.ExcludeFromAlerts
}

func (o *ProductOverride) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	return nil
}
