package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TrackedProduct is the product-level aggregate stock record. One row per
// product per store; CurrentQuantity is the sum across all variants as last
// observed.
type TrackedProduct struct {
	ID               string           `json:"id" gorm:"type:varchar(36);primaryKey"`
	StoreID          string           `json:"store_id" gorm:"type:varchar(36);not null;uniqueIndex:ux_tracked_store_product,priority:1"`
	ProductID        int64            `json:"product_id" gorm:"not null;uniqueIndex:ux_tracked_store_product,priority:2"`
	Title            string           `json:"title" gorm:"size:255"`
	SKU              string           `json:"sku" gorm:"type:text"`
	CurrentQuantity  int              `json:"current_quantity" gorm:"not null;default:0"`
	PreviousQuantity int              `json:"previous_quantity" gorm:"not null;default:0"`
	Status           VisibilityStatus `json:"status" gorm:"size:20;not null;default:visible;index"`
	AutoHidden       bool             `json:"auto_hidden"`
	LastCheckedAt    *time.Time       `json:"last_checked_at"`
	LastAlertAt      *time.Time       `json:"last_alert_at"`
	DeactivatedAt    *time.Time       `json:"deactivated_at"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at" gorm:"index"`
}

type VisibilityStatus string

const (
	StatusVisible VisibilityStatus = "visible"
	StatusHidden  VisibilityStatus = "hidden"
	// StatusPending marks a product restored by quota enforcement whose real
	// visibility is recomputed on the next reconciliation.
	StatusPending     VisibilityStatus = "pending"
	StatusDeactivated VisibilityStatus = "deactivated"
)

func (p *TrackedProduct) Deactivated() bool {
	return p.Status == StatusDeactivated
}

func (p *TrackedProduct) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}
