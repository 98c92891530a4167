package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AlertRecord is an append-only audit entry, one per channel attempted.
type AlertRecord struct {
	ID        string            `json:"id" gorm:"type:varchar(36);primaryKey"`
	StoreID   string            `json:"store_id" gorm:"type:varchar(36);not null;index:idx_alert_store_product,priority:1"`
	ProductID int64             `json:"product_id" gorm:"not null;index:idx_alert_store_product,priority:2"`
	Kind      AlertKind         `json:"kind" gorm:"size:20;not null"`
	Quantity  int               `json:"quantity"`
	Threshold int               `json:"threshold"`
	Channel   AlertChannel      `json:"channel" gorm:"size:20;not null"`
	Status    AlertStatus       `json:"status" gorm:"size:20;not null"`
	Error     string            `json:"error,omitempty" gorm:"type:text"`
	Details   datatypes.JSONMap `json:"details,omitempty"`
	CreatedAt time.Time         `json:"created_at" gorm:"index:idx_alert_store_product,priority:3"`
}

type AlertKind string

const (
	AlertLowStock   AlertKind = "low_stock"
	AlertOutOfStock AlertKind = "out_of_stock"
	AlertRestock    AlertKind = "restock"
)

type AlertChannel string

const (
	ChannelEmail AlertChannel = "email"
	ChannelChat  AlertChannel = "chat"
)

type AlertStatus string

const (
	AlertSent   AlertStatus = "sent"
	AlertFailed AlertStatus = "failed"
)

func (a *AlertRecord) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

// All returns every model managed by AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&StoreAccount{},
		&TrackedProduct{},
		&InventoryItemIndex{},
		&ProductOverride{},
		&AlertRecord{},
	}
}
