package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StoreAccount is one installed merchant store (tenant).
type StoreAccount struct {
	ID          string `json:"id" gorm:"type:varchar(36);primaryKey"`
	ShopDomain  string `json:"shop_domain" gorm:"size:255;not null;uniqueIndex"`
	AccessToken string `json:"-" gorm:"size:255"`
	Plan        Plan   `json:"plan" gorm:"size:32;not null;default:free"`

	// Notifications
	NotificationEmail    string `json:"notification_email" gorm:"size:255"`
	EmailAlertsEnabled   bool   `json:"email_alerts_enabled"`
	ChatWebhookURL       string `json:"chat_webhook_url" gorm:"size:512"`
	ChatAlertsEnabled    bool   `json:"chat_alerts_enabled"`
	RestockAlertsEnabled bool   `json:"restock_alerts_enabled"`
	LowStockThreshold    int    `json:"low_stock_threshold" gorm:"not null;default:5"`

	// Feature flags
	AutoHideEnabled      bool `json:"auto_hide_enabled"`
	AutoRepublishEnabled bool `json:"auto_republish_enabled"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

type Plan string

const (
	PlanFree       Plan = "free"
	PlanBasic      Plan = "basic"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

func (s *StoreAccount) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}
