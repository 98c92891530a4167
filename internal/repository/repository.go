package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"stockwatch/internal/alerts"
	"stockwatch/internal/inventory"
	"stockwatch/internal/quota"
)

var (
	_ inventory.Store = (*Repository)(nil)
	_ alerts.Store    = (*Repository)(nil)
	_ quota.Store     = (*Repository)(nil)
)

// Repository is the gorm-backed store behind the webhook pipeline, the alert
// dispatcher, the quota enforcer and the admin API.
type Repository struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) conn(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx)
}

func notFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
