package repository

import (
	"context"

	"stockwatch/internal/models"
)

func (r *Repository) LatestAlert(ctx context.Context, storeID string, productID int64) (*models.AlertRecord, error) {
	var record models.AlertRecord
	err := r.conn(ctx).
		Where("store_id = ? AND product_id = ?", storeID, productID).
		Order("created_at DESC").
		First(&record).Error
	if err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (r *Repository) CreateAlertRecords(ctx context.Context, records []models.AlertRecord) error {
	if len(records) == 0 {
		return nil
	}
	return r.conn(ctx).Create(&records).Error
}

type AlertFilter struct {
	ProductID int64
	Limit     int
}

func (r *Repository) ListAlerts(ctx context.Context, storeID string, filter AlertFilter) ([]models.AlertRecord, error) {
	query := r.conn(ctx).Where("store_id = ?", storeID)
	if filter.ProductID != 0 {
		query = query.Where("product_id = ?", filter.ProductID)
	}
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var records []models.AlertRecord
	err := query.Order("created_at DESC").Limit(limit).Find(&records).Error
	return records, err
}
