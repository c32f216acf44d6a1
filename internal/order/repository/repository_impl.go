package repository

import (
	"context"
	"time"

	"github.com/smallbiznis/settlement/internal/order/domain"
	"gorm.io/gorm"
)

type repo struct {
	db *gorm.DB
}

// NewReader returns the gorm-backed order store.
func NewReader(db *gorm.DB) domain.Reader {
	return &repo{db: db}
}

func (r *repo) ListSettleable(ctx context.Context, periodStart, periodEnd time.Time) ([]domain.Order, error) {
	var orders []domain.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("id ASC")
		}).
		Where("order_date BETWEEN ? AND ?", periodStart, periodEnd).
		Where("status IN ?", []string{domain.StatusDelivered, domain.StatusCompleted}).
		Order("order_date ASC").
		Order("id ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}
