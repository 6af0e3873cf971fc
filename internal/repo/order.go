package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/t2s-commerce/shop-api/internal/models"
)

// OrderRepo is the append-only ledger of placed orders.
type OrderRepo struct {
	DB *gorm.DB
}

func (r *OrderRepo) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.DB.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *OrderRepo) ListByUser(ctx context.Context, userID uint) ([]models.Order, error) {
	var orders []models.Order
	if err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}
