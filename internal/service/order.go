package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/t2s-commerce/shop-api/internal/models"
	"github.com/t2s-commerce/shop-api/internal/repo"
)

var (
	ErrInvalidQuantity = errors.New("invalid quantity")  // 400
	ErrProductNotFound = errors.New("product not found") // 404
	ErrNotEnoughStock  = errors.New("not enough stock")  // 400
)

type OrderService struct {
	DB *gorm.DB
}

// PlaceOrder validates the requested purchase, decrements stock and appends
// the order inside one transaction. The price is read before the decrement so
// the stored total is a snapshot of the price at purchase time; a failed
// ledger append rolls the decrement back, stock and ledger never diverge.
func (s *OrderService) PlaceOrder(ctx context.Context, userID, productID uint, quantity int64) (*models.Order, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be > 0, got %d", ErrInvalidQuantity, quantity)
	}

	var order *models.Order
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		catalog := &repo.CatalogRepo{DB: tx}
		ledger := &repo.OrderRepo{DB: tx}

		product, err := catalog.GetProduct(ctx, productID)
		if err != nil {
			if errors.Is(err, repo.ErrProductNotFound) {
				return fmt.Errorf("%w: id %d", ErrProductNotFound, productID)
			}
			return err
		}

		if _, err := catalog.DecrementStockIfAvailable(ctx, productID, quantity); err != nil {
			switch {
			case errors.Is(err, repo.ErrInsufficientStock):
				return fmt.Errorf("%w: requested %d", ErrNotEnoughStock, quantity)
			case errors.Is(err, repo.ErrProductNotFound):
				return fmt.Errorf("%w: id %d", ErrProductNotFound, productID)
			}
			return err
		}

		order, err = ledger.CreateOrder(ctx, &models.Order{
			UserID:     userID,
			ProductID:  productID,
			Quantity:   quantity,
			TotalPrice: product.Price * quantity,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

func (s *OrderService) ListOrders(ctx context.Context, userID uint) ([]models.Order, error) {
	ledger := &repo.OrderRepo{DB: s.DB}
	return ledger.ListByUser(ctx, userID)
}
