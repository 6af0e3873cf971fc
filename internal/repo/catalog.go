package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/t2s-commerce/shop-api/internal/models"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// CatalogRepo is the authoritative holder of product stock levels.
type CatalogRepo struct {
	DB *gorm.DB
}

func (r *CatalogRepo) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := r.DB.WithContext(ctx).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &product, nil
}

func (r *CatalogRepo) GetProducts(ctx context.Context) ([]models.Product, error) {
	var items []models.Product
	if err := r.DB.WithContext(ctx).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *CatalogRepo) CreateProduct(ctx context.Context, prod *models.Product) (*models.Product, error) {
	if err := r.DB.WithContext(ctx).Create(prod).Error; err != nil {
		return nil, err
	}
	return prod, nil
}

func (r *CatalogRepo) DeleteProduct(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.Product{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// DecrementStockIfAvailable subtracts quantity from the product's stock in a
// single conditional UPDATE. The WHERE clause re-checks stock >= quantity, so
// concurrent callers can never drive stock negative: the database applies the
// updates one at a time and the losing caller matches zero rows.
func (r *CatalogRepo) DecrementStockIfAvailable(ctx context.Context, id uint, quantity int64) (*models.Product, error) {
	res := r.DB.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock >= ?", id, quantity).
		UpdateColumn("stock", gorm.Expr("stock - ?", quantity))
	if res.Error != nil {
		return nil, res.Error
	}

	if res.RowsAffected == 0 {
		// Either the product is gone or the stock ran out.
		if _, err := r.GetProduct(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrInsufficientStock
	}

	return r.GetProduct(ctx, id)
}
