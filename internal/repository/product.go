package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"storefront-platform/internal/model"
)

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	FindByID(ctx context.Context, productID string) (*model.Product, error)
	FindManyForStore(ctx context.Context, storeID string, productIDs []string) ([]*model.Product, error)
	ListActiveByStore(ctx context.Context, storeID string) ([]*model.Product, error)

	// DecrementStock applies the authoritative post-payment decrement and
	// returns the resulting stock level; the result can be negative. The
	// caller decides whether a negative result counts as an oversell.
	DecrementStock(ctx context.Context, tx *gorm.DB, productID string, quantity int64) (int64, error)
	// RestoreStock is the compensating increment for cancelled paid orders.
	RestoreStock(ctx context.Context, tx *gorm.DB, productID string, quantity int64) error
}

type productRepoImpl struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepoImpl{
		db: db,
	}
}

func (r *productRepoImpl) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *productRepoImpl) FindByID(ctx context.Context, productID string) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Where("id = ?", productID).
		First(&product).Error

	if err != nil {
		return nil, err
	}

	return &product, nil
}

func (r *productRepoImpl) FindManyForStore(ctx context.Context, storeID string, productIDs []string) ([]*model.Product, error) {
	var products []*model.Product
	err := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Where("id IN ?", productIDs).
		Find(&products).
		Error

	if err != nil {
		return nil, err
	}

	return products, nil
}

func (r *productRepoImpl) ListActiveByStore(ctx context.Context, storeID string) ([]*model.Product, error) {
	var products []*model.Product
	err := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Where("is_active = ?", true).
		Find(&products).
		Error

	if err != nil {
		return nil, err
	}

	return products, nil
}

func (r *productRepoImpl) DecrementStock(ctx context.Context, tx *gorm.DB, productID string, quantity int64) (int64, error) {
	result := tx.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ?", productID).
		Updates(map[string]interface{}{
			"stock":      gorm.Expr("stock - ?", quantity),
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}

	var stock int64
	err := tx.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ?", productID).
		Pluck("stock", &stock).
		Error

	return stock, err
}

func (r *productRepoImpl) RestoreStock(ctx context.Context, tx *gorm.DB, productID string, quantity int64) error {
	return tx.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ?", productID).
		Updates(map[string]interface{}{
			"stock":      gorm.Expr("stock + ?", quantity),
			"updated_at": time.Now(),
		}).Error
}
