package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"storefront-platform/internal/model"
)

type StoreRepository interface {
	Create(ctx context.Context, store *model.Store) error
	Get(ctx context.Context, storeID string) (*model.Store, error)
	GetBySlug(ctx context.Context, slug string) (*model.Store, error)
	GetByStripeAccountID(ctx context.Context, accountID string) (*model.Store, error)
	SetStripeAccountID(ctx context.Context, storeID, accountID string) error
	SetStripeOnboarded(ctx context.Context, accountID string, onboarded bool) error
}

type storeRepoImpl struct {
	db *gorm.DB
}

func NewStoreRepository(db *gorm.DB) StoreRepository {
	return &storeRepoImpl{
		db: db,
	}
}

func (r *storeRepoImpl) Create(ctx context.Context, store *model.Store) error {
	return r.db.WithContext(ctx).Create(store).Error
}

func (r *storeRepoImpl) Get(ctx context.Context, storeID string) (*model.Store, error) {
	var store model.Store
	err := r.db.WithContext(ctx).
		Where("id = ?", storeID).
		First(&store).Error

	if err != nil {
		return nil, err
	}

	return &store, nil
}

func (r *storeRepoImpl) GetBySlug(ctx context.Context, slug string) (*model.Store, error) {
	var store model.Store
	err := r.db.WithContext(ctx).
		Where("slug = ?", slug).
		First(&store).Error

	if err != nil {
		return nil, err
	}

	return &store, nil
}

func (r *storeRepoImpl) GetByStripeAccountID(ctx context.Context, accountID string) (*model.Store, error) {
	var store model.Store
	err := r.db.WithContext(ctx).
		Where("stripe_account_id = ?", accountID).
		First(&store).Error

	if err != nil {
		return nil, err
	}

	return &store, nil
}

func (r *storeRepoImpl) SetStripeAccountID(ctx context.Context, storeID, accountID string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Store{}).
		Where("id = ?", storeID).
		Updates(map[string]interface{}{
			"stripe_account_id": accountID,
			"updated_at":        time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *storeRepoImpl) SetStripeOnboarded(ctx context.Context, accountID string, onboarded bool) error {
	result := r.db.WithContext(ctx).
		Model(&model.Store{}).
		Where("stripe_account_id = ?", accountID).
		Updates(map[string]interface{}{
			"stripe_onboarded": onboarded,
			"updated_at":       time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
