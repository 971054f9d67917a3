package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"storefront-platform/internal/apperr"
	"storefront-platform/internal/client"
	"storefront-platform/internal/dto"
	"storefront-platform/internal/model"
	"storefront-platform/internal/repository"
)

type StoreService interface {
	Create(ctx context.Context, req *dto.CreateStoreRequest) (*model.Store, error)
	Get(ctx context.Context, storeID string) (*model.Store, error)
	// StartOnboarding creates the connected processor account on first use
	// and returns the hosted onboarding URL. The store only becomes
	// checkout-ready once the processor confirms capabilities via webhook.
	StartOnboarding(ctx context.Context, storeID, email, refreshURL, returnURL string) (string, error)
	ListProductsBySlug(ctx context.Context, slug string) ([]*model.Product, error)
}

type storeServiceImpl struct {
	storeRepo    repository.StoreRepository
	productRepo  repository.ProductRepository
	stripeClient client.StripeClient
}

func NewStoreService(
	storeRepo repository.StoreRepository,
	productRepo repository.ProductRepository,
	stripeClient client.StripeClient,
) StoreService {
	return &storeServiceImpl{
		storeRepo:    storeRepo,
		productRepo:  productRepo,
		stripeClient: stripeClient,
	}
}

func (s *storeServiceImpl) Create(ctx context.Context, req *dto.CreateStoreRequest) (*model.Store, error) {
	if req.Name == "" || req.Slug == "" || req.UserID == "" {
		return nil, apperr.Validation("user_id, name and slug are required")
	}
	if req.CommissionRate < 0 || req.CommissionRate > 100 {
		return nil, apperr.Validation("commission_rate must be between 0 and 100")
	}

	rate := req.CommissionRate
	if rate == 0 {
		rate = 10
	}

	store := &model.Store{
		ID:             uuid.NewString(),
		UserID:         req.UserID,
		Name:           req.Name,
		Slug:           req.Slug,
		CommissionRate: rate,
		IsActive:       true,
	}

	if err := s.storeRepo.Create(ctx, store); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("slug %s is already taken", req.Slug)
		}
		return nil, fmt.Errorf("create store: %w", err)
	}

	return store, nil
}

func (s *storeServiceImpl) Get(ctx context.Context, storeID string) (*model.Store, error) {
	store, err := s.storeRepo.Get(ctx, storeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("store %s not found", storeID)
		}
		return nil, fmt.Errorf("get store: %w", err)
	}

	return store, nil
}

func (s *storeServiceImpl) StartOnboarding(ctx context.Context, storeID, email, refreshURL, returnURL string) (string, error) {
	store, err := s.Get(ctx, storeID)
	if err != nil {
		return "", err
	}

	accountID := store.StripeAccountID
	if accountID == "" {
		accountID, err = s.stripeClient.CreateExpressAccount(ctx, email)
		if err != nil {
			return "", err
		}
		if err := s.storeRepo.SetStripeAccountID(ctx, store.ID, accountID); err != nil {
			return "", fmt.Errorf("save account id: %w", err)
		}
	}

	return s.stripeClient.CreateAccountLink(ctx, accountID, refreshURL, returnURL)
}

func (s *storeServiceImpl) ListProductsBySlug(ctx context.Context, slug string) ([]*model.Product, error) {
	store, err := s.storeRepo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("store %s not found", slug)
		}
		return nil, fmt.Errorf("get store by slug: %w", err)
	}

	return s.productRepo.ListActiveByStore(ctx, store.ID)
}
