package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"storefront-platform/internal/apperr"
	"storefront-platform/internal/dto"
	"storefront-platform/internal/metrics"
	"storefront-platform/internal/model"
	"storefront-platform/internal/notify"
	"storefront-platform/internal/repository"
)

const orderNumberAttempts = 3

type OrderService interface {
	// CreatePendingOrder validates the cart against the store's catalog and
	// persists the order and its items as one unit in (PENDING, PENDING).
	CreatePendingOrder(ctx context.Context, req *dto.CheckoutRequest) (*model.Order, error)
	GetOrder(ctx context.Context, orderID string) (*model.Order, error)
	ListStoreOrders(ctx context.Context, storeID string) ([]*model.Order, error)
	// UpdateStatus applies a merchant-driven fulfillment transition.
	// Cancelling a paid order restores the previously committed stock
	// decrement.
	UpdateStatus(ctx context.Context, orderID string, target model.OrderStatus) (*model.Order, error)
}

type orderServiceImpl struct {
	db          *gorm.DB
	storeRepo   repository.StoreRepository
	productRepo repository.ProductRepository
	orderRepo   repository.OrderRepository
	notifier    notify.Notifier
	logger      *zap.Logger
}

func NewOrderService(
	db *gorm.DB,
	storeRepo repository.StoreRepository,
	productRepo repository.ProductRepository,
	orderRepo repository.OrderRepository,
	notifier notify.Notifier,
	logger *zap.Logger,
) OrderService {
	return &orderServiceImpl{
		db:          db,
		storeRepo:   storeRepo,
		productRepo: productRepo,
		orderRepo:   orderRepo,
		notifier:    notifier,
		logger:      logger,
	}
}

func (s *orderServiceImpl) CreatePendingOrder(ctx context.Context, req *dto.CheckoutRequest) (*model.Order, error) {
	if err := validateCheckoutRequest(req); err != nil {
		return nil, err
	}

	store, err := s.storeRepo.Get(ctx, req.StoreID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("store %s not found", req.StoreID)
		}
		return nil, fmt.Errorf("get store: %w", err)
	}

	if !store.IsActive || !store.StripeOnboarded || store.StripeAccountID == "" {
		return nil, apperr.New(apperr.KindStoreNotReady, "store is not ready to accept payments")
	}

	productIDs := make([]string, len(req.Items))
	quantityByProduct := make(map[string]int64, len(req.Items))
	for i, item := range req.Items {
		productIDs[i] = item.ProductID
		quantityByProduct[item.ProductID] = item.Quantity
	}

	products, err := s.productRepo.FindManyForStore(ctx, store.ID, productIDs)
	if err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}

	productByID := make(map[string]*model.Product, len(products))
	for _, p := range products {
		productByID[p.ID] = p
	}

	var subtotal int64
	items := make([]*model.OrderItem, 0, len(req.Items))
	for _, reqItem := range req.Items {
		product, ok := productByID[reqItem.ProductID]
		if !ok || !product.IsActive {
			return nil, apperr.New(apperr.KindProductUnavail,
				fmt.Sprintf("product %s is not available", reqItem.ProductID))
		}

		// Advisory check only: stock is not held, the authoritative
		// decrement happens when payment confirms.
		if reqItem.Quantity > product.Stock {
			return nil, apperr.New(apperr.KindOutOfStock,
				fmt.Sprintf("insufficient stock for %s", product.Title))
		}

		subtotal += product.Price * reqItem.Quantity
		items = append(items, &model.OrderItem{
			ProductID: product.ID,
			Title:     product.Title,
			Quantity:  reqItem.Quantity,
			UnitPrice: product.Price,
		})
	}

	platformFee := ComputeFee(subtotal, store.CommissionRate)

	order := &model.Order{
		ID:             uuid.NewString(),
		StoreID:        store.ID,
		CustomerEmail:  req.Customer.Email,
		CustomerName:   req.Customer.Name,
		ShipLine1:      req.Customer.Address.Line1,
		ShipCity:       req.Customer.Address.City,
		ShipState:      req.Customer.Address.State,
		ShipPostalCode: req.Customer.Address.PostalCode,
		ShipCountry:    req.Customer.Address.Country,
		Subtotal:       subtotal,
		PlatformFee:    platformFee,
		Total:          subtotal, // tax and discounts are zero at creation
		Status:         model.OrderPending,
		PaymentStatus:  model.PaymentPending,
	}

	// The unique index on order_number is the arbiter under concurrent
	// creation; collisions are retried with a fresh number.
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		order.OrderNumber = generateOrderNumber()

		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := s.orderRepo.Create(ctx, tx, order); err != nil {
				return fmt.Errorf("store order: %w", err)
			}
			for _, item := range items {
				item.OrderID = order.ID
			}
			if err := s.orderRepo.CreateOrderItems(ctx, tx, items); err != nil {
				return fmt.Errorf("store order items: %w", err)
			}
			return nil
		})
		if err == nil {
			break
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, err
		}
	}
	if err != nil {
		return nil, fmt.Errorf("create order after %d attempts: %w", orderNumberAttempts, err)
	}

	metrics.OrdersCreatedTotal.Inc()
	order.Items = make([]model.OrderItem, len(items))
	for i, item := range items {
		order.Items[i] = *item
	}

	return order, nil
}

func (s *orderServiceImpl) GetOrder(ctx context.Context, orderID string) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("order %s not found", orderID)
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	return order, nil
}

func (s *orderServiceImpl) ListStoreOrders(ctx context.Context, storeID string) ([]*model.Order, error) {
	return s.orderRepo.ListByStore(ctx, storeID)
}

// allowedTransitions holds the merchant-driven part of the state machine.
// Payment-driven transitions belong to the webhook reconciler and are not
// reachable through UpdateStatus.
var allowedTransitions = map[model.OrderStatus][]model.OrderStatus{
	model.OrderCompleted: {model.OrderProcessing},
	model.OrderCancelled: {model.OrderProcessing, model.OrderCompleted},
}

func (s *orderServiceImpl) UpdateStatus(ctx context.Context, orderID string, target model.OrderStatus) (*model.Order, error) {
	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	from, ok := allowedTransitions[target]
	if !ok {
		return nil, apperr.New(apperr.KindInvalidTransition,
			fmt.Sprintf("cannot move order to %s", target))
	}

	restoreStock := target == model.OrderCancelled && order.PaymentStatus == model.PaymentPaid

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		applied, err := s.orderRepo.TransitionStatus(ctx, tx, orderID, from, target)
		if err != nil {
			return fmt.Errorf("transition order status: %w", err)
		}
		if !applied {
			return apperr.New(apperr.KindInvalidTransition,
				fmt.Sprintf("order %s cannot move from %s to %s", orderID, order.Status, target))
		}

		if restoreStock {
			for _, item := range order.Items {
				if err := s.productRepo.RestoreStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
					return fmt.Errorf("restore stock for %s: %w", item.ProductID, err)
				}
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	order.Status = target

	// Best effort: a failed notification never fails the transition.
	if nerr := s.notifier.OrderStatusChanged(ctx, order); nerr != nil {
		s.logger.Warn("status notification failed",
			zap.String("order_id", order.ID),
			zap.Error(nerr),
		)
	}

	return order, nil
}

func generateOrderNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:9])
	return fmt.Sprintf("ORD-%d-%s", time.Now().UnixMilli(), suffix)
}

func validateCheckoutRequest(req *dto.CheckoutRequest) error {
	if req.StoreID == "" {
		return apperr.Validation("store_id is required")
	}
	if len(req.Items) == 0 {
		return apperr.Validation("at least one item is required")
	}
	seen := make(map[string]bool, len(req.Items))
	for _, item := range req.Items {
		if item.ProductID == "" {
			return apperr.Validation("item product_id is required")
		}
		if item.Quantity <= 0 {
			return apperr.Validation("item quantity must be positive")
		}
		if seen[item.ProductID] {
			return apperr.Validation("duplicate product %s in cart", item.ProductID)
		}
		seen[item.ProductID] = true
	}
	if req.Customer.Email == "" || !strings.Contains(req.Customer.Email, "@") {
		return apperr.Validation("a valid customer email is required")
	}
	if req.Customer.Name == "" {
		return apperr.Validation("customer name is required")
	}
	addr := req.Customer.Address
	if addr.Line1 == "" || addr.City == "" || addr.PostalCode == "" || addr.Country == "" {
		return apperr.Validation("shipping address is incomplete")
	}
	return nil
}
