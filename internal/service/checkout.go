package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"storefront-platform/internal/client"
	"storefront-platform/internal/dto"
	"storefront-platform/internal/repository"
)

type CheckoutService interface {
	// StartCheckout opens a pending order and requests a hosted payment
	// session from the processor; the caller redirects the customer to the
	// returned URL. A processor failure leaves the order PENDING with no
	// session id; it is never half-written.
	StartCheckout(ctx context.Context, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error)
}

type checkoutServiceImpl struct {
	orderService OrderService
	storeRepo    repository.StoreRepository
	orderRepo    repository.OrderRepository
	stripeClient client.StripeClient
	baseURL      string
	logger       *zap.Logger
}

func NewCheckoutService(
	orderService OrderService,
	storeRepo repository.StoreRepository,
	orderRepo repository.OrderRepository,
	stripeClient client.StripeClient,
	baseURL string,
	logger *zap.Logger,
) CheckoutService {
	return &checkoutServiceImpl{
		orderService: orderService,
		storeRepo:    storeRepo,
		orderRepo:    orderRepo,
		stripeClient: stripeClient,
		baseURL:      baseURL,
		logger:       logger,
	}
}

func (s *checkoutServiceImpl) StartCheckout(ctx context.Context, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	order, err := s.orderService.CreatePendingOrder(ctx, req)
	if err != nil {
		return nil, err
	}

	store, err := s.storeRepo.Get(ctx, order.StoreID)
	if err != nil {
		return nil, fmt.Errorf("get store: %w", err)
	}

	lineItems := make([]client.SessionLineItem, len(order.Items))
	for i, item := range order.Items {
		lineItems[i] = client.SessionLineItem{
			Name:       item.Title,
			UnitAmount: item.UnitPrice,
			Quantity:   item.Quantity,
		}
	}

	session, err := s.stripeClient.CreateCheckoutSession(ctx, &client.CreateSessionParams{
		OrderID:            order.ID,
		StoreID:            store.ID,
		CustomerEmail:      order.CustomerEmail,
		LineItems:          lineItems,
		PlatformFee:        order.PlatformFee,
		DestinationAccount: store.StripeAccountID,
		SuccessURL:         s.baseURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:          s.baseURL + "/checkout/cancel",
	})
	if err != nil {
		// The pending order is kept: webhook activity or a cleanup sweep
		// can still pick it up, and the customer may retry checkout.
		s.logger.Warn("checkout session request failed, order left pending",
			zap.String("order_id", order.ID),
			zap.Error(err),
		)
		return nil, err
	}

	if err := s.orderRepo.SetStripeSession(ctx, order.ID, session.SessionID); err != nil {
		return nil, fmt.Errorf("save session id on order: %w", err)
	}
	order.StripeSessionID = session.SessionID

	s.logger.Info("checkout session opened",
		zap.String("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.String("session_id", session.SessionID),
		zap.Int64("total", order.Total),
	)

	return &dto.CheckoutResponse{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		RedirectURL: session.URL,
	}, nil
}
