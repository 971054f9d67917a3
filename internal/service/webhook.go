package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"storefront-platform/internal/apperr"
	"storefront-platform/internal/client"
	"storefront-platform/internal/metrics"
	"storefront-platform/internal/model"
	"storefront-platform/internal/notify"
	"storefront-platform/internal/repository"
)

// WebhookService reconciles the processor's at-least-once event stream with
// local order and inventory state. Replays and unknown references are
// acknowledged as no-ops so the processor stops redelivering; only genuine
// storage failures surface as retryable errors.
type WebhookService interface {
	HandleEvent(ctx context.Context, sigHeader string, body []byte) error
}

type webhookServiceImpl struct {
	db               *gorm.DB
	stripeClient     client.StripeClient
	orderRepo        repository.OrderRepository
	productRepo      repository.ProductRepository
	storeRepo        repository.StoreRepository
	webhookEventRepo repository.WebhookEventRepository
	notifier         notify.Notifier
	logger           *zap.Logger
}

func NewWebhookService(
	db *gorm.DB,
	stripeClient client.StripeClient,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	storeRepo repository.StoreRepository,
	webhookEventRepo repository.WebhookEventRepository,
	notifier notify.Notifier,
	logger *zap.Logger,
) WebhookService {
	return &webhookServiceImpl{
		db:               db,
		stripeClient:     stripeClient,
		orderRepo:        orderRepo,
		productRepo:      productRepo,
		storeRepo:        storeRepo,
		webhookEventRepo: webhookEventRepo,
		notifier:         notifier,
		logger:           logger,
	}
}

func (s *webhookServiceImpl) HandleEvent(ctx context.Context, sigHeader string, body []byte) error {
	if err := s.stripeClient.VerifyWebhookSignature(sigHeader, body); err != nil {
		// Potential security event: rejected before any state change.
		s.logger.Warn("webhook signature verification failed", zap.Error(err))
		metrics.WebhookEventsTotal.WithLabelValues("unknown", metrics.OutcomeRejected).Inc()
		return err
	}

	var event model.StripeEvent
	if err := json.Unmarshal(body, &event); err != nil {
		metrics.WebhookEventsTotal.WithLabelValues("unknown", metrics.OutcomeRejected).Inc()
		return apperr.Wrap(apperr.KindValidation, "decode webhook payload", err)
	}

	// Fast replay guard; the real idempotency guard is the conditional
	// state transition below, this just skips work for exact duplicates.
	if event.ID != "" {
		seen, err := s.webhookEventRepo.Exists(ctx, event.ID)
		if err != nil {
			return fmt.Errorf("check webhook event: %w", err)
		}
		if seen {
			metrics.WebhookEventsTotal.WithLabelValues(event.Type, metrics.OutcomeNoop).Inc()
			return nil
		}
	}

	var outcome string
	var err error

	switch event.Type {
	case model.EventCheckoutSessionCompleted:
		outcome, err = s.handlePaymentCompleted(ctx, &event)
	case model.EventPaymentIntentFailed:
		outcome, err = s.handlePaymentFailed(ctx, &event)
	case model.EventAccountUpdated:
		outcome, err = s.handleAccountUpdated(ctx, &event)
	default:
		outcome = metrics.OutcomeNoop
	}

	if err != nil {
		metrics.WebhookEventsTotal.WithLabelValues(event.Type, metrics.OutcomeError).Inc()
		return err
	}

	metrics.WebhookEventsTotal.WithLabelValues(event.Type, outcome).Inc()

	if event.ID != "" {
		if merr := s.webhookEventRepo.MarkProcessed(ctx, event.ID, event.Type); merr != nil {
			// Redelivery of a marked-failed event is safe; the transition
			// guard turns it into a no-op.
			s.logger.Warn("mark webhook event processed failed",
				zap.String("event_id", event.ID),
				zap.Error(merr),
			)
		}
	}

	return nil
}

func (s *webhookServiceImpl) handlePaymentCompleted(ctx context.Context, event *model.StripeEvent) (string, error) {
	resource := event.Data.Object

	order, err := s.locateOrder(ctx, resource.Metadata[model.MetadataOrderID], resource.ID)
	if err != nil {
		return "", err
	}
	if order == nil {
		// Stale or unrelated event; acknowledged so the processor stops.
		s.logger.Info("payment completed for unknown order",
			zap.String("event_id", event.ID),
			zap.String("session_id", resource.ID),
		)
		return metrics.OutcomeNoop, nil
	}

	applied := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.orderRepo.MarkPaid(ctx, tx, order.ID, resource.PaymentIntent)
		if err != nil {
			return fmt.Errorf("mark order paid: %w", err)
		}
		if !ok {
			// Already PAID (or otherwise out of PENDING): replay, no-op.
			return nil
		}
		applied = true

		items, err := s.orderRepo.GetOrderItems(ctx, tx, order.ID)
		if err != nil {
			return fmt.Errorf("get order items: %w", err)
		}

		// Exactly once per item: this branch only runs when the MarkPaid
		// precondition held, no matter how often the event is delivered.
		for _, item := range items {
			stock, err := s.productRepo.DecrementStock(ctx, tx, item.ProductID, item.Quantity)
			if err != nil {
				return fmt.Errorf("decrement stock for %s: %w", item.ProductID, err)
			}
			if stock < 0 {
				// Oversold by the checkout/payment race; the paid order is
				// still honored, the condition is surfaced for operators.
				metrics.OversellTotal.WithLabelValues(order.StoreID).Inc()
				s.logger.Warn("stock oversold",
					zap.String("product_id", item.ProductID),
					zap.String("order_id", order.ID),
					zap.Int64("stock", stock),
				)
			}
		}

		return nil
	})
	if err != nil {
		return "", err
	}

	if !applied {
		return metrics.OutcomeNoop, nil
	}

	order.Status = model.OrderProcessing
	order.PaymentStatus = model.PaymentPaid
	if nerr := s.notifier.OrderConfirmation(ctx, order); nerr != nil {
		s.logger.Warn("confirmation notification failed",
			zap.String("order_id", order.ID),
			zap.Error(nerr),
		)
	}

	s.logger.Info("order paid",
		zap.String("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
	)

	return metrics.OutcomeApplied, nil
}

func (s *webhookServiceImpl) handlePaymentFailed(ctx context.Context, event *model.StripeEvent) (string, error) {
	resource := event.Data.Object

	order, err := s.locateOrderByIntent(ctx, resource.ID, resource.Metadata[model.MetadataOrderID])
	if err != nil {
		return "", err
	}
	if order == nil {
		return metrics.OutcomeNoop, nil
	}

	applied := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.orderRepo.MarkFailed(ctx, tx, order.ID)
		if err != nil {
			return fmt.Errorf("mark order failed: %w", err)
		}
		// Terminal or already-paid orders are untouched; a failure event
		// arriving after success never reverts the order.
		applied = ok
		return nil
	})
	if err != nil {
		return "", err
	}

	if !applied {
		return metrics.OutcomeNoop, nil
	}

	s.logger.Info("order payment failed",
		zap.String("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
	)

	return metrics.OutcomeApplied, nil
}

func (s *webhookServiceImpl) handleAccountUpdated(ctx context.Context, event *model.StripeEvent) (string, error) {
	resource := event.Data.Object

	onboarded := resource.ChargesEnabled && resource.PayoutsEnabled
	err := s.storeRepo.SetStripeOnboarded(ctx, resource.ID, onboarded)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Info("account update for unknown store",
				zap.String("account_id", resource.ID),
			)
			return metrics.OutcomeNoop, nil
		}
		return "", fmt.Errorf("update store onboarding: %w", err)
	}

	s.logger.Info("store onboarding updated",
		zap.String("account_id", resource.ID),
		zap.Bool("onboarded", onboarded),
	)

	return metrics.OutcomeApplied, nil
}

// locateOrder resolves a checkout-session event to an order: metadata order
// id first, session id as fallback. A nil order with nil error means the
// reference is unknown to us.
func (s *webhookServiceImpl) locateOrder(ctx context.Context, orderID, sessionID string) (*model.Order, error) {
	if orderID != "" {
		order, err := s.orderRepo.FindByID(ctx, orderID)
		if err == nil {
			return order, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("find order by id: %w", err)
		}
	}
	if sessionID != "" {
		order, err := s.orderRepo.FindBySessionID(ctx, sessionID)
		if err == nil {
			return order, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("find order by session: %w", err)
		}
	}
	return nil, nil
}

func (s *webhookServiceImpl) locateOrderByIntent(ctx context.Context, paymentIntentID, orderID string) (*model.Order, error) {
	if paymentIntentID != "" {
		order, err := s.orderRepo.FindByPaymentIntentID(ctx, paymentIntentID)
		if err == nil {
			return order, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("find order by payment intent: %w", err)
		}
	}
	if orderID != "" {
		order, err := s.orderRepo.FindByID(ctx, orderID)
		if err == nil {
			return order, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("find order by id: %w", err)
		}
	}
	return nil, nil
}
