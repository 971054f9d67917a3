package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"storefront-platform/internal/apperr"
	"storefront-platform/internal/client"
	"storefront-platform/internal/dto"
	"storefront-platform/internal/model"
	"storefront-platform/internal/repository"
	"storefront-platform/internal/service"
)

func newCheckoutService(t *testing.T, db *gorm.DB, stripe client.StripeClient) service.CheckoutService {
	t.Helper()
	logger := zaptest.NewLogger(t)
	return service.NewCheckoutService(
		newOrderService(t, db),
		repository.NewStoreRepository(db),
		repository.NewOrderRepository(db),
		stripe,
		"http://localhost:8080",
		logger,
	)
}

func TestStartCheckout(t *testing.T) {
	db := newTestDB(t)
	store := seedStore(t, db)
	product := seedProduct(t, db, store.ID, 5000, 10)
	stripe := &fakeStripeClient{}
	svc := newCheckoutService(t, db, stripe)

	resp, err := svc.StartCheckout(context.Background(),
		checkoutRequest(store.ID, &dto.CheckoutItem{ProductID: product.ID, Quantity: 1}))
	require.NoError(t, err)

	assert.Equal(t, "https://checkout.stripe.test/pay/cs_test_123", resp.RedirectURL)
	assert.NotEmpty(t, resp.OrderID)

	// session request carried the split-payment details
	require.NotNil(t, stripe.lastParams)
	assert.Equal(t, int64(500), stripe.lastParams.PlatformFee)
	assert.Equal(t, store.StripeAccountID, stripe.lastParams.DestinationAccount)
	require.Len(t, stripe.lastParams.LineItems, 1)
	assert.Equal(t, int64(5000), stripe.lastParams.LineItems[0].UnitAmount)

	// session id persisted on the order
	var order model.Order
	require.NoError(t, db.Where("id = ?", resp.OrderID).First(&order).Error)
	assert.Equal(t, "cs_test_123", order.StripeSessionID)
	assert.Equal(t, model.OrderPending, order.Status)
}

func TestStartCheckoutProcessorFailureLeavesPendingOrder(t *testing.T) {
	db := newTestDB(t)
	store := seedStore(t, db)
	product := seedProduct(t, db, store.ID, 5000, 10)
	stripe := &fakeStripeClient{
		createSessionFunc: func(ctx context.Context, params *client.CreateSessionParams) (*client.CreateSessionResponse, error) {
			return nil, apperr.New(apperr.KindExternalProcessor, "processor timeout")
		},
	}
	svc := newCheckoutService(t, db, stripe)

	_, err := svc.StartCheckout(context.Background(),
		checkoutRequest(store.ID, &dto.CheckoutItem{ProductID: product.ID, Quantity: 1}))
	assert.True(t, apperr.Is(err, apperr.KindExternalProcessor))

	// the order survives as PENDING with its items, not half-written
	var orders []model.Order
	require.NoError(t, db.Preload("Items").Find(&orders).Error)
	require.Len(t, orders, 1)
	assert.Equal(t, model.OrderPending, orders[0].Status)
	assert.Equal(t, model.PaymentPending, orders[0].PaymentStatus)
	assert.Empty(t, orders[0].StripeSessionID)
	assert.Len(t, orders[0].Items, 1)
}

func TestStartCheckoutStoreNotReadyMakesNoSessionCall(t *testing.T) {
	db := newTestDB(t)
	store := seedStore(t, db)
	product := seedProduct(t, db, store.ID, 5000, 10)
	require.NoError(t, db.Model(&model.Store{}).Where("id = ?", store.ID).
		Update("is_active", false).Error)
	stripe := &fakeStripeClient{}
	svc := newCheckoutService(t, db, stripe)

	_, err := svc.StartCheckout(context.Background(),
		checkoutRequest(store.ID, &dto.CheckoutItem{ProductID: product.ID, Quantity: 1}))
	assert.True(t, apperr.Is(err, apperr.KindStoreNotReady))
	assert.Nil(t, stripe.lastParams)
}
