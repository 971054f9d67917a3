package service_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"storefront-platform/internal/client"
	"storefront-platform/internal/dto"
	"storefront-platform/internal/model"
	"storefront-platform/internal/notify"
	"storefront-platform/internal/repository"
	"storefront-platform/internal/service"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := client.InitSqliteClient(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	return db
}

func seedStore(t *testing.T, db *gorm.DB) *model.Store {
	t.Helper()
	store := &model.Store{
		ID:              uuid.NewString(),
		UserID:          uuid.NewString(),
		Name:            "Test Store",
		Slug:            "test-store-" + uuid.NewString()[:8],
		CommissionRate:  10,
		StripeAccountID: "acct_" + uuid.NewString()[:8],
		StripeOnboarded: true,
		IsActive:        true,
	}
	require.NoError(t, db.Create(store).Error)
	return store
}

func seedProduct(t *testing.T, db *gorm.DB, storeID string, price, stock int64) *model.Product {
	t.Helper()
	product := &model.Product{
		ID:       uuid.NewString(),
		StoreID:  storeID,
		Slug:     "product-" + uuid.NewString()[:8],
		Title:    "Test Product",
		Price:    price,
		Stock:    stock,
		IsActive: true,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func checkoutRequest(storeID string, items ...*dto.CheckoutItem) *dto.CheckoutRequest {
	return &dto.CheckoutRequest{
		StoreID: storeID,
		Items:   items,
		Customer: dto.Customer{
			Email: "buyer@example.com",
			Name:  "Buyer",
			Address: dto.ShippingAddress{
				Line1:      "1 Main St",
				City:       "Springfield",
				State:      "IL",
				PostalCode: "62701",
				Country:    "US",
			},
		},
	}
}

func newOrderService(t *testing.T, db *gorm.DB) service.OrderService {
	t.Helper()
	logger := zaptest.NewLogger(t)
	return service.NewOrderService(
		db,
		repository.NewStoreRepository(db),
		repository.NewProductRepository(db),
		repository.NewOrderRepository(db),
		notify.NewLogNotifier(logger),
		logger,
	)
}

// fakeStripeClient stands in for the processor in checkout tests.
type fakeStripeClient struct {
	createSessionFunc func(ctx context.Context, params *client.CreateSessionParams) (*client.CreateSessionResponse, error)
	lastParams        *client.CreateSessionParams
	verifyErr         error
}

func (f *fakeStripeClient) CreateCheckoutSession(ctx context.Context, params *client.CreateSessionParams) (*client.CreateSessionResponse, error) {
	f.lastParams = params
	if f.createSessionFunc != nil {
		return f.createSessionFunc(ctx, params)
	}
	return &client.CreateSessionResponse{
		SessionID: "cs_test_123",
		URL:       "https://checkout.stripe.test/pay/cs_test_123",
	}, nil
}

func (f *fakeStripeClient) CreateExpressAccount(ctx context.Context, email string) (string, error) {
	return "acct_test_123", nil
}

func (f *fakeStripeClient) CreateAccountLink(ctx context.Context, accountID, refreshURL, returnURL string) (string, error) {
	return "https://connect.stripe.test/setup/" + accountID, nil
}

func (f *fakeStripeClient) VerifyWebhookSignature(sigHeader string, body []byte) error {
	return f.verifyErr
}
