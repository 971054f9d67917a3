package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"storefront-platform/internal/client"
	"storefront-platform/internal/config"
	"storefront-platform/internal/handler"
	"storefront-platform/internal/model"
	"storefront-platform/internal/notify"
	"storefront-platform/internal/repository"
	"storefront-platform/internal/service"
)

const testWebhookSecret = "whsec_server_test"

type stubSessionClient struct {
	verify client.StripeClient
}

func (s *stubSessionClient) CreateCheckoutSession(ctx context.Context, params *client.CreateSessionParams) (*client.CreateSessionResponse, error) {
	return &client.CreateSessionResponse{
		SessionID: "cs_stub",
		URL:       "https://checkout.stripe.test/pay/cs_stub",
	}, nil
}

func (s *stubSessionClient) CreateExpressAccount(ctx context.Context, email string) (string, error) {
	return "acct_stub", nil
}

func (s *stubSessionClient) CreateAccountLink(ctx context.Context, accountID, refreshURL, returnURL string) (string, error) {
	return "https://connect.stripe.test/setup/" + accountID, nil
}

func (s *stubSessionClient) VerifyWebhookSignature(sigHeader string, body []byte) error {
	return s.verify.VerifyWebhookSignature(sigHeader, body)
}

func newTestServer(t *testing.T) (*Server, *gorm.DB) {
	t.Helper()

	db, err := client.InitSqliteClient(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	logger := zaptest.NewLogger(t)
	stripeClient := &stubSessionClient{
		verify: client.NewStripeClient(&config.Stripe{
			BaseApiURL:         "http://127.0.0.1:0",
			WebhookSecret:      testWebhookSecret,
			SignatureTolerance: 300,
		}),
	}

	storeRepo := repository.NewStoreRepository(db)
	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	webhookEventRepo := repository.NewWebhookEventRepository(db)
	notifier := notify.NewLogNotifier(logger)

	orderService := service.NewOrderService(db, storeRepo, productRepo, orderRepo, notifier, logger)
	checkoutService := service.NewCheckoutService(orderService, storeRepo, orderRepo, stripeClient, "http://localhost:8080", logger)
	webhookService := service.NewWebhookService(db, stripeClient, orderRepo, productRepo, storeRepo, webhookEventRepo, notifier, logger)
	storeService := service.NewStoreService(storeRepo, productRepo, stripeClient)

	return NewServer(checkoutService, webhookService, orderService, storeService, logger), db
}

func seedReadyStore(t *testing.T, db *gorm.DB) (*model.Store, *model.Product) {
	t.Helper()
	store := &model.Store{
		ID:              uuid.NewString(),
		UserID:          uuid.NewString(),
		Name:            "Ready Store",
		Slug:            "ready-store",
		CommissionRate:  10,
		StripeAccountID: "acct_ready",
		StripeOnboarded: true,
		IsActive:        true,
	}
	require.NoError(t, db.Create(store).Error)

	product := &model.Product{
		ID:       uuid.NewString(),
		StoreID:  store.ID,
		Slug:     "widget",
		Title:    "Widget",
		Price:    5000,
		Stock:    10,
		IsActive: true,
	}
	require.NoError(t, db.Create(product).Error)

	return store, product
}

func doRequest(s *Server, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func checkoutBody(storeID, productID string) string {
	return `{
		"store_id": "` + storeID + `",
		"items": [{"product_id": "` + productID + `", "quantity": 1}],
		"customer": {
			"email": "buyer@example.com",
			"name": "Buyer",
			"address": {"line1": "1 Main St", "city": "Springfield", "state": "IL", "postal_code": "62701", "country": "US"}
		}
	}`
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doRequest(s, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCheckoutEndpoint(t *testing.T) {
	s, db := newTestServer(t)
	store, product := seedReadyStore(t, db)

	rec := doRequest(s, http.MethodPost, "/api/checkout", checkoutBody(store.ID, product.ID), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "https://checkout.stripe.test/pay/cs_stub")
}

func TestCheckoutEndpointErrors(t *testing.T) {
	s, db := newTestServer(t)
	store, product := seedReadyStore(t, db)

	t.Run("malformed body", func(t *testing.T) {
		rec := doRequest(s, http.MethodPost, "/api/checkout", `{"store_id": 7}`, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "validation_error")
	})

	t.Run("unknown store", func(t *testing.T) {
		rec := doRequest(s, http.MethodPost, "/api/checkout", checkoutBody(uuid.NewString(), product.ID), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "not_found")
	})

	t.Run("store not onboarded", func(t *testing.T) {
		require.NoError(t, db.Model(&model.Store{}).Where("id = ?", store.ID).
			Update("stripe_onboarded", false).Error)
		rec := doRequest(s, http.MethodPost, "/api/checkout", checkoutBody(store.ID, product.ID), nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, rec.Body.String(), "store_not_ready")
		require.NoError(t, db.Model(&model.Store{}).Where("id = ?", store.ID).
			Update("stripe_onboarded", true).Error)
	})

	t.Run("out of stock", func(t *testing.T) {
		body := strings.Replace(checkoutBody(store.ID, product.ID), `"quantity": 1`, `"quantity": 99`, 1)
		rec := doRequest(s, http.MethodPost, "/api/checkout", body, nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, rec.Body.String(), "out_of_stock")
	})
}

func TestWebhookEndpoint(t *testing.T) {
	s, db := newTestServer(t)
	seedReadyStore(t, db)

	t.Run("invalid signature", func(t *testing.T) {
		body := `{"id":"evt_1","type":"checkout.session.completed"}`
		rec := doRequest(s, http.MethodPost, "/api/webhooks/stripe", body, map[string]string{
			handler.SignatureHeader: "t=1,v1=deadbeef",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid_signature")
	})

	t.Run("unknown reference is acknowledged", func(t *testing.T) {
		body := `{"id":"evt_2","type":"checkout.session.completed","data":{"object":{"id":"cs_unknown"}}}`
		sig := client.SignPayload(testWebhookSecret, time.Now(), []byte(body))
		rec := doRequest(s, http.MethodPost, "/api/webhooks/stripe", body, map[string]string{
			handler.SignatureHeader: sig,
		})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "received")
	})
}

func TestOrderStatusEndpoint(t *testing.T) {
	s, db := newTestServer(t)
	store, product := seedReadyStore(t, db)

	rec := doRequest(s, http.MethodPost, "/api/checkout", checkoutBody(store.ID, product.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var order model.Order
	require.NoError(t, db.First(&order).Error)
	require.NoError(t, db.Model(&model.Order{}).Where("id = ?", order.ID).
		Updates(map[string]interface{}{
			"status":         model.OrderCompleted,
			"payment_status": model.PaymentPaid,
		}).Error)

	t.Run("backward move rejected", func(t *testing.T) {
		rec := doRequest(s, http.MethodPatch, "/api/orders/"+order.ID+"/status",
			`{"status":"PENDING"}`, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid_state_transition")
	})

	t.Run("unknown status rejected", func(t *testing.T) {
		rec := doRequest(s, http.MethodPatch, "/api/orders/"+order.ID+"/status",
			`{"status":"SHIPPED"}`, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("cancel paid order", func(t *testing.T) {
		rec := doRequest(s, http.MethodPatch, "/api/orders/"+order.ID+"/status",
			`{"status":"CANCELLED"}`, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestStorefrontProducts(t *testing.T) {
	s, db := newTestServer(t)
	_, product := seedReadyStore(t, db)

	rec := doRequest(s, http.MethodGet, "/api/storefront/ready-store/products", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), product.ID)

	rec = doRequest(s, http.MethodGet, "/api/storefront/nope/products", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doRequest(s, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "storefront_orders_created_total")
}
