package notify

import (
	"context"

	"storefront-platform/internal/model"
)

// Notifier delivers customer-facing notifications. Delivery is best effort:
// callers log failures and never roll back the transition that triggered
// the notification.
type Notifier interface {
	OrderConfirmation(ctx context.Context, order *model.Order) error
	OrderStatusChanged(ctx context.Context, order *model.Order) error
}
