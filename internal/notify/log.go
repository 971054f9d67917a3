package notify

import (
	"context"

	"go.uber.org/zap"

	"storefront-platform/internal/model"
)

// logNotifier records notifications instead of sending them; used in
// development and as the fallback when no broker is configured.
type logNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) Notifier {
	return &logNotifier{logger: logger}
}

func (n *logNotifier) OrderConfirmation(ctx context.Context, order *model.Order) error {
	n.logger.Info("order confirmation",
		zap.String("order_number", order.OrderNumber),
		zap.String("email", order.CustomerEmail),
		zap.Int64("total", order.Total),
	)
	return nil
}

func (n *logNotifier) OrderStatusChanged(ctx context.Context, order *model.Order) error {
	n.logger.Info("order status changed",
		zap.String("order_number", order.OrderNumber),
		zap.String("email", order.CustomerEmail),
		zap.String("status", string(order.Status)),
	)
	return nil
}
