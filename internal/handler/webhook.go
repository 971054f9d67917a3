package handler

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"storefront-platform/internal/apperr"
	"storefront-platform/internal/service"
)

// SignatureHeader carries the processor's payload signature.
const SignatureHeader = "Stripe-Signature"

type WebhookHandler struct {
	webhookService service.WebhookService
}

func NewWebhookHandler(webhookService service.WebhookService) *WebhookHandler {
	return &WebhookHandler{
		webhookService: webhookService,
	}
}

// HandleStripeWebhook acknowledges with 200 for processed events and
// idempotent no-ops, 400 for bad signatures or payloads, and 5xx for
// transient failures so the processor redelivers.
func (h *WebhookHandler) HandleStripeWebhook(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return apperr.Validation("read webhook body")
	}

	sigHeader := c.Request().Header.Get(SignatureHeader)

	if err := h.webhookService.HandleEvent(ctx, sigHeader, body); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]bool{"received": true})
}
