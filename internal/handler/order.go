package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"storefront-platform/internal/apperr"
	"storefront-platform/internal/dto"
	"storefront-platform/internal/model"
	"storefront-platform/internal/service"
)

type OrderHandler struct {
	orderService service.OrderService
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()

	order, err := h.orderService.GetOrder(ctx, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) ListStoreOrders(c echo.Context) error {
	ctx := c.Request().Context()

	orders, err := h.orderService.ListStoreOrders(ctx, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, orders)
}

var statusByName = map[string]model.OrderStatus{
	"PENDING":    model.OrderPending,
	"PROCESSING": model.OrderProcessing,
	"COMPLETED":  model.OrderCompleted,
	"CANCELLED":  model.OrderCancelled,
}

func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.UpdateOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	target, ok := statusByName[req.Status]
	if !ok {
		return apperr.Validation("unknown status %q", req.Status)
	}

	order, err := h.orderService.UpdateStatus(ctx, c.Param("id"), target)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, order)
}
