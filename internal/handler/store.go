package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"storefront-platform/internal/apperr"
	"storefront-platform/internal/dto"
	"storefront-platform/internal/service"
)

type StoreHandler struct {
	storeService service.StoreService
}

func NewStoreHandler(storeService service.StoreService) *StoreHandler {
	return &StoreHandler{
		storeService: storeService,
	}
}

func (h *StoreHandler) CreateStore(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CreateStoreRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	store, err := h.storeService.Create(ctx, &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, store)
}

func (h *StoreHandler) StartOnboarding(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.OnboardRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	email := c.QueryParam("email")

	url, err := h.storeService.StartOnboarding(ctx, c.Param("id"), email, req.RefreshURL, req.ReturnURL)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{"url": url})
}

func (h *StoreHandler) ListProducts(c echo.Context) error {
	ctx := c.Request().Context()

	products, err := h.storeService.ListProductsBySlug(ctx, c.Param("slug"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, products)
}
