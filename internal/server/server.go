package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"storefront-platform/internal/apperr"
	"storefront-platform/internal/dto"
	"storefront-platform/internal/handler"
	"storefront-platform/internal/metrics"
	"storefront-platform/internal/service"
)

type Server struct {
	echo            *echo.Echo
	checkoutHandler *handler.CheckoutHandler
	webhookHandler  *handler.WebhookHandler
	orderHandler    *handler.OrderHandler
	storeHandler    *handler.StoreHandler
}

func NewServer(
	checkoutService service.CheckoutService,
	webhookService service.WebhookService,
	orderService service.OrderService,
	storeService service.StoreService,
	logger *zap.Logger,
) *Server {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
			)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(metricsMiddleware())

	e.HTTPErrorHandler = errorHandler(logger)

	s := &Server{
		echo:            e,
		checkoutHandler: handler.NewCheckoutHandler(checkoutService),
		webhookHandler:  handler.NewWebhookHandler(webhookService),
		orderHandler:    handler.NewOrderHandler(orderService),
		storeHandler:    handler.NewStoreHandler(storeService),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	// -------- merchant --------
	api.POST("/stores", s.storeHandler.CreateStore)
	api.POST("/stores/:id/onboard", s.storeHandler.StartOnboarding)
	api.GET("/stores/:id/orders", s.orderHandler.ListStoreOrders)
	api.PATCH("/orders/:id/status", s.orderHandler.UpdateStatus)
	api.GET("/orders/:id", s.orderHandler.GetOrder)

	// -------- storefront --------
	// separate prefix: echo requires one param name per path position and
	// the merchant routes already use :id under /stores
	api.GET("/storefront/:slug/products", s.storeHandler.ListProducts)
	api.POST("/checkout", s.checkoutHandler.StartCheckout)

	// -------- processor webhooks --------
	api.POST("/webhooks/stripe", s.webhookHandler.HandleStripeWebhook)
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown() error {
	return s.echo.Close()
}

var statusByKind = map[apperr.Kind]int{
	apperr.KindValidation:        http.StatusBadRequest,
	apperr.KindNotFound:          http.StatusNotFound,
	apperr.KindConflict:          http.StatusConflict,
	apperr.KindStoreNotReady:     http.StatusConflict,
	apperr.KindProductUnavail:    http.StatusConflict,
	apperr.KindOutOfStock:        http.StatusConflict,
	apperr.KindInvalidTransition: http.StatusBadRequest,
	apperr.KindExternalProcessor: http.StatusBadGateway,
	apperr.KindInvalidSignature:  http.StatusBadRequest,
	apperr.KindInternal:          http.StatusInternalServerError,
}

func errorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			_ = c.JSON(httpErr.Code, dto.ErrorResponse{
				Error:   "http_error",
				Message: http.StatusText(httpErr.Code),
			})
			return
		}

		kind := apperr.KindOf(err)
		status, ok := statusByKind[kind]
		if !ok {
			status = http.StatusInternalServerError
		}

		message := err.Error()
		if status >= 500 {
			// Do not leak internals to callers.
			logger.Error("request failed",
				zap.String("path", c.Path()),
				zap.Error(err),
			)
			message = "internal error"
		}

		_ = c.JSON(status, dto.ErrorResponse{
			Error:   string(kind),
			Message: message,
		})
	}
}

func metricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err != nil {
				c.Echo().HTTPErrorHandler(err, c)
			}
			metrics.HTTPRequestsTotal.WithLabelValues(
				c.Request().Method,
				c.Path(),
				strconv.Itoa(c.Response().Status),
			).Inc()
			return nil
		}
	}
}
