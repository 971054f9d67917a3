package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"storefront-platform/internal/client"
	"storefront-platform/internal/config"
	"storefront-platform/internal/notify"
	"storefront-platform/internal/repository"
	"storefront-platform/internal/server"
	"storefront-platform/internal/service"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Printf("Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	db, err := client.InitSqliteClient(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("database init failed", zap.Error(err))
	}

	stripeClient := client.NewStripeClient(&cfg.Stripe)

	storeRepo := repository.NewStoreRepository(db)
	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	webhookEventRepo := repository.NewWebhookEventRepository(db)

	notifier := notify.Notifier(notify.NewLogNotifier(logger))
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := notify.InitProducer(cfg.Kafka.Brokers)
		if err != nil {
			logger.Fatal("kafka producer init failed", zap.Error(err))
		}
		defer producer.Close()
		notifier = notify.NewKafkaNotifier(producer, cfg.Kafka.Topic, logger)
	}

	orderService := service.NewOrderService(db, storeRepo, productRepo, orderRepo, notifier, logger)
	checkoutService := service.NewCheckoutService(orderService, storeRepo, orderRepo, stripeClient, cfg.BaseURL, logger)
	webhookService := service.NewWebhookService(db, stripeClient, orderRepo, productRepo, storeRepo, webhookEventRepo, notifier, logger)
	storeService := service.NewStoreService(storeRepo, productRepo, stripeClient)

	srv := server.NewServer(checkoutService, webhookService, orderService, storeService, logger)

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

	logger.Info("starting HTTP server", zap.String("addr", serverAddr))
	go func() {
		if err := srv.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	logger.Info("signal received, starting graceful shutdown")

	if err := srv.Shutdown(); err != nil {
		logger.Fatal("HTTP server shutdown error", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Environment.Name == "development" {
		return zap.NewDevelopment()
	}

	level, err := zap.ParseAtomicLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = level
	if cfg.Log.Format == "console" {
		zcfg.Encoding = "console"
	}
	return zcfg.Build()
}
