package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"storefront-platform/internal/model"
)

type orderEvent struct {
	Kind        string `json:"kind"` // confirmation | status_changed
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
	StoreID     string `json:"store_id"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	Status      string `json:"status"`
	Total       int64  `json:"total"`
}

// kafkaNotifier publishes order events for the downstream mailer to pick up.
type kafkaNotifier struct {
	producer sarama.SyncProducer
	topic    string
	logger   *zap.Logger
}

func InitProducer(brokers []string) (sarama.SyncProducer, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	return producer, nil
}

func NewKafkaNotifier(producer sarama.SyncProducer, topic string, logger *zap.Logger) Notifier {
	return &kafkaNotifier{
		producer: producer,
		topic:    topic,
		logger:   logger,
	}
}

func (n *kafkaNotifier) OrderConfirmation(ctx context.Context, order *model.Order) error {
	return n.publish("confirmation", order)
}

func (n *kafkaNotifier) OrderStatusChanged(ctx context.Context, order *model.Order) error {
	return n.publish("status_changed", order)
}

func (n *kafkaNotifier) publish(kind string, order *model.Order) error {
	payload, err := json.Marshal(&orderEvent{
		Kind:        kind,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		StoreID:     order.StoreID,
		Email:       order.CustomerEmail,
		Name:        order.CustomerName,
		Status:      string(order.Status),
		Total:       order.Total,
	})
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}

	partition, offset, err := n.producer.SendMessage(&sarama.ProducerMessage{
		Topic: n.topic,
		Key:   sarama.StringEncoder(order.ID),
		Value: sarama.ByteEncoder(payload),
	})
	if err != nil {
		return fmt.Errorf("send order event: %w", err)
	}

	n.logger.Info("order event published",
		zap.String("kind", kind),
		zap.String("order_id", order.ID),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
	)

	return nil
}
