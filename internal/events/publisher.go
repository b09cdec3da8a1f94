package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"grocery-market/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"
)

// Event types published on the order topic
const (
	TypeOrderCreated       = "orders.created"
	TypeOrderStatusChanged = "orders.status_changed"
)

// OrderEvent describes a committed change to an order
type OrderEvent struct {
	Type           string             `json:"type"`
	OrderID        uuid.UUID          `json:"order_id"`
	CustomerID     uuid.UUID          `json:"customer_id"`
	SellerID       uuid.UUID          `json:"seller_id"`
	Status         domain.OrderStatus `json:"status"`
	PreviousStatus domain.OrderStatus `json:"previous_status,omitempty"`
	TotalValue     decimal.Decimal    `json:"total_value"`
	OccurredAt     time.Time          `json:"occurred_at"`
}

// NewOrderEvent builds an event of the given type from the order's current state
func NewOrderEvent(eventType string, order *domain.Order, previous domain.OrderStatus) OrderEvent {
	return OrderEvent{
		Type:           eventType,
		OrderID:        order.ID,
		CustomerID:     order.CustomerID,
		SellerID:       order.SellerID,
		Status:         order.Status,
		PreviousStatus: previous,
		TotalValue:     order.TotalValue,
		OccurredAt:     order.UpdatedAt.UTC(),
	}
}

// Publisher emits order events after their transaction has committed
type Publisher interface {
	PublishOrderEvent(ctx context.Context, event OrderEvent) error
	Close()
}

// producer is the subset of *kgo.Client used for publishing
type producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

// KafkaPublisher writes order events to a Kafka topic keyed by order id
type KafkaPublisher struct {
	client producer
	topic  string
	logger *zap.Logger
}

// NewKafkaPublisher connects a franz-go client to the given brokers
func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) (*KafkaPublisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
		kgo.RecordRetries(3),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}

	return newKafkaPublisher(client, topic, logger), nil
}

func newKafkaPublisher(client producer, topic string, logger *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{client: client, topic: topic, logger: logger}
}

// PublishOrderEvent produces the event synchronously
func (p *KafkaPublisher) PublishOrderEvent(ctx context.Context, event OrderEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.OrderID.String()),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}

	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("failed to produce order event: %w", err)
	}

	p.logger.Debug("Order event published",
		zap.String("type", event.Type),
		zap.String("order_id", event.OrderID.String()),
		zap.String("topic", p.topic),
	)
	return nil
}

// Close flushes and closes the underlying client
func (p *KafkaPublisher) Close() {
	p.client.Close()
}

// NopPublisher discards events; used when no brokers are configured
type NopPublisher struct{}

func (NopPublisher) PublishOrderEvent(context.Context, OrderEvent) error { return nil }

func (NopPublisher) Close() {}
