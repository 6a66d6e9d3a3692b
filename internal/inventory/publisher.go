package inventory

import (
	"context"
	"fmt"

	kafkago "github.com/segmentio/kafka-go"

	"warehouse/internal/events"
	"warehouse/internal/platform/kafka"
)

// EventPublisher emits StockAdded events.
type EventPublisher interface {
	PublishStockAdded(ctx context.Context, event events.StockAdded) error
}

// KafkaPublisher writes events keyed by product id so all deltas for one
// product land on one partition.
type KafkaPublisher struct {
	producer kafka.Producer
}

// NewKafkaPublisher wraps a producer.
func NewKafkaPublisher(producer kafka.Producer) *KafkaPublisher {
	return &KafkaPublisher{producer: producer}
}

// PublishStockAdded encodes and writes event.
func (p *KafkaPublisher) PublishStockAdded(ctx context.Context, event events.StockAdded) error {
	payload, err := event.Encode()
	if err != nil {
		return fmt.Errorf("encode stock added: %w", err)
	}
	msg := kafkago.Message{
		Key:   []byte(event.TargetID.String()),
		Value: payload,
		Headers: []kafkago.Header{
			{Key: kafka.HeaderEventType, Value: []byte(events.StockAddedType)},
		},
	}
	if err := p.producer.WriteMessage(ctx, msg); err != nil {
		return fmt.Errorf("write stock added: %w", err)
	}
	return nil
}
