// Package kafka builds the event bus readers and writers.
package kafka

import (
	"fmt"

	otelkafka "github.com/Trendyol/otel-kafka-konsumer"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"warehouse/internal/config"
)

// Header keys set on every published event.
const (
	HeaderEventType = "event-type"
)

// ReaderConfig selects the topic and consumer group.
type ReaderConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

// NewReader creates a group reader. CommitInterval stays zero so commits are
// synchronous and only happen on explicit acknowledgement.
func NewReader(cfg ReaderConfig) (*kafka.Reader, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" || cfg.GroupID == "" {
		return nil, fmt.Errorf("kafka reader needs brokers, topic and group id")
	}
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       cfg.Topic,
		GroupID:     cfg.GroupID,
		MinBytes:    config.ReaderMinBytes,
		MaxBytes:    config.ReaderMaxBytes,
		StartOffset: kafka.FirstOffset,
	}), nil
}

// WriterConfig selects the destination topic.
type WriterConfig struct {
	Brokers  []string
	Topic    string
	ClientID string
}

// NewWriter creates a traced writer that injects trace headers into every
// message.
func NewWriter(cfg WriterConfig, tp trace.TracerProvider) (Producer, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return nil, fmt.Errorf("kafka writer needs brokers and topic")
	}

	baseWriter := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           config.BatchTimeout,
		BatchSize:              config.BatchSize,
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}

	writer, err := otelkafka.NewWriter(baseWriter,
		otelkafka.WithTracerProvider(tp),
		otelkafka.WithPropagator(propagation.TraceContext{}),
		otelkafka.WithAttributes(
			[]attribute.KeyValue{
				semconv.MessagingDestinationNameKey.String(cfg.Topic),
				attribute.String("messaging.kafka.client_id", cfg.ClientID),
			},
		),
	)
	if err != nil {
		return nil, err
	}
	return writer, nil
}

// HeaderValue returns the value of the first header named key.
func HeaderValue(msg kafka.Message, key string) (string, bool) {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value), true
		}
	}
	return "", false
}
