package product

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"warehouse/internal/events"
	"warehouse/internal/platform/kafka"
	"warehouse/internal/platform/observability"
)

// Decision tells the transport what to do with a delivery.
type Decision int

const (
	// DecisionAck commits the delivery. It is returned for every terminal outcome.
	DecisionAck Decision = iota + 1
	// DecisionRetry leaves the delivery uncommitted so it is redelivered.
	DecisionRetry
)

func (d Decision) String() string {
	switch d {
	case DecisionAck:
		return "ack"
	case DecisionRetry:
		return "retry"
	default:
		return "unknown"
	}
}

// StockApplier is what the handler needs from Applier.
type StockApplier interface {
	ApplyDelta(ctx context.Context, targetID uuid.UUID, delta int64, eventID uuid.UUID) (Outcome, error)
	IsApplied(ctx context.Context, eventID uuid.UUID) (bool, error)
}

var _ StockApplier = (*Applier)(nil)

// MessageHandler turns one kafka delivery into a Decision.
type MessageHandler interface {
	HandleMessage(ctx context.Context, msg kafkago.Message) Decision
}

// StockAddedHandler dispatches StockAdded events into the applier.
type StockAddedHandler struct {
	applier StockApplier
	logger  observability.Logger
	tracer  observability.Tracer
	metrics *handlerMetrics
}

// NewStockAddedHandler creates the handler.
func NewStockAddedHandler(applier StockApplier, logger observability.Logger, tracer observability.Tracer, meter metric.Meter) (*StockAddedHandler, error) {
	if applier == nil {
		return nil, fmt.Errorf("stock added handler needs an applier")
	}
	m, err := newHandlerMetrics(meter)
	if err != nil {
		return nil, err
	}
	return &StockAddedHandler{
		applier: applier,
		logger:  logger,
		tracer:  tracer,
		metrics: m,
	}, nil
}

// HandleMessage extracts the producer's trace context, decodes the payload and
// handles the event. Payloads that cannot be decoded are acknowledged.
func (h *StockAddedHandler) HandleMessage(ctx context.Context, msg kafkago.Message) Decision {
	carrier := propagation.MapCarrier{}
	for _, header := range msg.Headers {
		carrier[header.Key] = string(header.Value)
	}
	msgCtx := otel.GetTextMapPropagator().Extract(ctx, carrier)

	h.logger.Debug("Kafka message received",
		zap.ByteString("key", msg.Key),
		zap.Int("partition", msg.Partition),
		zap.Int64("offset", msg.Offset),
	)

	if eventType, ok := kafka.HeaderValue(msg, kafka.HeaderEventType); ok && eventType != events.StockAddedType {
		h.logger.Warn("Skipping message with unexpected event type",
			zap.String("event_type", eventType),
			zap.Int("partition", msg.Partition),
			zap.Int64("offset", msg.Offset),
		)
		h.count(msgCtx, "skipped")
		return DecisionAck
	}

	event, err := events.DecodeStockAdded(msg.Value)
	if err != nil {
		h.logger.Error("Malformed StockAdded event",
			zap.Error(err),
			zap.ByteString("raw_value", msg.Value),
			zap.Int("partition", msg.Partition),
			zap.Int64("offset", msg.Offset),
		)
		h.count(msgCtx, "malformed")
		return DecisionAck
	}

	return h.Handle(msgCtx, event)
}

// Handle maps the apply outcome to a Decision. Only transient store failures
// lead to DecisionRetry.
func (h *StockAddedHandler) Handle(ctx context.Context, event events.StockAdded) Decision {
	ctx, span := h.tracer.Start(ctx, "stock_added.handle",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("event.id", event.EventID.String()),
			attribute.String("product.id", event.TargetID.String()),
		),
	)
	defer span.End()

	fields := []zap.Field{
		zap.String("event_id", event.EventID.String()),
		zap.String("product_id", event.TargetID.String()),
		zap.Int64("delta", event.Delta),
	}

	if err := event.Validate(); err != nil {
		h.logger.Error("Malformed StockAdded event", append(fields, zap.Error(err))...)
		h.count(ctx, "malformed")
		span.SetAttributes(attribute.String("stock.decision", DecisionAck.String()))
		return DecisionAck
	}

	// Fast path only. A lookup error falls through to ApplyDelta.
	if applied, err := h.applier.IsApplied(ctx, event.EventID); err == nil && applied {
		h.logger.Info("StockAdded event already processed", append(fields, zap.String("outcome", OutcomeAlreadyProcessed.String()))...)
		h.count(ctx, OutcomeAlreadyProcessed.String())
		span.SetAttributes(attribute.String("stock.decision", DecisionAck.String()))
		return DecisionAck
	}

	outcome, err := h.applier.ApplyDelta(ctx, event.TargetID, event.Delta, event.EventID)
	if err != nil {
		if ctx.Err() != nil {
			h.logger.Info("StockAdded handling cancelled", append(fields, zap.Error(err))...)
		} else {
			h.logger.Error("Failed to apply StockAdded event", append(fields, zap.Error(err))...)
		}
		h.count(ctx, "transient_failure")
		span.SetAttributes(attribute.String("stock.decision", DecisionRetry.String()))
		return DecisionRetry
	}

	fields = append(fields, zap.String("outcome", outcome.String()))
	switch outcome {
	case OutcomeApplied:
		h.logger.Info("Stock updated", fields...)
	case OutcomeAlreadyProcessed:
		h.logger.Info("StockAdded event already processed", fields...)
	case OutcomeTargetNotFound:
		h.logger.Warn("Product not found for StockAdded event", fields...)
	case OutcomeAmountOverflow:
		h.logger.Error("StockAdded delta overflows product amount", fields...)
	}
	h.count(ctx, outcome.String())
	span.SetAttributes(attribute.String("stock.decision", DecisionAck.String()))
	return DecisionAck
}

func (h *StockAddedHandler) count(ctx context.Context, outcome string) {
	h.metrics.handled.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
