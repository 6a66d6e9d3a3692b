package product

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// InstrumentationName scopes the tracer and meter of this package.
const InstrumentationName = "warehouse/internal/product"

type applyMetrics struct {
	duration metric.Float64Histogram
}

func newApplyMetrics(meter metric.Meter) (*applyMetrics, error) {
	duration, err := meter.Float64Histogram("stock.apply.duration",
		metric.WithDescription("Duration of the atomic stock application unit of work"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, fmt.Errorf("create stock.apply.duration histogram: %w", err)
	}
	return &applyMetrics{duration: duration}, nil
}

type handlerMetrics struct {
	handled metric.Int64Counter
}

func newHandlerMetrics(meter metric.Meter) (*handlerMetrics, error) {
	handled, err := meter.Int64Counter("stock.events.handled",
		metric.WithDescription("StockAdded deliveries by outcome"),
		metric.WithUnit("{event}"))
	if err != nil {
		return nil, fmt.Errorf("create stock.events.handled counter: %w", err)
	}
	return &handlerMetrics{handled: handled}, nil
}
