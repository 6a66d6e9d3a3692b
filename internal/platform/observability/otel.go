package observability

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"warehouse/internal/config"
)

// ShutdownFunc flushes and stops a provider.
type ShutdownFunc func(context.Context) error

func noopShutdown(context.Context) error { return nil }

// SetupPropagation installs W3C trace-context and baggage propagation. It is
// needed even without exporters so kafka headers keep their parent spans.
func SetupPropagation() {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
}

func newResource(serviceName string) (*resource.Resource, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(config.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}

// SetupLoggingSDK installs the global OTel LoggerProvider. With telemetry
// disabled it returns a no-op shutdown and leaves the global provider alone.
func SetupLoggingSDK(ctx context.Context, serviceName string, cfg config.Telemetry) (ShutdownFunc, error) {
	if !cfg.Enabled() {
		return noopShutdown, nil
	}

	res, err := newResource(serviceName)
	if err != nil {
		return noopShutdown, err
	}

	opts := []otlploghttp.Option{
		otlploghttp.WithEndpoint(cfg.Endpoint),
		otlploghttp.WithURLPath(config.LogsPath),
	}
	if h := cfg.Headers(); h != nil {
		opts = append(opts, otlploghttp.WithHeaders(h))
	}
	if cfg.Insecure {
		opts = append(opts, otlploghttp.WithInsecure())
	}

	exporter, err := otlploghttp.New(ctx, opts...)
	if err != nil {
		return noopShutdown, fmt.Errorf("OTLP log exporter: %w", err)
	}

	provider := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter,
			sdklog.WithExportTimeout(config.ExportTimeout),
			sdklog.WithMaxQueueSize(config.MaxQueueSize),
		)),
		sdklog.WithResource(res),
	)
	global.SetLoggerProvider(provider)

	return provider.Shutdown, nil
}

// SetupTracingSDK installs the global TracerProvider.
func SetupTracingSDK(ctx context.Context, serviceName string, cfg config.Telemetry) (ShutdownFunc, error) {
	SetupPropagation()
	if !cfg.Enabled() {
		return noopShutdown, nil
	}

	res, err := newResource(serviceName)
	if err != nil {
		return noopShutdown, err
	}

	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(cfg.Endpoint),
		otlptracehttp.WithURLPath(config.TracesPath),
	}
	if h := cfg.Headers(); h != nil {
		opts = append(opts, otlptracehttp.WithHeaders(h))
	}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return noopShutdown, fmt.Errorf("OTLP trace exporter: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(sdktrace.NewBatchSpanProcessor(exporter,
			sdktrace.WithExportTimeout(config.ExportTimeout),
			sdktrace.WithMaxQueueSize(config.MaxQueueSize),
		)),
	)
	otel.SetTracerProvider(provider)

	return provider.Shutdown, nil
}

// SetupMetricsSDK installs the global MeterProvider with a periodic reader.
func SetupMetricsSDK(ctx context.Context, serviceName string, cfg config.Telemetry) (ShutdownFunc, error) {
	if !cfg.Enabled() {
		return noopShutdown, nil
	}

	res, err := newResource(serviceName)
	if err != nil {
		return noopShutdown, err
	}

	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(cfg.Endpoint),
		otlpmetrichttp.WithURLPath(config.MetricsPath),
	}
	if h := cfg.Headers(); h != nil {
		opts = append(opts, otlpmetrichttp.WithHeaders(h))
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return noopShutdown, fmt.Errorf("OTLP metric exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter,
			sdkmetric.WithInterval(config.MetricInterval),
			sdkmetric.WithTimeout(config.ExportTimeout),
		)),
	)
	otel.SetMeterProvider(provider)

	return provider.Shutdown, nil
}

// SetupSDK runs all three setups. Failures are accumulated so one broken
// exporter does not disable the others.
func SetupSDK(ctx context.Context, serviceName string, cfg config.Telemetry) (ShutdownFunc, error) {
	var (
		shutdownFuncs []ShutdownFunc
		setupErr      error
	)
	for name, setup := range map[string]func(context.Context, string, config.Telemetry) (ShutdownFunc, error){
		"logs":    SetupLoggingSDK,
		"traces":  SetupTracingSDK,
		"metrics": SetupMetricsSDK,
	} {
		fn, err := setup(ctx, serviceName, cfg)
		if err != nil {
			setupErr = errors.Join(setupErr, fmt.Errorf("%s: %w", name, err))
		}
		shutdownFuncs = append(shutdownFuncs, fn)
	}

	shutdown := func(ctx context.Context) error {
		var err error
		for _, fn := range shutdownFuncs {
			err = errors.Join(err, fn(ctx))
		}
		shutdownFuncs = nil
		return err
	}
	return shutdown, setupErr
}
