package app

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"warehouse/internal/config"
	"warehouse/internal/platform/auth"
	"warehouse/internal/platform/observability"
	"warehouse/internal/platform/storage"
)

// Container holds expensive-to-create singletons shared by both services.
type Container struct {
	serviceName  string
	logger       *zap.Logger
	tracer       observability.Tracer
	meter        metric.Meter
	db           *storage.DB
	verifier     *auth.Verifier
	otelShutdown observability.ShutdownFunc
	closers      []func() error
}

func newContainer(ctx context.Context, serviceName, instrumentation string, cfg config.Common) (*Container, error) {
	c := &Container{serviceName: serviceName}

	// Bootstrap logger until the OTel bridge exists
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	c.logger = logger

	c.setupObservability(ctx, cfg.Telemetry)
	c.tracer = otel.Tracer(instrumentation)
	c.meter = otel.Meter(instrumentation)

	db, err := OpenStorage(ctx, cfg.Database)
	if err != nil {
		c.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	c.db = db
	c.logger.Info("Storage ready", zap.String("driver", db.Dialect.Name()))

	verifier, err := auth.NewVerifier(auth.Config{
		Secret:   []byte(cfg.Secret),
		Issuer:   cfg.Issuer,
		Audience: cfg.Audience,
	})
	if err != nil {
		c.Shutdown(context.Background())
		return nil, err
	}
	c.verifier = verifier

	return c, nil
}

// setupObservability installs the OTel SDKs and re-creates the logger with the
// OTel bridge. Exporter failures are logged, never fatal.
func (c *Container) setupObservability(ctx context.Context, cfg config.Telemetry) {
	shutdown, err := observability.SetupSDK(ctx, c.serviceName, cfg)
	if err != nil {
		c.logger.Error("Failed to setup OpenTelemetry", zap.Error(err))
	}
	c.otelShutdown = shutdown

	c.logger = observability.NewLogger(c.serviceName, zapcore.InfoLevel)
	c.logger.Info("Logger re-initialized with OpenTelemetry bridge",
		zap.Bool("otel_export", cfg.Enabled()))
}

func (c *Container) addCloser(fn func() error) {
	c.closers = append(c.closers, fn)
}

// Shutdown closes transport clients, the store and the OTel providers.
func (c *Container) Shutdown(ctx context.Context) {
	c.logger.Info("Shutting down infrastructure...")

	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			c.logger.Error("Failed to close component", zap.Error(err))
		}
	}
	c.closers = nil

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			c.logger.Error("Failed to close storage", zap.Error(err))
		}
	}

	if c.otelShutdown != nil {
		if err := c.otelShutdown(ctx); err != nil {
			c.logger.Error("Failed to shutdown OpenTelemetry", zap.Error(err))
		}
	}

	c.logger.Info("Infrastructure shutdown complete")
	if err := c.logger.Sync(); err != nil {
		// Can't log this error since logger might be closed
		fmt.Printf("Failed to sync logger: %v\n", err)
	}
}

// Getters for accessing infrastructure components
func (c *Container) Logger() observability.Logger { return c.logger }
func (c *Container) Tracer() observability.Tracer { return c.tracer }
func (c *Container) Meter() metric.Meter          { return c.meter }
func (c *Container) DB() *storage.DB              { return c.db }
func (c *Container) Verifier() *auth.Verifier     { return c.verifier }
