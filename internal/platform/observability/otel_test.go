package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap/zapcore"

	"warehouse/internal/config"
)

func TestSetupSDK_DisabledIsNoop(t *testing.T) {
	shutdown, err := SetupSDK(context.Background(), "test-service", config.Telemetry{})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestSetupTracingSDK_InstallsPropagator(t *testing.T) {
	_, err := SetupTracingSDK(context.Background(), "test-service", config.Telemetry{})
	require.NoError(t, err)

	fields := otel.GetTextMapPropagator().Fields()
	assert.Contains(t, fields, "traceparent")
	assert.Contains(t, fields, "baggage")
}

func TestNewLogger(t *testing.T) {
	logger := NewLogger("test-service", zapcore.InfoLevel)
	require.NotNil(t, logger)
	assert.NotPanics(t, func() { logger.Info("hello") })
}
