package inventory

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestProductClient_ProductExists(t *testing.T) {
	known := uuid.New()
	broken := uuid.New()
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		switch r.URL.Path {
		case "/products/" + known.String():
			w.WriteHeader(http.StatusOK)
		case "/products/" + broken.String():
			w.WriteHeader(http.StatusBadGateway)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	core, logs := observer.New(zapcore.DebugLevel)
	client, err := NewProductClient(srv.URL+"/", time.Second, zap.New(core))
	require.NoError(t, err)
	ctx := context.Background()

	assert.True(t, client.ProductExists(ctx, known, "tok"))
	assert.Equal(t, "Bearer tok", gotAuth)

	assert.False(t, client.ProductExists(ctx, uuid.New(), "tok"))
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.WarnLevel).Len())

	assert.False(t, client.ProductExists(ctx, broken, ""))
	assert.Equal(t, "", gotAuth)
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
}

func TestProductClient_TransportErrorMeansMissing(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client, err := NewProductClient(url, time.Second, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, client.ProductExists(context.Background(), uuid.New(), "tok"))
}

func TestNewProductClient_InvalidURL(t *testing.T) {
	_, err := NewProductClient("not a url", time.Second, zap.NewNop())
	assert.Error(t, err)
}
