package inventory

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"warehouse/internal/platform/observability"
)

// ProductChecker answers whether a product exists.
type ProductChecker interface {
	ProductExists(ctx context.Context, productID uuid.UUID, accessToken string) bool
}

// ProductClient asks the product service over HTTP.
type ProductClient struct {
	baseURL *url.URL
	client  *http.Client
	logger  observability.Logger
}

// NewProductClient creates a client with a traced transport.
func NewProductClient(baseURL string, timeout time.Duration, logger observability.Logger) (*ProductClient, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid product service url %q", baseURL)
	}
	return &ProductClient{
		baseURL: u,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger,
	}, nil
}

// ProductExists reports true only for a 2xx answer. A 404 and every failure
// report false; failures are logged.
func (c *ProductClient) ProductExists(ctx context.Context, productID uuid.UUID, accessToken string) bool {
	fields := []zap.Field{zap.String("product_id", productID.String())}

	endpoint := c.baseURL.JoinPath("products", productID.String())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		c.logger.Error("Failed to build product request", append(fields, zap.Error(err))...)
		return false
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("HTTP error while checking product", append(fields, zap.Error(err))...)
		return false
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		c.logger.Debug("Product exists in product service", fields...)
		return true
	case resp.StatusCode == http.StatusNotFound:
		c.logger.Warn("Product not found in product service", fields...)
		return false
	default:
		c.logger.Error("Unexpected status while checking product", append(fields, zap.Int("status", resp.StatusCode))...)
		return false
	}
}
