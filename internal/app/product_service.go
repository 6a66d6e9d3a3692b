package app

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"warehouse/internal/config"
	"warehouse/internal/ledger"
	"warehouse/internal/platform/httpapi"
	"warehouse/internal/platform/kafka"
	"warehouse/internal/product"
)

// ProductContainer wires the product service: the StockAdded consumers and
// the product API.
type ProductContainer struct {
	*Container
	config    *config.ProductService
	applier   *product.Applier
	consumers []product.ConsumerService
	handler   http.Handler
}

// NewProductContainer creates every component of the product service.
func NewProductContainer(ctx context.Context, cfg *config.ProductService) (*ProductContainer, error) {
	base, err := newContainer(ctx, config.ProductServiceName, product.InstrumentationName, cfg.Common)
	if err != nil {
		return nil, err
	}
	c := &ProductContainer{Container: base, config: cfg}
	if err := c.setup(); err != nil {
		base.Shutdown(context.Background())
		return nil, err
	}
	return c, nil
}

func (c *ProductContainer) setup() error {
	repo := product.NewRepository(c.db.Dialect)

	applier, err := product.NewApplier(c.db, ledger.New(c.db.Dialect), repo,
		product.ApplierConfig{Timeout: c.config.ApplyTimeout},
		c.logger, c.tracer, c.meter)
	if err != nil {
		return err
	}
	c.applier = applier

	handler, err := product.NewStockAddedHandler(applier, c.logger, c.tracer, c.meter)
	if err != nil {
		return err
	}

	policy := product.RedeliveryPolicy{
		InitialInterval: c.config.RedeliveryInitialInterval,
		MaxInterval:     c.config.RedeliveryMaxInterval,
	}
	for i := range c.config.ConsumerWorkers {
		reader, err := kafka.NewReader(kafka.ReaderConfig{
			Brokers: c.config.Brokers,
			Topic:   c.config.StockAddedTopic,
			GroupID: c.config.GroupID,
		})
		if err != nil {
			return fmt.Errorf("create kafka reader %d: %w", i, err)
		}
		c.addCloser(reader.Close)
		worker := c.logger.With(zap.Int("worker", i))
		c.consumers = append(c.consumers, product.NewConsumerService(reader, handler, policy, worker))
	}

	rt := httpapi.NewRouter()
	product.NewAPI(c.db, repo, c.verifier, c.logger).Register(rt)
	c.handler = rt.Handler(config.ProductServiceName, c.logger)

	c.logger.Info("Product service wired",
		zap.Int("workers", len(c.consumers)),
		zap.String("topic", c.config.StockAddedTopic),
		zap.String("group_id", c.config.GroupID),
	)
	return nil
}

// Getters for accessing service components
func (c *ProductContainer) Applier() *product.Applier            { return c.applier }
func (c *ProductContainer) Consumers() []product.ConsumerService { return c.consumers }
func (c *ProductContainer) HTTPHandler() http.Handler            { return c.handler }
