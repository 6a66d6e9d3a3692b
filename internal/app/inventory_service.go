package app

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"warehouse/internal/config"
	"warehouse/internal/inventory"
	"warehouse/internal/platform/httpapi"
	"warehouse/internal/platform/kafka"
)

// InventoryContainer wires the inventory service: the StockAdded producer and
// the inventory API.
type InventoryContainer struct {
	*Container
	config   *config.InventoryService
	producer kafka.Producer
	service  *inventory.Service
	handler  http.Handler
}

// NewInventoryContainer creates every component of the inventory service.
func NewInventoryContainer(ctx context.Context, cfg *config.InventoryService) (*InventoryContainer, error) {
	base, err := newContainer(ctx, config.InventoryServiceName, inventory.InstrumentationName, cfg.Common)
	if err != nil {
		return nil, err
	}
	c := &InventoryContainer{Container: base, config: cfg}
	if err := c.setup(); err != nil {
		base.Shutdown(context.Background())
		return nil, err
	}
	return c, nil
}

func (c *InventoryContainer) setup() error {
	producer, err := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  c.config.Brokers,
		Topic:    c.config.StockAddedTopic,
		ClientID: config.InventoryServiceName,
	}, otel.GetTracerProvider())
	if err != nil {
		return err
	}
	c.producer = producer
	c.addCloser(producer.Close)

	products, err := inventory.NewProductClient(c.config.ProductServiceURL, c.config.ProductClientTimeout, c.logger)
	if err != nil {
		return err
	}

	service, err := inventory.NewService(c.db, inventory.NewRepository(c.db.Dialect), products,
		inventory.NewKafkaPublisher(producer), c.logger, c.tracer, c.meter)
	if err != nil {
		return err
	}
	c.service = service

	rt := httpapi.NewRouter()
	inventory.NewAPI(c.db, service, c.verifier, c.logger).Register(rt)
	c.handler = rt.Handler(config.InventoryServiceName, c.logger)

	c.logger.Info("Inventory service wired",
		zap.String("topic", c.config.StockAddedTopic),
		zap.String("product_service_url", c.config.ProductServiceURL),
	)
	return nil
}

// Getters for accessing service components
func (c *InventoryContainer) Service() *inventory.Service     { return c.service }
func (c *InventoryContainer) MessageProducer() kafka.Producer { return c.producer }
func (c *InventoryContainer) HTTPHandler() http.Handler       { return c.handler }
