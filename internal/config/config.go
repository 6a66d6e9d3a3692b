// Package config loads environment-specific configuration for both services.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Service configuration constants
const (
	ProductServiceName   = "product-service"
	InventoryServiceName = "inventory-service"
	ServiceVersion       = "0.1.0"
)

// Kafka configuration constants
const (
	BatchTimeout   = 10 * time.Millisecond
	BatchSize      = 100
	ReaderMinBytes = 1
	ReaderMaxBytes = 10e6
)

// OpenTelemetry configuration constants
const (
	LogsPath       = "/otlp/v1/logs"
	TracesPath     = "/otlp/v1/traces"
	MetricsPath    = "/otlp/v1/metrics"
	ExportTimeout  = 30 * time.Second
	MaxQueueSize   = 2048
	MetricInterval = 15 * time.Second
)

// Supported DB_DRIVER values.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

// Telemetry configures the OTLP exporters. An empty endpoint keeps the no-op
// providers.
type Telemetry struct {
	Endpoint   string `env:"OTEL_ENDPOINT"`
	AuthHeader string `env:"OTEL_AUTH_HEADER"`
	Insecure   bool   `env:"OTEL_INSECURE" envDefault:"false"`
}

// Enabled reports whether exporters should be installed.
func (t Telemetry) Enabled() bool { return strings.TrimSpace(t.Endpoint) != "" }

// Headers returns the exporter headers.
func (t Telemetry) Headers() map[string]string {
	if t.AuthHeader == "" {
		return nil
	}
	return map[string]string{"Authorization": t.AuthHeader}
}

// Database selects the state store.
type Database struct {
	Driver string `env:"DB_DRIVER" envDefault:"sqlite"`
	DSN    string `env:"DB_DSN" envDefault:"data/warehouse.db"`
}

// Kafka holds broker settings shared by producer and consumer.
type Kafka struct {
	Brokers         []string `env:"KAFKA_BROKERS" envSeparator:"," envDefault:"localhost:9092"`
	StockAddedTopic string   `env:"KAFKA_STOCK_ADDED_TOPIC" envDefault:"inventory.stock-added"`
}

// JWT holds token validation settings.
type JWT struct {
	Secret   string `env:"JWT_SECRET,required,notEmpty"`
	Issuer   string `env:"JWT_ISSUER" envDefault:"warehouse"`
	Audience string `env:"JWT_AUDIENCE" envDefault:"warehouse-api"`
}

// Common is embedded by every service configuration.
type Common struct {
	Telemetry
	Database
	Kafka
	JWT
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
}

// ProductService configures the consumer host.
type ProductService struct {
	Common
	HTTPAddr                  string        `env:"HTTP_ADDR" envDefault:":8081"`
	GroupID                   string        `env:"KAFKA_GROUP_ID" envDefault:"product-service-group"`
	ConsumerWorkers           int           `env:"CONSUMER_WORKERS" envDefault:"2"`
	ApplyTimeout              time.Duration `env:"APPLY_TIMEOUT" envDefault:"5s"`
	RedeliveryInitialInterval time.Duration `env:"REDELIVERY_INITIAL_INTERVAL" envDefault:"200ms"`
	RedeliveryMaxInterval     time.Duration `env:"REDELIVERY_MAX_INTERVAL" envDefault:"30s"`
}

// InventoryService configures the producer host.
type InventoryService struct {
	Common
	HTTPAddr             string        `env:"HTTP_ADDR" envDefault:":8080"`
	ProductServiceURL    string        `env:"PRODUCT_SERVICE_URL" envDefault:"http://localhost:8081"`
	ProductClientTimeout time.Duration `env:"PRODUCT_CLIENT_TIMEOUT" envDefault:"30s"`
}

// LoadProductService loads and validates the product service configuration.
func LoadProductService() (*ProductService, error) {
	cfg := &ProductService{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadInventoryService loads and validates the inventory service configuration.
func LoadInventoryService() (*InventoryService, error) {
	cfg := &InventoryService{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDatabase loads only the database settings.
func LoadDatabase() (Database, error) {
	var cfg Database
	if err := env.Parse(&cfg); err != nil {
		return Database{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// LoadJWT loads only the token settings.
func LoadJWT() (JWT, error) {
	var cfg JWT
	if err := env.Parse(&cfg); err != nil {
		return JWT{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate checks the shared settings.
func (c Common) Validate() error {
	switch c.Driver {
	case DriverPostgres, DriverMySQL, DriverSQLite:
	default:
		return fmt.Errorf("DB_DRIVER %q is not supported", c.Driver)
	}
	if strings.TrimSpace(c.DSN) == "" {
		return fmt.Errorf("DB_DSN cannot be empty")
	}
	if len(c.Brokers) == 0 || strings.TrimSpace(c.Brokers[0]) == "" {
		return fmt.Errorf("KAFKA_BROKERS cannot be empty")
	}
	if strings.TrimSpace(c.StockAddedTopic) == "" {
		return fmt.Errorf("KAFKA_STOCK_ADDED_TOPIC cannot be empty")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}

// Validate checks the product service settings.
func (c ProductService) Validate() error {
	if err := c.Common.Validate(); err != nil {
		return err
	}
	if c.ConsumerWorkers < 1 {
		return fmt.Errorf("CONSUMER_WORKERS must be at least 1")
	}
	if c.ApplyTimeout <= 0 {
		return fmt.Errorf("APPLY_TIMEOUT must be positive")
	}
	if c.RedeliveryInitialInterval <= 0 || c.RedeliveryMaxInterval < c.RedeliveryInitialInterval {
		return fmt.Errorf("redelivery intervals are invalid")
	}
	if strings.TrimSpace(c.GroupID) == "" {
		return fmt.Errorf("KAFKA_GROUP_ID cannot be empty")
	}
	return nil
}

// Validate checks the inventory service settings.
func (c InventoryService) Validate() error {
	if err := c.Common.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.ProductServiceURL) == "" {
		return fmt.Errorf("PRODUCT_SERVICE_URL cannot be empty")
	}
	if c.ProductClientTimeout <= 0 {
		return fmt.Errorf("PRODUCT_CLIENT_TIMEOUT must be positive")
	}
	return nil
}
