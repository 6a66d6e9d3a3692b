package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"warehouse/internal/events"
	"warehouse/internal/platform/auth"
	"warehouse/internal/platform/observability"
	"warehouse/internal/platform/storage"
)

// InstrumentationName scopes the tracer and meter of this package.
const InstrumentationName = "warehouse/internal/inventory"

// RecordStore persists inventory records.
type RecordStore interface {
	Insert(ctx context.Context, q storage.DBTX, rec Record) error
	GetByID(ctx context.Context, q storage.DBTX, id uuid.UUID) (Record, error)
}

var _ RecordStore = (*Repository)(nil)

// AddStockCommand is one request to add stock for a product.
type AddStockCommand struct {
	ProductID uuid.UUID
	Quantity  int64
	Principal auth.Principal
}

// Service handles add-stock commands.
type Service struct {
	db        *storage.DB
	store     RecordStore
	products  ProductChecker
	publisher EventPublisher
	logger    observability.Logger
	tracer    observability.Tracer
	added     metric.Int64Counter
	now       func() time.Time
}

// NewService wires the inventory service.
func NewService(db *storage.DB, store RecordStore, products ProductChecker, publisher EventPublisher, logger observability.Logger, tracer observability.Tracer, meter metric.Meter) (*Service, error) {
	added, err := meter.Int64Counter("inventory.stock.added",
		metric.WithDescription("Accepted add-stock commands"),
		metric.WithUnit("{command}"))
	if err != nil {
		return nil, fmt.Errorf("create inventory.stock.added counter: %w", err)
	}
	return &Service{
		db:        db,
		store:     store,
		products:  products,
		publisher: publisher,
		logger:    logger,
		tracer:    tracer,
		added:     added,
		now:       time.Now,
	}, nil
}

// AddStock validates cmd, checks the product exists, stores the record and
// publishes exactly one StockAdded event with a fresh event id.
func (s *Service) AddStock(ctx context.Context, cmd AddStockCommand) (Record, error) {
	ctx, span := s.tracer.Start(ctx, "inventory.add_stock",
		trace.WithAttributes(
			attribute.String("product.id", cmd.ProductID.String()),
			attribute.Int64("inventory.quantity", cmd.Quantity),
		),
	)
	defer span.End()

	rec := NewRecord(cmd.ProductID, cmd.Quantity, cmd.Principal.DisplayName(), s.now())
	if err := rec.Validate(s.now().UTC()); err != nil {
		s.logger.Warn("Rejected inventory command", zap.Error(err), zap.String("product_id", cmd.ProductID.String()))
		span.SetStatus(codes.Error, "validation failed")
		return Record{}, err
	}

	if !s.products.ProductExists(ctx, rec.ProductID, cmd.Principal.Token) {
		s.logger.Warn("Product does not exist", zap.String("product_id", rec.ProductID.String()))
		span.SetStatus(codes.Error, "product not found")
		return Record{}, fmt.Errorf("%w: %s", ErrProductNotFound, rec.ProductID)
	}

	if err := s.store.Insert(ctx, s.db, rec); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return Record{}, err
	}
	s.logger.Info("Inventory added",
		zap.String("inventory_id", rec.ID.String()),
		zap.String("product_id", rec.ProductID.String()),
		zap.Int64("quantity", rec.Quantity),
	)

	event := events.NewStockAdded(rec.ProductID, rec.Quantity, rec.AddedAt)
	if err := s.publisher.PublishStockAdded(ctx, event); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "publish failed")
		return rec, fmt.Errorf("%w: %w", ErrPublish, err)
	}
	s.logger.Info("Published StockAdded event",
		zap.String("event_id", event.EventID.String()),
		zap.String("product_id", event.TargetID.String()),
		zap.Int64("delta", event.Delta),
	)

	s.added.Add(ctx, 1)
	span.SetAttributes(attribute.String("event.id", event.EventID.String()))
	span.SetStatus(codes.Ok, "stock added")
	return rec, nil
}

// Get loads a stored record.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Record, error) {
	return s.store.GetByID(ctx, s.db, id)
}
