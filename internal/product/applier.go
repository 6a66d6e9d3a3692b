package product

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"warehouse/internal/ledger"
	"warehouse/internal/platform/observability"
	"warehouse/internal/platform/storage"
)

// ErrTransientStore marks a failed unit of work that left nothing applied. The
// event stays unprocessed and may be delivered again.
var ErrTransientStore = errors.New("transient store failure")

// DefaultApplyTimeout bounds one unit of work when ApplierConfig.Timeout is
// zero.
const DefaultApplyTimeout = 5 * time.Second

// Outcome is the non-error result of ApplyDelta.
type Outcome int

const (
	// OutcomeApplied means this call changed the amount and recorded the event.
	OutcomeApplied Outcome = iota + 1
	// OutcomeAlreadyProcessed means the event was recorded by an earlier delivery.
	OutcomeAlreadyProcessed
	// OutcomeTargetNotFound means no product matches the target id.
	OutcomeTargetNotFound
	// OutcomeAmountOverflow means amount + delta does not fit in an int64. The
	// event is never applied.
	OutcomeAmountOverflow
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeAlreadyProcessed:
		return "already_processed"
	case OutcomeTargetNotFound:
		return "target_not_found"
	case OutcomeAmountOverflow:
		return "amount_overflow"
	default:
		return "unknown"
	}
}

// Ledger is the part of the idempotency ledger used inside a unit of work.
type Ledger interface {
	IsApplied(ctx context.Context, q storage.DBTX, eventID uuid.UUID) (bool, error)
	TryRecord(ctx context.Context, q storage.DBTX, eventID uuid.UUID, at time.Time) (ledger.RecordResult, error)
}

// StockWriter reads and increments the stored amount.
type StockWriter interface {
	Amount(ctx context.Context, q storage.DBTX, id uuid.UUID) (int64, bool, error)
	IncrementAmount(ctx context.Context, q storage.DBTX, id uuid.UUID, delta int64, at time.Time) (bool, error)
}

var (
	_ Ledger      = (*ledger.Ledger)(nil)
	_ StockWriter = (*Repository)(nil)
)

// ApplierConfig tunes the unit of work.
type ApplierConfig struct {
	Timeout time.Duration
	Now     func() time.Time
}

// Applier applies one event's delta to one product exactly once.
type Applier struct {
	db      *storage.DB
	ledger  Ledger
	stock   StockWriter
	cfg     ApplierConfig
	logger  observability.Logger
	tracer  observability.Tracer
	metrics *applyMetrics
}

// NewApplier wires an Applier. Zero config fields take defaults.
func NewApplier(db *storage.DB, l Ledger, stock StockWriter, cfg ApplierConfig, logger observability.Logger, tracer observability.Tracer, meter metric.Meter) (*Applier, error) {
	if db == nil || l == nil || stock == nil {
		return nil, fmt.Errorf("applier needs a store, a ledger and a stock writer")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultApplyTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	m, err := newApplyMetrics(meter)
	if err != nil {
		return nil, err
	}
	return &Applier{
		db:      db,
		ledger:  l,
		stock:   stock,
		cfg:     cfg,
		logger:  logger,
		tracer:  tracer,
		metrics: m,
	}, nil
}

// IsApplied is the racy fast-path check against the pool. Correctness never
// depends on it. It is bounded by the same timeout as a unit of work.
func (a *Applier) IsApplied(ctx context.Context, eventID uuid.UUID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()
	return a.ledger.IsApplied(ctx, a.db, eventID)
}

// ApplyDelta checks the ledger, increments the amount and records the event in
// one transaction. Only failures that leave the event unapplied are returned as
// errors, always wrapping ErrTransientStore.
func (a *Applier) ApplyDelta(ctx context.Context, targetID uuid.UUID, delta int64, eventID uuid.UUID) (outcome Outcome, err error) {
	ctx, span := a.tracer.Start(ctx, "stock.apply_delta",
		trace.WithAttributes(
			attribute.String("event.id", eventID.String()),
			attribute.String("product.id", targetID.String()),
			attribute.Int64("stock.delta", delta),
		),
	)
	started := time.Now()
	defer func() {
		result := outcome.String()
		if err != nil {
			result = "transient_failure"
			span.RecordError(err)
			span.SetStatus(codes.Error, "unit of work failed")
		} else {
			span.SetStatus(codes.Ok, result)
		}
		span.SetAttributes(attribute.String("stock.outcome", result))
		a.metrics.duration.Record(ctx, float64(time.Since(started))/float64(time.Millisecond),
			metric.WithAttributes(attribute.String("outcome", result)))
		span.End()
	}()

	uowCtx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	tx, err := a.db.BeginTx(uowCtx, nil)
	if err != nil {
		return 0, transient("begin", err)
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && uowCtx.Err() == nil {
			a.logger.Debug("Rollback failed", zap.Error(rbErr), zap.String("event_id", eventID.String()))
		}
	}()

	applied, err := a.ledger.IsApplied(uowCtx, tx, eventID)
	if err != nil {
		return 0, transient("check ledger", err)
	}
	if applied {
		return OutcomeAlreadyProcessed, nil
	}

	current, found, err := a.stock.Amount(uowCtx, tx, targetID)
	if err != nil {
		return 0, transient("read amount", err)
	}
	if !found {
		return OutcomeTargetNotFound, nil
	}
	if overflows(current, delta) {
		return OutcomeAmountOverflow, nil
	}

	now := a.cfg.Now().UTC()
	found, err = a.stock.IncrementAmount(uowCtx, tx, targetID, delta, now)
	if err != nil {
		return 0, transient("increment amount", err)
	}
	if !found {
		return OutcomeTargetNotFound, nil
	}

	res, err := a.ledger.TryRecord(uowCtx, tx, eventID, now)
	if err != nil {
		return 0, transient("record event", err)
	}
	if res == ledger.AlreadyExists {
		// A concurrent delivery of the same event got there first.
		return OutcomeAlreadyProcessed, nil
	}

	committed = true
	if err := tx.Commit(); err != nil {
		if a.db.Dialect.IsUniqueViolation(err) {
			return OutcomeAlreadyProcessed, nil
		}
		return 0, transient("commit", err)
	}
	return OutcomeApplied, nil
}

func overflows(amount, delta int64) bool {
	if delta > 0 {
		return amount > math.MaxInt64-delta
	}
	return amount < math.MinInt64-delta
}

func transient(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrTransientStore, op, err)
}
