// Package ledger records which event identities have already produced their
// effect. An entry exists for an event id exactly when its delta has been
// applied, because entries are only inserted inside the same unit of work that
// applies the delta.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"warehouse/internal/platform/storage"
)

// ErrEntryNotFound is returned by Get for an unknown event id.
var ErrEntryNotFound = errors.New("ledger entry not found")

// RecordResult is the outcome of TryRecord.
type RecordResult int

const (
	// Recorded means this call inserted the entry.
	Recorded RecordResult = iota + 1
	// AlreadyExists means the uniqueness constraint rejected the insert.
	AlreadyExists
)

func (r RecordResult) String() string {
	switch r {
	case Recorded:
		return "recorded"
	case AlreadyExists:
		return "already_exists"
	default:
		return "unknown"
	}
}

// Entry is one applied event identity.
type Entry struct {
	ID          uuid.UUID
	EventID     uuid.UUID
	ProcessedAt time.Time
}

// Ledger reads and writes processed_events through whatever DBTX the caller
// passes in. It holds no connection or transaction state of its own.
type Ledger struct {
	dialect storage.Dialect
}

// New creates a ledger for the given dialect.
func New(dialect storage.Dialect) *Ledger {
	return &Ledger{dialect: dialect}
}

// IsApplied is a point-in-time membership check. Outside a unit of work it is
// only a hint: a concurrent applier may record the same id right after.
func (l *Ledger) IsApplied(ctx context.Context, q storage.DBTX, eventID uuid.UUID) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx,
		l.dialect.Rebind(`SELECT 1 FROM processed_events WHERE event_id = ?`),
		eventID.String(),
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check processed event: %w", err)
	}
	return true, nil
}

// TryRecord inserts the entry for eventID. A uniqueness violation is reported as
// AlreadyExists with a nil error. On PostgreSQL the violation aborts the
// surrounding transaction, so callers must roll back after AlreadyExists.
func (l *Ledger) TryRecord(ctx context.Context, q storage.DBTX, eventID uuid.UUID, at time.Time) (RecordResult, error) {
	_, err := q.ExecContext(ctx,
		l.dialect.Rebind(`INSERT INTO processed_events (id, event_id, processed_at) VALUES (?, ?, ?)`),
		uuid.New().String(),
		eventID.String(),
		storage.ToMillis(at),
	)
	if err != nil {
		if l.dialect.IsUniqueViolation(err) {
			return AlreadyExists, nil
		}
		return 0, fmt.Errorf("insert processed event: %w", err)
	}
	return Recorded, nil
}

// Get loads the entry for eventID.
func (l *Ledger) Get(ctx context.Context, q storage.DBTX, eventID uuid.UUID) (Entry, error) {
	var (
		entry       Entry
		processedAt int64
	)
	err := q.QueryRowContext(ctx,
		l.dialect.Rebind(`SELECT id, event_id, processed_at FROM processed_events WHERE event_id = ?`),
		eventID.String(),
	).Scan(&entry.ID, &entry.EventID, &processedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrEntryNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("get processed event: %w", err)
	}
	entry.ProcessedAt = storage.FromMillis(processedAt)
	return entry, nil
}

// Count returns the number of recorded entries.
func (l *Ledger) Count(ctx context.Context, q storage.DBTX) (int, error) {
	var n int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM processed_events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count processed events: %w", err)
	}
	return n, nil
}
