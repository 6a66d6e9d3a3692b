package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"warehouse/internal/platform/storage"
)

// Repository stores inventory records.
type Repository struct {
	dialect storage.Dialect
}

// NewRepository creates a repository for the given dialect.
func NewRepository(dialect storage.Dialect) *Repository {
	return &Repository{dialect: dialect}
}

// Insert stores r.
func (r *Repository) Insert(ctx context.Context, q storage.DBTX, rec Record) error {
	_, err := q.ExecContext(ctx,
		r.dialect.Rebind(`INSERT INTO inventories (id, product_id, quantity, added_at, added_by) VALUES (?, ?, ?, ?, ?)`),
		rec.ID.String(),
		rec.ProductID.String(),
		rec.Quantity,
		storage.ToMillis(rec.AddedAt),
		rec.AddedBy,
	)
	if err != nil {
		return fmt.Errorf("insert inventory: %w", err)
	}
	return nil
}

// GetByID loads one record.
func (r *Repository) GetByID(ctx context.Context, q storage.DBTX, id uuid.UUID) (Record, error) {
	var (
		rec     Record
		addedAt int64
	)
	err := q.QueryRowContext(ctx,
		r.dialect.Rebind(`SELECT id, product_id, quantity, added_at, added_by FROM inventories WHERE id = ?`),
		id.String(),
	).Scan(&rec.ID, &rec.ProductID, &rec.Quantity, &addedAt, &rec.AddedBy)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("get inventory: %w", err)
	}
	rec.AddedAt = storage.FromMillis(addedAt)
	return rec, nil
}
