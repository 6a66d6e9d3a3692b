package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"warehouse/internal/platform/storage"
)

// Repository reads and writes the products table through a caller-supplied
// DBTX.
type Repository struct {
	dialect storage.Dialect
}

// NewRepository creates a repository for the given dialect.
func NewRepository(dialect storage.Dialect) *Repository {
	return &Repository{dialect: dialect}
}

const productColumns = `id, name, description, price, amount, created_at, updated_at`

// Insert stores a new product.
func (r *Repository) Insert(ctx context.Context, q storage.DBTX, p Product) error {
	_, err := q.ExecContext(ctx,
		r.dialect.Rebind(`INSERT INTO products (`+productColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`),
		p.ID.String(),
		p.Name,
		p.Description,
		p.Price.StringFixed(2),
		p.Amount,
		storage.ToMillis(p.CreatedAt),
		storage.ToMillis(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID loads one product.
func (r *Repository) GetByID(ctx context.Context, q storage.DBTX, id uuid.UUID) (Product, error) {
	row := q.QueryRowContext(ctx,
		r.dialect.Rebind(`SELECT `+productColumns+` FROM products WHERE id = ?`),
		id.String(),
	)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	if err != nil {
		return Product{}, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// List returns every product ordered by creation time.
func (r *Repository) List(ctx context.Context, q storage.DBTX) ([]Product, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// Amount reads the stored amount. It reports false when no row matches id.
func (r *Repository) Amount(ctx context.Context, q storage.DBTX, id uuid.UUID) (int64, bool, error) {
	var amount int64
	err := q.QueryRowContext(ctx,
		r.dialect.Rebind(`SELECT amount FROM products WHERE id = ?`),
		id.String(),
	).Scan(&amount)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read amount: %w", err)
	}
	return amount, true, nil
}

// IncrementAmount adds delta to the stored amount in a single statement and
// refreshes updated_at. It reports false when no row matches id.
func (r *Repository) IncrementAmount(ctx context.Context, q storage.DBTX, id uuid.UUID, delta int64, at time.Time) (bool, error) {
	res, err := q.ExecContext(ctx,
		r.dialect.Rebind(`UPDATE products SET amount = amount + ?, updated_at = ? WHERE id = ?`),
		delta,
		storage.ToMillis(at),
		id.String(),
	)
	if err != nil {
		return false, fmt.Errorf("increment amount: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("increment amount rows affected: %w", err)
	}
	return n > 0, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(s scanner) (Product, error) {
	var (
		p                    Product
		price                string
		createdAt, updatedAt int64
	)
	if err := s.Scan(&p.ID, &p.Name, &p.Description, &price, &p.Amount, &createdAt, &updatedAt); err != nil {
		return Product{}, err
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return Product{}, fmt.Errorf("parse price %q: %w", price, err)
	}
	p.Price = d
	p.CreatedAt = storage.FromMillis(createdAt)
	p.UpdatedAt = storage.FromMillis(updatedAt)
	return p, nil
}
