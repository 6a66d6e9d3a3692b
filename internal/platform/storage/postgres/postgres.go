// Package postgres is the PostgreSQL adapter for the state store.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/lib/pq"

	"warehouse/internal/platform/storage"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// DriverName is the database/sql driver registered by lib/pq.
const DriverName = "postgres"

const uniqueViolation = pq.ErrorCode("23505")

// Dialect implements storage.Dialect for PostgreSQL.
type Dialect struct{}

var _ storage.Dialect = Dialect{}

// Name implements storage.Dialect.
func (Dialect) Name() string { return "postgres" }

// Rebind implements storage.Dialect.
func (Dialect) Rebind(query string) string { return storage.RebindDollar(query) }

// IsUniqueViolation implements storage.Dialect.
func (Dialect) IsUniqueViolation(err error) bool { return IsUniqueViolation(err) }

// Migrations implements storage.Dialect.
func (Dialect) Migrations() fs.FS {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		panic(fmt.Sprintf("postgres migrations: %v", err))
	}
	return sub
}

// IsUniqueViolation checks if an error is a PostgreSQL unique_violation (23505).
// A violation raised at COMMIT by a deferred constraint carries the same code.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value violates unique constraint")
}

// Open connects to PostgreSQL using a lib/pq connection string or URL.
func Open(ctx context.Context, dsn string) (*storage.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	sqlDB, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres db: %w", err)
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping postgres db: %w", err)
	}
	return storage.New(sqlDB, Dialect{}), nil
}
