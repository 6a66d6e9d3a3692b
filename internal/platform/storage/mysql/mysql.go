// Package mysql is the MySQL adapter for the state store.
package mysql

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/go-sql-driver/mysql"

	"warehouse/internal/platform/storage"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// DriverName is the database/sql driver registered by go-sql-driver/mysql.
const DriverName = "mysql"

// ER_DUP_ENTRY
const duplicateEntry = 1062

// Dialect implements storage.Dialect for MySQL (InnoDB).
type Dialect struct{}

var _ storage.Dialect = Dialect{}

// Name implements storage.Dialect.
func (Dialect) Name() string { return "mysql" }

// Rebind implements storage.Dialect. MySQL accepts '?' as is.
func (Dialect) Rebind(query string) string { return query }

// IsUniqueViolation implements storage.Dialect.
func (Dialect) IsUniqueViolation(err error) bool { return IsUniqueViolation(err) }

// Migrations implements storage.Dialect.
func (Dialect) Migrations() fs.FS {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		panic(fmt.Sprintf("mysql migrations: %v", err))
	}
	return sub
}

// IsUniqueViolation checks if an error is a MySQL duplicate entry error.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == duplicateEntry
	}
	return strings.Contains(err.Error(), "Duplicate entry")
}

// Open connects to MySQL. The DSN follows go-sql-driver/mysql syntax.
func Open(ctx context.Context, dsn string) (*storage.DB, error) {
	cfg, err := parseConfig(dsn)
	if err != nil {
		return nil, err
	}
	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("open mysql db: %w", err)
	}
	sqlDB := sql.OpenDB(connector)
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping mysql db: %w", err)
	}
	return storage.New(sqlDB, Dialect{}), nil
}

// parseConfig parses dsn and enables ClientFoundRows so RowsAffected counts
// matched rows. Without it a no-op increment looks like a missing product.
func parseConfig(dsn string) (*mysql.Config, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("mysql dsn is required")
	}
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ClientFoundRows = true
	return cfg, nil
}
