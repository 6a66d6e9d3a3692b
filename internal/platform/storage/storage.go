// Package storage defines the transactional contract the services need from a
// relational store. Dialect adapters live in the postgres, mysql and sqlite
// subpackages.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"
)

// DBTX is implemented by both *sql.DB and *sql.Tx. Repositories take a DBTX so
// the caller owns the transaction boundary.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ DBTX = (*sql.DB)(nil)
	_ DBTX = (*sql.Tx)(nil)
)

// Dialect captures what differs between database engines.
type Dialect interface {
	Name() string
	// Rebind rewrites '?' placeholders into the engine's form.
	Rebind(query string) string
	// IsUniqueViolation reports a uniqueness constraint failure, distinct from
	// every other error.
	IsUniqueViolation(err error) bool
	// Migrations returns the embedded schema files for this engine.
	Migrations() fs.FS
}

// DB is a connection pool bound to its dialect.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// New wraps an open pool.
func New(sqlDB *sql.DB, dialect Dialect) *DB {
	return &DB{DB: sqlDB, Dialect: dialect}
}

// Close releases the pool.
func (db *DB) Close() error {
	if db == nil || db.DB == nil {
		return nil
	}
	return db.DB.Close()
}

// Ping verifies the store is reachable.
func (db *DB) Ping(ctx context.Context) error {
	if db == nil || db.DB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return db.DB.PingContext(ctx)
}

// RebindDollar converts '?' placeholders to $1..$n. Question marks inside
// single-quoted literals are left alone.
func RebindDollar(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			b.WriteByte(c)
		case c == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// ToMillis is the persisted timestamp form shared by all dialects.
func ToMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

// FromMillis restores a persisted timestamp.
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
