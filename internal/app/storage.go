package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"warehouse/internal/config"
	"warehouse/internal/platform/storage"
	"warehouse/internal/platform/storage/mysql"
	"warehouse/internal/platform/storage/postgres"
	"warehouse/internal/platform/storage/sqlite"
)

// OpenStorage opens the configured store and applies migrations.
func OpenStorage(ctx context.Context, cfg config.Database) (*storage.DB, error) {
	db, err := openDriver(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := storage.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate %s: %w", cfg.Driver, err)
	}
	return db, nil
}

func openDriver(ctx context.Context, cfg config.Database) (*storage.DB, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return postgres.Open(ctx, cfg.DSN)
	case config.DriverMySQL:
		return mysql.Open(ctx, cfg.DSN)
	case config.DriverSQLite:
		path, _, _ := strings.Cut(cfg.DSN, "?")
		if dir := filepath.Dir(path); dir != "." && !strings.HasPrefix(path, "file:") {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite directory: %w", err)
			}
		}
		return sqlite.Open(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
