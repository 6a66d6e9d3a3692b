package storage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warehouse/internal/platform/storage"
	"warehouse/internal/platform/storage/storagetest"
)

func TestMigrate_CreatesSchema(t *testing.T) {
	db := storagetest.Open(t)
	ctx := context.Background()

	for _, table := range []string{"products", "processed_events", "inventories", "schema_migrations"} {
		var name string
		err := db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	db := storagetest.Open(t)
	ctx := context.Background()

	require.NoError(t, storage.Migrate(ctx, db))
	require.NoError(t, storage.Migrate(ctx, db))

	var count int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 3, count)
}

func TestMigrate_NilDB(t *testing.T) {
	assert.Error(t, storage.Migrate(context.Background(), nil))
}

func TestExtractUpMigration(t *testing.T) {
	content := "-- +migrate Up\nCREATE TABLE a (id INT);\n-- +migrate Down\nDROP TABLE a;\n"
	up := storage.ExtractUpMigration(content)
	assert.Contains(t, up, "CREATE TABLE a")
	assert.NotContains(t, up, "DROP TABLE")

	assert.Equal(t, "SELECT 1", storage.ExtractUpMigration("SELECT 1"))
}

func TestRebindDollar(t *testing.T) {
	got := storage.RebindDollar("UPDATE products SET amount = amount + ?, name = '?' WHERE id = ?")
	assert.Equal(t, "UPDATE products SET amount = amount + $1, name = '?' WHERE id = $2", got)
}
