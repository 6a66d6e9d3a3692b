package mysql

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsUniqueViolation(t *testing.T) {
	dup := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'x' for key 'ux_processed_events_event_id'"}
	assert.True(t, IsUniqueViolation(dup))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", dup)))

	deadlock := &mysql.MySQLError{Number: 1213, Message: "Deadlock found when trying to get lock"}
	assert.False(t, IsUniqueViolation(deadlock))
	assert.False(t, IsUniqueViolation(errors.New("bad connection")))
	assert.False(t, IsUniqueViolation(nil))
}

func TestDialect_Rebind(t *testing.T) {
	q := "UPDATE products SET amount = amount + ? WHERE id = ?"
	assert.Equal(t, q, Dialect{}.Rebind(q))
}

func TestDialect_Migrations(t *testing.T) {
	files, err := fs.Glob(Dialect{}.Migrations(), "*.sql")
	require.NoError(t, err)
	assert.Len(t, files, 3)
}

func TestOpen_InvalidDSN(t *testing.T) {
	_, err := Open(t.Context(), "not a dsn")
	assert.Error(t, err)
}

func TestParseConfig_CountsMatchedRows(t *testing.T) {
	cfg, err := parseConfig("app:secret@tcp(localhost:3306)/warehouse?parseTime=true")
	require.NoError(t, err)
	assert.True(t, cfg.ClientFoundRows)
	assert.Equal(t, "warehouse", cfg.DBName)

	_, err = parseConfig("  ")
	assert.Error(t, err)
}
