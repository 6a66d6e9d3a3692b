package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warehouse/internal/ledger"
	"warehouse/internal/platform/storage/storagetest"
)

func TestLedger_TryRecordThenIsApplied(t *testing.T) {
	db := storagetest.Open(t)
	l := ledger.New(db.Dialect)
	ctx := context.Background()
	eventID := uuid.New()

	applied, err := l.IsApplied(ctx, db, eventID)
	require.NoError(t, err)
	assert.False(t, applied)

	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	res, err := l.TryRecord(ctx, db, eventID, at)
	require.NoError(t, err)
	assert.Equal(t, ledger.Recorded, res)

	applied, err = l.IsApplied(ctx, db, eventID)
	require.NoError(t, err)
	assert.True(t, applied)

	entry, err := l.Get(ctx, db, eventID)
	require.NoError(t, err)
	assert.Equal(t, eventID, entry.EventID)
	assert.NotEqual(t, uuid.Nil, entry.ID)
	assert.True(t, at.Equal(entry.ProcessedAt))
}

func TestLedger_TryRecordDuplicate(t *testing.T) {
	db := storagetest.Open(t)
	l := ledger.New(db.Dialect)
	ctx := context.Background()
	eventID := uuid.New()

	res, err := l.TryRecord(ctx, db, eventID, time.Now())
	require.NoError(t, err)
	require.Equal(t, ledger.Recorded, res)

	res, err = l.TryRecord(ctx, db, eventID, time.Now())
	require.NoError(t, err, "a duplicate is a result, not an error")
	assert.Equal(t, ledger.AlreadyExists, res)

	n, err := l.Count(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestLedger_InsideRolledBackTransaction(t *testing.T) {
	db := storagetest.Open(t)
	l := ledger.New(db.Dialect)
	ctx := context.Background()
	eventID := uuid.New()

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	res, err := l.TryRecord(ctx, tx, eventID, time.Now())
	require.NoError(t, err)
	require.Equal(t, ledger.Recorded, res)
	require.NoError(t, tx.Rollback())

	applied, err := l.IsApplied(ctx, db, eventID)
	require.NoError(t, err)
	assert.False(t, applied, "rolled back entries must not exist")
}

func TestLedger_GetUnknown(t *testing.T) {
	db := storagetest.Open(t)
	l := ledger.New(db.Dialect)

	_, err := l.Get(context.Background(), db, uuid.New())
	assert.ErrorIs(t, err, ledger.ErrEntryNotFound)
}

func TestRecordResult_String(t *testing.T) {
	assert.Equal(t, "recorded", ledger.Recorded.String())
	assert.Equal(t, "already_exists", ledger.AlreadyExists.String())
	assert.Equal(t, "unknown", ledger.RecordResult(0).String())
}
