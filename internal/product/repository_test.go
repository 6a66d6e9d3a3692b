package product

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warehouse/internal/platform/storage"
	"warehouse/internal/platform/storage/storagetest"
)

func seedProduct(t *testing.T, db *storage.DB, name string) Product {
	t.Helper()
	p, err := NewProduct(name, "", decimal.RequireFromString("12.50"), time.Now())
	require.NoError(t, err)
	require.NoError(t, NewRepository(db.Dialect).Insert(context.Background(), db, p))
	return p
}

func TestRepository_InsertGetList(t *testing.T) {
	db := storagetest.Open(t)
	repo := NewRepository(db.Dialect)
	ctx := context.Background()

	a := seedProduct(t, db, "alpha")
	b := seedProduct(t, db, "beta")

	got, err := repo.GetByID(ctx, db, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
	assert.Equal(t, "alpha", got.Name)
	assert.True(t, a.Price.Equal(got.Price))
	assert.Equal(t, int64(0), got.Amount)

	list, err := repo.List(ctx, db)
	require.NoError(t, err)
	require.Len(t, list, 2)
	ids := []uuid.UUID{list[0].ID, list[1].ID}
	assert.ElementsMatch(t, []uuid.UUID{a.ID, b.ID}, ids)
}

func TestRepository_GetMissing(t *testing.T) {
	db := storagetest.Open(t)

	_, err := NewRepository(db.Dialect).GetByID(context.Background(), db, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_IncrementAmount(t *testing.T) {
	db := storagetest.Open(t)
	repo := NewRepository(db.Dialect)
	ctx := context.Background()
	p := seedProduct(t, db, "gamma")
	at := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	found, err := repo.IncrementAmount(ctx, db, p.ID, 7, at)
	require.NoError(t, err)
	assert.True(t, found)

	found, err = repo.IncrementAmount(ctx, db, p.ID, -2, at)
	require.NoError(t, err)
	assert.True(t, found)

	got, err := repo.GetByID(ctx, db, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.Amount)
	assert.True(t, at.Equal(got.UpdatedAt))

	found, err = repo.IncrementAmount(ctx, db, uuid.New(), 1, at)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRepository_Amount(t *testing.T) {
	db := storagetest.Open(t)
	repo := NewRepository(db.Dialect)
	ctx := context.Background()
	p := seedProduct(t, db, "delta")

	_, err := repo.IncrementAmount(ctx, db, p.ID, 12, time.Now())
	require.NoError(t, err)

	amount, found, err := repo.Amount(ctx, db, p.ID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(12), amount)

	_, found, err = repo.Amount(ctx, db, uuid.New())
	require.NoError(t, err)
	assert.False(t, found)
}
