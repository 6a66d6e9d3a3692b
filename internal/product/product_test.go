package product

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProduct(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.FixedZone("CEST", 2*3600))

	p, err := NewProduct("  Widget ", "blue", decimal.RequireFromString("9.99"), now)
	require.NoError(t, err)

	assert.Equal(t, "Widget", p.Name)
	assert.Equal(t, int64(0), p.Amount)
	assert.Equal(t, time.UTC, p.CreatedAt.Location())
	assert.True(t, now.Equal(p.UpdatedAt))
	assert.NotEqual(t, uuid.Nil, p.ID)
}

func TestNewProduct_Validation(t *testing.T) {
	price := decimal.RequireFromString("1.00")
	cases := map[string]struct {
		name, description string
		price             decimal.Decimal
	}{
		"empty name":       {name: " ", price: price},
		"long name":        {name: strings.Repeat("a", MaxNameLength+1), price: price},
		"long description": {name: "a", description: strings.Repeat("d", MaxDescriptionLength+1), price: price},
		"zero price":       {name: "a", price: decimal.Zero},
		"negative price":   {name: "a", price: decimal.RequireFromString("-0.01")},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewProduct(tc.name, tc.description, tc.price, time.Now())
			assert.ErrorIs(t, err, ErrInvalidProduct)
		})
	}
}
