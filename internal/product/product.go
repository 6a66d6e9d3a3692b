// Package product owns the product entity and everything that mutates its
// stock amount: the atomic delta application, the StockAdded consumer and the
// product HTTP API.
package product

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a product id has no row.
var ErrNotFound = errors.New("product not found")

// ErrInvalidProduct is returned for rejected create requests.
var ErrInvalidProduct = errors.New("invalid product")

// Field limits for new products.
const (
	MaxNameLength        = 200
	MaxDescriptionLength = 1000
)

// Product is a stocked item. Amount changes only through ApplyDelta.
type Product struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Amount      int64           `json:"amount"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// NewProduct validates the input and returns a product with amount 0.
func NewProduct(name, description string, price decimal.Decimal, now time.Time) (Product, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return Product{}, fmt.Errorf("%w: name is required", ErrInvalidProduct)
	case len([]rune(name)) > MaxNameLength:
		return Product{}, fmt.Errorf("%w: name must be at most %d characters", ErrInvalidProduct, MaxNameLength)
	case len([]rune(description)) > MaxDescriptionLength:
		return Product{}, fmt.Errorf("%w: description must be at most %d characters", ErrInvalidProduct, MaxDescriptionLength)
	case !price.IsPositive():
		return Product{}, fmt.Errorf("%w: price must be greater than 0", ErrInvalidProduct)
	}

	now = now.UTC()
	return Product{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		Price:       price,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}
