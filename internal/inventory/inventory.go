// Package inventory is the producer role: it records add-stock commands and
// emits one StockAdded event per accepted command.
package inventory

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrValidation wraps every rejected command.
	ErrValidation = errors.New("invalid inventory data")
	// ErrProductNotFound is returned when the product service does not know the product.
	ErrProductNotFound = errors.New("product does not exist")
	// ErrPublish is returned when the record was stored but the event could not be sent.
	ErrPublish = errors.New("publish stock added event")
	// ErrNotFound is returned for an unknown inventory record.
	ErrNotFound = errors.New("inventory record not found")
)

// MaxAddedByLength limits the recorded author name.
const MaxAddedByLength = 100

// UnknownAuthor is recorded when the token carries neither name nor subject.
const UnknownAuthor = "Unknown"

// Record is one accepted add-stock command.
type Record struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"productId"`
	Quantity  int64     `json:"quantity"`
	AddedAt   time.Time `json:"addedAt"`
	AddedBy   string    `json:"addedBy"`
}

// NewRecord builds a record stamped with now.
func NewRecord(productID uuid.UUID, quantity int64, addedBy string, now time.Time) Record {
	addedBy = strings.TrimSpace(addedBy)
	if addedBy == "" {
		addedBy = UnknownAuthor
	}
	return Record{
		ID:        uuid.New(),
		ProductID: productID,
		Quantity:  quantity,
		AddedAt:   now.UTC(),
		AddedBy:   addedBy,
	}
}

// Validate checks the record against now.
func (r Record) Validate(now time.Time) error {
	var problems []string
	if r.ProductID == uuid.Nil {
		problems = append(problems, "productId is required")
	}
	if r.Quantity <= 0 {
		problems = append(problems, "quantity must be greater than zero")
	}
	if strings.TrimSpace(r.AddedBy) == "" {
		problems = append(problems, "addedBy cannot be empty")
	} else if len([]rune(r.AddedBy)) > MaxAddedByLength {
		problems = append(problems, fmt.Sprintf("addedBy must be at most %d characters", MaxAddedByLength))
	}
	if r.AddedAt.After(now) {
		problems = append(problems, "addedAt cannot be in the future")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrValidation, strings.Join(problems, "; "))
	}
	return nil
}
