// Package events holds the integration events exchanged between the inventory
// and product services.
package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// StockAddedType is written into the kafka "event-type" header.
const StockAddedType = "inventory.stock_added"

// ErrMalformedEvent marks a delivery that can never be applied. It is not retryable.
var ErrMalformedEvent = errors.New("malformed event")

// StockAdded is emitted once per accepted add-stock command. EventID is the
// idempotency key on the consumer side; OccurredAt is informational only.
type StockAdded struct {
	EventID    uuid.UUID `json:"eventId"`
	TargetID   uuid.UUID `json:"targetId"`
	Delta      int64     `json:"delta"`
	OccurredAt time.Time `json:"occurredAt"`
}

// NewStockAdded builds an event with a fresh identity.
func NewStockAdded(targetID uuid.UUID, delta int64, occurredAt time.Time) StockAdded {
	return StockAdded{
		EventID:    uuid.New(),
		TargetID:   targetID,
		Delta:      delta,
		OccurredAt: occurredAt.UTC(),
	}
}

// Validate reports ErrMalformedEvent when an identity is missing.
// Delta is signed and may be zero or negative.
func (e StockAdded) Validate() error {
	if e.EventID == uuid.Nil {
		return fmt.Errorf("%w: eventId is required", ErrMalformedEvent)
	}
	if e.TargetID == uuid.Nil {
		return fmt.Errorf("%w: targetId is required", ErrMalformedEvent)
	}
	return nil
}

// Encode serializes the event to its JSON wire form.
func (e StockAdded) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeStockAdded parses and validates a wire payload. Every failure wraps
// ErrMalformedEvent.
func DecodeStockAdded(payload []byte) (StockAdded, error) {
	var e StockAdded
	if err := json.Unmarshal(payload, &e); err != nil {
		return StockAdded{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if err := e.Validate(); err != nil {
		return StockAdded{}, err
	}
	return e, nil
}
