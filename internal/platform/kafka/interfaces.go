package kafka

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// Producer publishes messages.
type Producer interface {
	WriteMessage(ctx context.Context, msg kafka.Message) error
	Close() error
}

// Consumer fetches messages without committing them. Offsets advance only
// through CommitMessages, which is how an acknowledgement is expressed.
type Consumer interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

var _ Consumer = (*kafka.Reader)(nil)
