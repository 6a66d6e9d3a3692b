package product

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/cenkalti/backoff/v4"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"warehouse/internal/platform/kafka"
	"warehouse/internal/platform/observability"
)

const commitTimeout = 5 * time.Second

var errRedeliver = errors.New("delivery not acknowledged")

// ConsumerService runs a receive loop until its context is cancelled.
type ConsumerService interface {
	Start(ctx context.Context) error
}

// RedeliveryPolicy spaces out repeated attempts at an unacknowledged delivery.
type RedeliveryPolicy struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func (p RedeliveryPolicy) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		b.MaxInterval = p.MaxInterval
	}
	// Never give up on a delivery; only cancellation stops redelivery.
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// KafkaConsumerService fetches one message at a time, hands it to the handler
// and commits its offset once the handler acknowledges it.
type KafkaConsumerService struct {
	consumer kafka.Consumer
	handler  MessageHandler
	policy   RedeliveryPolicy
	logger   observability.Logger
}

// NewConsumerService creates a consumer loop over one reader.
func NewConsumerService(consumer kafka.Consumer, handler MessageHandler, policy RedeliveryPolicy, logger observability.Logger) *KafkaConsumerService {
	return &KafkaConsumerService{
		consumer: consumer,
		handler:  handler,
		policy:   policy,
		logger:   logger,
	}
}

// Start blocks until ctx is done or the reader is closed.
func (c *KafkaConsumerService) Start(ctx context.Context) error {
	c.logger.Info("Kafka consumer started. Waiting for messages...")

	fetchBackOff := c.policy.newBackOff()
	for {
		msg, err := c.consumer.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				c.logger.Info("Context done, exiting Kafka read loop.", zap.Error(err))
				break
			}
			if errors.Is(err, io.EOF) {
				c.logger.Info("Kafka reader closed, exiting read loop.")
				break
			}
			wait := fetchBackOff.NextBackOff()
			c.logger.Error("Error reading from Kafka", zap.Error(err), zap.Duration("retry_in", wait))
			if !sleep(ctx, wait) {
				break
			}
			continue
		}
		fetchBackOff.Reset()

		if !c.deliver(ctx, msg) {
			c.logger.Info("Delivery abandoned on shutdown; it will be redelivered",
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
			)
			break
		}
		c.commit(ctx, msg)
	}

	c.logger.Info("Consumer service finished. Shutting down...")
	return nil
}

// deliver hands msg to the handler until it is acknowledged. It reports false
// when ctx ended first.
func (c *KafkaConsumerService) deliver(ctx context.Context, msg kafkago.Message) bool {
	attempt := 0
	operation := func() error {
		attempt++
		if c.handler.HandleMessage(ctx, msg) == DecisionAck {
			return nil
		}
		return errRedeliver
	}
	notify := func(_ error, wait time.Duration) {
		c.logger.Warn("Delivery not acknowledged, redelivering",
			zap.Int("attempt", attempt),
			zap.Duration("retry_in", wait),
			zap.Int("partition", msg.Partition),
			zap.Int64("offset", msg.Offset),
		)
	}
	return backoff.RetryNotify(operation, backoff.WithContext(c.policy.newBackOff(), ctx), notify) == nil
}

// commit runs even when shutdown has begun so a finished delivery is not
// handled twice after a restart. A failed commit only causes a harmless
// redelivery.
func (c *KafkaConsumerService) commit(ctx context.Context, msg kafkago.Message) {
	commitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), commitTimeout)
	defer cancel()
	if err := c.consumer.CommitMessages(commitCtx, msg); err != nil {
		c.logger.Error("Failed to commit Kafka offset",
			zap.Error(err),
			zap.Int("partition", msg.Partition),
			zap.Int64("offset", msg.Offset),
		)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
