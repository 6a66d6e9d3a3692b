package product

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"warehouse/internal/events"
)

type fakeConsumer struct {
	mu        sync.Mutex
	messages  []kafkago.Message
	fetchErrs []error
	committed []kafkago.Message
	commitErr error
	drained   chan struct{}
	once      sync.Once
}

func newFakeConsumer(msgs ...kafkago.Message) *fakeConsumer {
	return &fakeConsumer{messages: msgs, drained: make(chan struct{})}
}

func (c *fakeConsumer) FetchMessage(ctx context.Context) (kafkago.Message, error) {
	c.mu.Lock()
	if len(c.fetchErrs) > 0 {
		err := c.fetchErrs[0]
		c.fetchErrs = c.fetchErrs[1:]
		c.mu.Unlock()
		return kafkago.Message{}, err
	}
	if len(c.messages) > 0 {
		msg := c.messages[0]
		c.messages = c.messages[1:]
		c.mu.Unlock()
		return msg, nil
	}
	c.mu.Unlock()
	c.once.Do(func() { close(c.drained) })
	<-ctx.Done()
	return kafkago.Message{}, ctx.Err()
}

func (c *fakeConsumer) CommitMessages(_ context.Context, msgs ...kafkago.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.commitErr != nil {
		return c.commitErr
	}
	c.committed = append(c.committed, msgs...)
	return nil
}

func (c *fakeConsumer) Close() error { return nil }

func (c *fakeConsumer) committedOffsets() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	offsets := make([]int64, 0, len(c.committed))
	for _, m := range c.committed {
		offsets = append(offsets, m.Offset)
	}
	return offsets
}

// scriptedHandler returns decisions in order, then DecisionAck.
type scriptedHandler struct {
	mu        sync.Mutex
	decisions []Decision
	calls     []int64
}

func (h *scriptedHandler) HandleMessage(_ context.Context, msg kafkago.Message) Decision {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, msg.Offset)
	if len(h.decisions) == 0 {
		return DecisionAck
	}
	d := h.decisions[0]
	h.decisions = h.decisions[1:]
	return d
}

func (h *scriptedHandler) callOffsets() []int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]int64(nil), h.calls...)
}

var fastPolicy = RedeliveryPolicy{InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond}

func runUntilDrained(t *testing.T, svc *KafkaConsumerService, consumer *fakeConsumer) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Start(ctx) }()

	select {
	case <-consumer.drained:
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not drain")
	}
	cancel()
	require.NoError(t, <-done)
}

func TestConsumerService_CommitsAcknowledged(t *testing.T) {
	consumer := newFakeConsumer(kafkago.Message{Offset: 1}, kafkago.Message{Offset: 2})
	handler := &scriptedHandler{}
	svc := NewConsumerService(consumer, handler, fastPolicy, zap.NewNop())

	runUntilDrained(t, svc, consumer)

	assert.Equal(t, []int64{1, 2}, handler.callOffsets())
	assert.Equal(t, []int64{1, 2}, consumer.committedOffsets())
}

func TestConsumerService_RedeliversUntilAck(t *testing.T) {
	consumer := newFakeConsumer(kafkago.Message{Offset: 7}, kafkago.Message{Offset: 8})
	handler := &scriptedHandler{decisions: []Decision{DecisionRetry, DecisionRetry, DecisionAck}}
	svc := NewConsumerService(consumer, handler, fastPolicy, zap.NewNop())

	runUntilDrained(t, svc, consumer)

	assert.Equal(t, []int64{7, 7, 7, 8}, handler.callOffsets())
	assert.Equal(t, []int64{7, 8}, consumer.committedOffsets())
}

func TestConsumerService_CancelledDeliveryIsNotCommitted(t *testing.T) {
	consumer := newFakeConsumer(kafkago.Message{Offset: 3})
	retrying := make(chan struct{})
	var once sync.Once
	handler := messageHandlerFunc(func(context.Context, kafkago.Message) Decision {
		once.Do(func() { close(retrying) })
		return DecisionRetry
	})
	svc := NewConsumerService(consumer, handler, fastPolicy, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Start(ctx) }()

	<-retrying
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not stop")
	}
	assert.Empty(t, consumer.committedOffsets())
}

func TestConsumerService_SurvivesFetchAndCommitErrors(t *testing.T) {
	consumer := newFakeConsumer(kafkago.Message{Offset: 1})
	consumer.fetchErrs = []error{errors.New("broker unavailable")}
	consumer.commitErr = errors.New("rebalance in progress")
	handler := &scriptedHandler{}
	svc := NewConsumerService(consumer, handler, fastPolicy, zap.NewNop())

	runUntilDrained(t, svc, consumer)

	assert.Equal(t, []int64{1}, handler.callOffsets())
	assert.Empty(t, consumer.committedOffsets())
}

func TestConsumerService_StopsWhenReaderClosed(t *testing.T) {
	consumer := newFakeConsumer()
	consumer.fetchErrs = []error{io.EOF}
	svc := NewConsumerService(consumer, &scriptedHandler{}, fastPolicy, zap.NewNop())

	assert.NoError(t, svc.Start(context.Background()))
}

type messageHandlerFunc func(ctx context.Context, msg kafkago.Message) Decision

func (f messageHandlerFunc) HandleMessage(ctx context.Context, msg kafkago.Message) Decision {
	return f(ctx, msg)
}

func TestConsumerService_DuplicateDeliveriesApplyOnce(t *testing.T) {
	f := newFixture(t)
	p := seedProduct(t, f.db, "widget")
	h, _ := newTestHandler(t, f.applier)

	e1 := events.NewStockAdded(p.ID, 50, time.Now())
	payload, err := e1.Encode()
	require.NoError(t, err)

	var msgs []kafkago.Message
	for i := range 3 {
		msgs = append(msgs, kafkago.Message{Offset: int64(i), Value: payload})
	}
	consumer := newFakeConsumer(msgs...)
	svc := NewConsumerService(consumer, h, fastPolicy, zap.NewNop())

	runUntilDrained(t, svc, consumer)

	assert.Equal(t, int64(50), f.amount(t, p.ID))
	assert.Equal(t, 1, f.entries(t))
	assert.Equal(t, []int64{0, 1, 2}, consumer.committedOffsets())
}
