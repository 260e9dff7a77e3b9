package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"rentals/pkg/logger"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
	failures int
	attempts int
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.attempts++
	if w.err != nil {
		return w.err
	}
	if w.failures > 0 {
		w.failures--
		return errors.New("broker unavailable")
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func (w *fakeWriter) written() []kafka.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]kafka.Message(nil), w.messages...)
}

type fakeReader struct {
	mu        sync.Mutex
	pending   []kafka.Message
	committed []kafka.Message
	drained   chan struct{}
	once      sync.Once
}

func newFakeReader(msgs ...kafka.Message) *fakeReader {
	return &fakeReader{pending: msgs, drained: make(chan struct{})}
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.pending) > 0 {
		msg := r.pending[0]
		r.pending = r.pending[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	if len(r.pending) == 0 {
		r.once.Do(func() { close(r.drained) })
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func (r *fakeReader) commits() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.committed)
}

func (w *fakeWriter) writeAttempts() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.attempts
}

func header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestMessageBuilder(t *testing.T) {
	msg, err := NewMessage().
		WithKey("product-1").
		WithValue(map[string]string{"hello": "world"}).
		WithEventType("booking.created").
		WithSource("bookings").
		Build()
	require.NoError(t, err)

	assert.Equal(t, "product-1", msg.Key)
	assert.JSONEq(t, `{"hello":"world"}`, string(msg.Value))
	assert.NotEmpty(t, msg.GetEventID())
	assert.Equal(t, "booking.created", msg.GetEventType())
	assert.NotEmpty(t, msg.Headers[HeaderTimestamp])

	_, err = NewMessage().WithKey("k").WithValue(make(chan int)).Build()
	assert.ErrorIs(t, err, ErrInvalidMessage)
}

func TestMessage_RetryCount(t *testing.T) {
	msg := Message{Headers: map[string]string{}}
	assert.Equal(t, 0, msg.GetRetryCount())
	for range 12 {
		msg.IncrementRetryCount()
	}
	assert.Equal(t, 12, msg.GetRetryCount())
}

func TestClassifyError(t *testing.T) {
	assert.Equal(t, ErrorTypeUnknown, ClassifyError(nil))
	assert.Equal(t, ErrorTypeTransient, ClassifyError(NewTransientError("gateway", errors.New("503"))))
	assert.Equal(t, ErrorTypePermanent, ClassifyError(NewPermanentError("gateway", errors.New("400"))))
	assert.Equal(t, ErrorTypeTransient, ClassifyError(context.DeadlineExceeded))
	assert.Equal(t, ErrorTypeTransient, ClassifyError(errors.New("dial tcp: Connection Refused")))
	assert.Equal(t, ErrorTypePermanent, ClassifyError(errors.New("something odd")))

	assert.True(t, ShouldRetry(context.DeadlineExceeded, 0, 3))
	assert.False(t, ShouldRetry(context.DeadlineExceeded, 3, 3))
	assert.False(t, ShouldRetry(errors.New("bad payload"), 0, 3))
}

func TestProducer_PublishRunsMiddlewareInOrder(t *testing.T) {
	writer := &fakeWriter{}
	p := newProducer(writer, nil, "rentals.bookings", "", logger.Discard())

	var order []string
	p.Use(func(ctx context.Context, msg Message, next func(context.Context, Message) error) error {
		order = append(order, "first")
		return next(ctx, msg)
	})
	p.Use(func(ctx context.Context, msg Message, next func(context.Context, Message) error) error {
		order = append(order, "second")
		return next(ctx, msg)
	})

	msg, err := NewMessage().WithKey("product-1").WithValue("x").Build()
	require.NoError(t, err)
	require.NoError(t, p.Publish(context.Background(), msg))

	assert.Equal(t, []string{"first", "second"}, order)
	require.Len(t, writer.written(), 1)
	assert.Equal(t, "product-1", string(writer.written()[0].Key))
}

func TestProducer_RejectsInvalidMessages(t *testing.T) {
	p := newProducer(&fakeWriter{}, nil, "t", "", logger.Discard())

	assert.ErrorIs(t, p.Publish(context.Background(), Message{Value: []byte("x")}), ErrEmptyKey)
	assert.ErrorIs(t, p.Publish(context.Background(), Message{Key: "k"}), ErrEmptyValue)

	require.NoError(t, p.Close())
	assert.ErrorIs(t, p.Publish(context.Background(), Message{Key: "k", Value: []byte("x")}), ErrProducerClosed)
}

func TestProducer_FailedWriteGoesToDLQ(t *testing.T) {
	writeErr := errors.New("broker unavailable")
	writer := &fakeWriter{err: writeErr}
	dlq := &fakeWriter{}
	p := newProducer(writer, dlq, "rentals.bookings", "rentals.bookings.dlq", logger.Discard())

	msg, err := NewMessage().WithKey("product-1").WithValue("x").Build()
	require.NoError(t, err)

	err = p.Publish(context.Background(), msg)
	assert.ErrorIs(t, err, writeErr)
	require.Len(t, dlq.written(), 1)
	assert.Equal(t, "rentals.bookings", header(dlq.written()[0], HeaderOriginalTopic))
	assert.Equal(t, "broker unavailable", header(dlq.written()[0], HeaderDLQError))
	assert.Empty(t, msg.Headers[HeaderDLQError], "caller's message must not be mutated")
}

func TestConsumer_RetriesTransientThenCommits(t *testing.T) {
	reader := newFakeReader(kafka.Message{Key: []byte("k"), Value: []byte(`{}`), Offset: 1})
	dlq := &fakeWriter{}

	var mu sync.Mutex
	calls := 0
	handler := func(ctx context.Context, msg Message) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls < 3 {
			return NewTransientError("gateway busy", errors.New("503"))
		}
		return nil
	}

	c := newConsumer(reader, dlq, "rentals.bookings", "group", "rentals.bookings.dlq", handler, logger.Discard())
	c.retryBackoff = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()

	select {
	case <-reader.drained:
	case <-time.After(2 * time.Second):
		t.Fatal("message was never committed")
	}
	cancel()
	<-done

	mu.Lock()
	assert.Equal(t, 3, calls)
	mu.Unlock()
	assert.Empty(t, dlq.written())
	assert.Len(t, reader.committed, 1)
}

func TestConsumer_PermanentErrorGoesToDLQ(t *testing.T) {
	reader := newFakeReader(kafka.Message{Key: []byte("k"), Value: []byte(`{}`), Offset: 7})
	dlq := &fakeWriter{}

	calls := 0
	handler := func(ctx context.Context, msg Message) error {
		calls++
		return NewPermanentError("unknown recipient", errors.New("400"))
	}

	c := newConsumer(reader, dlq, "rentals.bookings", "rentals-notifier", "rentals.bookings.dlq", handler, logger.Discard())
	c.retryBackoff = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()

	select {
	case <-reader.drained:
	case <-time.After(2 * time.Second):
		t.Fatal("message was never committed")
	}
	cancel()
	<-done

	assert.Equal(t, 1, calls)
	require.Len(t, dlq.written(), 1)
	assert.Equal(t, "rentals-notifier", header(dlq.written()[0], "dlq-consumer-group"))
}

func TestConsumer_RetriesDLQWriteBeforeCommit(t *testing.T) {
	reader := newFakeReader(kafka.Message{Key: []byte("k"), Value: []byte(`{}`), Offset: 3})
	dlq := &fakeWriter{failures: 2}

	handler := func(ctx context.Context, msg Message) error {
		return NewPermanentError("malformed event", errors.New("bad json"))
	}

	c := newConsumer(reader, dlq, "rentals.bookings", "group", "rentals.bookings.dlq", handler, logger.Discard())
	c.retryBackoff = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()

	select {
	case <-reader.drained:
	case <-time.After(2 * time.Second):
		t.Fatal("message was never committed")
	}
	cancel()
	<-done

	assert.Equal(t, 3, dlq.writeAttempts())
	assert.Len(t, dlq.written(), 1)
	assert.Equal(t, 1, reader.commits())
}

func TestConsumer_DoesNotCommitWhenDLQIsDown(t *testing.T) {
	reader := newFakeReader(kafka.Message{Key: []byte("k"), Value: []byte(`{}`), Offset: 4})
	dlq := &fakeWriter{err: errors.New("broker unavailable")}

	handler := func(ctx context.Context, msg Message) error {
		return NewPermanentError("malformed event", errors.New("bad json"))
	}

	c := newConsumer(reader, dlq, "rentals.bookings", "group", "rentals.bookings.dlq", handler, logger.Discard())
	c.retryBackoff = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()

	require.Eventually(t, func() bool { return dlq.writeAttempts() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Empty(t, dlq.written())
	assert.Equal(t, 0, reader.commits())
}
