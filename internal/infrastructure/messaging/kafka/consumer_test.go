package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/SymbioLink/internal/config"
	"github.com/turtacn/SymbioLink/internal/testutil"
	pkgerrors "github.com/turtacn/SymbioLink/pkg/errors"
)

type mockKafkaReader struct {
	msgs chan kafka.Message

	mu        sync.Mutex
	committed []kafka.Message
	closes    int
}

func newMockReader(msgs ...kafka.Message) *mockKafkaReader {
	ch := make(chan kafka.Message, len(msgs))
	for _, m := range msgs {
		ch <- m
	}
	return &mockKafkaReader{msgs: ch}
}

func (r *mockKafkaReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-r.msgs:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (r *mockKafkaReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *mockKafkaReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closes++
	return nil
}

func (r *mockKafkaReader) commits() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.committed)
}

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []Message
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, msgs ...Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msgs...)
	return nil
}

func (p *recordingPublisher) published() []Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Message(nil), p.msgs...)
}

type recordingObserver struct {
	mu       sync.Mutex
	statuses []string
}

func (o *recordingObserver) ObserveJob(status string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.statuses = append(o.statuses, status)
}

func (o *recordingObserver) all() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.statuses...)
}

func testWorkerConfig() config.WorkerConfig {
	return config.WorkerConfig{
		GroupID:         "g",
		RequestTopic:    "requests",
		DeadLetterTopic: "requests.dlq",
		StartOffset:     "earliest",
		MaxRetries:      2,
		RetryBackoff:    time.Millisecond,
		MaxRetryBackoff: 2 * time.Millisecond,
	}
}

func requestMessage(offset int64) kafka.Message {
	return kafka.Message{
		Topic:         "requests",
		Offset:        offset,
		HighWaterMark: offset + 3,
		Key:           []byte("k"),
		Value:         []byte(`{"event_type":"analysis.requested"}`),
		Headers:       []kafka.Header{{Key: "trace_id", Value: []byte("t-1")}},
	}
}

// startConsumer runs c until the returned stop function is called.
func startConsumer(t *testing.T, c *Consumer) func() {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()
	return func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("consumer did not stop")
		}
	}
}

func TestConsumer_ProcessesAndCommits(t *testing.T) {
	reader := newMockReader(requestMessage(7))
	obs := &recordingObserver{}
	var got Message
	handler := func(_ context.Context, m Message) error {
		got = m
		return nil
	}
	c := NewConsumerWithReader(reader, testWorkerConfig(), handler, testutil.NewMockLogger(), WithJobObserver(obs))

	stop := startConsumer(t, c)
	require.Eventually(t, func() bool { return reader.commits() == 1 }, time.Second, 5*time.Millisecond)
	stop()

	assert.Equal(t, int64(7), got.Offset)
	assert.Equal(t, "t-1", got.Headers["trace_id"])
	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Consumed)
	assert.Equal(t, int64(1), stats.Processed)
	assert.Equal(t, int64(2), stats.Lag)
	assert.Equal(t, []string{JobProcessed}, obs.all())
}

func TestConsumer_RetriesTransientFailures(t *testing.T) {
	reader := newMockReader(requestMessage(1))
	calls := 0
	handler := func(context.Context, Message) error {
		calls++
		if calls < 3 {
			return errors.New("broker hiccup")
		}
		return nil
	}
	dlq := &recordingPublisher{}
	c := NewConsumerWithReader(reader, testWorkerConfig(), handler, nil, WithDeadLetter(dlq))

	stop := startConsumer(t, c)
	require.Eventually(t, func() bool { return reader.commits() == 1 }, time.Second, 5*time.Millisecond)
	stop()

	assert.Equal(t, 3, calls)
	assert.Equal(t, int64(2), c.Stats().Retried)
	assert.Equal(t, int64(1), c.Stats().Processed)
	assert.Empty(t, dlq.published())
}

func TestConsumer_DeadLettersExhaustedMessages(t *testing.T) {
	reader := newMockReader(requestMessage(4))
	calls := 0
	handler := func(context.Context, Message) error {
		calls++
		return pkgerrors.New(pkgerrors.ErrCodeCacheError, "redis down")
	}
	dlq := &recordingPublisher{}
	obs := &recordingObserver{}
	c := NewConsumerWithReader(reader, testWorkerConfig(), handler, nil, WithDeadLetter(dlq), WithJobObserver(obs))

	stop := startConsumer(t, c)
	require.Eventually(t, func() bool { return reader.commits() == 1 }, time.Second, 5*time.Millisecond)
	stop()

	assert.Equal(t, 3, calls)
	msgs := dlq.published()
	require.Len(t, msgs, 1)
	dl := msgs[0]
	assert.Equal(t, "requests.dlq", dl.Topic)
	assert.Equal(t, []byte("k"), dl.Key)
	assert.Equal(t, "requests", dl.Headers[HeaderOriginalTopic])
	assert.Equal(t, "3", dl.Headers[HeaderAttempts])
	assert.Equal(t, string(pkgerrors.ErrCodeCacheError), dl.Headers[HeaderErrorCode])
	assert.Contains(t, dl.Headers[HeaderErrorMessage], "redis down")
	assert.Equal(t, "t-1", dl.Headers["trace_id"])

	assert.Equal(t, int64(1), c.Stats().Failed)
	assert.Equal(t, int64(1), c.Stats().DeadLettered)
	assert.Equal(t, []string{JobDeadLettered}, obs.all())
}

func TestConsumer_PermanentErrorsSkipRetries(t *testing.T) {
	reader := newMockReader(requestMessage(1))
	calls := 0
	handler := func(context.Context, Message) error {
		calls++
		return pkgerrors.NewValidationError("max_hops", "out of range")
	}
	dlq := &recordingPublisher{}
	c := NewConsumerWithReader(reader, testWorkerConfig(), handler, nil, WithDeadLetter(dlq))

	stop := startConsumer(t, c)
	require.Eventually(t, func() bool { return reader.commits() == 1 }, time.Second, 5*time.Millisecond)
	stop()

	assert.Equal(t, 1, calls)
	assert.Equal(t, int64(0), c.Stats().Retried)
	require.Len(t, dlq.published(), 1)
}

func TestConsumer_DropsWithoutDeadLetter(t *testing.T) {
	reader := newMockReader(requestMessage(1), requestMessage(2))
	obs := &recordingObserver{}
	handler := func(context.Context, Message) error { return pkgerrors.New(pkgerrors.ErrCodeSerialization, "bad json") }
	c := NewConsumerWithReader(reader, testWorkerConfig(), handler, nil, WithJobObserver(obs))

	stop := startConsumer(t, c)
	require.Eventually(t, func() bool { return reader.commits() == 2 }, time.Second, 5*time.Millisecond)
	stop()

	assert.Equal(t, []string{JobDropped, JobDropped}, obs.all())
}

func TestConsumer_DeadLetterFailureStillCommits(t *testing.T) {
	reader := newMockReader(requestMessage(1))
	handler := func(context.Context, Message) error { return pkgerrors.NewValidationError("x", "bad") }
	dlq := &recordingPublisher{err: errors.New("dlq unavailable")}
	c := NewConsumerWithReader(reader, testWorkerConfig(), handler, nil, WithDeadLetter(dlq))

	stop := startConsumer(t, c)
	require.Eventually(t, func() bool { return reader.commits() == 1 }, time.Second, 5*time.Millisecond)
	stop()
	assert.Equal(t, int64(0), c.Stats().DeadLettered)
}

func TestConsumer_CancelDuringRetryLeavesOffset(t *testing.T) {
	reader := newMockReader(requestMessage(1))
	cfg := testWorkerConfig()
	cfg.RetryBackoff = time.Hour
	attempted := make(chan struct{}, 1)
	handler := func(context.Context, Message) error {
		select {
		case attempted <- struct{}{}:
		default:
		}
		return errors.New("transient")
	}
	c := NewConsumerWithReader(reader, cfg, handler, nil)

	stop := startConsumer(t, c)
	<-attempted
	stop()

	assert.Zero(t, reader.commits())
	assert.Equal(t, int64(0), c.Stats().Processed)
}

func TestConsumer_HandlerTimeout(t *testing.T) {
	reader := newMockReader(requestMessage(1))
	cfg := testWorkerConfig()
	cfg.MaxRetries = 0
	cfg.HandlerTimeout = 10 * time.Millisecond
	handler := func(ctx context.Context, _ Message) error {
		<-ctx.Done()
		return ctx.Err()
	}
	dlq := &recordingPublisher{}
	c := NewConsumerWithReader(reader, cfg, handler, nil, WithDeadLetter(dlq))

	stop := startConsumer(t, c)
	require.Eventually(t, func() bool { return reader.commits() == 1 }, time.Second, 5*time.Millisecond)
	stop()

	require.Len(t, dlq.published(), 1)
	assert.Contains(t, dlq.published()[0].Headers[HeaderErrorMessage], "deadline")
}

func TestConsumer_RunTwice(t *testing.T) {
	reader := newMockReader()
	c := NewConsumerWithReader(reader, testWorkerConfig(), func(context.Context, Message) error { return nil }, nil)

	stop := startConsumer(t, c)
	require.Eventually(t, func() bool { return c.running.Load() }, time.Second, time.Millisecond)
	assert.ErrorIs(t, c.Run(context.Background()), ErrAlreadyRunning)
	stop()

	require.NoError(t, c.Close())
	assert.Equal(t, 1, reader.closes)
}

func TestIsPermanent(t *testing.T) {
	assert.True(t, IsPermanent(pkgerrors.NewValidationError("f", "bad")))
	assert.True(t, IsPermanent(pkgerrors.InvalidParam("bad")))
	assert.True(t, IsPermanent(pkgerrors.New(pkgerrors.ErrCodeTooManyEntities, "too many")))
	assert.False(t, IsPermanent(pkgerrors.New(pkgerrors.ErrCodeCacheError, "down")))
	assert.False(t, IsPermanent(errors.New("plain")))
	assert.False(t, IsPermanent(context.DeadlineExceeded))
}

func TestValidateConsumerConfig(t *testing.T) {
	kc := config.KafkaConfig{Brokers: []string{"b:9092"}}
	assert.NoError(t, ValidateConsumerConfig(kc, testWorkerConfig()))

	assert.Error(t, ValidateConsumerConfig(config.KafkaConfig{}, testWorkerConfig()))

	wc := testWorkerConfig()
	wc.GroupID = ""
	assert.True(t, pkgerrors.IsValidation(ValidateConsumerConfig(kc, wc)))

	wc = testWorkerConfig()
	wc.RequestTopic = ""
	assert.Error(t, ValidateConsumerConfig(kc, wc))

	_, err := NewConsumer(config.KafkaConfig{}, testWorkerConfig(), nil, nil)
	assert.Error(t, err)
}
