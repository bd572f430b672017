package kafka

import (
	"context"
	"maps"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/SymbioLink/internal/config"
	"github.com/turtacn/SymbioLink/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SymbioLink/pkg/errors"
)

var ErrAlreadyRunning = errors.New(errors.ErrCodeConflict, "consumer already running")

// Dead letter headers.
const (
	HeaderOriginalTopic = "original_topic"
	HeaderErrorMessage  = "error_message"
	HeaderErrorCode     = "error_code"
	HeaderAttempts      = "attempts"
)

const fetchErrorPause = time.Second

// Handler processes one message. An error triggers a retry unless it is
// permanent.
type Handler func(ctx context.Context, msg Message) error

// JobObserver receives the outcome of every consumed message.
type JobObserver interface {
	ObserveJob(status string, d time.Duration)
}

type nopJobObserver struct{}

func (nopJobObserver) ObserveJob(string, time.Duration) {}

// Job outcomes reported to JobObserver.
const (
	JobProcessed    = "processed"
	JobDeadLettered = "dead_lettered"
	JobDropped      = "dropped"
)

// ReaderInterface abstracts kafka.Reader for testing.
type ReaderInterface interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ConsumerStats is a snapshot of consumer counters.
type ConsumerStats struct {
	Consumed     int64
	Processed    int64
	Failed       int64
	Retried      int64
	DeadLettered int64
	Lag          int64
}

// Consumer reads one topic in a consumer group and hands each message to a
// Handler. Offsets are committed after the handler succeeds or the message
// has been dead lettered, so a crash redelivers in-flight work.
type Consumer struct {
	reader     ReaderInterface
	cfg        config.WorkerConfig
	handler    Handler
	deadLetter Publisher
	observer   JobObserver
	logger     logging.Logger

	running atomic.Bool

	consumed     atomic.Int64
	processed    atomic.Int64
	failed       atomic.Int64
	retried      atomic.Int64
	deadLettered atomic.Int64
	lag          atomic.Int64
}

// ConsumerOption configures a Consumer.
type ConsumerOption func(*Consumer)

// WithDeadLetter routes exhausted messages to cfg.DeadLetterTopic through p.
func WithDeadLetter(p Publisher) ConsumerOption {
	return func(c *Consumer) { c.deadLetter = p }
}

// WithJobObserver reports message outcomes to o.
func WithJobObserver(o JobObserver) ConsumerOption {
	return func(c *Consumer) {
		if o != nil {
			c.observer = o
		}
	}
}

// NewConsumer joins wc.GroupID on the brokers of kc and reads wc.RequestTopic.
func NewConsumer(kc config.KafkaConfig, wc config.WorkerConfig, handler Handler, logger logging.Logger, opts ...ConsumerOption) (*Consumer, error) {
	if err := ValidateConsumerConfig(kc, wc); err != nil {
		return nil, err
	}
	start := kafka.FirstOffset
	if wc.StartOffset == "latest" {
		start = kafka.LastOffset
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        kc.Brokers,
		GroupID:        wc.GroupID,
		Topic:          wc.RequestTopic,
		MinBytes:       1,
		MaxBytes:       10 * MaxMessageBytes,
		MaxWait:        time.Second,
		StartOffset:    start,
		CommitInterval: 0,
		Dialer: &kafka.Dialer{
			ClientID:  kc.ClientID,
			Timeout:   10 * time.Second,
			DualStack: true,
		},
	})
	return NewConsumerWithReader(reader, wc, handler, logger, opts...), nil
}

// NewConsumerWithReader wraps an existing reader.
func NewConsumerWithReader(r ReaderInterface, wc config.WorkerConfig, handler Handler, logger logging.Logger, opts ...ConsumerOption) *Consumer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	c := &Consumer{
		reader:   r,
		cfg:      wc,
		handler:  handler,
		observer: nopJobObserver{},
		logger:   logger.Named("consumer"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run consumes until ctx is cancelled. Cancellation is not an error.
func (c *Consumer) Run(ctx context.Context) error {
	if c.running.Swap(true) {
		return ErrAlreadyRunning
	}
	defer c.running.Store(false)

	c.logger.Info("kafka consumer started",
		logging.String("group", c.cfg.GroupID),
		logging.String("topic", c.cfg.RequestTopic))

	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("fetch failed", logging.Err(err))
			if !sleep(ctx, fetchErrorPause) {
				return nil
			}
			continue
		}

		c.consumed.Add(1)
		if m.HighWaterMark > 0 {
			c.lag.Store(m.HighWaterMark - m.Offset - 1)
		}

		if !c.handle(ctx, fromKafkaMessage(m)) {
			// Cancelled mid-flight: leave the offset for redelivery.
			return nil
		}
		if err := c.reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
			c.logger.Error("commit failed",
				logging.Int64("offset", m.Offset),
				logging.Err(err))
		}
	}
}

// handle runs the handler with retries. It returns false when ctx was
// cancelled before the message reached a final outcome.
func (c *Consumer) handle(ctx context.Context, msg Message) bool {
	start := time.Now()
	backoff := c.cfg.RetryBackoff
	var err error
	attempts := 0

	for {
		attempts++
		err = c.invoke(ctx, msg)
		if err == nil {
			c.processed.Add(1)
			c.observer.ObserveJob(JobProcessed, time.Since(start))
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		if IsPermanent(err) || attempts > c.cfg.MaxRetries {
			break
		}

		c.retried.Add(1)
		c.logger.Warn("message failed, retrying",
			logging.Int64("offset", msg.Offset),
			logging.Int("attempt", attempts),
			logging.Duration("backoff", backoff),
			logging.Err(err))
		if !sleep(ctx, backoff) {
			return false
		}
		backoff *= 2
		if c.cfg.MaxRetryBackoff > 0 && backoff > c.cfg.MaxRetryBackoff {
			backoff = c.cfg.MaxRetryBackoff
		}
	}

	c.failed.Add(1)
	c.logger.Error("message processing failed",
		logging.String("topic", msg.Topic),
		logging.Int64("offset", msg.Offset),
		logging.Int("attempts", attempts),
		logging.Err(err))

	if c.deadLetter == nil || c.cfg.DeadLetterTopic == "" {
		c.observer.ObserveJob(JobDropped, time.Since(start))
		return true
	}
	if dlErr := c.deadLetter.Publish(ctx, c.deadLetterMessage(msg, err, attempts)); dlErr != nil {
		c.logger.Error("dead letter publish failed", logging.Err(dlErr))
		c.observer.ObserveJob(JobDropped, time.Since(start))
		return true
	}
	c.deadLettered.Add(1)
	c.observer.ObserveJob(JobDeadLettered, time.Since(start))
	return true
}

func (c *Consumer) invoke(ctx context.Context, msg Message) error {
	if c.cfg.HandlerTimeout <= 0 {
		return c.handler(ctx, msg)
	}
	hctx, cancel := context.WithTimeout(ctx, c.cfg.HandlerTimeout)
	defer cancel()
	return c.handler(hctx, msg)
}

func (c *Consumer) deadLetterMessage(msg Message, cause error, attempts int) Message {
	headers := make(map[string]string, len(msg.Headers)+4)
	maps.Copy(headers, msg.Headers)
	headers[HeaderOriginalTopic] = msg.Topic
	headers[HeaderErrorMessage] = cause.Error()
	headers[HeaderErrorCode] = errors.GetCode(cause).String()
	headers[HeaderAttempts] = strconv.Itoa(attempts)
	return Message{
		Topic:   c.cfg.DeadLetterTopic,
		Key:     msg.Key,
		Value:   msg.Value,
		Headers: headers,
	}
}

// Stats returns the consumer counters.
func (c *Consumer) Stats() ConsumerStats {
	return ConsumerStats{
		Consumed:     c.consumed.Load(),
		Processed:    c.processed.Load(),
		Failed:       c.failed.Load(),
		Retried:      c.retried.Load(),
		DeadLettered: c.deadLettered.Load(),
		Lag:          c.lag.Load(),
	}
}

// Close closes the reader. Run must have returned.
func (c *Consumer) Close() error {
	err := c.reader.Close()
	c.logger.Info("kafka consumer closed", logging.Int64("consumed", c.consumed.Load()))
	return err
}

// IsPermanent reports whether retrying err cannot help: the message itself
// is malformed or describes an invalid analysis.
func IsPermanent(err error) bool {
	switch errors.GetCode(err) {
	case errors.ErrCodeValidation, errors.ErrCodeSerialization, errors.ErrCodeBadRequest,
		errors.ErrCodeInvalidEntity, errors.ErrCodeParse, errors.ErrCodeTooManyEntities:
		return true
	}
	return false
}

// ValidateConsumerConfig checks the settings NewConsumer depends on.
func ValidateConsumerConfig(kc config.KafkaConfig, wc config.WorkerConfig) error {
	if len(kc.Brokers) == 0 {
		return errors.NewValidationError("brokers", "at least one broker is required")
	}
	if wc.GroupID == "" {
		return errors.NewValidationError("group_id", "group_id is required")
	}
	if wc.RequestTopic == "" {
		return errors.NewValidationError("request_topic", "request_topic is required")
	}
	if wc.MaxRetries < 0 {
		return errors.NewValidationError("max_retries", "max_retries must be >= 0")
	}
	return nil
}

func fromKafkaMessage(m kafka.Message) Message {
	headers := make(map[string]string, len(m.Headers))
	for _, h := range m.Headers {
		headers[h.Key] = string(h.Value)
	}
	return Message{
		Topic:     m.Topic,
		Partition: m.Partition,
		Offset:    m.Offset,
		Key:       m.Key,
		Value:     m.Value,
		Headers:   headers,
		Timestamp: m.Time,
	}
}

// sleep waits d or until ctx is done, reporting whether the full wait elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
