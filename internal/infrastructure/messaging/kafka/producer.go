// Package kafka publishes SymbioLink analysis events with segmentio/kafka-go.
package kafka

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/SymbioLink/internal/config"
	"github.com/turtacn/SymbioLink/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SymbioLink/pkg/errors"
)

var ErrProducerClosed = errors.New(errors.ErrCodeServiceUnavailable, "producer closed")

// MaxMessageBytes bounds a single event value.
const MaxMessageBytes = 1 << 20

// Message is one record to publish or one record consumed. Partition and
// Offset are only set on consumed messages.
type Message struct {
	Topic     string
	Partition int
	Offset    int64
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}

// ProducerStats is a snapshot of producer counters.
type ProducerStats struct {
	MessagesSent   int64
	MessagesFailed int64
	BytesSent      int64
}

// WriterInterface abstracts kafka.Writer for testing.
type WriterInterface interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer writes messages through a single kafka.Writer.
type Producer struct {
	writer WriterInterface
	logger logging.Logger
	closed atomic.Bool

	sent   atomic.Int64
	failed atomic.Int64
	bytes  atomic.Int64
}

// NewProducer builds a writer for cfg.Brokers. Messages pick their topic.
func NewProducer(cfg config.KafkaConfig, logger logging.Logger) (*Producer, error) {
	if err := ValidateProducerConfig(cfg); err != nil {
		return nil, err
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		MaxAttempts:  cfg.MaxAttempts,
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
		Transport: &kafka.Transport{
			ClientID:    cfg.ClientID,
			DialTimeout: 10 * time.Second,
		},
	}
	return NewProducerWithWriter(writer, logger), nil
}

// NewProducerWithWriter wraps an existing writer.
func NewProducerWithWriter(w WriterInterface, logger logging.Logger) *Producer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Producer{writer: w, logger: logger.Named("kafka")}
}

// Publish writes msgs in one call. All messages need a topic and a non-empty
// value no larger than MaxMessageBytes.
func (p *Producer) Publish(ctx context.Context, msgs ...Message) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}
	if len(msgs) == 0 {
		return nil
	}

	out := make([]kafka.Message, len(msgs))
	var size int64
	for i, m := range msgs {
		if m.Topic == "" {
			return errors.NewValidationError("topic", "topic required")
		}
		if len(m.Value) == 0 {
			return errors.NewValidationError("value", "value required")
		}
		if len(m.Value) > MaxMessageBytes {
			return errors.Newf(errors.ErrCodeValidation, "message of %d bytes exceeds %d", len(m.Value), MaxMessageBytes)
		}
		out[i] = toKafkaMessage(m)
		size += int64(len(m.Value))
	}

	start := time.Now()
	if err := p.writer.WriteMessages(ctx, out...); err != nil {
		p.failed.Add(int64(len(msgs)))
		return errors.Wrap(err, errors.ErrCodeMessagingError, "publish failed")
	}
	p.sent.Add(int64(len(msgs)))
	p.bytes.Add(size)

	p.logger.Debug("messages published",
		logging.String("topic", msgs[0].Topic),
		logging.Int("count", len(msgs)),
		logging.Duration("latency", time.Since(start)))
	return nil
}

// Stats returns the producer counters.
func (p *Producer) Stats() ProducerStats {
	return ProducerStats{
		MessagesSent:   p.sent.Load(),
		MessagesFailed: p.failed.Load(),
		BytesSent:      p.bytes.Load(),
	}
}

// Close flushes and closes the writer. Later calls are no-ops.
func (p *Producer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := p.writer.Close()
	p.logger.Info("kafka producer closed", logging.Int64("sent", p.sent.Load()))
	return err
}

func toKafkaMessage(m Message) kafka.Message {
	headers := make([]kafka.Header, 0, len(m.Headers))
	for k, v := range m.Headers {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	ts := m.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return kafka.Message{
		Topic:   m.Topic,
		Key:     m.Key,
		Value:   m.Value,
		Headers: headers,
		Time:    ts,
	}
}

// ValidateProducerConfig checks the settings NewProducer depends on.
func ValidateProducerConfig(cfg config.KafkaConfig) error {
	if len(cfg.Brokers) == 0 {
		return errors.NewValidationError("brokers", "at least one broker is required")
	}
	if cfg.MaxAttempts < 0 {
		return errors.NewValidationError("max_attempts", "max_attempts must be >= 0")
	}
	switch cfg.RequiredAcks {
	case -1, 0, 1:
	default:
		return errors.NewValidationError("required_acks", "required_acks must be -1, 0 or 1")
	}
	return nil
}
