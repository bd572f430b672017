package kafka

import (
	"context"
	"encoding/json"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/turtacn/SymbioLink/internal/domain/symbiosis"
	"github.com/turtacn/SymbioLink/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SymbioLink/pkg/errors"
)

const (
	EventAnalysisCompleted = "analysis.completed"
	EventAnalysisRequested = "analysis.requested"
	SourceService          = "symbiolink"
	SchemaVersion          = "v1"

	// topConnectionLimit bounds the connections embedded in an event.
	topConnectionLimit = 20
)

// ---------------------------------------------------------------------------
// Envelope
// ---------------------------------------------------------------------------

// EventEnvelope wraps every published payload.
type EventEnvelope struct {
	EventID       string            `json:"event_id"`
	EventType     string            `json:"event_type"`
	Source        string            `json:"source"`
	Timestamp     time.Time         `json:"timestamp"`
	SchemaVersion string            `json:"schema_version"`
	TraceID       string            `json:"trace_id,omitempty"`
	Payload       json.RawMessage   `json:"payload"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// NewEventEnvelope encodes payload into a fresh envelope.
func NewEventEnvelope(eventType string, payload interface{}) (*EventEnvelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal payload")
	}
	return &EventEnvelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		Source:        SourceService,
		Timestamp:     time.Now().UTC(),
		SchemaVersion: SchemaVersion,
		Payload:       data,
	}, nil
}

// DecodePayload unmarshals the payload into target.
func (e *EventEnvelope) DecodePayload(target interface{}) error {
	if len(e.Payload) == 0 || string(e.Payload) == "null" {
		return errors.New(errors.ErrCodeSerialization, "envelope has no payload")
	}
	if err := json.Unmarshal(e.Payload, target); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode payload")
	}
	return nil
}

// ToMessage renders the envelope as a message keyed by key.
func (e *EventEnvelope) ToMessage(topic string, key string) (Message, error) {
	val, err := json.Marshal(e)
	if err != nil {
		return Message{}, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal envelope")
	}
	headers := map[string]string{
		"event_type":     e.EventType,
		"source_service": e.Source,
		"schema_version": e.SchemaVersion,
	}
	if e.TraceID != "" {
		headers["trace_id"] = e.TraceID
	}
	return Message{
		Topic:     topic,
		Key:       []byte(key),
		Value:     val,
		Headers:   headers,
		Timestamp: e.Timestamp,
	}, nil
}

// DecodeEnvelope parses a message value.
func DecodeEnvelope(value []byte) (*EventEnvelope, error) {
	if len(value) == 0 {
		return nil, errors.NewValidationError("value", "empty message value")
	}
	var env EventEnvelope
	if err := json.Unmarshal(value, &env); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to unmarshal envelope")
	}
	return &env, nil
}

// ---------------------------------------------------------------------------
// analysis.completed
// ---------------------------------------------------------------------------

// ConnectionSummary is a connection without its match detail.
type ConnectionSummary struct {
	ProducerID string  `json:"producer_id"`
	ConsumerID string  `json:"consumer_id"`
	Material   string  `json:"material"`
	MatchType  string  `json:"match_type"`
	Confidence float64 `json:"confidence"`
	HopCount   int     `json:"hop_count"`
}

// AnalysisCompletedPayload summarizes a finished run.
type AnalysisCompletedPayload struct {
	RunID             string              `json:"run_id"`
	EntityCount       int                 `json:"entity_count"`
	Rejected          int                 `json:"rejected"`
	Connections       int                 `json:"connections"`
	Chains            int                 `json:"chains"`
	Partial           bool                `json:"partial"`
	AverageConfidence float64             `json:"average_confidence"`
	NetworkEfficiency float64             `json:"network_efficiency"`
	ByMatchType       map[string]int      `json:"by_match_type,omitempty"`
	TopConnections    []ConnectionSummary `json:"top_connections"`
	StartedAt         time.Time           `json:"started_at"`
	DurationMs        int64               `json:"duration_ms"`
}

// NewAnalysisCompletedPayload builds the event body for res.
func NewAnalysisCompletedPayload(res *symbiosis.Result) AnalysisCompletedPayload {
	p := AnalysisCompletedPayload{
		RunID:             res.RunID,
		EntityCount:       res.EntityCount,
		Rejected:          len(res.Rejected),
		Connections:       len(res.Connections),
		Chains:            len(res.Chains),
		Partial:           res.Partial,
		AverageConfidence: res.Stats.AverageConfidence,
		NetworkEfficiency: res.Stats.NetworkEfficiency,
		ByMatchType:       res.Stats.ByMatchType,
		StartedAt:         res.StartedAt,
		DurationMs:        res.Duration.Milliseconds(),
	}
	n := min(len(res.Connections), topConnectionLimit)
	p.TopConnections = make([]ConnectionSummary, 0, n)
	for i := 0; i < n; i++ {
		c := &res.Connections[i]
		p.TopConnections = append(p.TopConnections, ConnectionSummary{
			ProducerID: c.ProducerID,
			ConsumerID: c.ConsumerID,
			Material:   c.Material,
			MatchType:  string(c.MatchType()),
			Confidence: c.Confidence,
			HopCount:   c.HopCount,
		})
	}
	return p
}

// Publisher sends analysis events to one topic.
type Publisher interface {
	Publish(ctx context.Context, msgs ...Message) error
}

// AnalysisPublisher announces finished analyses.
type AnalysisPublisher struct {
	producer Publisher
	topic    string
	logger   logging.Logger
}

// NewAnalysisPublisher publishes to topic through producer.
func NewAnalysisPublisher(producer Publisher, topic string, logger logging.Logger) *AnalysisPublisher {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &AnalysisPublisher{producer: producer, topic: topic, logger: logger.Named("events")}
}

// PublishAnalysisCompleted emits one event keyed by the run id.
func (p *AnalysisPublisher) PublishAnalysisCompleted(ctx context.Context, res *symbiosis.Result) error {
	if res == nil {
		return errors.InvalidParam("result is required")
	}
	env, err := NewEventEnvelope(EventAnalysisCompleted, NewAnalysisCompletedPayload(res))
	if err != nil {
		return err
	}
	if id := logging.RequestIDFromContext(ctx); id != "" {
		env.TraceID = id
	}
	msg, err := env.ToMessage(p.topic, res.RunID)
	if err != nil {
		return err
	}
	if err := p.producer.Publish(ctx, msg); err != nil {
		return err
	}
	p.logger.Debug("analysis event published",
		logging.String("run_id", res.RunID),
		logging.String("event_id", env.EventID))
	return nil
}

// ---------------------------------------------------------------------------
// analysis.requested
// ---------------------------------------------------------------------------

// NewAnalysisRequestMessage wraps request as an analysis.requested event for
// topic, keyed by the event id. It returns the message and that id.
func NewAnalysisRequestMessage(topic string, request interface{}, traceID string) (Message, string, error) {
	env, err := NewEventEnvelope(EventAnalysisRequested, request)
	if err != nil {
		return Message{}, "", err
	}
	env.TraceID = traceID
	msg, err := env.ToMessage(topic, env.EventID)
	if err != nil {
		return Message{}, "", err
	}
	return msg, env.EventID, nil
}

// DecodeAnalysisRequest unpacks an analysis.requested message into target
// and returns its envelope. Any other event type is a validation error.
func DecodeAnalysisRequest(msg Message, target interface{}) (*EventEnvelope, error) {
	env, err := DecodeEnvelope(msg.Value)
	if err != nil {
		return nil, err
	}
	if env.EventType != EventAnalysisRequested {
		return env, errors.NewValidationError("event_type",
			"expected "+EventAnalysisRequested+", got "+strconv.Quote(env.EventType))
	}
	if err := env.DecodePayload(target); err != nil {
		return env, err
	}
	return env, nil
}

// ---------------------------------------------------------------------------
// Topic management
// ---------------------------------------------------------------------------

// TopicSpec describes a topic to create.
type TopicSpec struct {
	Name              string
	NumPartitions     int
	ReplicationFactor int
	RetentionMs       int64
}

// ConnInterface abstracts kafka.Conn for testing.
type ConnInterface interface {
	CreateTopics(topics ...kafka.TopicConfig) error
	ReadPartitions(topics ...string) ([]kafka.Partition, error)
	Close() error
}

// TopicManager creates topics through the cluster controller.
type TopicManager struct {
	conn   ConnInterface
	logger logging.Logger
}

// NewTopicManager connects to the controller of the cluster behind brokers.
func NewTopicManager(ctx context.Context, brokers []string, logger logging.Logger) (*TopicManager, error) {
	if len(brokers) == 0 {
		return nil, errors.NewValidationError("brokers", "at least one broker is required")
	}
	conn, err := kafka.DialContext(ctx, "tcp", brokers[0])
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeMessagingError, "failed to dial kafka")
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeMessagingError, "failed to find kafka controller")
	}
	ctrl, err := kafka.DialContext(ctx, "tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeMessagingError, "failed to dial kafka controller")
	}
	return NewTopicManagerWithConn(ctrl, logger), nil
}

// NewTopicManagerWithConn wraps an existing connection.
func NewTopicManagerWithConn(conn ConnInterface, logger logging.Logger) *TopicManager {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &TopicManager{conn: conn, logger: logger.Named("topics")}
}

// EnsureTopic creates spec unless it already exists.
func (m *TopicManager) EnsureTopic(ctx context.Context, spec TopicSpec) error {
	if spec.Name == "" {
		return errors.NewValidationError("name", "topic name required")
	}
	if spec.NumPartitions <= 0 || spec.ReplicationFactor <= 0 {
		return errors.NewValidationError("partitions", "partitions and replication must be > 0")
	}
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeTimeout, "ensure topic cancelled")
	}
	if exists, _ := m.TopicExists(spec.Name); exists {
		return nil
	}

	cfg := kafka.TopicConfig{
		Topic:             spec.Name,
		NumPartitions:     spec.NumPartitions,
		ReplicationFactor: spec.ReplicationFactor,
	}
	if spec.RetentionMs > 0 {
		cfg.ConfigEntries = append(cfg.ConfigEntries, kafka.ConfigEntry{
			ConfigName:  "retention.ms",
			ConfigValue: strconv.FormatInt(spec.RetentionMs, 10),
		})
	}
	if err := m.conn.CreateTopics(cfg); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "already exists") {
			return nil
		}
		return errors.Wrap(err, errors.ErrCodeMessagingError, "failed to create topic")
	}
	m.logger.Info("topic created", logging.String("topic", spec.Name), logging.Int("partitions", spec.NumPartitions))
	return nil
}

// TopicExists reports whether name has partitions.
func (m *TopicManager) TopicExists(name string) (bool, error) {
	partitions, err := m.conn.ReadPartitions(name)
	if err != nil {
		return false, err
	}
	return len(partitions) > 0, nil
}

// Close releases the controller connection.
func (m *TopicManager) Close() error {
	return m.conn.Close()
}

// AnalysisTopic is the default spec for the analysis event topic.
func AnalysisTopic(name string, partitions, replication int) TopicSpec {
	return TopicSpec{
		Name:              name,
		NumPartitions:     partitions,
		ReplicationFactor: replication,
		RetentionMs:       int64(7 * 24 * time.Hour / time.Millisecond),
	}
}
