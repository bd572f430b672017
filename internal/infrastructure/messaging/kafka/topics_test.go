package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/SymbioLink/internal/domain/symbiosis"
	"github.com/turtacn/SymbioLink/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/SymbioLink/pkg/errors"
)

type mockKafkaConn struct {
	createFunc func(topics ...kafka.TopicConfig) error
	readFunc   func(topics ...string) ([]kafka.Partition, error)
	created    []kafka.TopicConfig
}

func (m *mockKafkaConn) CreateTopics(topics ...kafka.TopicConfig) error {
	m.created = append(m.created, topics...)
	if m.createFunc != nil {
		return m.createFunc(topics...)
	}
	return nil
}

func (m *mockKafkaConn) ReadPartitions(topics ...string) ([]kafka.Partition, error) {
	if m.readFunc != nil {
		return m.readFunc(topics...)
	}
	return nil, errors.New("unknown topic")
}

func (m *mockKafkaConn) Close() error { return nil }

type capturePublisher struct {
	msgs []Message
	err  error
}

func (c *capturePublisher) Publish(_ context.Context, msgs ...Message) error {
	if c.err != nil {
		return c.err
	}
	c.msgs = append(c.msgs, msgs...)
	return nil
}

func sampleResult(n int) *symbiosis.Result {
	res := &symbiosis.Result{
		RunID:       "run-42",
		EntityCount: 5,
		StartedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Duration:    1500 * time.Millisecond,
		Rejected:    []symbiosis.Rejected{{Index: 4, Reason: "missing id"}},
	}
	for i := 0; i < n; i++ {
		res.Connections = append(res.Connections, symbiosis.Connection{
			ProducerID: "A",
			ConsumerID: "B",
			Material:   "steel",
			Match:      symbiosis.DirectMatch{Term: "steel", Score: 0.98},
			Confidence: 0.9,
			HopCount:   1,
		})
	}
	res.Stats = symbiosis.Stats{AverageConfidence: 0.9, ByMatchType: map[string]int{"direct": n}}
	return res
}

func TestEventEnvelope_RoundTrip(t *testing.T) {
	env, err := NewEventEnvelope(EventAnalysisCompleted, map[string]int{"x": 1})
	require.NoError(t, err)
	assert.NotEmpty(t, env.EventID)
	assert.Equal(t, SchemaVersion, env.SchemaVersion)

	env.TraceID = "req-1"
	msg, err := env.ToMessage("topic", "key")
	require.NoError(t, err)
	assert.Equal(t, "req-1", msg.Headers["trace_id"])
	assert.Equal(t, EventAnalysisCompleted, msg.Headers["event_type"])

	back, err := DecodeEnvelope(msg.Value)
	require.NoError(t, err)
	var payload map[string]int
	require.NoError(t, back.DecodePayload(&payload))
	assert.Equal(t, 1, payload["x"])

	_, err = DecodeEnvelope(nil)
	assert.Error(t, err)
	assert.Error(t, (&EventEnvelope{}).DecodePayload(&payload))
}

func TestNewAnalysisCompletedPayload_TruncatesConnections(t *testing.T) {
	p := NewAnalysisCompletedPayload(sampleResult(30))
	assert.Equal(t, 30, p.Connections)
	assert.Len(t, p.TopConnections, topConnectionLimit)
	assert.Equal(t, "direct", p.TopConnections[0].MatchType)
	assert.Equal(t, 1, p.Rejected)
	assert.Equal(t, int64(1500), p.DurationMs)
}

func TestAnalysisPublisher_Publish(t *testing.T) {
	pub := &capturePublisher{}
	ap := NewAnalysisPublisher(pub, "symbiolink.analysis.completed", nil)

	ctx := logging.WithRequestID(context.Background(), "req-9")
	require.NoError(t, ap.PublishAnalysisCompleted(ctx, sampleResult(2)))
	require.Len(t, pub.msgs, 1)

	msg := pub.msgs[0]
	assert.Equal(t, "symbiolink.analysis.completed", msg.Topic)
	assert.Equal(t, []byte("run-42"), msg.Key)
	assert.Equal(t, "req-9", msg.Headers["trace_id"])

	env, err := DecodeEnvelope(msg.Value)
	require.NoError(t, err)
	var payload AnalysisCompletedPayload
	require.NoError(t, env.DecodePayload(&payload))
	assert.Equal(t, "run-42", payload.RunID)
	assert.Equal(t, 2, payload.Connections)
}

func TestAnalysisPublisher_Errors(t *testing.T) {
	ap := NewAnalysisPublisher(&capturePublisher{err: errors.New("down")}, "t", nil)
	assert.Error(t, ap.PublishAnalysisCompleted(context.Background(), sampleResult(1)))
	assert.Error(t, ap.PublishAnalysisCompleted(context.Background(), nil))
}

func TestTopicManager_EnsureTopic(t *testing.T) {
	conn := &mockKafkaConn{}
	m := NewTopicManagerWithConn(conn, nil)

	require.NoError(t, m.EnsureTopic(context.Background(), AnalysisTopic("events", 3, 1)))
	require.Len(t, conn.created, 1)
	assert.Equal(t, "events", conn.created[0].Topic)
	assert.Equal(t, 3, conn.created[0].NumPartitions)
	require.Len(t, conn.created[0].ConfigEntries, 1)
	assert.Equal(t, "604800000", conn.created[0].ConfigEntries[0].ConfigValue)
}

func TestTopicManager_ExistingTopic(t *testing.T) {
	conn := &mockKafkaConn{readFunc: func(...string) ([]kafka.Partition, error) {
		return []kafka.Partition{{Topic: "events", ID: 0}}, nil
	}}
	m := NewTopicManagerWithConn(conn, nil)

	require.NoError(t, m.EnsureTopic(context.Background(), AnalysisTopic("events", 3, 1)))
	assert.Empty(t, conn.created)
}

func TestTopicManager_CreateErrors(t *testing.T) {
	conn := &mockKafkaConn{createFunc: func(...kafka.TopicConfig) error {
		return errors.New("Topic with this name already exists")
	}}
	m := NewTopicManagerWithConn(conn, nil)
	assert.NoError(t, m.EnsureTopic(context.Background(), AnalysisTopic("events", 3, 1)))

	conn.createFunc = func(...kafka.TopicConfig) error { return errors.New("not controller") }
	assert.Error(t, m.EnsureTopic(context.Background(), AnalysisTopic("events", 3, 1)))

	assert.Error(t, m.EnsureTopic(context.Background(), TopicSpec{Name: "x"}))
	assert.Error(t, m.EnsureTopic(context.Background(), TopicSpec{NumPartitions: 1, ReplicationFactor: 1}))
}

func TestAnalysisRequestMessage_RoundTrip(t *testing.T) {
	type request struct {
		MaxHops int `json:"max_hops"`
	}
	msg, id, err := NewAnalysisRequestMessage("requests", request{MaxHops: 3}, "trace-1")
	require.NoError(t, err)
	assert.Equal(t, "requests", msg.Topic)
	assert.Equal(t, id, string(msg.Key))
	assert.Equal(t, EventAnalysisRequested, msg.Headers["event_type"])
	assert.Equal(t, "trace-1", msg.Headers["trace_id"])

	var got request
	env, err := DecodeAnalysisRequest(msg, &got)
	require.NoError(t, err)
	assert.Equal(t, id, env.EventID)
	assert.Equal(t, 3, got.MaxHops)
}

func TestDecodeAnalysisRequest_RejectsOtherEvents(t *testing.T) {
	env, err := NewEventEnvelope(EventAnalysisCompleted, map[string]int{"n": 1})
	require.NoError(t, err)
	msg, err := env.ToMessage("requests", "k")
	require.NoError(t, err)

	var target map[string]int
	_, err = DecodeAnalysisRequest(msg, &target)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = DecodeAnalysisRequest(Message{Value: []byte("{")}, &target)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeSerialization))
}
