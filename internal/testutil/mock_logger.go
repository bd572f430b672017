// Package testutil provides shared test doubles and fixtures for SymbioLink.
package testutil

import (
	"context"
	"sync"

	"github.com/turtacn/SymbioLink/internal/infrastructure/monitoring/logging"
)

// LogMessage is a single entry captured by MockLogger.
type LogMessage struct {
	Level   string
	Logger  string
	Message string
	Fields  []logging.Field
}

type logSink struct {
	mu       sync.Mutex
	messages []LogMessage
}

// MockLogger records every entry, including those written through child
// loggers returned by With, Named, WithContext and WithError.
type MockLogger struct {
	sink   *logSink
	name   string
	fields []logging.Field
}

// NewMockLogger returns an empty recorder.
func NewMockLogger() *MockLogger {
	return &MockLogger{sink: &logSink{}}
}

func (m *MockLogger) log(level, msg string, fields []logging.Field) {
	all := make([]logging.Field, 0, len(m.fields)+len(fields))
	all = append(all, m.fields...)
	all = append(all, fields...)

	m.sink.mu.Lock()
	defer m.sink.mu.Unlock()
	m.sink.messages = append(m.sink.messages, LogMessage{Level: level, Logger: m.name, Message: msg, Fields: all})
}

func (m *MockLogger) child(name string, extra ...logging.Field) *MockLogger {
	fields := make([]logging.Field, 0, len(m.fields)+len(extra))
	fields = append(fields, m.fields...)
	fields = append(fields, extra...)
	return &MockLogger{sink: m.sink, name: name, fields: fields}
}

func (m *MockLogger) Debug(msg string, fields ...logging.Field) { m.log("debug", msg, fields) }

func (m *MockLogger) Info(msg string, fields ...logging.Field) { m.log("info", msg, fields) }

func (m *MockLogger) Warn(msg string, fields ...logging.Field) { m.log("warn", msg, fields) }

func (m *MockLogger) Error(msg string, fields ...logging.Field) { m.log("error", msg, fields) }

func (m *MockLogger) Fatal(msg string, fields ...logging.Field) { m.log("fatal", msg, fields) }

func (m *MockLogger) With(fields ...logging.Field) logging.Logger {
	return m.child(m.name, fields...)
}

func (m *MockLogger) Named(name string) logging.Logger {
	if m.name != "" {
		name = m.name + "." + name
	}
	return m.child(name)
}

func (m *MockLogger) WithContext(ctx context.Context) logging.Logger {
	if id := logging.RequestIDFromContext(ctx); id != "" {
		return m.child(m.name, logging.String("request_id", id))
	}
	return m
}

func (m *MockLogger) WithError(err error) logging.Logger {
	if err == nil {
		return m
	}
	return m.child(m.name, logging.Err(err))
}

func (m *MockLogger) Sync() error { return nil }

// GetMessages returns a copy of all captured entries.
func (m *MockLogger) GetMessages() []LogMessage {
	m.sink.mu.Lock()
	defer m.sink.mu.Unlock()
	out := make([]LogMessage, len(m.sink.messages))
	copy(out, m.sink.messages)
	return out
}

// Clear drops all captured entries.
func (m *MockLogger) Clear() {
	m.sink.mu.Lock()
	defer m.sink.mu.Unlock()
	m.sink.messages = m.sink.messages[:0]
}

// HasMessage reports whether msg was logged at level.
func (m *MockLogger) HasMessage(level, msg string) bool {
	for _, l := range m.GetMessages() {
		if l.Level == level && l.Message == msg {
			return true
		}
	}
	return false
}

// Count returns how many entries were logged at level.
func (m *MockLogger) Count(level string) int {
	n := 0
	for _, l := range m.GetMessages() {
		if l.Level == level {
			n++
		}
	}
	return n
}

// Field returns the value of key on the first entry with message msg.
func (m *MockLogger) Field(msg, key string) (interface{}, bool) {
	for _, l := range m.GetMessages() {
		if l.Message != msg {
			continue
		}
		for _, f := range l.Fields {
			if f.Key == key {
				return f.Value, true
			}
		}
	}
	return nil, false
}
