package testutil_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/SymbioLink/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SymbioLink/internal/testutil"
)

func TestMockLogger(t *testing.T) {
	logger := testutil.NewMockLogger()

	logger.Info("test info", logging.String("key", "value"))

	messages := logger.GetMessages()
	require.Len(t, messages, 1)
	assert.Equal(t, "info", messages[0].Level)
	assert.Equal(t, "test info", messages[0].Message)

	logger.Clear()
	assert.Empty(t, logger.GetMessages())

	logger.Error("test error")
	assert.True(t, logger.HasMessage("error", "test error"))
	assert.False(t, logger.HasMessage("info", "test info"))
	assert.Equal(t, 1, logger.Count("error"))
}

func TestMockLogger_ChildrenShareSink(t *testing.T) {
	logger := testutil.NewMockLogger()

	ctx := logging.WithRequestID(context.Background(), "req-1")
	logger.Named("engine").With(logging.String("run_id", "r1")).WithContext(ctx).Warn("partial")
	logger.WithError(errors.New("boom")).Error("failed")

	msgs := logger.GetMessages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "engine", msgs[0].Logger)

	v, ok := logger.Field("partial", "run_id")
	require.True(t, ok)
	assert.Equal(t, "r1", v)
	v, ok = logger.Field("partial", "request_id")
	require.True(t, ok)
	assert.Equal(t, "req-1", v)
	v, ok = logger.Field("failed", "error")
	require.True(t, ok)
	assert.Equal(t, "boom", v)
}
