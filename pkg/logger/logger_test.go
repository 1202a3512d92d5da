package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLevelForVerbosity(t *testing.T) {
	assert.Equal(t, "info", LevelForVerbosity(0))
	assert.Equal(t, "debug", LevelForVerbosity(1))
	assert.Equal(t, "debug", LevelForVerbosity(2))
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestNewDefaults(t *testing.T) {
	logger, err := New(Config{})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.InfoLevel))
	assert.False(t, logger.Core().Enabled(zap.DebugLevel))
}

func TestWithContext(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	base := zap.New(core)

	ctx := WithRunID(context.Background(), "run-1")
	ctx = context.WithValue(ctx, TableKey, "stats")

	WithContext(ctx, base).Info("imported")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "run-1", fields["run_id"])
	assert.Equal(t, "stats", fields["table"])
	assert.NotContains(t, fields, "backend")
}

func TestSetAndGet(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	Set(zap.New(core))
	defer Set(nil)

	Info("hello", zap.Int("rows", 2))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "hello", logs.All()[0].Message)
}
