package logger

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObserved(level zapcore.Level) (Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return FromZap(zap.New(core)), logs
}

func TestContextAddsLogID(t *testing.T) {
	log, logs := newObserved(zapcore.DebugLevel)

	ctx := log.Context(context.Background())
	log.Info(ctx, "first")
	log.Info(ctx, "second")

	entries := logs.All()
	require.Len(t, entries, 2)
	id := entries[0].ContextMap()[logIDKey]
	assert.NotEmpty(t, id)
	assert.Equal(t, id, entries[1].ContextMap()[logIDKey])

	// an existing log context is reused
	assert.Equal(t, ctx, log.Context(ctx))
}

func TestWithUpdateID(t *testing.T) {
	log, logs := newObserved(zapcore.DebugLevel)

	bare := context.Background()
	assert.Equal(t, bare, WithUpdateID(bare, 7))

	ctx := WithUpdateID(log.Context(bare), 42)
	log.Warn(ctx, "tagged")

	entry := logs.All()[0]
	assert.Equal(t, int64(42), entry.ContextMap()[updateIDKey])
}

func TestContextWithCapture(t *testing.T) {
	log, logs := newObserved(zapcore.DebugLevel)

	parent := WithUpdateID(log.Context(context.Background()), 9)
	log.Info(parent, "parent")

	ctx, capture := log.ContextWithCapture(parent, "handle update")
	log.Debug(ctx, "inside")
	capture(zap.String("route", "start"))

	entries := logs.All()
	require.Len(t, entries, 3)
	parentID := entries[0].ContextMap()[logIDKey]

	captured := entries[2]
	assert.Equal(t, "handle update", captured.Message)
	fields := captured.ContextMap()
	assert.Equal(t, parentID, fields[logIDKey])
	assert.Equal(t, int64(9), fields[updateIDKey])
	assert.Equal(t, "start", fields["route"])
	assert.Contains(t, fields, durationKey)
}

func TestContextWithCaptureWithoutParent(t *testing.T) {
	log, logs := newObserved(zapcore.InfoLevel)

	_, capture := log.ContextWithCapture(context.Background(), "op")
	capture()

	entry := logs.All()[0]
	assert.NotEmpty(t, entry.ContextMap()[logIDKey])
	assert.NotContains(t, entry.ContextMap(), updateIDKey)
}

func TestLevelFiltering(t *testing.T) {
	log, logs := newObserved(zapcore.WarnLevel)
	ctx := context.Background()

	log.Debug(ctx, "debug")
	log.Info(ctx, "info")
	log.Warn(ctx, "warn")
	log.Error(ctx, "error")

	assert.Equal(t, 2, logs.Len())
}

func TestGetLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{in: "debug", want: zapcore.DebugLevel},
		{in: "info", want: zapcore.InfoLevel},
		{in: "warn", want: zapcore.WarnLevel},
		{in: "warning", want: zapcore.WarnLevel},
		{in: "error", want: zapcore.ErrorLevel},
		{in: "", want: zapcore.InfoLevel},
		{in: "verbose", want: zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, getLevel(tt.in))
		})
	}
}

func TestNewWithFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "bot.log")
	log := New(Options{Level: "debug", File: file})

	assert.NotPanics(t, func() {
		log.Info(log.Context(context.Background()), "to file")
	})
	assert.FileExists(t, file)
}

func TestLogIDIsValid(t *testing.T) {
	assert.False(t, LogID{}.IsValid())

	id := defaultIDGenerator().NewLogID(context.Background())
	assert.True(t, id.IsValid())
	assert.Len(t, id.String(), 16)
}
