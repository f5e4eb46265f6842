package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedLogger() (Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return &ZapLogger{z: zap.New(core).Sugar()}, logs
}

func TestFromContextReturnsAttachedLogger(t *testing.T) {
	logger, logs := newObservedLogger()
	ctx := With(context.Background(), logger)

	Info(ctx, "hello")

	assert.Equal(t, 1, logs.Len())
	assert.Equal(t, "hello", logs.All()[0].Message)
}

func TestFromContextWithoutLoggerIsSilent(t *testing.T) {
	// Must not panic when no logger was attached.
	Info(context.Background(), "dropped on the floor")
}

func TestTrackPersistsField(t *testing.T) {
	logger, logs := newObservedLogger()
	ctx := With(context.Background(), logger)

	Track(ctx, "namespace", "customer")
	Infow(ctx, "verified")

	entries := logs.All()
	assert.Equal(t, 1, len(entries))
	assert.Equal(t, "customer", entries[0].ContextMap()["namespace"])
}

func TestNamedScopes(t *testing.T) {
	logger, logs := newObservedLogger()
	logger.Named("queue").Info("drained")

	assert.Equal(t, "queue", logs.All()[0].LoggerName)
}
