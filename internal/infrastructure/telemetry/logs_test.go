package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLoggerProvider_Disabled(t *testing.T) {
	ctx := context.Background()

	lp, err := NewLoggerProvider(ctx, LogsConfig{
		Enabled:           false,
		CollectorEndpoint: "localhost:14317",
		ServiceName:       "storefront-test",
	}, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, lp.IsEnabled())
	assert.NoError(t, lp.Shutdown(ctx))
	assert.NoError(t, lp.Shutdown(ctx))
}

func TestNewZapOTELCore_Disabled(t *testing.T) {
	var nilProvider *LoggerProvider
	assert.False(t, NewZapOTELCore(nilProvider, zapcore.InfoLevel).Enabled(zapcore.ErrorLevel))

	lp, err := NewLoggerProvider(context.Background(), LogsConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, NewZapOTELCore(lp, zapcore.InfoLevel).Enabled(zapcore.ErrorLevel))
}

func TestLevelFilterCore(t *testing.T) {
	inner, logs := observer.New(zapcore.DebugLevel)
	core := &levelFilterCore{Core: inner, minLevel: zapcore.WarnLevel}

	assert.False(t, core.Enabled(zapcore.InfoLevel))
	assert.True(t, core.Enabled(zapcore.WarnLevel))

	logger := zap.New(core).With(zap.String("session_id", "s1"))
	logger.Info("cart line added")
	logger.Warn("cart lock wait exceeded")
	logger.Error("checkout failed")

	require.Equal(t, 2, logs.Len())
	entries := logs.All()
	assert.Equal(t, "cart lock wait exceeded", entries[0].Message)
	assert.Equal(t, "s1", entries[0].ContextMap()["session_id"])
	assert.Equal(t, "checkout failed", entries[1].Message)
}

func TestTee(t *testing.T) {
	baseCore, baseLogs := observer.New(zapcore.InfoLevel)
	otelCore, otelLogs := observer.New(zapcore.InfoLevel)

	logger := Tee(zap.New(baseCore), &levelFilterCore{Core: otelCore, minLevel: zapcore.WarnLevel})
	logger.Info("order placed", zap.String("invoice", "ABCDEF1234"))
	logger.Warn("payment declined")

	assert.Equal(t, 2, baseLogs.Len())
	require.Equal(t, 1, otelLogs.Len())
	assert.Equal(t, "payment declined", otelLogs.All()[0].Message)
}

func TestProviders_BridgeLoggerDisabled(t *testing.T) {
	p := &Providers{Logs: &LoggerProvider{}}
	logger := zap.NewNop()
	assert.Same(t, logger, p.BridgeLogger(logger, zapcore.InfoLevel))
}
