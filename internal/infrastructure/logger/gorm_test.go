package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func observedGorm(level gormlogger.LogLevel, slow time.Duration) (*GormLogger, *observer.ObservedLogs) {
	core, recorded := observer.New(zapcore.DebugLevel)
	return NewGormLogger(zap.New(core), level, slow), recorded
}

func TestGormLogger_Trace(t *testing.T) {
	const stmt = "UPDATE products SET stock = stock - 2 WHERE id = ? AND stock >= 2"

	tests := []struct {
		name      string
		level     gormlogger.LogLevel
		slow      time.Duration
		took      time.Duration
		err       error
		wantMsg   string
		wantLevel zapcore.Level
	}{
		{"failed statement", gormlogger.Error, time.Second, 0, errors.New("database is locked"), "statement failed", zapcore.ErrorLevel},
		{"failure beats slowness", gormlogger.Warn, time.Millisecond, time.Second, errors.New("constraint failed"), "statement failed", zapcore.ErrorLevel},
		{"slow statement", gormlogger.Warn, 200 * time.Millisecond, time.Second, nil, "slow statement", zapcore.WarnLevel},
		{"slow log disabled", gormlogger.Warn, 0, time.Second, nil, "", 0},
		{"normal statement at info", gormlogger.Info, 200 * time.Millisecond, 0, nil, "statement executed", zapcore.DebugLevel},
		{"normal statement at warn", gormlogger.Warn, 200 * time.Millisecond, 0, nil, "", 0},
		{"not found is not an error", gormlogger.Error, time.Second, 0, gormlogger.ErrRecordNotFound, "", 0},
		{"silent", gormlogger.Silent, time.Millisecond, time.Second, errors.New("boom"), "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gl, recorded := observedGorm(tt.level, tt.slow)
			gl.Trace(context.Background(), time.Now().Add(-tt.took), func() (string, int64) {
				return stmt, 1
			}, tt.err)

			if tt.wantMsg == "" {
				assert.Empty(t, recorded.All())
				return
			}
			logs := recorded.All()
			require.Len(t, logs, 1)
			assert.Equal(t, tt.wantMsg, logs[0].Message)
			assert.Equal(t, tt.wantLevel, logs[0].Level)
			assert.Equal(t, stmt, logs[0].ContextMap()["sql"])
			assert.Equal(t, int64(1), logs[0].ContextMap()["rows"])
		})
	}
}

func TestGormLogger_TraceCarriesRequestContext(t *testing.T) {
	gl, recorded := observedGorm(gormlogger.Info, time.Second)

	ctx, span := startSpan(t)
	defer span.End()
	ctx = context.WithValue(ctx, RequestIDKey, "req-42")
	ctx = context.WithValue(ctx, SessionIDKey, "sess-7")

	gl.Trace(ctx, time.Now(), func() (string, int64) {
		return "INSERT INTO orders (invoice) VALUES (?)", 1
	}, nil)

	logs := recorded.All()
	require.Len(t, logs, 1)
	fields := logs[0].ContextMap()
	assert.Equal(t, "req-42", fields["request_id"])
	assert.Equal(t, "sess-7", fields["session_id"])
	assert.Equal(t, span.SpanContext().TraceID().String(), fields["trace_id"])
}

func TestGormLogger_Messages(t *testing.T) {
	gl, recorded := observedGorm(gormlogger.Warn, time.Second)
	ctx := context.Background()

	gl.Info(ctx, "migrated %d tables", 5)
	gl.Warn(ctx, "unsupported column %s", "color")
	gl.Error(ctx, "pool exhausted")

	logs := recorded.All()
	require.Len(t, logs, 2)
	assert.Equal(t, "unsupported column color", logs[0].Message)
	assert.Equal(t, zapcore.ErrorLevel, logs[1].Level)
}

func TestGormLogger_LogMode(t *testing.T) {
	gl, recorded := observedGorm(gormlogger.Warn, time.Second)

	var _ gormlogger.Interface = gl
	verbose := gl.LogMode(gormlogger.Info)
	verbose.Info(context.Background(), "connected")
	gl.Info(context.Background(), "not shown")

	logs := recorded.All()
	require.Len(t, logs, 1)
	assert.Equal(t, "connected", logs[0].Message)
}

func TestMapGormLogLevel(t *testing.T) {
	tests := map[string]gormlogger.LogLevel{
		"silent":  gormlogger.Silent,
		"error":   gormlogger.Error,
		"warn":    gormlogger.Warn,
		"info":    gormlogger.Warn,
		"debug":   gormlogger.Info,
		"unknown": gormlogger.Warn,
		"":        gormlogger.Warn,
	}
	for level, want := range tests {
		assert.Equal(t, want, MapGormLogLevel(level), level)
	}
}
