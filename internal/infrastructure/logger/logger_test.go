package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestFromAppConfig(t *testing.T) {
	dev := FromAppConfig(config.LogConfig{Level: "debug", Format: "json", Output: "stderr"}, "development")
	assert.Equal(t, "debug", dev.Level)
	assert.Equal(t, "json", dev.Format)
	assert.Equal(t, "stderr", dev.Output)

	prod := FromAppConfig(config.LogConfig{Format: "console"}, "production")
	assert.Equal(t, "json", prod.Format, "production always logs json")
	assert.Equal(t, "info", prod.Level)
	assert.Equal(t, "stdout", prod.Output)
}

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"nil config", nil},
		{"console", DefaultConfig()},
		{"json", ProductionConfig()},
		{"stderr", &Config{Level: "warn", Format: "json", Output: "stderr"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestNewForEnvironment(t *testing.T) {
	for _, env := range []string{"production", "development", ""} {
		l, err := NewForEnvironment(env)
		require.NoError(t, err)
		assert.NotNil(t, l)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"DEBUG":   zapcore.DebugLevel,
		"info":    zapcore.InfoLevel,
		"warn":    zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"fatal":   zapcore.FatalLevel,
		"bogus":   zapcore.InfoLevel,
		"":        zapcore.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storefront.log")
	l, err := New(&Config{Level: "info", Format: "json", Output: path})
	require.NoError(t, err)

	l.Info("order placed", zap.String("invoice", "ABCDEF1234"))
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"order placed"`)
	assert.Contains(t, string(data), `"invoice":"ABCDEF1234"`)
}

func TestNew_UnwritableOutput(t *testing.T) {
	_, err := New(&Config{Output: filepath.Join(t.TempDir(), "missing", "dir", "x.log")})
	assert.Error(t, err)
}

func TestCreateEncoder(t *testing.T) {
	entry := zapcore.Entry{Level: zapcore.InfoLevel, Message: "cart cleared"}

	buf, err := createEncoder(&Config{Format: "json"}).EncodeEntry(entry, nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"level":"info"`)

	buf, err = createEncoder(DefaultConfig()).EncodeEntry(entry, nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "cart cleared")
	assert.NotContains(t, buf.String(), `"msg"`)
}
