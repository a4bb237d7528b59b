package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"bogus", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, levelFromString(tt.in))
		})
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("LOG_DEV", "")
		t.Setenv("LOG_LEVEL", "")
		t.Setenv("LOG_FILE", "")
		t.Setenv("LOG_MAX_AGE", "")

		cfg := ConfigFromEnv()
		assert.Equal(t, Config{Level: "info", MaxAge: 7 * 24 * time.Hour}, cfg)
	})

	t.Run("dev defaults to debug", func(t *testing.T) {
		t.Setenv("LOG_DEV", "1")
		t.Setenv("LOG_LEVEL", "")

		cfg := ConfigFromEnv()
		assert.True(t, cfg.Dev)
		assert.Equal(t, "debug", cfg.Level)
	})

	t.Run("explicit values", func(t *testing.T) {
		t.Setenv("LOG_DEV", "")
		t.Setenv("LOG_LEVEL", "warn")
		t.Setenv("LOG_FILE", "/var/log/accountd.log")
		t.Setenv("LOG_MAX_AGE", "48h")

		cfg := ConfigFromEnv()
		assert.Equal(t, "warn", cfg.Level)
		assert.Equal(t, "/var/log/accountd.log", cfg.File)
		assert.Equal(t, 48*time.Hour, cfg.MaxAge)
	})
}

func TestInit_Production(t *testing.T) {
	lg, err := Init(Config{Level: "warn"})
	require.NoError(t, err)

	assert.False(t, lg.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, lg.Core().Enabled(zapcore.WarnLevel))
}

func TestInit_Dev(t *testing.T) {
	lg, err := Init(Config{Level: "debug", Dev: true})
	require.NoError(t, err)

	assert.True(t, lg.Core().Enabled(zapcore.DebugLevel))
}

func TestInit_WritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accountd.log")

	lg, err := Init(Config{Level: "info", File: path})
	require.NoError(t, err)

	lg.Info("hello from test")
	_ = lg.Sync()

	matches, err := filepath.Glob(path + ".*")
	require.NoError(t, err)
	require.Len(t, matches, 1)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello from test")
}
