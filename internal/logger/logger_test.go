package logger

import (
	"testing"

	"github.com/shopbench/shopbench/internal/config"
	"github.com/shopbench/shopbench/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Logging.Level = types.LogLevelWarn

	l, err := NewLogger(cfg)
	require.NoError(t, err)
	assert.False(t, l.Desugar().Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Desugar().Core().Enabled(zapcore.WarnLevel))
	assert.Same(t, L, l)
}

func TestToZapLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, toZapLevel(types.LogLevelDebug))
	assert.Equal(t, zapcore.InfoLevel, toZapLevel(types.LogLevelInfo))
	assert.Equal(t, zapcore.ErrorLevel, toZapLevel(types.LogLevelError))
	assert.Equal(t, zapcore.InfoLevel, toZapLevel("verbose"))
}
