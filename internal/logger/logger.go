package logger

import (
	"github.com/shopbench/shopbench/internal/config"
	"github.com/shopbench/shopbench/internal/types"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.SugaredLogger to provide logging functionality
type Logger struct {
	*zap.SugaredLogger
}

// Global logger for convenience
var L *Logger

// NewLogger creates a Logger with the level taken from config
func NewLogger(cfg *config.Configuration) (*Logger, error) {
	zapConfig := zap.NewProductionConfig()
	zapConfig.EncoderConfig.TimeKey = "timestamp"
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapConfig.Level = zap.NewAtomicLevelAt(toZapLevel(cfg.Logging.Level))

	zapLogger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}

	L = &Logger{SugaredLogger: zapLogger.Sugar()}
	return L, nil
}

// NewNoopLogger returns a logger that discards everything, for tests
func NewNoopLogger() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

// Initialize a default global logger for scripts and for code running before DI.
// Everywhere else the injected logger should be used.
func init() {
	zapLogger, err := zap.NewProduction()
	if err != nil {
		L = NewNoopLogger()
		return
	}
	L = &Logger{SugaredLogger: zapLogger.Sugar()}
}

func toZapLevel(level types.LogLevel) zapcore.Level {
	switch level {
	case types.LogLevelDebug:
		return zapcore.DebugLevel
	case types.LogLevelWarn:
		return zapcore.WarnLevel
	case types.LogLevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// ReconciliationInconsistency logs a condition where an external side effect
// happened but local bookkeeping did not follow. These need manual review.
func (l *Logger) ReconciliationInconsistency(condition string, keysAndValues ...interface{}) {
	fields := append([]interface{}{"condition", condition}, keysAndValues...)
	l.Errorw("reconciliation inconsistency: "+condition, fields...)
}
