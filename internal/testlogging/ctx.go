// Package testlogging implements logger that writes to testing.T log.
package testlogging

import (
	"context"
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/tinyvault/tinyvault/vault/logging"
)

// Level specifies log level.
type Level = zapcore.Level

// log levels
const (
	LevelDebug   = zapcore.DebugLevel
	LevelInfo    = zapcore.InfoLevel
	LevelWarning = zapcore.WarnLevel
	LevelError   = zapcore.ErrorLevel
)

// Context returns a context with attached logger that emits all log entries to go testing.T log output.
func Context(t testing.TB) context.Context {
	t.Helper()

	return ContextWithLevel(t, LevelDebug)
}

// ContextWithLevel returns a context with attached logger that emits all log entries with given log level or above.
func ContextWithLevel(t testing.TB, level Level) context.Context {
	t.Helper()

	return logging.WithLogger(context.Background(), func(module string) logging.Logger {
		return PrintfLevel(t.Logf, "["+module+"] ", level)
	})
}
