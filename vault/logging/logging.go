// Package logging provides loggers for vault components.
package logging

import (
	"context"
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is used to emit various logs.
type Logger = *zap.SugaredLogger

// LoggerFactory retrieves a named logger for a given module.
type LoggerFactory func(module string) Logger

// NullLogger represents a singleton logger that discards all output.
//
//nolint:gochecknoglobals
var NullLogger = zap.NewNop().Sugar()

type contextKey string

const loggerKey contextKey = "logger"

func getNullLogger(module string) Logger {
	return NullLogger
}

// WithLogger returns a derived context with associated logger.
func WithLogger(ctx context.Context, l LoggerFactory) context.Context {
	if l == nil {
		l = getNullLogger
	}

	return context.WithValue(ctx, loggerKey, l)
}

// Module returns an function that returns a logger for a given module when provided with a context.
func Module(module string) func(ctx context.Context) Logger {
	return func(ctx context.Context) Logger {
		if l, ok := ctx.Value(loggerKey).(LoggerFactory); ok {
			return l(module)
		}

		return NullLogger
	}
}

// ToWriter returns LoggerFactory that uses given writer for log output (unadorned).
func ToWriter(w io.Writer) LoggerFactory {
	return zap.New(zapcore.NewCore(
		zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
			MessageKey:     "m",
			LevelKey:       "l",
			NameKey:        "n",
			EncodeLevel:    zapcore.CapitalLevelEncoder,
			EncodeName:     zapcore.FullNameEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			LineEnding:     zapcore.DefaultLineEnding,
		}),
		zapcore.AddSync(w), zap.DebugLevel)).Sugar().Named
}
