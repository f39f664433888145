// Package logging wraps zap with the package-level convenience API this
// codebase's example pack uses, scoped down to stdout/stderr only (this
// tool never writes rotated log files).
package logging

import (
	"context"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Option configures the package logger.
type Option struct {
	// Level is zap's numeric level convention: -1 debug, 0 info, 1 warn,
	// 2 error. Zero value means info.
	Level int
}

var logger *zap.Logger

// Init installs the package-level logger. Safe to call more than once; the
// most recent call wins.
func Init(opt Option) {
	level := zapcore.InfoLevel
	switch {
	case opt.Level < 0:
		level = zapcore.DebugLevel
	case opt.Level == 1:
		level = zapcore.WarnLevel
	case opt.Level >= 2:
		level = zapcore.ErrorLevel
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.AddSync(os.Stdout),
		level,
	)
	logger = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
}

func ensure() *zap.Logger {
	if logger == nil {
		Init(Option{})
	}
	return logger
}

// Infof logs at info level with printf-style formatting.
func Infof(format string, args ...interface{}) {
	ensure().Sugar().Infof(format, args...)
}

// Warnf logs at warn level with printf-style formatting.
func Warnf(format string, args ...interface{}) {
	ensure().Sugar().Warnf(format, args...)
}

// Errorf logs at error level with printf-style formatting.
func Errorf(format string, args ...interface{}) {
	ensure().Sugar().Errorf(format, args...)
}

// Debugf logs at debug level with printf-style formatting.
func Debugf(format string, args ...interface{}) {
	ensure().Sugar().Debugf(format, args...)
}

type ctxKey int

const fieldsKey ctxKey = 0

// WithFields attaches structured fields to ctx for later retrieval by the
// *Context logging variants.
func WithFields(ctx context.Context, fields ...zap.Field) context.Context {
	existing, _ := ctx.Value(fieldsKey).([]zap.Field)
	return context.WithValue(ctx, fieldsKey, append(existing, fields...))
}

func contextFields(ctx context.Context) []zap.Field {
	fields, _ := ctx.Value(fieldsKey).([]zap.Field)
	return fields
}

// InfoContext logs msg at info level, including any fields attached to ctx
// via WithFields.
func InfoContext(ctx context.Context, msg string, fields ...zap.Field) {
	ensure().With(contextFields(ctx)...).Info(msg, fields...)
}

// WarnContext logs msg at warn level, including any fields attached to ctx
// via WithFields.
func WarnContext(ctx context.Context, msg string, fields ...zap.Field) {
	ensure().With(contextFields(ctx)...).Warn(msg, fields...)
}

// ErrorContext logs msg at error level, including any fields attached to ctx
// via WithFields.
func ErrorContext(ctx context.Context, msg string, fields ...zap.Field) {
	ensure().With(contextFields(ctx)...).Error(msg, fields...)
}

// Sync flushes any buffered log entries. Call before process exit.
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}
