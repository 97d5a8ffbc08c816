// Package logging provides the structured logger used by the coordinator.
// Callers depend on the small Logger interface; the CLI backs it with zap.
package logging

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a leveled, key/value structured logger.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// ZapLogger adapts *zap.SugaredLogger to Logger.
type ZapLogger struct {
	s *zap.SugaredLogger
}

// NewZapLogger wraps an existing sugared logger.
func NewZapLogger(s *zap.SugaredLogger) *ZapLogger {
	return &ZapLogger{s: s}
}

func (l *ZapLogger) Debug(msg string, keysAndValues ...any) { l.s.Debugw(msg, keysAndValues...) }
func (l *ZapLogger) Info(msg string, keysAndValues ...any)  { l.s.Infow(msg, keysAndValues...) }
func (l *ZapLogger) Warn(msg string, keysAndValues ...any)  { l.s.Warnw(msg, keysAndValues...) }
func (l *ZapLogger) Error(msg string, keysAndValues ...any) { l.s.Errorw(msg, keysAndValues...) }

// Sync flushes buffered log entries.
func (l *ZapLogger) Sync() error {
	return l.s.Sync()
}

// New builds a console-encoded zap logger writing to w.
// With debug set, debug entries are emitted; otherwise only warnings and above.
func New(w io.Writer, debug bool) *ZapLogger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	level := zapcore.WarnLevel
	if debug {
		level = zapcore.DebugLevel
	}

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), zap.NewAtomicLevelAt(level))
	return NewZapLogger(zap.New(core).Sugar().Named("aca"))
}

// NoOpLogger discards all log messages.
type NoOpLogger struct{}

func (NoOpLogger) Debug(string, ...any) {}
func (NoOpLogger) Info(string, ...any)  {}
func (NoOpLogger) Warn(string, ...any)  {}
func (NoOpLogger) Error(string, ...any) {}

// With returns a logger that adds keysAndValues to every entry.
func With(l Logger, keysAndValues ...any) Logger {
	switch v := l.(type) {
	case *ZapLogger:
		return NewZapLogger(v.s.With(keysAndValues...))
	case NoOpLogger:
		return v
	default:
		return &fieldLogger{next: l, fields: keysAndValues}
	}
}

type fieldLogger struct {
	next   Logger
	fields []any
}

func (l *fieldLogger) merge(kv []any) []any {
	out := make([]any, 0, len(l.fields)+len(kv))
	return append(append(out, l.fields...), kv...)
}

func (l *fieldLogger) Debug(msg string, kv ...any) { l.next.Debug(msg, l.merge(kv)...) }
func (l *fieldLogger) Info(msg string, kv ...any)  { l.next.Info(msg, l.merge(kv)...) }
func (l *fieldLogger) Warn(msg string, kv ...any)  { l.next.Warn(msg, l.merge(kv)...) }
func (l *fieldLogger) Error(msg string, kv ...any) { l.next.Error(msg, l.merge(kv)...) }
