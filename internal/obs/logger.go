// Package obs bundles the engine's observability surface: structured
// logging and counters. Both are injected into the engine rather than
// reached for as globals, so multiple SerialIO instances in one process
// keep independent metrics and can be given independently configured
// loggers.
package obs

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps a zap.SugaredLogger with the handful of methods the
// engine actually calls, so call sites read as plain log statements
// rather than a wall of zap.Field builders.
type Logger struct {
	s *zap.SugaredLogger
}

// NewLogger wraps an existing zap logger.
func NewLogger(z *zap.Logger) *Logger {
	return &Logger{s: z.Sugar()}
}

// NewNop returns a Logger that discards everything, used as the default
// when a caller does not configure one.
func NewNop() *Logger {
	return &Logger{s: zap.NewNop().Sugar()}
}

// NewDevelopment returns a human-readable, colorized-on-terminal logger
// suitable for the reference CLI.
func NewDevelopment() (*Logger, error) {
	z, err := zap.NewDevelopment()
	if err != nil {
		return nil, err
	}
	return NewLogger(z), nil
}

// NewProduction returns a JSON logger suitable for production use.
func NewProduction() (*Logger, error) {
	z, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return NewLogger(z), nil
}

// NewAtLevel returns a production-style JSON logger at the given level
// (debug|info|warn|error), for callers that take the level as a config
// string rather than picking a constructor at compile time.
func NewAtLevel(level string) (*Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	z, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return NewLogger(z), nil
}

func (l *Logger) Debugw(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }
func (l *Logger) Infow(msg string, kv ...interface{})  { l.s.Infow(msg, kv...) }
func (l *Logger) Warnw(msg string, kv ...interface{})  { l.s.Warnw(msg, kv...) }
func (l *Logger) Errorw(msg string, kv ...interface{}) { l.s.Errorw(msg, kv...) }

// Sync flushes any buffered log entries. Errors from Sync against a
// terminal (ENOTTY) are common and harmless; callers that care can
// inspect the returned error themselves.
func (l *Logger) Sync() error { return l.s.Sync() }
