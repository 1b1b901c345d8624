package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Structured is a key/value logger backed by zap.
type Structured struct {
	sugar *zap.SugaredLogger
}

// New builds a structured logger. Mode "release" or "prod" selects JSON
// output at info level; anything else selects human-readable development
// output at debug level.
func New(mode string) (*Structured, error) {
	var cfg zap.Config
	switch strings.ToLower(mode) {
	case "release", "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	if IsVerbose() {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	zl, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Structured{sugar: zl.Sugar()}, nil
}

// NewWithCore wraps an existing zap core. Tests use it with zaptest/observer.
func NewWithCore(core zapcore.Core) *Structured {
	return &Structured{sugar: zap.New(core).Sugar()}
}

// Nop returns a logger that discards everything.
func Nop() *Structured {
	return &Structured{sugar: zap.NewNop().Sugar()}
}

// Sync flushes buffered entries.
func (l *Structured) Sync() {
	_ = l.sugar.Sync()
}

// Debug logs at debug level.
func (l *Structured) Debug(msg string, keysAndValues ...any) {
	l.sugar.Debugw(msg, keysAndValues...)
}

// Info logs at info level.
func (l *Structured) Info(msg string, keysAndValues ...any) {
	l.sugar.Infow(msg, keysAndValues...)
}

// Warn logs at warn level.
func (l *Structured) Warn(msg string, keysAndValues ...any) {
	l.sugar.Warnw(msg, keysAndValues...)
}

// Error logs at error level.
func (l *Structured) Error(msg string, keysAndValues ...any) {
	l.sugar.Errorw(msg, keysAndValues...)
}

// With returns a child logger that adds the given fields to every entry.
func (l *Structured) With(keysAndValues ...any) *Structured {
	return &Structured{sugar: l.sugar.With(keysAndValues...)}
}
