// Package logger provides the process-wide logger. The printf-style helpers
// write human-readable lines to stderr; L exposes the same zap core for
// structured logging from long-running components.
package logger

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu      sync.RWMutex
	level   = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	base    = newConsoleLogger(level)
	verbose bool
)

// stderrSink resolves os.Stderr on every write so redirection after init is honored
type stderrSink struct{}

func (stderrSink) Write(p []byte) (int, error) { return os.Stderr.Write(p) }
func (stderrSink) Sync() error                 { return nil }

func newConsoleLogger(lvl zap.AtomicLevel) *zap.Logger {
	encCfg := zapcore.EncoderConfig{
		MessageKey:     "msg",
		NameKey:        "logger",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), stderrSink{}, lvl)
	return zap.New(core)
}

// SetVerbose enables or disables verbose logging
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	if v {
		level.SetLevel(zapcore.DebugLevel)
	} else {
		level.SetLevel(zapcore.InfoLevel)
	}
}

// IsVerbose returns true if verbose logging is enabled
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// L returns the structured logger
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// SetLogger replaces the underlying logger and returns a func restoring the previous one.
// Tests use it with zaptest/observer.
func SetLogger(l *zap.Logger) func() {
	mu.Lock()
	prev := base
	base = l
	mu.Unlock()
	return func() {
		mu.Lock()
		base = prev
		mu.Unlock()
	}
}

// Named returns a child logger for a component
func Named(name string) *zap.Logger {
	return L().Named(name)
}

// Debug prints debug messages only when verbose mode is enabled
func Debug(format string, args ...interface{}) {
	L().Debug("[DEBUG] " + fmt.Sprintf(format, args...))
}

// Info prints informational messages
func Info(format string, args ...interface{}) {
	L().Info(fmt.Sprintf(format, args...))
}

// Success prints success messages with checkmark
func Success(format string, args ...interface{}) {
	L().Info("✓ " + fmt.Sprintf(format, args...))
}

// Error prints error messages
func Error(format string, args ...interface{}) {
	L().Error("✗ " + fmt.Sprintf(format, args...))
}

// Warn prints warning messages
func Warn(format string, args ...interface{}) {
	L().Warn("⚠ " + fmt.Sprintf(format, args...))
}
