// Package logger provides the process-wide structured logger used across
// noema. It wraps logrus with a small printf-style surface (Info/Warn/Error/
// Debug) plus a key-value surface (the X-suffixed variants) for structured
// fields, matching the two calling conventions used throughout the codebase.
package logger

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	mu  sync.RWMutex
	log = newDefault()
)

func newDefault() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// Configure replaces the underlying logrus instance, e.g. to switch to JSON
// output or a different level at startup.
func Configure(l *logrus.Logger) {
	mu.Lock()
	defer mu.Unlock()
	log = l
}

// SetLevel parses and applies a textual level ("debug", "info", "warn", "error").
func SetLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	mu.Lock()
	defer mu.Unlock()
	log.SetLevel(lvl)
	return nil
}

func current() *logrus.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// Debug logs a printf-style message at debug level.
func Debug(format string, args ...interface{}) {
	current().Debugf(format, args...)
}

// Info logs a printf-style message at info level.
func Info(format string, args ...interface{}) {
	current().Infof(format, args...)
}

// Warn logs a printf-style message at warn level.
func Warn(format string, args ...interface{}) {
	current().Warnf(format, args...)
}

// Error logs a printf-style message at error level.
func Error(format string, args ...interface{}) {
	current().Errorf(format, args...)
}

// fields turns a flat ...interface{} of alternating key/value pairs into
// logrus.Fields, matching the "msg, k1, v1, k2, v2" convention used by the
// X-suffixed helpers.
func fields(kv []interface{}) logrus.Fields {
	f := make(logrus.Fields, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		f[key] = kv[i+1]
	}
	return f
}

// DebugX logs msg at debug level with structured key-value fields.
func DebugX(msg string, kv ...interface{}) {
	current().WithFields(fields(kv)).Debug(msg)
}

// InfoX logs msg at info level with structured key-value fields.
func InfoX(msg string, kv ...interface{}) {
	current().WithFields(fields(kv)).Info(msg)
}

// WarnX logs msg at warn level with structured key-value fields.
func WarnX(msg string, kv ...interface{}) {
	current().WithFields(fields(kv)).Warn(msg)
}

// ErrorX logs msg at error level with structured key-value fields.
func ErrorX(msg string, kv ...interface{}) {
	current().WithFields(fields(kv)).Error(msg)
}
