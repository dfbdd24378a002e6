// Package logger provides a small, centralized logging facility with
// configurable verbosity levels.
//
// Verbosity levels (in increasing order):
//
//	Error < Info < Debug < Trace
//
// Example usage:
//
//	logger.SetVerbosity(2) // Debug
//	logger.Infof("starting simulation")
//	logger.Debugf("spot=%f vol=%f", spot, vol)
//	logger.WithFields(logrus.Fields{"run": id}).Info("expired")
package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Level represents a logging verbosity level.
// Higher values mean more verbose logging.
type Level int

const (
	Error Level = iota // Error logs only critical failures.
	Info               // Info logs high-level application progress.
	Debug              // Debug logs detailed diagnostic information.
	Trace              // Trace logs very fine-grained execution details.
)

var levels = map[Level]logrus.Level{
	Error: logrus.ErrorLevel,
	Info:  logrus.InfoLevel,
	Debug: logrus.DebugLevel,
	Trace: logrus.TraceLevel,
}

var log = newLogger(os.Stderr)

func newLogger(w io.Writer) *logrus.Logger {
	l := logrus.New()
	// Logs go to stderr so they stay separate from program output.
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006/01/02 15:04:05",
	})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// SetVerbosity sets the global logging verbosity. Values outside
// [Error, Trace] are clamped. Typically called once at startup.
func SetVerbosity(v int) {
	lvl := Level(v)
	if lvl < Error {
		lvl = Error
	}
	if lvl > Trace {
		lvl = Trace
	}
	log.SetLevel(levels[lvl])
}

// Verbosity returns the active verbosity level.
func Verbosity() Level {
	for lvl, l := range levels {
		if l == log.GetLevel() {
			return lvl
		}
	}
	return Info
}

// SetOutput redirects log output, mainly for tests.
func SetOutput(w io.Writer) {
	log.SetOutput(w)
}

// Logger exposes the underlying logrus logger for integrations that
// need an io.Writer or a *logrus.Entry.
func Logger() *logrus.Logger {
	return log
}

// WithFields returns an entry carrying structured fields.
func WithFields(fields logrus.Fields) *logrus.Entry {
	return log.WithFields(fields)
}

// Errorf logs an error-level message.
func Errorf(format string, args ...any) {
	log.Errorf(format, args...)
}

// Infof logs an informational message.
func Infof(format string, args ...any) {
	log.Infof(format, args...)
}

// Debugf logs debugging information.
func Debugf(format string, args ...any) {
	log.Debugf(format, args...)
}

// Tracef logs very detailed execution traces.
// Use this sparingly due to high volume.
func Tracef(format string, args ...any) {
	log.Tracef(format, args...)
}
