// Package log wraps logrus so packages do not thread a logger through
// every call. Scanning cores stay quiet at Info; skips and degraded
// network paths log at Debug/Warn.
package log

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

var logger = &logrus.Logger{
	Out: os.Stderr,
	Formatter: &prefixed.TextFormatter{
		DisableTimestamp: true,
	},
	Hooks: make(logrus.LevelHooks),
	Level: logrus.WarnLevel,
}

// Fields wraps logrus.Fields.
type Fields = logrus.Fields

// GetLogger returns the underlying logrus logger.
func GetLogger() *logrus.Logger {
	return logger
}

// SetLevel sets the logging level.
func SetLevel(level logrus.Level) {
	logger.SetLevel(level)
}

// SetVerbose switches to debug-level logging.
func SetVerbose(v bool) {
	if v {
		logger.SetLevel(logrus.DebugLevel)
	}
}

// SetOutput redirects log output, mainly for tests.
func SetOutput(out io.Writer) {
	logger.SetOutput(out)
}

func Debugf(m string, args ...interface{}) { logger.Debugf(m, args...) }
func Infof(m string, args ...interface{})  { logger.Infof(m, args...) }
func Warnf(m string, args ...interface{})  { logger.Warnf(m, args...) }
func Errorf(m string, args ...interface{}) { logger.Errorf(m, args...) }

// WithFields returns an entry carrying structured fields.
func WithFields(f Fields) *logrus.Entry {
	return logger.WithFields(f)
}
