// Package logging wraps github.com/sirupsen/logrus the same way the
// teacher repo's src/redis package does (logger "github.com/sirupsen/logrus";
// logger.Debugf(...) / logger.Warnf(...)) so every engine in this
// module gets the same diagnostic-logging shape without requiring
// callers to configure logrus themselves.
package logging

import logrus "github.com/sirupsen/logrus"

// Logger is the minimal surface engines in this module log through.
// No log line here is load-bearing for correctness; a Logger is
// strictly diagnostic.
type Logger interface {
	Debugf(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

type logrusLogger struct {
	l *logrus.Logger
}

// New wraps logrus's standard logger.
func New() Logger {
	return logrusLogger{l: logrus.StandardLogger()}
}

func (g logrusLogger) Debugf(format string, args ...interface{}) {
	g.l.Debugf(format, args...)
}

func (g logrusLogger) Warnf(format string, args ...interface{}) {
	g.l.Warnf(format, args...)
}

type nop struct{}

func (nop) Debugf(string, ...interface{}) {}
func (nop) Warnf(string, ...interface{})  {}

// Nop discards everything. It is the default logger for engines
// constructed without WithLogger.
var Nop Logger = nop{}
