// Package logger wraps logrus behind a small interface with a
// process-global instance, the Go-native replacement for line-buffered
// stdout printing.
package logger

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// Fields carries structured context alongside a log line.
type Fields map[string]interface{}

// Logger is the minimal surface every call site needs.
type Logger interface {
	Debug(args ...interface{})
	Debugf(format string, args ...interface{})
	Info(args ...interface{})
	Infof(format string, args ...interface{})
	Warn(args ...interface{})
	Warnf(format string, args ...interface{})
	Error(args ...interface{})
	Errorf(format string, args ...interface{})
	Fatal(args ...interface{})
	Fatalf(format string, args ...interface{})
	WithFields(fields Fields) Logger
}

type logrusLogger struct {
	entry *logrus.Entry
}

func (l *logrusLogger) Debug(args ...interface{})                 { l.entry.Debug(args...) }
func (l *logrusLogger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l *logrusLogger) Info(args ...interface{})                  { l.entry.Info(args...) }
func (l *logrusLogger) Infof(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l *logrusLogger) Warn(args ...interface{})                  { l.entry.Warn(args...) }
func (l *logrusLogger) Warnf(format string, args ...interface{})  { l.entry.Warnf(format, args...) }
func (l *logrusLogger) Error(args ...interface{})                 { l.entry.Error(args...) }
func (l *logrusLogger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }
func (l *logrusLogger) Fatal(args ...interface{})                 { l.entry.Fatal(args...) }
func (l *logrusLogger) Fatalf(format string, args ...interface{}) { l.entry.Fatalf(format, args...) }
func (l *logrusLogger) WithFields(fields Fields) Logger {
	return &logrusLogger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

var (
	mu     sync.RWMutex
	global Logger = newDefault()
)

func newDefault() Logger {
	base := logrus.New()
	base.SetOutput(os.Stderr)
	base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	base.SetLevel(logrus.InfoLevel)
	return &logrusLogger{entry: logrus.NewEntry(base)}
}

// InitGlobalLogger replaces the process-global logger. verbose raises
// the level to Debug, matching the CLI's --verbose flag.
func InitGlobalLogger(verbose bool) {
	base := logrus.New()
	base.SetOutput(os.Stderr)
	base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if verbose {
		base.SetLevel(logrus.DebugLevel)
	} else {
		base.SetLevel(logrus.InfoLevel)
	}
	mu.Lock()
	global = &logrusLogger{entry: logrus.NewEntry(base)}
	mu.Unlock()
}

// GlobalLogger returns the current process-global logger.
func GlobalLogger() Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

func Debug(args ...interface{})                 { GlobalLogger().Debug(args...) }
func Debugf(format string, args ...interface{}) { GlobalLogger().Debugf(format, args...) }
func Info(args ...interface{})                  { GlobalLogger().Info(args...) }
func Infof(format string, args ...interface{})  { GlobalLogger().Infof(format, args...) }
func Warn(args ...interface{})                  { GlobalLogger().Warn(args...) }
func Warnf(format string, args ...interface{})  { GlobalLogger().Warnf(format, args...) }
func Error(args ...interface{})                 { GlobalLogger().Error(args...) }
func Errorf(format string, args ...interface{}) { GlobalLogger().Errorf(format, args...) }
func Fatal(args ...interface{})                 { GlobalLogger().Fatal(args...) }
func Fatalf(format string, args ...interface{}) { GlobalLogger().Fatalf(format, args...) }
func WithFields(fields Fields) Logger           { return GlobalLogger().WithFields(fields) }
