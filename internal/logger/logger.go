// Package logger wraps a process-wide logrus logger emitting JSON entries.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Service is attached to every entry as the "service" field
const Service = "geoconnect"

var (
	mu  sync.RWMutex
	log *logrus.Logger
)

// serviceHook stamps entries with the service name
type serviceHook struct{}

func (serviceHook) Levels() []logrus.Level { return logrus.AllLevels }

func (serviceHook) Fire(e *logrus.Entry) error {
	if _, ok := e.Data["service"]; !ok {
		e.Data["service"] = Service
	}
	return nil
}

// Init configures the global logger at logLevel (DEBUG, INFO, WARN, ERROR;
// case-insensitive). Unknown levels fall back to INFO.
func Init(logLevel string) {
	InitWithOutput(logLevel, os.Stdout)
}

// InitWithOutput is Init writing to out
func InitWithOutput(logLevel string, out io.Writer) {
	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	l.AddHook(serviceHook{})

	level, err := logrus.ParseLevel(strings.ToLower(logLevel))
	if err != nil {
		level = logrus.InfoLevel
		l.Warnf("Invalid log level '%s', defaulting to INFO", logLevel)
	}
	l.SetLevel(level)

	mu.Lock()
	log = l
	mu.Unlock()
}

// GetLogger returns the global logger, initializing it at INFO on first use
func GetLogger() *logrus.Logger {
	mu.RLock()
	l := log
	mu.RUnlock()
	if l != nil {
		return l
	}
	Init("INFO")
	return GetLogger()
}

func Debug(args ...interface{})                 { GetLogger().Debug(args...) }
func Debugf(format string, args ...interface{}) { GetLogger().Debugf(format, args...) }
func Info(args ...interface{})                  { GetLogger().Info(args...) }
func Infof(format string, args ...interface{})  { GetLogger().Infof(format, args...) }
func Warn(args ...interface{})                  { GetLogger().Warn(args...) }
func Warnf(format string, args ...interface{})  { GetLogger().Warnf(format, args...) }
func Error(args ...interface{})                 { GetLogger().Error(args...) }
func Errorf(format string, args ...interface{}) { GetLogger().Errorf(format, args...) }

// WithField returns an entry carrying one field
func WithField(key string, value interface{}) *logrus.Entry {
	return GetLogger().WithField(key, value)
}

// WithFields returns an entry carrying fields
func WithFields(fields logrus.Fields) *logrus.Entry {
	return GetLogger().WithFields(fields)
}
