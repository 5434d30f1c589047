package logger

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Leveled adapts the global logger to key/value style leveled logging as
// used by HTTP client libraries (go-retryablehttp's LeveledLogger).
type Leveled struct {
	component string
}

// NewLeveled returns a leveled adapter tagging every entry with component
func NewLeveled(component string) *Leveled {
	return &Leveled{component: component}
}

func (l *Leveled) entry(keysAndValues []interface{}) *logrus.Entry {
	fields := logrus.Fields{"component": l.component}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return WithFields(fields)
}

// Error logs msg at error level
func (l *Leveled) Error(msg string, keysAndValues ...interface{}) {
	l.entry(keysAndValues).Error(msg)
}

// Info logs msg at info level
func (l *Leveled) Info(msg string, keysAndValues ...interface{}) {
	l.entry(keysAndValues).Info(msg)
}

// Debug logs msg at debug level
func (l *Leveled) Debug(msg string, keysAndValues ...interface{}) {
	l.entry(keysAndValues).Debug(msg)
}

// Warn logs msg at warn level
func (l *Leveled) Warn(msg string, keysAndValues ...interface{}) {
	l.entry(keysAndValues).Warn(msg)
}
