// Package logging provides leveled, component-tagged logging for the
// automation. Each subsystem owns one logger; the minimum level is set
// globally once at startup from the configuration.
package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// LogLevel represents the severity of a log message
type LogLevel string

const (
	LogLevelDebug LogLevel = "DEBUG"
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
	LogLevelFatal LogLevel = "FATAL"
)

var levelOrder = map[LogLevel]int{
	LogLevelDebug: 0,
	LogLevelInfo:  1,
	LogLevelWarn:  2,
	LogLevelError: 3,
	LogLevelFatal: 4,
}

// ParseLevel converts a configuration string to a LogLevel, defaulting to INFO
func ParseLevel(s string) LogLevel {
	switch LogLevel(s) {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError, LogLevelFatal:
		return LogLevel(s)
	default:
		return LogLevelInfo
	}
}

// LogEntry represents a single log entry
type LogEntry struct {
	Timestamp time.Time
	Level     LogLevel
	Component string
	Message   string
	Err       error
}

// LogFormatter formats log entries for output
type LogFormatter interface {
	Format(entry *LogEntry) string
}

// TextFormatter formats logs as human-readable text
type TextFormatter struct{}

func (f *TextFormatter) Format(entry *LogEntry) string {
	timestamp := entry.Timestamp.Format("2006-01-02 15:04:05.000")
	msg := fmt.Sprintf("[%s] %s [%s] %s", timestamp, entry.Level, entry.Component, entry.Message)

	if entry.Err != nil {
		msg += fmt.Sprintf(" | error=%v", entry.Err)
	}

	return msg + "\n"
}

// Logger provides leveled logging for one component of the automation
// (locator, detector, traversal, pipeline, ...)
type Logger struct {
	component string
	minLevel  LogLevel
	out       io.Writer
	formatter LogFormatter
	mu        sync.Mutex
}

var (
	globalMu       sync.RWMutex
	globalMinLevel = LogLevelInfo
)

// SetGlobalLevel sets the minimum level applied to loggers created after
// the call. Existing loggers keep their level.
func SetGlobalLevel(level LogLevel) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalMinLevel = level
}

// NewLogger creates a new logger for a specific component
func NewLogger(component string) *Logger {
	globalMu.RLock()
	minLevel := globalMinLevel
	globalMu.RUnlock()
	return &Logger{
		component: component,
		minLevel:  minLevel,
		out:       os.Stdout,
		formatter: &TextFormatter{},
	}
}

func (l *Logger) log(level LogLevel, message string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if levelOrder[level] < levelOrder[l.minLevel] {
		return
	}

	entry := &LogEntry{
		Timestamp: time.Now(),
		Level:     level,
		Component: l.component,
		Message:   message,
		Err:       err,
	}

	l.out.Write([]byte(l.formatter.Format(entry)))
}

// Debug logs a debug message
func (l *Logger) Debug(message string) {
	l.log(LogLevelDebug, message, nil)
}

// Debugf logs a formatted debug message
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.log(LogLevelDebug, fmt.Sprintf(format, args...), nil)
}

// Info logs an informational message
func (l *Logger) Info(message string) {
	l.log(LogLevelInfo, message, nil)
}

// Infof logs a formatted informational message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.log(LogLevelInfo, fmt.Sprintf(format, args...), nil)
}

// Warn logs a warning message
func (l *Logger) Warn(message string) {
	l.log(LogLevelWarn, message, nil)
}

// Warnf logs a formatted warning message
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.log(LogLevelWarn, fmt.Sprintf(format, args...), nil)
}

// Error logs an error message with an optional error value
func (l *Logger) Error(message string, err error) {
	l.log(LogLevelError, message, err)
}
