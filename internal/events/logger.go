package events

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/TheMichaelB/dircrypt/internal/config"
)

// LogLevel represents logging severity.
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// Logger provides structured logging.
type Logger struct {
	entry *logrus.Entry
}

// NewLogger creates a logger from config.
func NewLogger(cfg *config.LogConfig) (*Logger, error) {
	var output io.Writer = os.Stderr
	if cfg.File != "" {
		file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		output = file
	}

	return newLogger(parseLevel(cfg.Level), cfg.Format, output, cfg.Color), nil
}

// NewTestLogger creates a logger for testing.
func NewTestLogger(level LogLevel, format string, output io.Writer) *Logger {
	return newLogger(level, format, output, false)
}

func newLogger(level LogLevel, format string, output io.Writer, color bool) *Logger {
	base := logrus.New()
	base.SetOutput(output)
	base.SetLevel(toLogrus(level))

	if format == "json" {
		base.SetFormatter(&logrus.JSONFormatter{})
	} else {
		base.SetFormatter(&logrus.TextFormatter{
			DisableColors: !color,
			FullTimestamp: true,
		})
	}

	return &Logger{entry: logrus.NewEntry(base)}
}

// WithField returns a logger with an additional field.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{entry: l.entry.WithField(key, value)}
}

// WithFields returns a logger with additional fields.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return &Logger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

// WithError adds an error field.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{entry: l.entry.WithError(err)}
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string) {
	l.entry.Debug(msg)
}

// Info logs at info level.
func (l *Logger) Info(msg string) {
	l.entry.Info(msg)
}

// Warn logs at warn level.
func (l *Logger) Warn(msg string) {
	l.entry.Warn(msg)
}

// Error logs at error level.
func (l *Logger) Error(msg string) {
	l.entry.Error(msg)
}

// SetLevel changes the minimum level of this logger and all loggers
// derived from the same root.
func (l *Logger) SetLevel(level LogLevel) {
	l.entry.Logger.SetLevel(toLogrus(level))
}

// ParseLevel maps a config level name to a LogLevel.
func ParseLevel(s string) LogLevel {
	return parseLevel(s)
}

func parseLevel(s string) LogLevel {
	switch strings.ToLower(s) {
	case "debug":
		return DebugLevel
	case "warn":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

func toLogrus(l LogLevel) logrus.Level {
	switch l {
	case DebugLevel:
		return logrus.DebugLevel
	case WarnLevel:
		return logrus.WarnLevel
	case ErrorLevel:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}
