package logger

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// LogrusLogger implements the ports.Logger interface on top of logrus.
type LogrusLogger struct {
	entry *logrus.Entry
}

// ParseLevel converts a string level to a logrus level, defaulting to Info.
func ParseLevel(levelStr string) logrus.Level {
	level, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(levelStr)))
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

// New creates a logger writing to out (os.Stderr when nil).
// format is "json" or "text"; anything else falls back to text.
func New(level, format string, out io.Writer) *LogrusLogger {
	if out == nil {
		out = os.Stderr
	}

	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(ParseLevel(level))
	if strings.EqualFold(format, "json") {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return &LogrusLogger{entry: logrus.NewEntry(l)}
}

// With returns a child logger that adds the given fields to every entry.
func (l *LogrusLogger) With(fields map[string]interface{}) *LogrusLogger {
	return &LogrusLogger{entry: l.entry.WithFields(fields)}
}

// Logrus exposes the underlying logger, e.g. for gorm or HTTP middleware.
func (l *LogrusLogger) Logrus() *logrus.Logger {
	return l.entry.Logger
}

func (l *LogrusLogger) withFields(ctx context.Context, fields []map[string]interface{}) *logrus.Entry {
	entry := l.entry
	if ctx != nil {
		entry = entry.WithContext(ctx)
	}
	if len(fields) > 0 && fields[0] != nil {
		entry = entry.WithFields(fields[0])
	}
	return entry
}

// Debug logs a message at Debug level.
func (l *LogrusLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {
	l.withFields(ctx, fields).Debug(msg)
}

// Info logs a message at Info level.
func (l *LogrusLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	l.withFields(ctx, fields).Info(msg)
}

// Warn logs a message at Warning level.
func (l *LogrusLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	l.withFields(ctx, fields).Warn(msg)
}

// Error logs an error message at Error level.
func (l *LogrusLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
	entry := l.withFields(ctx, fields)
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Error(msg)
}
