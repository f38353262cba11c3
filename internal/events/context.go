package events

import (
	"context"
	"io"

	"github.com/google/uuid"
)

type contextKey int

const (
	loggerKey contextKey = iota
	operationIDKey
	directoryKey
)

// FromContext extracts logger from context.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerKey).(*Logger); ok {
		return l
	}
	return defaultLogger
}

// WithLogger adds logger to context.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// WithOperationID tags the context with a fresh operation ID.
func WithOperationID(ctx context.Context) context.Context {
	id := uuid.NewString()
	logger := FromContext(ctx).WithField("op_id", id)
	ctx = context.WithValue(ctx, operationIDKey, id)
	return WithLogger(ctx, logger)
}

// WithDirectory adds the target directory to context.
func WithDirectory(ctx context.Context, dir string) context.Context {
	logger := FromContext(ctx).WithField("dir", dir)
	ctx = context.WithValue(ctx, directoryKey, dir)
	return WithLogger(ctx, logger)
}

// GetOperationID retrieves the operation ID from context.
func GetOperationID(ctx context.Context) string {
	if id, ok := ctx.Value(operationIDKey).(string); ok {
		return id
	}
	return ""
}

// GetDirectory retrieves the target directory from context.
func GetDirectory(ctx context.Context) string {
	if dir, ok := ctx.Value(directoryKey).(string); ok {
		return dir
	}
	return ""
}

var defaultLogger = NewTestLogger(WarnLevel, "text", io.Discard)

// SetDefault sets the default logger.
func SetDefault(logger *Logger) {
	defaultLogger = logger
}
