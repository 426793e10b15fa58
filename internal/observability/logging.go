// Package observability provides logging, metrics, and tracing for the
// client.
package observability

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
)

// Logger wraps slog.Logger to provide specialized logging methods.
type Logger struct {
	*slog.Logger
}

// GlobalLogger is the default logger instance for the application.
var GlobalLogger *Logger

func init() {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	GlobalLogger = &Logger{Logger: slog.New(handler)}
}

// LogContextKey is a type for context keys used by the logging package.
type LogContextKey string

// CorrelationID keys the per-command correlation id in a context.
const CorrelationID LogContextKey = "correlation_id"

// GenerateCorrelationID creates a new unique correlation ID.
func GenerateCorrelationID() string {
	return uuid.NewString()
}

// WithCorrelationID returns a new context with the given correlation ID.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CorrelationID, id)
}

// ExtractCorrelationID retrieves the correlation ID from the context.
func ExtractCorrelationID(ctx context.Context) string {
	if id := ctx.Value(CorrelationID); id != nil {
		return id.(string)
	}
	return ""
}

// OpLogger provides structured logging for outbound service operations.
type OpLogger struct {
	component string
	logger    *Logger
}

// NewOpLogger creates an OpLogger for the given component.
func NewOpLogger(component string) *OpLogger {
	return &OpLogger{
		component: component,
		logger:    GlobalLogger,
	}
}

// LogRequest logs a completed outbound request.
func (l *OpLogger) LogRequest(ctx context.Context, method, path string, status int, elapsed time.Duration) {
	l.logger.InfoContext(ctx, "outbound request",
		slog.String("component", l.component),
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Duration("elapsed", elapsed),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	)
}

// LogError logs a failed operation.
func (l *OpLogger) LogError(ctx context.Context, operation string, err error) {
	l.logger.ErrorContext(ctx, "operation failed",
		slog.String("component", l.component),
		slog.String("operation", operation),
		slog.String("error", err.Error()),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	)
}

// LogDegraded logs an auxiliary read that failed and was absorbed. The
// view degrades (placeholder counts, missing names) instead of breaking,
// so this is warn-level, not error.
func (l *OpLogger) LogDegraded(ctx context.Context, operation string, err error) {
	l.logger.WarnContext(ctx, "auxiliary read degraded",
		slog.String("component", l.component),
		slog.String("operation", operation),
		slog.String("error", err.Error()),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	)
}
