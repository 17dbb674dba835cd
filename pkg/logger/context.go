package logger

import (
	"context"

	"go.uber.org/zap"
)

type contextKey string

const (
	runIDKey  contextKey = "run_id"
	loggerKey contextKey = "logger"
)

// WithRunID tags ctx with the id of the current run.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// RunID returns the run id stored by WithRunID, or "".
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey).(string)
	return id
}

// WithLogger stores a logger in ctx; FromContext returns it unchanged.
func WithLogger(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the context logger, or the global logger with the
// run_id field attached.
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(loggerKey).(*zap.Logger); ok && l != nil {
		return l
	}

	// undo the wrapper skip: callers log on the returned logger directly
	l := Logger.WithOptions(zap.AddCallerSkip(-1))
	if id := RunID(ctx); id != "" {
		l = l.With(zap.String("run_id", id))
	}
	return l
}

// Named returns a component logger, e.g. Named(ctx, "scraper").
func Named(ctx context.Context, component string) *zap.Logger {
	return FromContext(ctx).Named(component)
}
