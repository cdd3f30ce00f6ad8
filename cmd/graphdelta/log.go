// ABOUTME: Logger construction and context plumbing for CLI commands.
// ABOUTME: Commands read their logger from the cobra command context.
package main

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
)

type loggerKeyType struct{}

var loggerKey = loggerKeyType{}

// newLogger creates a new logger with timestamp formatting.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger attached to ctx, or a discard logger.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.New(io.Discard)
}
