package logging

import (
	"context"
	"log/slog"
	"time"
)

// Phase runs fn and logs its name, duration and outcome. Failures are
// logged at debug level; reporting them is the caller's job.
func Phase(ctx context.Context, logger *slog.Logger, name string, fn func(ctx context.Context) error) error {
	start := time.Now()
	err := fn(ctx)

	attrs := []slog.Attr{
		slog.String("phase", name),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		slog.Bool("error", err != nil),
	}
	if err != nil {
		attrs = append(attrs, slog.String("error_message", err.Error()))
	}
	logger.LogAttrs(ctx, slog.LevelDebug, "phase finished", attrs...)

	return err
}
