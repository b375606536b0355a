// Package tracker provides structured activity logging for the controller
// and driver loop, following the teacher's libtracker.ActivityTracker shape:
// callers record the start of an operation and receive closures to report
// its error and completion, without importing log/slog themselves.
package tracker

import (
	"context"
	"log/slog"
	"time"
)

type contextKey string

// ContextKeyRequestID is where RequestIDMiddleware stores the per-request id.
var ContextKeyRequestID = contextKey("request_id")

// ActivityTracker records the lifecycle of one operation. Start returns
// reportErr (call with a non-nil error to log failure) and end (call exactly
// once when the operation finishes, success or not).
type ActivityTracker interface {
	Start(ctx context.Context, operation, subject string, kvArgs ...any) (reportErr func(error), end func())
}

// LogActivityTracker logs via log/slog.
type LogActivityTracker struct {
	logger *slog.Logger
}

func NewLogActivityTracker(logger *slog.Logger) *LogActivityTracker {
	return &LogActivityTracker{logger: logger}
}

func (t *LogActivityTracker) Start(ctx context.Context, operation, subject string, kvArgs ...any) (func(error), func()) {
	start := time.Now()
	requestID, _ := ctx.Value(ContextKeyRequestID).(string)
	attrs := append([]slog.Attr{
		slog.String("operation", operation),
		slog.String("subject", subject),
		slog.String("request_id", requestID),
	}, toAttrs(kvArgs)...)
	t.logger.LogAttrs(ctx, slog.LevelInfo, "operation started", attrs...)

	reportErr := func(err error) {
		if err == nil {
			return
		}
		t.logger.LogAttrs(ctx, slog.LevelError, "operation failed",
			slog.String("operation", operation),
			slog.String("subject", subject),
			slog.Any("error", err),
		)
	}
	end := func() {
		t.logger.LogAttrs(ctx, slog.LevelInfo, "operation completed",
			slog.String("operation", operation),
			slog.String("subject", subject),
			slog.Duration("duration", time.Since(start)),
		)
	}
	return reportErr, end
}

func toAttrs(kvArgs []any) []slog.Attr {
	var attrs []slog.Attr
	for i := 0; i+1 < len(kvArgs); i += 2 {
		key, ok := kvArgs[i].(string)
		if !ok {
			continue
		}
		attrs = append(attrs, slog.Any(key, kvArgs[i+1]))
	}
	return attrs
}

// NoopTracker discards everything; used in tests that don't care about logs.
type NoopTracker struct{}

func (NoopTracker) Start(ctx context.Context, operation, subject string, kvArgs ...any) (func(error), func()) {
	return func(error) {}, func() {}
}
