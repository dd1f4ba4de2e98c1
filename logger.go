package memlog

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with memlog-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// LogAppend logs an append or store operation.
func (l *Logger) LogAppend(ctx context.Context, id string, recordType string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "append failed",
			"id", id,
			"type", recordType,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "append completed",
			"id", id,
			"type", recordType,
		)
	}
}

// LogGet logs a lookup operation.
func (l *Logger) LogGet(ctx context.Context, id string, err error) {
	if err != nil {
		l.DebugContext(ctx, "get missed",
			"id", id,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "get completed",
			"id", id,
		)
	}
}

// LogQuery logs a query operation.
func (l *Logger) LogQuery(ctx context.Context, results int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "query failed",
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "query completed",
			"results", results,
		)
	}
}

// LogDelete logs a delete operation.
func (l *Logger) LogDelete(ctx context.Context, id string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "delete failed",
			"id", id,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "delete completed",
			"id", id,
		)
	}
}

// LogUpdate logs an update operation.
func (l *Logger) LogUpdate(ctx context.Context, id string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "update failed",
			"id", id,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "update completed",
			"id", id,
		)
	}
}

// LogCompaction logs a compaction run.
func (l *Logger) LogCompaction(ctx context.Context, segments, dropped int, reclaimed int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "compaction failed",
			"segments", segments,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "compaction completed",
			"segments", segments,
			"lines_dropped", dropped,
			"bytes_reclaimed", reclaimed,
		)
	}
}

// LogRebuild logs an index rebuild.
func (l *Logger) LogRebuild(ctx context.Context, segments, records, corrupt int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "rebuild failed",
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "rebuild completed",
			"segments", segments,
			"records", records,
			"corrupt_lines", corrupt,
		)
	}
}

// LogMirrorSync logs a mirror synchronization.
func (l *Logger) LogMirrorSync(ctx context.Context, err error) {
	if err != nil {
		l.ErrorContext(ctx, "mirror sync failed",
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "mirror sync completed")
	}
}
