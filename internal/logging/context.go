package logging

import (
	"context"
	"log/slog"
	"path/filepath"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID identifies one batch run.
	FieldRunID = "run_id"
	// FieldRecord names the .fastresume file a line is about.
	FieldRecord = "record"
	// FieldEventType is a stable machine-readable name for warnings and errors.
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to check next.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldAlert flags warnings or anomalies that should stand out in structured logs.
	FieldAlert = "alert"
)

type ctxKey int

const (
	runIDKey ctxKey = iota
	recordKey
)

// WithRun stores the batch run identifier in ctx.
func WithRun(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// RunFromContext returns the run identifier stored by WithRun.
func RunFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(runIDKey).(string)
	return id, ok && id != ""
}

// WithRecord stores the record path being processed in ctx.
func WithRecord(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, recordKey, path)
}

// RecordFromContext returns the record path stored by WithRecord.
func RecordFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	path, ok := ctx.Value(recordKey).(string)
	return path, ok && path != ""
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	fields := make([]slog.Attr, 0, 2)
	if id, ok := RunFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if path, ok := RecordFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRecord, filepath.Base(path)))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
