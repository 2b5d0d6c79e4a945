// Package logging assembles the slog loggers used by qbt-migrate.
//
// It owns the console and JSON handlers, parses levels, and can tee every
// record into a JSON log file next to the console output. Context helpers
// carry the batch run ID and the record being processed so per-record lines
// are tagged without threading attributes through every call. A no-op logger
// is provided for tests and for components constructed without one.
package logging
