// Package journal keeps a durable history of batch migration runs in SQLite.
//
// Each run gets one row with its parameters, archive location and final
// status. Every dispatched record appends an entry with its outcome, the save
// path before and after, and a coarse error kind for failures. The database
// lives under the configured state directory and is opened with WAL so that
// concurrent record units can append without blocking readers.
package journal
