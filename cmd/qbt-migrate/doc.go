// Package main hosts the qbt-migrate CLI entrypoint and command graph.
//
// The Cobra-based command tree resolves configuration, builds the logger and
// optional run journal, and hands the actual work to internal/migrate. The
// migrate command waits for every dispatched record before exiting so a run is
// never cut short by process exit; scan previews which records a run would
// touch, and history reads the journal.
//
// Keep this package lean: behaviour belongs in the internal packages, and
// commands here only translate flags and render results.
package main
