// Package preflight provides readiness checks for the directories a
// migration touches.
//
// The CLI runs RunAll before a batch starts and "qbt-migrate config validate"
// prints the same results. Each check is gated by its config toggle, so a run
// without archives or journal skips the corresponding directory.
package preflight
