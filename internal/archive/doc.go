// Package archive snapshots a BT_backup directory into a timestamped zip
// before a batch rewrites any record.
//
// Create returns a Manifest with the SHA256 of every archived file, and
// Verify re-reads the finished zip against it. Prune removes archives past a
// retention window.
package archive
