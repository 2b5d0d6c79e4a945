// Package migrate rewrites the save paths of every relevant .fastresume record
// in a BT_backup directory.
//
// A run takes an exclusive lock on the directory, optionally writes a zip
// archive of it, discovers the records whose save paths match, and then hands
// each record to its own unit of work. Run returns as soon as the units are
// dispatched. The returned Dispatch exposes per-record outcomes for callers
// that want them; callers that drop it get fire-and-forget behaviour, with
// failures still logged and journaled.
package migrate
