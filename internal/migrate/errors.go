package migrate

import (
	"errors"

	"qbtmigrate/internal/fastresume"
	"qbtmigrate/internal/journal"
)

var (
	// ErrNotADirectory reports a BT_backup path that is missing or not a directory.
	ErrNotADirectory = errors.New("BT_backup path is not a directory")
	// ErrLocked reports another run holding the BT_backup lock.
	ErrLocked = errors.New("another migration is already running against this BT_backup directory")
)

// errorKind maps a unit failure to the journal classification.
func errorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, fastresume.ErrEmptyPath), errors.Is(err, fastresume.ErrInvalidTarget):
		return "validation"
	default:
		return journal.Classify(err)
	}
}
