package journal

import (
	"errors"
	"time"
)

// RunStatus is the lifecycle state of a batch run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	// RunPartial means at least one record failed while others succeeded.
	RunPartial RunStatus = "partial"
	RunFailed  RunStatus = "failed"
	// RunAborted means discovery or archiving stopped the run before any
	// record was dispatched.
	RunAborted RunStatus = "aborted"
)

// EntryStatus is the outcome of one record within a run.
type EntryStatus string

const (
	EntryUpdated EntryStatus = "updated"
	EntryFailed  EntryStatus = "failed"
	EntrySkipped EntryStatus = "skipped"
)

// Run is one invocation of the batch migrator.
type Run struct {
	ID          string    `json:"id"`
	BTBackupDir string    `json:"bt_backup_dir"`
	Existing    string    `json:"existing_path"`
	Replacement string    `json:"new_path"`
	Regex       bool      `json:"regex"`
	TargetOS    string    `json:"target_os,omitempty"`
	ArchivePath string    `json:"archive_path,omitempty"`
	Discovered  int       `json:"discovered"`
	Status      RunStatus `json:"status"`
	Error       string    `json:"error,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`

	// Counts are filled by ListRuns and FindRun.
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// Entry is the recorded outcome of one record.
type Entry struct {
	ID             int64       `json:"id"`
	RunID          string      `json:"run_id"`
	RecordPath     string      `json:"record_path"`
	Status         EntryStatus `json:"status"`
	ErrorKind      string      `json:"error_kind,omitempty"`
	Error          string      `json:"error,omitempty"`
	SavePathBefore string      `json:"save_path_before,omitempty"`
	SavePathAfter  string      `json:"save_path_after,omitempty"`
	BackupPath     string      `json:"backup_path,omitempty"`
	RecordedAt     time.Time   `json:"recorded_at"`
}

// ErrorClassifier allows errors to declare their classification for the journal.
type ErrorClassifier interface {
	ErrorKind() string
}

// Classify returns the ErrorKind of the first classifier in err's chain, or
// "io" for unclassified errors. A nil error has no kind.
func Classify(err error) string {
	if err == nil {
		return ""
	}
	var classifier ErrorClassifier
	if errors.As(err, &classifier) {
		if kind := classifier.ErrorKind(); kind != "" {
			return kind
		}
	}
	return "io"
}
