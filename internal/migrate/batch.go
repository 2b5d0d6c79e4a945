package migrate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"qbtmigrate/internal/archive"
	"qbtmigrate/internal/config"
	"qbtmigrate/internal/fastresume"
	"qbtmigrate/internal/journal"
	"qbtmigrate/internal/logging"
)

// verifyArchive re-reads a fresh archive against its manifest before any
// record is dispatched.
var verifyArchive = archive.Verify

// lockName is created inside the BT_backup directory for the duration of a run.
const lockName = ".qbt-migrate.lock"

// Batch migrates the records of one BT_backup directory.
type Batch struct {
	dir             string
	backupDir       string
	includeTorrents bool
	retentionDays   int
	workers         int
	journal         *journal.Store
	logger          *slog.Logger
	now             func() time.Time
}

// Option customizes a Batch.
type Option func(*Batch)

// WithClock overrides the time source for archive and backup names.
func WithClock(now func() time.Time) Option {
	return func(b *Batch) {
		if now != nil {
			b.now = now
		}
	}
}

// WithDir overrides the configured BT_backup directory.
func WithDir(dir string) Option {
	return func(b *Batch) {
		if dir != "" {
			b.dir = dir
		}
	}
}

// New builds a Batch from cfg. store may be nil when the journal is disabled.
func New(cfg *config.Config, store *journal.Store, logger *slog.Logger, opts ...Option) *Batch {
	if logger == nil {
		logger = logging.NewNop()
	}
	b := &Batch{
		dir:             cfg.Paths.BTBackupDir,
		backupDir:       cfg.Paths.BackupDir,
		includeTorrents: cfg.Migrate.IncludeTorrents,
		retentionDays:   cfg.Migrate.ArchiveRetentionDays,
		workers:         cfg.Migrate.Workers,
		journal:         store,
		logger:          logging.NewComponentLogger(logger, "migrate"),
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.workers <= 0 {
		b.workers = 1
	}
	return b
}

// Dir returns the BT_backup directory the batch operates on.
func (b *Batch) Dir() string { return b.dir }

// RunOptions are the parameters of a single run.
type RunOptions struct {
	Existing    string
	Replacement string
	Regex       bool
	// TargetOS converts separators of every rewritten path. TargetNone
	// leaves separators alone.
	TargetOS fastresume.TargetOS
	// CreateBackup writes a zip archive of the directory before dispatch.
	CreateBackup bool
	// SkipBadFiles logs and skips records that fail to load instead of
	// aborting the run.
	SkipBadFiles bool
	// RecordBackups writes a per-record .bkup file before each rewrite.
	RecordBackups bool
}

// Run locks the directory, archives it when requested, discovers matching
// records, and dispatches one unit per record. It returns once every unit is
// scheduled; the lock is held until the last unit finishes. Units are not
// cancelled by ctx once dispatched.
func (b *Batch) Run(ctx context.Context, opts RunOptions) (*Dispatch, error) {
	if _, err := fastresume.NewReplacer(opts.Existing, opts.Replacement, opts.Regex); err != nil {
		return nil, err
	}
	if err := checkDir(b.dir); err != nil {
		return nil, err
	}

	lock := flock.New(filepath.Join(b.dir, lockName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, b.dir)
	}

	runID := uuid.NewString()
	ctx = logging.WithRun(ctx, runID)
	logger := logging.WithContext(ctx, b.logger)

	d, err := b.prepare(ctx, logger, runID, opts)
	if err != nil {
		if unlockErr := lock.Unlock(); unlockErr != nil {
			logger.Warn("failed to release BT_backup lock", logging.Error(unlockErr))
		}
		return nil, err
	}
	d.lock = lock

	logger.Info("dispatching records",
		logging.Int("records", len(d.records)),
		logging.Int("workers", b.workers),
		logging.String("target_os", opts.TargetOS.DisplayName()),
	)
	go d.dispatch(context.WithoutCancel(ctx), b, logger, opts)
	return d, nil
}

// prepare runs the synchronous steps that must finish before any record is
// touched. Failures mark the journaled run aborted.
func (b *Batch) prepare(ctx context.Context, logger *slog.Logger, runID string, opts RunOptions) (*Dispatch, error) {
	started := b.now()
	if b.journal != nil {
		if err := b.journal.BeginRun(ctx, journal.Run{
			ID:          runID,
			BTBackupDir: b.dir,
			Existing:    opts.Existing,
			Replacement: opts.Replacement,
			Regex:       opts.Regex,
			TargetOS:    opts.TargetOS.String(),
			StartedAt:   started,
		}); err != nil {
			return nil, fmt.Errorf("journal run: %w", err)
		}
	}
	abort := func(err error) error {
		if b.journal != nil {
			if jErr := b.journal.FinishRun(context.WithoutCancel(ctx), runID, journal.RunAborted, err); jErr != nil {
				logger.Warn("failed to journal aborted run", logging.Error(jErr))
			}
		}
		logger.Error("run aborted", logging.Error(err))
		return err
	}

	d := &Dispatch{RunID: runID, StartedAt: started, done: make(chan struct{})}

	if opts.CreateBackup {
		manifest, err := archive.Create(ctx, archive.Options{
			SourceDir:       b.dir,
			DestDir:         b.backupDir,
			IncludeTorrents: b.includeTorrents,
			Now:             b.now,
			Logger:          logger,
		})
		if err != nil {
			return nil, abort(fmt.Errorf("backup archive: %w", err))
		}
		if err := verifyArchive(manifest); err != nil {
			return nil, abort(fmt.Errorf("verify backup archive: %w", err))
		}
		d.Archive = manifest
		archive.Prune(logger, filepath.Dir(manifest.Path), b.retentionDays, manifest.CreatedAt, manifest.Path)
	}

	found, err := b.Discover(ctx, opts.Existing, opts.Regex, opts.SkipBadFiles)
	if err != nil {
		return nil, abort(err)
	}
	d.records = found.Records
	d.Skipped = found.Skipped
	d.Paths = found.Paths()
	d.results = make(chan Outcome, len(found.Records))

	if b.journal != nil {
		archivePath := ""
		if d.Archive != nil {
			archivePath = d.Archive.Path
		}
		if err := b.journal.UpdateDispatch(ctx, runID, archivePath, len(found.Records)); err != nil {
			logger.Warn("failed to journal dispatch", logging.Error(err))
		}
		for _, s := range found.Skipped {
			if err := b.journal.RecordOutcome(ctx, runID, journal.Entry{
				RecordPath: s.Path,
				Status:     journal.EntrySkipped,
				ErrorKind:  errorKind(s.Err),
				Error:      s.Err.Error(),
			}); err != nil {
				logger.Warn("failed to journal skipped record", logging.Error(err))
			}
		}
	}
	return d, nil
}

// runStatus derives the final journal status from unit outcomes.
func runStatus(outcomes []Outcome) journal.RunStatus {
	var failed int
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
		}
	}
	switch {
	case failed == 0:
		return journal.RunCompleted
	case failed == len(outcomes):
		return journal.RunFailed
	default:
		return journal.RunPartial
	}
}

// joinFailures combines unit errors into one error, nil when all succeeded.
func joinFailures(outcomes []Outcome) error {
	var errs []error
	for _, o := range outcomes {
		if o.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", o.Path, o.Err))
		}
	}
	return errors.Join(errs...)
}
