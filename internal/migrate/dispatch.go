package migrate

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"qbtmigrate/internal/archive"
	"qbtmigrate/internal/fastresume"
	"qbtmigrate/internal/journal"
	"qbtmigrate/internal/logging"
)

// Outcome is the result of one record unit.
type Outcome struct {
	Path string
	// Before and After are the record's primary save path around the
	// rewrite. After is empty when the unit failed.
	Before string
	After  string
	// Backup is the per-record .bkup file, when one was written.
	Backup string
	Err    error
}

// Dispatch tracks the units of a run. It is safe to ignore: units complete
// and release the directory lock without anyone waiting on them.
type Dispatch struct {
	RunID     string
	StartedAt time.Time
	// Archive is nil when the run did not create a backup archive.
	Archive *archive.Manifest
	// Paths lists the dispatched records in discovery order.
	Paths   []string
	Skipped []Skipped

	records []*fastresume.Record
	lock    *flock.Flock
	results chan Outcome
	done    chan struct{}

	mu       sync.Mutex
	outcomes []Outcome
	err      error
}

// Results delivers each outcome as its unit finishes. The channel is buffered
// for every dispatched record, so units never block on a caller that does not
// drain it, and it is closed after the last unit.
func (d *Dispatch) Results() <-chan Outcome { return d.results }

// Done is closed once every unit has finished and the lock is released.
func (d *Dispatch) Done() <-chan struct{} { return d.done }

// Wait blocks until every unit has finished and returns all outcomes in
// completion order, with the unit failures joined into one error.
func (d *Dispatch) Wait() ([]Outcome, error) {
	<-d.done
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Outcome, len(d.outcomes))
	copy(out, d.outcomes)
	return out, d.err
}

func (d *Dispatch) dispatch(ctx context.Context, b *Batch, logger *slog.Logger, opts RunOptions) {
	var g errgroup.Group
	g.SetLimit(b.workers)
	for _, rec := range d.records {
		g.Go(func() error {
			outcome := b.migrateRecord(ctx, rec, opts)
			d.mu.Lock()
			d.outcomes = append(d.outcomes, outcome)
			d.mu.Unlock()
			d.results <- outcome
			return nil
		})
	}
	_ = g.Wait()

	d.mu.Lock()
	outcomes := d.outcomes
	d.err = joinFailures(outcomes)
	d.mu.Unlock()

	status := runStatus(outcomes)
	if b.journal != nil {
		if err := b.journal.FinishRun(ctx, d.RunID, status, d.err); err != nil {
			logger.Warn("failed to journal run result", logging.Error(err))
		}
	}
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(logger, "failed to release BT_backup lock", "lock_release_failed",
			logging.Error(err),
			logging.Alert("stale_lock"),
			logging.String(logging.FieldErrorHint, "remove "+d.lock.Path()+" if no migration is running"),
			logging.String(logging.FieldImpact, "later runs may report the directory as locked"),
		)
	}

	attrs := []any{
		logging.String("status", string(status)),
		logging.Int("records", len(outcomes)),
		logging.Int("skipped", len(d.Skipped)),
		logging.Duration("elapsed", time.Since(d.StartedAt)),
	}
	if d.err != nil {
		attrs = append(attrs, logging.Error(d.err))
		logger.Warn("run finished with failures", attrs...)
	} else {
		logger.Info("run finished", attrs...)
	}

	close(d.results)
	close(d.done)
}

// migrateRecord rewrites one record and journals the result. Failures are
// logged here so they are never lost when the caller ignores the Dispatch.
func (b *Batch) migrateRecord(ctx context.Context, rec *fastresume.Record, opts RunOptions) Outcome {
	ctx = logging.WithRecord(ctx, rec.Path())
	logger := logging.WithContext(ctx, b.logger)

	outcome := Outcome{Path: rec.Path(), Before: primaryPath(rec)}
	outcome.Err = rec.ReplacePaths(opts.Existing, opts.Replacement, opts.Regex, fastresume.UpdateOptions{
		TargetOS: opts.TargetOS,
		Backup:   opts.RecordBackups,
		Save:     true,
	})
	if outcome.Err == nil {
		outcome.After = primaryPath(rec)
	}
	outcome.Backup = rec.LastBackup()

	entry := journal.Entry{
		RecordPath:     outcome.Path,
		SavePathBefore: outcome.Before,
		SavePathAfter:  outcome.After,
		BackupPath:     outcome.Backup,
	}
	if outcome.Err != nil {
		entry.Status = journal.EntryFailed
		entry.ErrorKind = errorKind(outcome.Err)
		entry.Error = outcome.Err.Error()
		logging.ErrorWithContext(logger, "record migration failed", "record_failed",
			logging.Error(outcome.Err),
			logging.String(logging.FieldErrorHint, "fix the reported problem and rerun; the file on disk was not rewritten"),
			logging.String(logging.FieldImpact, "record keeps its previous save path"),
		)
	} else {
		entry.Status = journal.EntryUpdated
		logger.Info("record migrated",
			logging.String("before", outcome.Before),
			logging.String("after", outcome.After),
		)
	}
	if b.journal != nil {
		runID, _ := logging.RunFromContext(ctx)
		if err := b.journal.RecordOutcome(ctx, runID, entry); err != nil {
			logger.Warn("failed to journal record outcome", logging.Error(err))
		}
	}
	return outcome
}

func primaryPath(rec *fastresume.Record) string {
	if v, ok := rec.SavePath(); ok && v != "" {
		return v
	}
	v, _ := rec.QBtSavePath()
	return v
}
