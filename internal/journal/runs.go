package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrRunNotFound reports an unknown run identifier or prefix.
	ErrRunNotFound = errors.New("run not found")
	// ErrAmbiguousRun reports a prefix matching more than one run.
	ErrAmbiguousRun = errors.New("run prefix is ambiguous")
)

const runColumns = `r.id, r.bt_backup_dir, r.existing_path, r.new_path, r.regex, r.target_os,
    r.archive_path, r.discovered, r.status, r.error_message, r.started_at, r.finished_at,
    (SELECT COUNT(1) FROM entries e WHERE e.run_id = r.id AND e.status = 'updated'),
    (SELECT COUNT(1) FROM entries e WHERE e.run_id = r.id AND e.status = 'failed'),
    (SELECT COUNT(1) FROM entries e WHERE e.run_id = r.id AND e.status = 'skipped')`

const entryColumns = `id, run_id, record_path, status, error_kind, error_message,
    save_path_before, save_path_after, backup_path, recorded_at`

// BeginRun inserts run with status running. StartedAt defaults to now.
func (s *Store) BeginRun(ctx context.Context, run Run) error {
	if run.ID == "" {
		return errors.New("run id is required")
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	if _, err := s.exec(ctx,
		`INSERT INTO runs (
            id, bt_backup_dir, existing_path, new_path, regex, target_os,
            archive_path, discovered, status, started_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.BTBackupDir,
		run.Existing,
		run.Replacement,
		boolToInt(run.Regex),
		nullableString(run.TargetOS),
		nullableString(run.ArchivePath),
		run.Discovered,
		RunRunning,
		formatTime(run.StartedAt),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// UpdateDispatch records the archive and discovery count once they are known.
func (s *Store) UpdateDispatch(ctx context.Context, runID, archivePath string, discovered int) error {
	if _, err := s.exec(ctx,
		`UPDATE runs SET archive_path = ?, discovered = ? WHERE id = ?`,
		nullableString(archivePath), discovered, runID,
	); err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	return nil
}

// RecordOutcome appends the outcome of one record to runID.
func (s *Store) RecordOutcome(ctx context.Context, runID string, entry Entry) error {
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = time.Now()
	}
	if _, err := s.exec(ctx,
		`INSERT INTO entries (
            run_id, record_path, status, error_kind, error_message,
            save_path_before, save_path_after, backup_path, recorded_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID,
		entry.RecordPath,
		entry.Status,
		nullableString(entry.ErrorKind),
		nullableString(entry.Error),
		nullableString(entry.SavePathBefore),
		nullableString(entry.SavePathAfter),
		nullableString(entry.BackupPath),
		formatTime(entry.RecordedAt),
	); err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	return nil
}

// FinishRun stamps the final status of runID. runErr, when non-nil, is stored
// as the run's error message.
func (s *Store) FinishRun(ctx context.Context, runID string, status RunStatus, runErr error) error {
	var msg string
	if runErr != nil {
		msg = runErr.Error()
	}
	res, err := s.exec(ctx,
		`UPDATE runs SET status = ?, error_message = ?, finished_at = ? WHERE id = ?`,
		status, nullableString(msg), formatTime(time.Now()), runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

// ListRuns returns the most recent runs first. limit <= 0 returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs r ORDER BY r.started_at DESC, r.id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// FindRun resolves a full run ID or a unique prefix of one.
func (s *Store) FindRun(ctx context.Context, idOrPrefix string) (Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs r WHERE r.id = ? OR r.id LIKE ? || '%' ORDER BY r.id = ? DESC LIMIT 2`,
		idOrPrefix, idOrPrefix, idOrPrefix,
	)
	if err != nil {
		return Run{}, fmt.Errorf("query run: %w", err)
	}
	defer rows.Close()

	var matches []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return Run{}, err
		}
		matches = append(matches, run)
	}
	if err := rows.Err(); err != nil {
		return Run{}, err
	}
	switch {
	case len(matches) == 0:
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, idOrPrefix)
	case matches[0].ID == idOrPrefix, len(matches) == 1:
		return matches[0], nil
	default:
		return Run{}, fmt.Errorf("%w: %s", ErrAmbiguousRun, idOrPrefix)
	}
}

// ListEntries returns the outcomes recorded for runID in insertion order.
func (s *Store) ListEntries(ctx context.Context, runID string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+entryColumns+` FROM entries WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e                             Entry
			status                        string
			kind, msg, before, after, bak sql.NullString
			recorded                      sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.RunID, &e.RecordPath, &status, &kind, &msg, &before, &after, &bak, &recorded); err != nil {
			return nil, err
		}
		e.Status = EntryStatus(status)
		e.ErrorKind = kind.String
		e.Error = msg.String
		e.SavePathBefore = before.String
		e.SavePathAfter = after.String
		e.BackupPath = bak.String
		e.RecordedAt = parseTime(recorded)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (Run, error) {
	var (
		run                    Run
		regex                  int
		targetOS, archive, msg sql.NullString
		status                 string
		started, finished      sql.NullString
	)
	if err := scanner.Scan(
		&run.ID,
		&run.BTBackupDir,
		&run.Existing,
		&run.Replacement,
		&regex,
		&targetOS,
		&archive,
		&run.Discovered,
		&status,
		&msg,
		&started,
		&finished,
		&run.Updated,
		&run.Failed,
		&run.Skipped,
	); err != nil {
		return Run{}, err
	}
	run.Regex = regex != 0
	run.TargetOS = targetOS.String
	run.ArchivePath = archive.String
	run.Status = RunStatus(status)
	run.Error = msg.String
	run.StartedAt = parseTime(started)
	run.FinishedAt = parseTime(finished)
	return run, nil
}
