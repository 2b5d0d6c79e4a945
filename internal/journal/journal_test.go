package journal_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"qbtmigrate/internal/fastresume"
	"qbtmigrate/internal/journal"
	"qbtmigrate/internal/testsupport"
)

func TestOpenCreatesSchemaAndReopens(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := journal.Open(cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if store.Path() != cfg.JournalPath() {
		t.Fatalf("path = %q, want %q", store.Path(), cfg.JournalPath())
	}
	if err := store.BeginRun(context.Background(), journal.Run{ID: "run-1", BTBackupDir: "/bt", Existing: "/a", Replacement: "/b"}); err != nil {
		t.Fatalf("BeginRun failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	reopened := testsupport.MustOpenJournal(t, cfg)
	run, err := reopened.FindRun(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("FindRun after reopen failed: %v", err)
	}
	if run.Status != journal.RunRunning {
		t.Fatalf("status = %q, want running", run.Status)
	}
}

func TestRunLifecycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenJournal(t, cfg)
	ctx := context.Background()

	started := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	if err := store.BeginRun(ctx, journal.Run{
		ID:          "9f1c2d3e-0000-4000-8000-000000000001",
		BTBackupDir: "/bt",
		Existing:    "/some/test",
		Replacement: "/moved",
		TargetOS:    "posix",
		StartedAt:   started,
	}); err != nil {
		t.Fatalf("BeginRun failed: %v", err)
	}
	runID := "9f1c2d3e-0000-4000-8000-000000000001"
	if err := store.UpdateDispatch(ctx, runID, "/backups/fastresume_backup20240309140507.zip", 3); err != nil {
		t.Fatalf("UpdateDispatch failed: %v", err)
	}

	outcomes := []journal.Entry{
		{RecordPath: "/bt/a.fastresume", Status: journal.EntryUpdated, SavePathBefore: "/some/test/a", SavePathAfter: "/moved/a"},
		{RecordPath: "/bt/b.fastresume", Status: journal.EntryUpdated, SavePathBefore: "/some/test/b", SavePathAfter: "/moved/b"},
		{RecordPath: "/bt/c.fastresume", Status: journal.EntryFailed, ErrorKind: "validation", Error: "cannot set empty save path"},
	}
	for _, e := range outcomes {
		if err := store.RecordOutcome(ctx, runID, e); err != nil {
			t.Fatalf("RecordOutcome failed: %v", err)
		}
	}
	if err := store.FinishRun(ctx, runID, journal.RunPartial, errors.New("1 record failed")); err != nil {
		t.Fatalf("FinishRun failed: %v", err)
	}

	run, err := store.FindRun(ctx, "9f1c")
	if err != nil {
		t.Fatalf("FindRun by prefix failed: %v", err)
	}
	if run.Status != journal.RunPartial || run.Error != "1 record failed" {
		t.Fatalf("unexpected run state: %+v", run)
	}
	if run.Discovered != 3 || run.Updated != 2 || run.Failed != 1 || run.Skipped != 0 {
		t.Fatalf("unexpected counts: discovered=%d updated=%d failed=%d skipped=%d", run.Discovered, run.Updated, run.Failed, run.Skipped)
	}
	if !run.StartedAt.Equal(started) {
		t.Fatalf("started = %v, want %v", run.StartedAt, started)
	}
	if run.FinishedAt.IsZero() {
		t.Fatal("expected finished_at to be stamped")
	}
	if run.TargetOS != "posix" || run.ArchivePath == "" {
		t.Fatalf("unexpected run fields: %+v", run)
	}

	entries, err := store.ListEntries(ctx, runID)
	if err != nil {
		t.Fatalf("ListEntries failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[2].ErrorKind != "validation" || entries[0].SavePathAfter != "/moved/a" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenJournal(t, cfg)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		if err := store.BeginRun(ctx, journal.Run{
			ID:        fmt.Sprintf("run-%d", i),
			StartedAt: base.Add(time.Duration(i) * time.Hour),
		}); err != nil {
			t.Fatal(err)
		}
	}

	runs, err := store.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "run-2" || runs[1].ID != "run-1" {
		t.Fatalf("unexpected order: %+v", runs)
	}
	all, err := store.ListRuns(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(all))
	}
}

func TestFindRunErrors(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenJournal(t, cfg)
	ctx := context.Background()

	for _, id := range []string{"abc-1", "abc-2"} {
		if err := store.BeginRun(ctx, journal.Run{ID: id}); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := store.FindRun(ctx, "zzz"); !errors.Is(err, journal.ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
	if _, err := store.FindRun(ctx, "abc"); !errors.Is(err, journal.ErrAmbiguousRun) {
		t.Fatalf("expected ErrAmbiguousRun, got %v", err)
	}
	run, err := store.FindRun(ctx, "abc-2")
	if err != nil || run.ID != "abc-2" {
		t.Fatalf("exact match failed: %+v %v", run, err)
	}
	if err := store.FinishRun(ctx, "missing", journal.RunCompleted, nil); !errors.Is(err, journal.ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound finishing unknown run, got %v", err)
	}
}

func TestBeginRunRequiresID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenJournal(t, cfg)
	if err := store.BeginRun(context.Background(), journal.Run{}); err == nil {
		t.Fatal("expected error for missing run id")
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "plain", err: errors.New("disk full"), want: "io"},
		{name: "field", err: fmt.Errorf("wrapped: %w", &fastresume.FieldError{Field: "bogus"}), want: "validation"},
		{name: "missing", err: &fastresume.LoadError{Path: "/x", Err: fastresume.ErrNotFound}, want: "not_found"},
		{name: "malformed", err: &fastresume.LoadError{Path: "/x", Err: fastresume.ErrMissingRequiredField}, want: "validation"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := journal.Classify(tc.err); got != tc.want {
				t.Fatalf("Classify = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRecordOutcomeConcurrentWriters(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenJournal(t, cfg)
	ctx := context.Background()

	const runID = "run-concurrent"
	if err := store.BeginRun(ctx, journal.Run{ID: runID}); err != nil {
		t.Fatal(err)
	}

	const writers = 200
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- store.RecordOutcome(ctx, runID, journal.Entry{
				RecordPath: fmt.Sprintf("/bt/%03d.fastresume", i),
				Status:     journal.EntryUpdated,
			})
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("RecordOutcome failed: %v", err)
		}
	}

	entries, err := store.ListEntries(ctx, runID)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != writers {
		t.Fatalf("expected %d entries, got %d", writers, len(entries))
	}
}

func TestOpenRejectsNewerJournal(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenJournal(t, cfg)
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	db, err := sql.Open("sqlite", cfg.JournalPath())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec("PRAGMA user_version = 99"); err != nil {
		t.Fatal(err)
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	if _, err := journal.Open(cfg); !errors.Is(err, journal.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}
