package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"qbtmigrate/internal/config"
	"qbtmigrate/internal/fastresume"
	"qbtmigrate/internal/testsupport"
)

func seedRecords(t *testing.T, dir string) (string, string) {
	t.Helper()

	a := testsupport.WriteResume(t, dir, "a.fastresume", testsupport.Resume{
		SavePath:    "/data/movies/a",
		QBtSavePath: "/data/movies/a",
		MappedFiles: []string{"/data/movies/a/a.mkv"},
	})
	b := testsupport.WriteResume(t, dir, "b.fastresume", testsupport.Resume{SavePath: "/data/tv/b"})
	return a, b
}

func TestVersionCommand(t *testing.T) {
	out, _, err := runCLI(t, []string{"version"}, "", "")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	requireContains(t, out, version)
}

func TestConfigInitValidateAndShow(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath, "")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "BT_backup directory")

	out, _, err = runCLI(t, []string{"config", "show"}, env.configPath, "")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, env.btBackup)

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "", "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, "", ""); err == nil {
		t.Fatal("expected init to refuse overwriting without --overwrite")
	}
}

func TestConfigValidateReportsMissingBTBackup(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.RemoveAll(env.btBackup); err != nil {
		t.Fatal(err)
	}
	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath, "")
	if err == nil {
		t.Fatal("expected validation failure for a missing BT_backup directory")
	}
	requireContains(t, out, "ERROR")
}

func TestScanListsMatches(t *testing.T) {
	env := setupCLITestEnv(t)
	seedRecords(t, env.btBackup)

	out, _, err := runCLI(t, []string{"scan", "-e", "/data/movies"}, env.configPath, "")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	requireContains(t, out, "a.fastresume")
	requireContains(t, out, "1 of 2 records match")

	out, _, err = runCLI(t, []string{"scan", "-e", `^/data/(movies|tv)`, "-r", "--json"}, env.configPath, "")
	if err != nil {
		t.Fatalf("scan --json: %v", err)
	}
	var result scanResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode scan json: %v\n%s", err, out)
	}
	if result.Scanned != 2 || len(result.Records) != 2 || result.Records[0].MappedFiles != 1 {
		t.Fatalf("unexpected scan result: %+v", result)
	}
}

func TestMigrateRewritesRecordsAndJournals(t *testing.T) {
	env := setupCLITestEnv(t)
	a, b := seedRecords(t, env.btBackup)

	out, _, err := runCLI(t, []string{"migrate", "-e", "/data/movies", "-n", `M:\movies`, "--json"}, env.configPath, "")
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	var summary migrateSummary
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("decode summary: %v\n%s", err, out)
	}
	if summary.Updated != 1 || summary.Failed != 0 || summary.TargetOS != "windows" || summary.Archive == "" {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if filepath.Dir(summary.Archive) != env.cfg.Paths.BackupDir {
		t.Fatalf("archive written to %q, want dir %q", summary.Archive, env.cfg.Paths.BackupDir)
	}

	rec, err := fastresume.Load(a)
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := rec.SavePath(); got != `M:\movies\a` {
		t.Fatalf("save_path = %q", got)
	}
	untouched, err := fastresume.Load(b)
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := untouched.SavePath(); got != "/data/tv/b" {
		t.Fatalf("unrelated record changed: %q", got)
	}

	out, _, err = runCLI(t, []string{"history"}, env.configPath, "")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, summary.RunID[:8])
	requireContains(t, out, "completed")

	out, _, err = runCLI(t, []string{"history", summary.RunID[:8]}, env.configPath, "")
	if err != nil {
		t.Fatalf("history detail: %v", err)
	}
	requireContains(t, out, env.btBackup)
	requireContains(t, out, filepath.Base(a))
	requireContains(t, out, "updated")
}

func TestMigratePromptsForMissingPaths(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithoutJournal())
	a, _ := seedRecords(t, env.btBackup)

	_, stderr, err := runCLI(t, []string{"migrate", "--no-backup"}, env.configPath, "/data/movies\n/srv/movies\n")
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	requireContains(t, stderr, "Existing Path: ")
	requireContains(t, stderr, "New Path: ")

	rec, err := fastresume.Load(a)
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := rec.QBtSavePath(); got != "/srv/movies/a" {
		t.Fatalf("qBt-savePath = %q", got)
	}

	if _, _, err := runCLI(t, []string{"migrate", "--no-backup"}, env.configPath, ""); err == nil {
		t.Fatal("expected an error when no paths are given and stdin is empty")
	}
}

func TestMigrateReportsFailedRecords(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithoutJournal())
	testsupport.WriteResume(t, env.btBackup, "x.fastresume", testsupport.Resume{SavePath: "/gone"})
	testsupport.WriteResume(t, env.btBackup, "y.fastresume", testsupport.Resume{SavePath: "/gone/y"})

	out, _, err := runCLI(t, []string{"migrate", "-e", "/gone", "-n", "", "--no-backup"}, env.configPath, "")
	if err == nil {
		t.Fatal("expected failure when a record would lose its save path")
	}
	requireContains(t, err.Error(), "1 of 2 records failed")
	requireContains(t, out, "failed")
}

func TestMigrateRejectsUnknownTargetOS(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"migrate", "-e", "/a", "-n", "/b", "-t", "amiga"}, env.configPath, ""); err == nil {
		t.Fatal("expected invalid target OS error")
	}
}

func TestResolveRunOptions(t *testing.T) {
	cases := []struct {
		name     string
		args     []string
		cfgOS    string
		existing string
		repl     string
		want     fastresume.TargetOS
	}{
		{name: "detect windows", existing: "/data", repl: `D:\data`, want: fastresume.TargetWindows},
		{name: "detect posix", existing: `C:\data`, repl: "/mnt/data", want: fastresume.TargetPOSIX},
		{name: "no change", existing: "/data", repl: "/mnt", want: fastresume.TargetNone},
		{name: "config wins over detection", cfgOS: "Windows", existing: "/data", repl: "/mnt", want: fastresume.TargetWindows},
		{name: "flag wins over config", args: []string{"-t", "Linux"}, cfgOS: "Windows", existing: "/data", repl: `D:\x`, want: fastresume.TargetPOSIX},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var flags migrateFlags
			cmd := &cobra.Command{}
			cmd.Flags().VarP(&flags.target, "target-os", "t", "")
			cmd.Flags().Bool("regex", false, "")
			cmd.Flags().Bool("skip-bad-files", false, "")
			cmd.Flags().Bool("record-backups", false, "")
			if err := cmd.Flags().Parse(tc.args); err != nil {
				t.Fatal(err)
			}
			flags.existing, flags.replacement = tc.existing, tc.repl

			cfg := config.Default()
			cfg.Migrate.TargetOS = tc.cfgOS
			opts, err := resolveRunOptions(cmd, &cfg, &flags)
			if err != nil {
				t.Fatalf("resolveRunOptions: %v", err)
			}
			if opts.TargetOS != tc.want {
				t.Fatalf("target = %v, want %v", opts.TargetOS, tc.want)
			}
			if !opts.CreateBackup || opts.RecordBackups {
				t.Fatalf("unexpected defaults: %+v", opts)
			}
		})
	}
}
