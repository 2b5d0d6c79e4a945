package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"qbtmigrate/internal/config"
	"qbtmigrate/internal/fastresume"
	"qbtmigrate/internal/logging"
	"qbtmigrate/internal/migrate"
	"qbtmigrate/internal/preflight"
)

type migrateFlags struct {
	existing      string
	replacement   string
	regex         bool
	target        targetOSFlag
	skipBad       bool
	noBackup      bool
	recordBackups bool
	workers       int
	json          bool
}

type migrateSummary struct {
	RunID    string           `json:"run_id"`
	BTBackup string           `json:"bt_backup_dir"`
	Archive  string           `json:"archive,omitempty"`
	TargetOS string           `json:"target_os,omitempty"`
	Updated  int              `json:"updated"`
	Failed   int              `json:"failed"`
	Skipped  int              `json:"skipped"`
	Records  []migrateOutcome `json:"records"`
}

type migrateOutcome struct {
	Path   string `json:"path"`
	Before string `json:"before"`
	After  string `json:"after,omitempty"`
	Backup string `json:"backup,omitempty"`
	Error  string `json:"error,omitempty"`
}

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	var flags migrateFlags

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Replace a save path prefix in every matching .fastresume record",
		Long: `Replace the existing path with a new path in save_path, qBt-savePath,
qBt-downloadPath, and mapped_files of every record under BT_backup whose save
path contains the existing path. qBittorrent must be stopped while this runs.

Paths that are not passed as flags are prompted for.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return runMigrate(cmd, ctx, cfg, &flags)
		},
	}

	cmd.Flags().StringVarP(&flags.existing, "existing-path", "e", "", "Existing root of path to look for")
	cmd.Flags().StringVarP(&flags.replacement, "new-path", "n", "", "New root path to replace the existing root with")
	cmd.Flags().BoolVarP(&flags.regex, "regex", "r", false, "Existing and new paths are a pattern and a replacement template (\\1 refers to a capture group)")
	cmd.Flags().VarP(&flags.target, "target-os", "t", "Convert separators for Windows, Linux, or Mac (default: detect from the paths)")
	cmd.Flags().BoolVarP(&flags.skipBad, "skip-bad-files", "s", false, "Skip unreadable .fastresume files instead of aborting")
	cmd.Flags().BoolVar(&flags.noBackup, "no-backup", false, "Do not write a backup archive before migrating")
	cmd.Flags().BoolVar(&flags.recordBackups, "record-backups", false, "Write a .bkup copy next to each rewritten record")
	cmd.Flags().IntVarP(&flags.workers, "workers", "w", 0, "Records rewritten concurrently (default from config)")
	cmd.Flags().BoolVar(&flags.json, "json", false, "Print the run summary as JSON")
	return cmd
}

func runMigrate(cmd *cobra.Command, ctx *commandContext, cfg *config.Config, flags *migrateFlags) error {
	if err := promptPaths(cmd, flags); err != nil {
		return err
	}
	opts, err := resolveRunOptions(cmd, cfg, flags)
	if err != nil {
		return err
	}
	if flags.workers > 0 {
		cfg.Migrate.Workers = flags.workers
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := ctx.logger(cmd, cfg)
	if err != nil {
		return err
	}
	logger = logging.NewComponentLogger(logger, "cli")

	checks := *cfg
	checks.Migrate.CreateBackup = opts.CreateBackup
	if err := preflight.Err(preflight.RunAll(&checks)); err != nil {
		return fmt.Errorf("preflight: %w", err)
	}

	if !cmd.Flags().Changed("target-os") && cfg.Migrate.TargetOS == "" && opts.TargetOS != fastresume.TargetNone {
		logger.Info("auto detected target OS change", logging.String("target_os", opts.TargetOS.DisplayName()))
	}

	store, err := ctx.openJournal(cfg)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	batch := migrate.New(cfg, store, logger)
	d, err := batch.Run(cmd.Context(), opts)
	if err != nil {
		return err
	}
	outcomes, runErr := d.Wait()

	summary := migrateSummary{
		RunID:    d.RunID,
		BTBackup: batch.Dir(),
		TargetOS: opts.TargetOS.String(),
		Skipped:  len(d.Skipped),
	}
	if d.Archive != nil {
		summary.Archive = d.Archive.Path
	}
	for _, o := range outcomes {
		rec := migrateOutcome{Path: o.Path, Before: o.Before, After: o.After, Backup: o.Backup}
		if o.Err != nil {
			rec.Error = o.Err.Error()
			summary.Failed++
		} else {
			summary.Updated++
		}
		summary.Records = append(summary.Records, rec)
	}

	if flags.json {
		if err := writeJSON(cmd, summary); err != nil {
			return err
		}
	} else {
		printMigrateSummary(cmd, summary)
	}
	if runErr != nil {
		return fmt.Errorf("%d of %d records failed", summary.Failed, len(outcomes))
	}
	return nil
}

func promptPaths(cmd *cobra.Command, flags *migrateFlags) error {
	if cmd.Flags().Changed("existing-path") && cmd.Flags().Changed("new-path") {
		return nil
	}
	p := newPrompter(cmd)
	defer p.Close()
	if err := promptRequired(cmd, p, "Existing Path: ", "existing-path", &flags.existing); err != nil {
		return err
	}
	return promptRequired(cmd, p, "New Path: ", "new-path", &flags.replacement)
}

// resolveRunOptions layers flags over the [migrate] config section. Without an
// explicit or configured target OS the separators of the two paths decide.
func resolveRunOptions(cmd *cobra.Command, cfg *config.Config, flags *migrateFlags) (migrate.RunOptions, error) {
	if strings.TrimSpace(flags.existing) == "" {
		return migrate.RunOptions{}, errors.New("existing path must not be empty")
	}
	opts := migrate.RunOptions{
		Existing:      flags.existing,
		Replacement:   flags.replacement,
		Regex:         cfg.Migrate.Regex,
		CreateBackup:  cfg.Migrate.CreateBackup && !flags.noBackup,
		SkipBadFiles:  cfg.Migrate.SkipBadFiles,
		RecordBackups: cfg.Migrate.RecordBackups,
	}
	if cmd.Flags().Changed("regex") {
		opts.Regex = flags.regex
	}
	if cmd.Flags().Changed("skip-bad-files") {
		opts.SkipBadFiles = flags.skipBad
	}
	if cmd.Flags().Changed("record-backups") {
		opts.RecordBackups = flags.recordBackups
	}

	switch {
	case cmd.Flags().Changed("target-os"):
		opts.TargetOS = flags.target.value
	case cfg.Migrate.TargetOS != "":
		target, err := fastresume.ParseTargetOS(cfg.Migrate.TargetOS)
		if err != nil {
			return migrate.RunOptions{}, fmt.Errorf("migrate.target_os: %w", err)
		}
		opts.TargetOS = target
	default:
		opts.TargetOS = fastresume.DetectTargetOS(opts.Existing, opts.Replacement)
	}
	return opts, nil
}

func printMigrateSummary(cmd *cobra.Command, s migrateSummary) {
	out := cmd.OutOrStdout()
	if len(s.Records) > 0 {
		rows := make([][]string, 0, len(s.Records))
		for _, r := range s.Records {
			result := "updated"
			after := r.After
			if r.Error != "" {
				result = "failed: " + r.Error
				after = "-"
			}
			rows = append(rows, []string{filepath.Base(r.Path), r.Before, after, result})
		}
		fmt.Fprintln(out, renderTable([]column{
			{header: "Record"},
			{header: "Before", wrap: true},
			{header: "After", wrap: true},
			{header: "Result", wrap: true},
		}, rows))
	}

	status := newStatusPrinter(out)
	status.section("Migration")
	status.line("Run", statusInfo, s.RunID)
	status.line("BT_backup", statusInfo, s.BTBackup)
	if s.Archive != "" {
		status.line("Backup archive", statusOK, s.Archive)
	} else {
		status.line("Backup archive", statusWarn, "not created")
	}
	target := "unchanged"
	if s.TargetOS != "" {
		target = s.TargetOS
	}
	status.line("Separators", statusInfo, target)
	status.line("Updated", statusOK, fmt.Sprint(s.Updated))
	status.count("Failed", s.Failed, statusError)
	status.count("Skipped", s.Skipped, statusWarn)
}
