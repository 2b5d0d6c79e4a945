package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"qbtmigrate/internal/fastresume"
	"qbtmigrate/internal/migrate"
)

type scanRecord struct {
	Path         string `json:"path"`
	SavePath     string `json:"save_path,omitempty"`
	QBtSavePath  string `json:"qbt_save_path,omitempty"`
	DownloadPath string `json:"download_path,omitempty"`
	MappedFiles  int    `json:"mapped_files"`
}

type scanResult struct {
	BTBackup string       `json:"bt_backup_dir"`
	Scanned  int          `json:"scanned"`
	Records  []scanRecord `json:"records"`
	Skipped  []string     `json:"skipped,omitempty"`
}

func newScanCommand(ctx *commandContext) *cobra.Command {
	var (
		existing string
		regex    bool
		skipBad  bool
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "List the records a migration would touch without changing them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if existing == "" {
				return errors.New("--existing-path is required")
			}
			logger, err := ctx.logger(cmd, cfg)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("regex") {
				regex = cfg.Migrate.Regex
			}
			if !cmd.Flags().Changed("skip-bad-files") {
				skipBad = cfg.Migrate.SkipBadFiles
			}

			batch := migrate.New(cfg, nil, logger)
			found, err := batch.Discover(cmd.Context(), existing, regex, skipBad)
			if err != nil {
				return err
			}

			result := scanResult{BTBackup: batch.Dir(), Scanned: found.Scanned}
			for _, rec := range found.Records {
				result.Records = append(result.Records, describeRecord(rec))
			}
			for _, s := range found.Skipped {
				result.Skipped = append(result.Skipped, s.Path)
			}
			if asJSON {
				return writeJSON(cmd, result)
			}
			printScan(cmd, result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&existing, "existing-path", "e", "", "Existing root of path to look for")
	cmd.Flags().BoolVarP(&regex, "regex", "r", false, "Treat the existing path as a regular expression")
	cmd.Flags().BoolVarP(&skipBad, "skip-bad-files", "s", false, "Skip unreadable .fastresume files instead of aborting")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print matches as JSON")
	return cmd
}

func describeRecord(rec *fastresume.Record) scanRecord {
	out := scanRecord{Path: rec.Path()}
	out.SavePath, _ = rec.SavePath()
	out.QBtSavePath, _ = rec.QBtSavePath()
	out.DownloadPath, _ = rec.DownloadPath()
	files, _ := rec.MappedFiles()
	out.MappedFiles = len(files)
	return out
}

func printScan(cmd *cobra.Command, result scanResult) {
	out := cmd.OutOrStdout()
	if len(result.Records) == 0 {
		fmt.Fprintf(out, "No matching records among %d in %s\n", result.Scanned, result.BTBackup)
	} else {
		rows := make([][]string, 0, len(result.Records))
		for _, r := range result.Records {
			rows = append(rows, []string{
				filepath.Base(r.Path),
				orDash(r.SavePath),
				orDash(r.QBtSavePath),
				orDash(r.DownloadPath),
				strconv.Itoa(r.MappedFiles),
			})
		}
		fmt.Fprintln(out, renderTable([]column{
			{header: "Record"},
			{header: "save_path", wrap: true},
			{header: "qBt-savePath", wrap: true},
			{header: "qBt-downloadPath", wrap: true},
			{header: "Mapped", align: alignRight},
		}, rows))
		fmt.Fprintf(out, "%d of %d records match\n", len(result.Records), result.Scanned)
	}
	for _, path := range result.Skipped {
		fmt.Fprintf(out, "Skipped unreadable record %s\n", path)
	}
}
