package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"qbtmigrate/internal/journal"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show journaled runs, or the per-record outcomes of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.Journal.Enabled {
				return errors.New("the run journal is disabled (journal.enabled = false)")
			}
			store, err := ctx.openJournal(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			if len(args) == 1 {
				run, err := store.FindRun(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				entries, err := store.ListEntries(cmd.Context(), run.ID)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, struct {
						Run     journal.Run     `json:"run"`
						Entries []journal.Entry `json:"entries"`
					}{run, entries})
				}
				printRunDetail(cmd, run, entries)
				return nil
			}

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, runs)
			}
			printRuns(cmd, runs)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum runs to list (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func printRuns(cmd *cobra.Command, runs []journal.Run) {
	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded")
		return
	}
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			shortID(r.ID),
			formatTimestamp(r.StartedAt),
			string(r.Status),
			r.Existing + " -> " + r.Replacement,
			strconv.Itoa(r.Updated),
			strconv.Itoa(r.Failed),
			strconv.Itoa(r.Skipped),
		})
	}
	fmt.Fprintln(out, renderTable([]column{
		{header: "Run"},
		{header: "Started"},
		{header: "Status"},
		{header: "Change", wrap: true},
		{header: "Updated", align: alignRight},
		{header: "Failed", align: alignRight},
		{header: "Skipped", align: alignRight},
	}, rows))
}

func printRunDetail(cmd *cobra.Command, run journal.Run, entries []journal.Entry) {
	out := cmd.OutOrStdout()
	status := newStatusPrinter(out)

	status.section("Run " + run.ID)
	kind := statusOK
	switch run.Status {
	case journal.RunPartial:
		kind = statusWarn
	case journal.RunFailed, journal.RunAborted:
		kind = statusError
	case journal.RunRunning:
		kind = statusInfo
	}
	status.line("Status", kind, string(run.Status))
	if run.Error != "" {
		status.line("Error", statusError, run.Error)
	}
	status.line("BT_backup", statusInfo, run.BTBackupDir)
	status.line("Existing", statusInfo, run.Existing)
	status.line("New", statusInfo, run.Replacement)
	status.line("Regex", statusInfo, yesNo(run.Regex))
	status.line("Archive", statusInfo, orDash(run.ArchivePath))
	status.line("Started", statusInfo, formatTimestamp(run.StartedAt))
	status.line("Finished", statusInfo, formatTimestamp(run.FinishedAt))

	if len(entries) == 0 {
		return
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		result := string(e.Status)
		if e.Error != "" {
			result += " (" + e.ErrorKind + "): " + e.Error
		}
		rows = append(rows, []string{filepath.Base(e.RecordPath), orDash(e.SavePathBefore), orDash(e.SavePathAfter), result})
	}
	fmt.Fprintln(out, renderTable([]column{
		{header: "Record"},
		{header: "Before", wrap: true},
		{header: "After", wrap: true},
		{header: "Result", wrap: true},
	}, rows))
}
