package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"seedpipe/internal/runs"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect the local run history",
	}

	cmd.AddCommand(newRunsListCommand(ctx))
	cmd.AddCommand(newRunsShowCommand(ctx))
	return cmd
}

func newRunsListCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			history, err := runs.Open(cfg)
			if err != nil {
				return err
			}
			defer history.Close()

			listed, err := history.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(listed) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet.")
				return nil
			}

			rows := make([]table.Row, 0, len(listed))
			for _, run := range listed {
				rows = append(rows, table.Row{
					shortID(run.RunID),
					string(run.Operation),
					string(run.Status),
					yesNo(run.DryRun),
					run.DuplicatesRemoved,
					humanize.Time(run.StartedAt),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				table.Row{"Run", "Operation", "Status", "Dry", "Removed", "Started"},
				rows, 5))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list")
	return cmd
}

func newRunsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			history, err := runs.Open(cfg)
			if err != nil {
				return err
			}
			defer history.Close()

			run, err := history.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if run == nil {
				return fmt.Errorf("no run matches %q", args[0])
			}

			rows := []table.Row{
				{"Run id", run.RunID},
				{"Operation", string(run.Operation)},
				{"Status", string(run.Status)},
				{"Table", run.TableName},
				{"Dry run", yesNo(run.DryRun)},
				{"Started", run.StartedAt.Local().Format(time.RFC1123)},
				{"Duration", run.Duration().Round(time.Millisecond).String()},
				{"Total records", humanize.Comma(int64(run.TotalRecords))},
				{"Duplicate groups", humanize.Comma(int64(run.DuplicateGroups))},
				{"Duplicates found", humanize.Comma(int64(run.DuplicatesFound))},
				{"Duplicates removed", humanize.Comma(int64(run.DuplicatesRemoved))},
				{"Batches ok/failed", fmt.Sprintf("%d/%d", run.BatchesSucceeded, run.BatchesFailed)},
				{"Errors", run.ErrorCount},
			}
			if run.BackupPath != "" {
				rows = append(rows, table.Row{"Backup", run.BackupPath})
			}
			if run.LogPath != "" {
				rows = append(rows, table.Row{"Run log", run.LogPath})
			}
			if run.ErrorMessage != "" {
				rows = append(rows, table.Row{"Failure", run.ErrorMessage})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(table.Row{"Field", "Value"}, rows))
			return nil
		},
	}
}

func shortID(runID string) string {
	if len(runID) > 8 {
		return runID[:8]
	}
	return runID
}
