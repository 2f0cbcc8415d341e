package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"seedpipe/internal/dedup"
	"seedpipe/internal/logging"
	"seedpipe/internal/record"
	"seedpipe/internal/runs"
	"seedpipe/internal/store"
)

const errorDisplayLimit = 5

func newDedupeCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	var tableFlag string

	cmd := &cobra.Command{
		Use:   "dedupe",
		Short: "Find and remove swapped-field duplicate records",
		Long: `Fetches every record from the store, groups records whose author name and
account id form the same unordered pair, keeps the highest-quality record of
each group, and deletes the rest.

Runs are dry by default: the full deletion plan and backup are produced but
nothing is deleted. Pass --dry-run=false to commit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			tableName := tableFlag
			if tableName == "" {
				tableName = cfg.Store.Table
			}

			// One dedupe at a time; interleaved delete batches would
			// corrupt both audit trails.
			lock := flock.New(filepath.Join(cfg.Paths.DataDir, "dedupe.lock"))
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire run lock: %w", err)
			}
			if !locked {
				return fmt.Errorf("another dedupe run is in progress (lock %s)", lock.Path())
			}
			defer func() { _ = lock.Unlock() }()

			logPath := logging.RunLogPath(cfg.Paths.LogDir, "dedupe", time.Now())
			logger, err := logging.NewFromConfig(cfg, logPath)
			if err != nil {
				return fmt.Errorf("initialize logging: %w", err)
			}

			history, err := runs.Open(cfg)
			if err != nil {
				return fmt.Errorf("open run history: %w", err)
			}
			defer history.Close()

			run, err := history.Begin(cmd.Context(), runs.OperationDedupe, tableName, dryRun)
			if err != nil {
				return fmt.Errorf("record run start: %w", err)
			}
			run.LogPath = logPath
			logger = logger.With(slog.String(logging.FieldRunID, run.RunID))

			runner := dedup.NewRunner(store.New(cfg.Store, logger), logger, dedup.Options{
				Table:     tableName,
				DryRun:    dryRun,
				BatchSize: cfg.Store.DeleteBatchSize,
				BackupDir: cfg.Paths.BackupDir,
				Weights: record.ScoreWeights{
					AgeBonusCap:        cfg.Dedup.AgeBonusCap,
					EngagementBonusCap: cfg.Dedup.EngagementBonusCap,
					EngagementUnit:     cfg.Dedup.EngagementUnit,
				},
			})

			result, err := runner.Run(cmd.Context())
			if err != nil {
				run.Status = runs.StatusFailed
				run.ErrorMessage = err.Error()
				if finishErr := history.Finish(cmd.Context(), run); finishErr != nil {
					logger.Error("record run failure", slog.String("error", finishErr.Error()))
				}
				return err
			}

			run.Status = runs.StatusCompleted
			run.TotalRecords = result.Stats.TotalRecords
			run.DuplicateGroups = result.Stats.DuplicateGroups
			run.DuplicatesFound = result.Stats.DuplicatesFound
			run.DuplicatesRemoved = result.Stats.DuplicatesRemoved
			run.BatchesSucceeded = result.BatchesSucceeded
			run.BatchesFailed = result.BatchesFailed
			run.ErrorCount = len(result.Stats.Errors)
			run.BackupPath = result.BackupPath
			if err := history.Finish(cmd.Context(), run); err != nil {
				logger.Error("record run finish", slog.String("error", err.Error()))
			}

			printDedupeSummary(cmd, result, run.RunID, logPath)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", true, "Plan and back up without deleting; pass --dry-run=false to commit")
	cmd.Flags().StringVar(&tableFlag, "table", "", "Store table to deduplicate (defaults to the configured table)")
	return cmd
}

func printDedupeSummary(cmd *cobra.Command, result *dedup.Result, runID, logPath string) {
	out := cmd.OutOrStdout()

	removedLabel := "Duplicates removed"
	if result.DryRun {
		removedLabel = "Would remove"
	}
	rows := []table.Row{
		{"Total records", humanize.Comma(int64(result.Stats.TotalRecords))},
		{"Duplicate groups", humanize.Comma(int64(result.Stats.DuplicateGroups))},
		{"Duplicates identified", humanize.Comma(int64(result.Stats.DuplicatesFound))},
		{removedLabel, humanize.Comma(int64(result.Stats.DuplicatesRemoved))},
	}
	if !result.DryRun && result.BatchesFailed > 0 {
		rows = append(rows, table.Row{"Failed batches", humanize.Comma(int64(result.BatchesFailed))})
	}
	fmt.Fprintln(out, renderTable(table.Row{"Metric", "Value"}, rows, 2))

	if result.BackupPath != "" {
		fmt.Fprintf(out, "Backup: %s\n", result.BackupPath)
	}
	fmt.Fprintf(out, "Run log: %s\n", logPath)
	fmt.Fprintf(out, "Run id: %s\n", runID)

	if errs := result.Stats.Errors; len(errs) > 0 {
		fmt.Fprintf(out, "\n%d errors:\n", len(errs))
		for i, message := range errs {
			if i == errorDisplayLimit {
				fmt.Fprintf(out, "  ... and %d more (see run log)\n", len(errs)-errorDisplayLimit)
				break
			}
			fmt.Fprintf(out, "  - %s\n", message)
		}
	}

	if result.DryRun {
		fmt.Fprintln(out, "\nDry run: nothing was deleted. Re-run with --dry-run=false to commit.")
	}
}
