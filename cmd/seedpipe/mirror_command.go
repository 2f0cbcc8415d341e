package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"seedpipe/internal/logging"
	"seedpipe/internal/mirror"
	"seedpipe/internal/runs"
	"seedpipe/internal/store"
)

func newMirrorCommand(ctx *commandContext) *cobra.Command {
	var tableFlag, prefix string

	cmd := &cobra.Command{
		Use:   "mirror",
		Short: "Mirror scraper thumbnails to R2 and update record URLs",
		Long: `Downloads every thumbnail still pointing at a scraper CDN, uploads the
images to the R2 bucket, and patches the mirrored URL back onto each
record. Records already mirrored are skipped, so the pass is safe to
repeat.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.ValidateR2(); err != nil {
				return err
			}
			tableName := tableFlag
			if tableName == "" {
				tableName = cfg.Store.Table
			}

			logPath := logging.RunLogPath(cfg.Paths.LogDir, "mirror", time.Now())
			logger, err := logging.NewFromConfig(cfg, logPath)
			if err != nil {
				return fmt.Errorf("initialize logging: %w", err)
			}

			history, err := runs.Open(cfg)
			if err != nil {
				return fmt.Errorf("open run history: %w", err)
			}
			defer history.Close()

			run, err := history.Begin(cmd.Context(), runs.OperationMirror, tableName, false)
			if err != nil {
				return fmt.Errorf("record run start: %w", err)
			}
			run.LogPath = logPath
			logger = logger.With(slog.String(logging.FieldRunID, run.RunID))

			client := store.New(cfg.Store, logger)
			records, err := client.FetchAll(cmd.Context(), tableName)
			if err != nil {
				run.Status = runs.StatusFailed
				run.ErrorMessage = err.Error()
				_ = history.Finish(cmd.Context(), run)
				return err
			}

			downloader := mirror.NewDownloader(http.DefaultClient, cfg.Paths.ThumbnailsDir, cfg.R2.MaxConcurrent, logger)
			uploader := mirror.NewUploader(cfg.R2, logger)
			service := mirror.NewService(downloader, uploader, client, tableName, prefix, logger)

			report := service.Run(cmd.Context(), records)

			run.Status = runs.StatusCompleted
			run.TotalRecords = len(records)
			run.ErrorCount = len(report.Errors)
			if err := history.Finish(cmd.Context(), run); err != nil {
				logger.Error("record run finish", slog.String("error", err.Error()))
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				table.Row{"Metric", "Value"},
				[]table.Row{
					{"Records", len(records)},
					{"Candidates", report.Candidates},
					{"Downloaded", report.Download.Downloaded},
					{"Already on disk", report.Download.Skipped},
					{"Uploaded", report.Upload.Uploaded},
					{"Records patched", report.Patched},
					{"Errors", len(report.Errors)},
				}, 2))
			for i, message := range report.Errors {
				if i == errorDisplayLimit {
					fmt.Fprintf(out, "  ... and %d more (see run log)\n", len(report.Errors)-errorDisplayLimit)
					break
				}
				fmt.Fprintf(out, "  - %s\n", message)
			}
			fmt.Fprintf(out, "Run log: %s\n", logPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&tableFlag, "table", "", "Store table to mirror (defaults to the configured table)")
	cmd.Flags().StringVar(&prefix, "prefix", "thumbnails_regular", "Object key prefix in the bucket")
	return cmd
}
