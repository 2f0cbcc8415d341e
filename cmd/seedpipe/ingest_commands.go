package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"seedpipe/internal/ingest"
)

func newIngestCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Convert scraping exports into store-ready records",
	}

	cmd.AddCommand(newIngestExcelCommand())
	cmd.AddCommand(newIngestScrapeCommand(ctx))
	return cmd
}

func newIngestExcelCommand() *cobra.Command {
	var regularFiles []string
	var salesFiles []string
	var outPath string

	cmd := &cobra.Command{
		Use:   "excel",
		Short: "Read analyst spreadsheet exports",
		Long: `Reads one or more spreadsheet exports (Korean analyst headers), maps
rows to store records, renumbers ids sequentially across all inputs, and
writes the combined JSON document with per-type and overall summaries.`,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(regularFiles)+len(salesFiles) == 0 {
				return fmt.Errorf("at least one --regular or --sales workbook is required")
			}

			var regular, sales []ingest.Influencer
			for _, path := range regularFiles {
				batch, _, err := ingest.ReadWorkbook(path, ingest.TypeRegular)
				if err != nil {
					return err
				}
				regular = append(regular, batch...)
			}
			for _, path := range salesFiles {
				batch, _, err := ingest.ReadWorkbook(path, ingest.TypeSales)
				if err != nil {
					return err
				}
				sales = append(sales, batch...)
			}

			all := make([]ingest.Influencer, 0, len(regular)+len(sales))
			all = append(all, regular...)
			all = append(all, sales...)
			ingest.Renumber(all)

			regularSummary := ingest.Summarize(regular)
			salesSummary := ingest.Summarize(sales)
			combined := ingest.Combine(regularSummary, salesSummary)

			document := struct {
				Summary map[string]ingest.Summary `json:"summary"`
				Data    []ingest.Influencer       `json:"data"`
			}{
				Summary: map[string]ingest.Summary{
					"all":     combined,
					"regular": regularSummary,
					"sales":   salesSummary,
				},
				Data: all,
			}
			if err := writeJSONFile(outPath, document); err != nil {
				return fmt.Errorf("write %s: %w", outPath, err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				table.Row{"Type", "Records", "Views", "Followers"},
				[]table.Row{
					{"regular", len(regular), humanize.Comma(regularSummary.TotalViews), humanize.Comma(regularSummary.TotalFollowers)},
					{"sales", len(sales), humanize.Comma(salesSummary.TotalViews), humanize.Comma(salesSummary.TotalFollowers)},
					{"all", len(all), humanize.Comma(combined.TotalViews), humanize.Comma(combined.TotalFollowers)},
				}, 2, 3, 4))
			fmt.Fprintf(out, "Average engagement rate: %.2f%%\n", combined.AvgEngagementRate)
			fmt.Fprintf(out, "Average CPM: $%.2f\n", combined.AvgCPM)
			fmt.Fprintf(out, "Wrote %s\n", outPath)
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&regularFiles, "regular", nil, "Workbook of regular influencers (repeatable)")
	cmd.Flags().StringArrayVar(&salesFiles, "sales", nil, "Workbook of sales influencers (repeatable)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "data_combined.json", "Output JSON document")
	return cmd
}

func newIngestScrapeCommand(ctx *commandContext) *cobra.Command {
	var reelsPath, profilesPath, round, influencerType, outPath string

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Join scraper reel and profile dumps",
		Long: `Joins a scraper reels dump with its profile dump by username, derives
engagement metrics, and writes store-ready records. Reels without profile
data still produce records; their usernames are listed for follow-up.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			reels, err := ingest.LoadReels(reelsPath)
			if err != nil {
				return err
			}
			profiles, err := ingest.LoadProfiles(profilesPath)
			if err != nil {
				return err
			}

			influencers, report := ingest.Join(reels, profiles, ingest.ScrapeOptions{
				Company:       cfg.Ingest.Company,
				Platform:      cfg.Ingest.Platform,
				ScrapingRound: round,
				Type:          influencerType,
			})
			if err := writeJSONFile(outPath, influencers); err != nil {
				return fmt.Errorf("write %s: %w", outPath, err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				table.Row{"Metric", "Value"},
				[]table.Row{
					{"Reels", report.TotalReels},
					{"Profiles", report.TotalProfiles},
					{"Matched", report.MatchedProfiles},
					{"Missing profiles", len(report.MissingProfiles)},
				}, 2))
			for _, username := range report.MissingProfiles {
				fmt.Fprintf(out, "  no profile: @%s\n", username)
			}
			fmt.Fprintf(out, "Wrote %s\n", outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&reelsPath, "reels", "", "Scraper reels JSON dump")
	cmd.Flags().StringVar(&profilesPath, "profiles", "", "Scraper profiles JSON dump")
	cmd.Flags().StringVar(&round, "round", "1", "Scraping round recorded on every record")
	cmd.Flags().StringVar(&influencerType, "type", ingest.TypeRegular, "Influencer type (regular or sales)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "scrape_records.json", "Output JSON document")
	_ = cmd.MarkFlagRequired("reels")
	_ = cmd.MarkFlagRequired("profiles")
	return cmd
}

func writeJSONFile(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
