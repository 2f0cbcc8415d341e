package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"seedpipe/internal/geo"
	"seedpipe/internal/ingest"
)

func newClassifyCommand(ctx *commandContext) *cobra.Command {
	var inPath, outDir string

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Partition ingested records by US-market signature",
		Long: `Reads an ingested records document, matches each profile intro against
the geographic keyword signatures, and writes one JSON file per category
(us_confirmed, uncertain, no_signature, non_us) for outreach planning.`,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(inPath)
			if err != nil {
				return fmt.Errorf("read %s: %w", inPath, err)
			}
			var influencers []ingest.Influencer
			if err := json.Unmarshal(data, &influencers); err != nil {
				// Excel ingest wraps records in a summary document.
				var document struct {
					Data []ingest.Influencer `json:"data"`
				}
				if err := json.Unmarshal(data, &document); err != nil {
					return fmt.Errorf("parse %s: %w", inPath, err)
				}
				influencers = document.Data
			}

			classifier := geo.New(geo.Signatures{})
			buckets := make(map[geo.Category][]ingest.Influencer)
			for _, inf := range influencers {
				result := classifier.Classify(inf.ProfileIntro, inf.VideoCaption)
				buckets[result.Category] = append(buckets[result.Category], inf)
			}

			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("create %s: %w", outDir, err)
			}

			rows := make([]table.Row, 0, len(buckets))
			for _, category := range []geo.Category{
				geo.CategoryUSConfirmed,
				geo.CategoryUncertain,
				geo.CategoryNoSignature,
				geo.CategoryNonUS,
			} {
				bucket := buckets[category]
				if bucket == nil {
					bucket = []ingest.Influencer{}
				}
				path := filepath.Join(outDir, fmt.Sprintf("influencers_%s.json", category))
				if err := writeJSONFile(path, bucket); err != nil {
					return fmt.Errorf("write %s: %w", path, err)
				}
				percent := 0.0
				if len(influencers) > 0 {
					percent = float64(len(bucket)) / float64(len(influencers)) * 100
				}
				rows = append(rows, table.Row{
					strings.ReplaceAll(string(category), "_", " "),
					len(bucket),
					fmt.Sprintf("%.1f%%", percent),
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(table.Row{"Category", "Records", "Share"}, rows, 2, 3))
			fmt.Fprintf(out, "Wrote category files to %s\n", outDir)
			return nil
		},
	}

	cmd.Flags().StringVarP(&inPath, "in", "i", "", "Ingested records JSON document")
	cmd.Flags().StringVarP(&outDir, "out-dir", "d", ".", "Directory for the category files")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}
