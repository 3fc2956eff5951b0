package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/marc2iiif/internal/catalog"
	"github.com/lehigh-university-libraries/marc2iiif/internal/config"
	"github.com/lehigh-university-libraries/marc2iiif/internal/convert"
	"github.com/lehigh-university-libraries/marc2iiif/internal/manifest"
)

func newFetchCmd(cfg *config.Config) *cobra.Command {
	var baseURL string
	var ids []string
	var outputDir string
	var format string
	var concurrency int

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch records from a VuFind catalog and convert them",
		Long: `Downloads the binary MARC export of each record id from a VuFind
catalog (/Record/<id>/Export?style=MARC) and writes one manifest per record.`,
		Example: `  # Fetch two records
  marc2iiif fetch --url https://catalog.lib.uchicago.edu/vufind --id 1234567 --id 7654321

  # Use VUFIND_URL from the environment and write YAML
  marc2iiif fetch --id 1234567 --format yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if baseURL == "" {
				baseURL = cfg.VuFindURL
			}
			if baseURL == "" {
				return fmt.Errorf("--url or VUFIND_URL is required")
			}
			if !cmd.Flags().Changed("output") {
				outputDir = cfg.OutputDir
			}
			if !cmd.Flags().Changed("concurrency") {
				concurrency = cfg.Concurrency
			}

			f := cfg.Format
			if cmd.Flags().Changed("format") {
				var err error
				if f, err = manifest.ParseFormat(format); err != nil {
					return err
				}
			}

			client := catalog.NewClient(baseURL)
			records, fetchErr := client.FetchRecords(cmd.Context(), ids)
			if fetchErr != nil {
				slog.Warn("Some records could not be fetched", "err", fetchErr)
			}
			if len(records) == 0 {
				if fetchErr == nil {
					return fmt.Errorf("no records fetched")
				}
				return fmt.Errorf("no records fetched: %w", fetchErr)
			}

			runner := convert.NewRunner(nil, manifest.NewWriter(outputDir, f))
			results, err := runner.ConvertRecords(cmd.Context(), "vufind", records, concurrency)
			convert.PrintSummary(results.Summary)

			for _, r := range results.Results {
				if r.Output != "" {
					fmt.Printf("Wrote %s\n", r.Output)
				}
			}

			return errors.Join(err, fetchErr)
		},
	}

	cmd.Flags().StringVar(&baseURL, "url", "", "VuFind base URL (env VUFIND_URL)")
	cmd.Flags().StringSliceVar(&ids, "id", nil, "Record id to fetch (repeatable, required)")
	cmd.Flags().StringVarP(&outputDir, "output", "o", config.DefaultOutputDir, "Directory to write manifests into (env MARC2IIIF_OUTPUT_DIR)")
	cmd.Flags().StringVarP(&format, "format", "f", string(manifest.FormatJSON), "Manifest format: json or yaml (env MARC2IIIF_FORMAT)")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", config.DefaultConcurrency, "Number of records processed in parallel (env MARC2IIIF_CONCURRENCY)")

	_ = cmd.MarkFlagRequired("id")

	return cmd
}
