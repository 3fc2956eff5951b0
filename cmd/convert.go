package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/marc2iiif/internal/config"
	"github.com/lehigh-university-libraries/marc2iiif/internal/convert"
	"github.com/lehigh-university-libraries/marc2iiif/internal/manifest"
)

func newConvertCmd(cfg *config.Config) *cobra.Command {
	var outputDir string
	var format string
	var concurrency int
	var limit int
	var report bool

	cmd := &cobra.Command{
		Use:   "convert <path>...",
		Short: "Convert MARC record files into manifests",
		Long: `Reads every record below the given files or directories and writes one
manifest per record into the output directory.

Supported inputs: .mrc/.marc (binary MARC 21), .json (one record or an array
in pymarc as_dict form), .jsonl (one record per line) and .parquet.

Manifests are named after the record identifier taken from its Electronic
Location and Access field; records without one are named <file>-<n>.`,
		Example: `  # Convert a directory of binary MARC exports
  marc2iiif convert ./exports

  # Write YAML manifests with 8 workers
  marc2iiif convert ./exports/maps.mrc --format yaml --concurrency 8 --output ./out`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			results, err := convert.Run(cmd.Context(), convert.Options{
				Paths:       args,
				OutputDir:   outputDir,
				Format:      f,
				Concurrency: concurrency,
				Limit:       limit,
			})
			if results == nil {
				return err
			}

			convert.PrintSummary(results.Summary)

			if report {
				path, saveErr := convert.SaveReport(results, outputDir)
				if saveErr != nil {
					slog.Error("Failed to save report", "err", saveErr)
				} else {
					fmt.Printf("Report saved to: %s\n", path)
				}
			}

			if err != nil {
				return err
			}
			if results.Summary.Failed > 0 {
				return fmt.Errorf("%d records failed to convert", results.Summary.Failed)
			}
			if results.Summary.FailedSources > 0 {
				return fmt.Errorf("%d source files could not be read", results.Summary.FailedSources)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", config.DefaultOutputDir, "Directory to write manifests into (env MARC2IIIF_OUTPUT_DIR)")
	cmd.Flags().StringVarP(&format, "format", "f", string(manifest.FormatJSON), "Manifest format: json or yaml (env MARC2IIIF_FORMAT)")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", config.DefaultConcurrency, "Number of records processed in parallel (env MARC2IIIF_CONCURRENCY)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum records read from each file (0 for all)")
	cmd.Flags().BoolVar(&report, "report", true, "Write a YAML run report into the output directory")

	return cmd
}
