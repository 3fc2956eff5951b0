package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/marc2iiif/internal/iiif"
	"github.com/lehigh-university-libraries/marc2iiif/internal/marc"
	"github.com/lehigh-university-libraries/marc2iiif/internal/scan"
)

func newInspectCmd() *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "inspect <path>",
		Short: "Show the descriptive metadata resolved from records",
		Long: `Prints the label, description, identifier and metadata fields resolved
from each record, without writing any manifest.

Useful for checking how a catalog export will look before converting it.`,
		Example: `  # Inspect the first 5 records of an export
  marc2iiif inspect ./exports/maps.mrc --limit 5

  # Print the manifests as JSON
  marc2iiif inspect ./exports/maps.json --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sources, err := scan.Sources(args[0])
			if err != nil {
				return err
			}

			remaining := limit
			if remaining <= 0 {
				remaining = -1
			}

			for _, src := range sources {
				if remaining == 0 {
					break
				}

				records, err := marc.NewLoader(src.Path).LoadSample(remaining)
				if err != nil {
					return fmt.Errorf("failed to load %s: %w", src.Path, err)
				}

				for i, decoded := range records {
					select {
					case <-cmd.Context().Done():
						fmt.Println("\nInspection interrupted.")
						return nil
					default:
					}

					record, err := iiif.FromDecodedRecord(decoded)
					if err != nil {
						fmt.Fprintf(os.Stderr, "%s record %d: %v\n", src.RelPath, i+1, err)
						continue
					}

					if asJSON {
						data, err := json.MarshalIndent(record.ToManifest(), "", "  ")
						if err != nil {
							return fmt.Errorf("failed to marshal manifest: %w", err)
						}
						fmt.Println(string(data))
						continue
					}

					printRecord(src.RelPath, i+1, record)
				}

				if remaining > 0 {
					remaining -= len(records)
				}
			}

			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Number of records to inspect (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print each manifest as JSON")

	return cmd
}

func printRecord(source string, index int, record *iiif.DescriptiveRecord) {
	fmt.Printf("RECORD %s #%d\n", source, index)
	fmt.Println(strings.Repeat("-", 80))
	fmt.Printf("Label:        %s\n", record.Label())
	fmt.Printf("Description:  %s\n", record.Description())
	fmt.Printf("Identifier:   %s\n", record.Identifier())
	fmt.Printf("Manifest:     %s\n", record.ToManifest().ID)
	fmt.Printf("Metadata (%d):\n", record.Metadata().Len())
	for _, field := range record.Metadata().All() {
		fmt.Printf("  %s\n", field)
	}
	fmt.Println()
}
