package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/marc2iiif/internal/config"
)

func NewRootCmd() *cobra.Command {
	var logLevel string
	cfg := &config.Config{}

	cmd := &cobra.Command{
		Use:   "marc2iiif",
		Short: "Build IIIF presentation manifests from MARC catalog records",
		Long: `marc2iiif resolves the descriptive metadata of MARC 21 catalog records
(label, description, identifier and labelled metadata fields) into IIIF
presentation manifests.

Records can be read from binary MARC, pymarc-style JSON, JSONL or Parquet files,
fetched from a VuFind catalog, or posted to a small HTTP API.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			loaded, err := config.Load()
			if err != nil {
				return err
			}
			*cfg = loaded

			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			level, err := config.ParseLevel(cfg.LogLevel)
			if err != nil {
				if cmd.Flags().Changed("log-level") {
					return fmt.Errorf("invalid --log-level: %w", err)
				}
				return fmt.Errorf("invalid LOG_LEVEL: %w", err)
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "Log level: debug, info, warn, error (env LOG_LEVEL)")

	// Add subcommands
	cmd.AddCommand(newConvertCmd(cfg))
	cmd.AddCommand(newInspectCmd())
	cmd.AddCommand(newFetchCmd(cfg))
	cmd.AddCommand(newServeCmd(cfg))

	return cmd
}
