package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/marc2iiif/internal/config"
	"github.com/lehigh-university-libraries/marc2iiif/internal/handlers"
	"github.com/lehigh-university-libraries/marc2iiif/internal/storage"
)

func newServeCmd(cfg *config.Config) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the record API server",
		Long: `Starts an HTTP API that turns posted MARC records into descriptive
records, keeps them in memory, and lets clients edit their label, description
and metadata before reading the resulting manifest.

Records are keyed by their identifier; records without one get a random id.`,
		Example: `  # Start server on default port 8888
  marc2iiif serve

  # Post a record and read its manifest
  curl -X POST --data-binary @record.json localhost:8888/api/records
  curl localhost:8888/api/records/<id>`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("port") {
				port = cfg.Port
			}

			handler := handlers.New(storage.New(), nil)

			addr := ":" + port
			server := &http.Server{
				Addr:              addr,
				Handler:           handler.Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("marc2iiif API available", "addr", addr, "url", "http://localhost"+addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", config.DefaultPort, "Port to listen on (env MARC2IIIF_PORT)")

	return cmd
}
