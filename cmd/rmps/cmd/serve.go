package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jamesyinbaare/rmps-sub002/internal/server"
)

// serveCmd starts the HTTP API.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for extraction and batch auditing",
	Long: `Serve starts an HTTP server exposing the engine:

  POST /api/documents/extract       extract one uploaded scan
  POST /api/batches/{id}/run        process a batch
  POST /api/batches/{id}/validate   consistency report for a batch
  POST /api/sheets/generate         generate a sheet ID
  GET  /health                      health check
  GET  /metrics                     Prometheus metrics`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		host := cfg.Server.Host
		if cmd.Flags().Changed("host") {
			host, _ = cmd.Flags().GetString("host")
		}
		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port, _ = cmd.Flags().GetInt("port")
		}

		eng, cleanup, err := buildEngine(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		srv := server.NewServer(cfg.Server, eng.service, eng.runner)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return srv.Start(ctx, host, port, 10*time.Second)
	},
}

func init() {
	serveCmd.Flags().String("host", "", "host interface to bind")
	serveCmd.Flags().Int("port", 0, "port to listen on")
	rootCmd.AddCommand(serveCmd)
}
