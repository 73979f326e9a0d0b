// =============================================================================
// FX Window Report - Serve Command
// =============================================================================
//
// COMMAND USAGE:
//   fxreport serve [--addr :8080]
//
// FLAGS:
//   --addr        : Listen address; default server.addr
//
// The server runs until SIGINT or SIGTERM, then drains in-flight requests
// for up to server.shutdown_timeout.
//
// =============================================================================

package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/fx-window-report/internal/converter"
	"github.com/ginjaninja78/fx-window-report/internal/metrics"
	"github.com/ginjaninja78/fx-window-report/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the report API over HTTP",
	Long: `The serve command starts the HTTP API:

  POST /api/v1/reports   upload "file" (optional "start", "end"), get the report
  GET  /healthz          liveness
  GET  /metrics          prometheus metrics

It stops gracefully on SIGINT or SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("addr") {
			appConfig.Server.Addr = serveAddr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		m := metrics.New()
		generator := converter.NewGenerator(appConfig, appLogger, m)
		return server.New(appConfig, generator, m, appLogger).ListenAndServe(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address; default server.addr")
}
