package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/huangsam/loadcompare/internal/server"
	"github.com/spf13/cobra"
)

// serveCmd runs the HTTP API.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a comparison session over HTTP.",
	Long: `Start a JSON API over one session. The filter is changed with
POST /api/filter and read back from /api/state, /api/rows, /api/chart and
/api/compare. Prometheus metrics are exposed on /metrics.`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
		defer stop()
		return server.Serve(ctx, cfg)
	},
}
