package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/labtriage/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/labtriage/internal/ratelimit"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serve the analysis pipeline over HTTP.

Endpoints:
  POST /v1/analyses          upload a report (multipart field "file" or raw body)
  GET  /v1/markers           list markers, or resolve ?alias=
  GET  /v1/markers/{code}    one marker
  GET  /v1/thresholds        critical thresholds
  POST /v1/refdata/reload    reload reference data
  GET  /healthz              liveness and reference version
  GET  /metrics              Prometheus metrics`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	s, err := requireServices()
	if err != nil {
		return err
	}
	if _, err := requireAnalysis(); err != nil {
		return err
	}

	app := appSettings()
	addr, err := cmd.Flags().GetString("addr")
	if err != nil {
		return err
	}
	if addr == "" {
		addr = app.Server.Addr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := startWatcher(ctx, s); err != nil {
		return err
	}

	handler := httpapi.NewHandler(s.Analysis, s.Reference, httpapi.Config{
		MaxUploadBytes: app.Server.MaxUploadBytes,
		RequestTimeout: app.Server.ReadTimeout,
		Limiter: ratelimit.New(ratelimit.Config{
			RequestsPerSecond: app.Server.RateLimit,
			BurstSize:         app.Server.Burst,
		}),
	})

	cmd.Printf("HTTP API listening on %s\n", addr)
	return httpapi.Serve(ctx, addr, handler.Router(), app.Server.ReadTimeout)
}
