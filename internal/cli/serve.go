package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/glorpus-work/fetchd/internal/logger"
	"github.com/glorpus-work/fetchd/internal/sidecar"
	"github.com/glorpus-work/fetchd/pkg/download"
	"github.com/glorpus-work/fetchd/pkg/metrics"
	"github.com/spf13/cobra"
)

// metricsShutdownTimeout bounds the graceful stop of the metrics listener.
const metricsShutdownTimeout = 5 * time.Second

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run as a download helper process",
		Long: `Read JSON commands from stdin, one per line, and write JSON events to stdout.

Commands:
  {"op":"start","id":"ID","url":"URL","destination":"PATH","auth_token":"TOKEN"}
  {"op":"cancel","id":"ID"}

The command returns once stdin is closed and every started download has finished.
Logs are written to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, metricsAddr)
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (overrides settings.metrics_addr)")

	return cmd
}

func runServe(cmd *cobra.Command, metricsAddr string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if metricsAddr == "" {
		metricsAddr = cfg.Settings.MetricsAddr
	}

	collector, err := metrics.New(metrics.DefaultNamespace)
	if err != nil {
		return fmt.Errorf("failed to create metrics: %w", err)
	}

	ctx := cmd.Context()
	if metricsAddr != "" {
		stop, err := startMetricsServer(metricsAddr, collector)
		if err != nil {
			return err
		}
		defer stop()
	}

	// stdout carries the event stream
	logger.SetOutput(cmd.ErrOrStderr())

	engine := download.NewEngine(cfg.EngineOptions(collector))
	logger.Info("Serving download commands on stdin", logger.Fields{"metrics_addr": metricsAddr})
	return sidecar.NewServer(engine, cmd.OutOrStdout()).Serve(ctx, cmd.InOrStdin())
}

// startMetricsServer listens on addr right away so a bad address fails the command,
// then serves in the background. The returned func shuts the server down.
func startMetricsServer(addr string, collector *metrics.Collector) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on metrics address %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle(MetricsPath, collector.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server stopped", logger.Fields{"error": err})
		}
	}()
	logger.Info("Metrics server listening", logger.Fields{"addr": ln.Addr().String(), "path": MetricsPath})

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
