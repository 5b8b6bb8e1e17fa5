package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	ctxhttp "github.com/alexcarney460-hue/skynet/internal/http"
	"github.com/alexcarney460-hue/skynet/internal/session"
)

var watchFlags struct {
	serve        bool
	host         string
	port         int
	history      int
	outputWindow int
}

func init() {
	rootCmd.AddCommand(watchCmd)

	f := watchCmd.Flags()
	f.BoolVar(&watchFlags.serve, "serve", false, "serve /health, /api/v1/status and /metrics while watching")
	f.StringVar(&watchFlags.host, "host", "", "status server host (default from config)")
	f.IntVar(&watchFlags.port, "port", 0, "status server port (default from config)")
	f.IntVar(&watchFlags.history, "history", session.DefaultHistorySize, "samples kept per history series")
	f.IntVar(&watchFlags.outputWindow, "output-window", session.DefaultOutputWindow, "recent output lengths sent for verbosity")
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Assess a stream of telemetry samples from stdin",
	Long: `Read telemetry samples from stdin, one JSON object per line, and write one
JSON report per sample to stdout with all three assessments.

History for the half-life estimate is kept across samples. Lines that are
not valid samples are logged and skipped.

Sample fields:
  memory_used_percent, token_burn_rate_per_min, context_drift_percent,
  session_age_seconds, token_budget_total, token_budget_used,
  context_window_max_bytes, context_window_used_bytes, output_lengths,
  baseline_output_length, errors, system_mode

Examples:
  # Assess samples produced by an agent
  my-agent --telemetry | skynet watch

  # Also expose the latest state for 'skynet monitor' and Prometheus
  my-agent --telemetry | skynet watch --serve --port 9464`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, cmd, a)
		})
	},
}

func runWatch(ctx context.Context, cmd *cobra.Command, a *app) error {
	tracker := session.NewTracker(session.Config{
		HistorySize:  watchFlags.history,
		OutputWindow: watchFlags.outputWindow,
		SystemMode:   a.systemMode(""),
	})
	watcher := session.NewWatcher(a.client, tracker, a.logger)

	serverErr := make(chan error, 1)
	if watchFlags.serve || a.cfg.Server.Enabled {
		srvCfg := &ctxhttp.Config{
			Host:    a.cfg.Server.Host,
			Port:    a.cfg.Server.Port,
			Version: version,
		}
		if watchFlags.host != "" {
			srvCfg.Host = watchFlags.host
		}
		if watchFlags.port != 0 {
			srvCfg.Port = watchFlags.port
		}

		gauges := ctxhttp.NewWatchGauges(a.registry)
		watcher.OnReport = gauges.Update

		srv, err := ctxhttp.NewServer(tracker, a.logger, srvCfg, a.registry)
		if err != nil {
			return fmt.Errorf("failed to create status server: %w", err)
		}
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr <- err
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.Server.ShutdownTimeout.Duration())
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.logger.Warn(shutdownCtx, "status server shutdown failed", zap.Error(err))
			}
		}()
	}

	// Reads from stdin cannot be interrupted, so the loop runs on its own
	// goroutine and a signal returns without waiting for it.
	done := make(chan error, 1)
	go func() {
		done <- watcher.Run(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
	}()

	select {
	case err := <-done:
		a.logger.Debug(ctx, "sample stream ended", zap.Int("samples", tracker.Samples()))
		return err
	case err := <-serverErr:
		return fmt.Errorf("status server: %w", err)
	case <-ctx.Done():
		a.logger.Info(context.WithoutCancel(ctx), "interrupted, stopping watch", zap.Int("samples", tracker.Samples()))
		return nil
	}
}
