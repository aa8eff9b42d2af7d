package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"impactgraph/internal/core/app"
	"impactgraph/internal/ui/cli"
)

var (
	watchUI      bool
	watchMetrics string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep the graph current and report the impact of every change",
	Long: `Watch the project root, apply each debounced batch of file changes to the
published snapshot and report its impact. With --ui a terminal dashboard
shows the latest result; otherwise results are logged.

Examples:
  impactgraph watch --ui
  impactgraph watch --metrics :9464`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchUI, "ui", false, "Enable terminal UI mode")
	watchCmd.Flags().StringVar(&watchMetrics, "metrics", "", "Serve /metrics and /healthz on this address, overrides observability.metrics_addr")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	setupLogging(watchUI)
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if watchMetrics != "" {
		cfg.Observability.MetricsAddr = watchMetrics
	}

	ctx, cancel := commandContext()
	defer cancel()

	s, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.close(context.Background())

	snap, err := s.app.Open(ctx)
	if err != nil {
		return err
	}
	slog.Info("watching", "root", s.app.Root(), "version", snap.Version(), "files", snap.Len())

	if addr := cfg.Observability.MetricsAddr; addr != "" {
		srv := cli.NewObservabilityServer(addr, app.NewHealthService(s.app))
		if err := srv.Start(ctx); err != nil {
			return err
		}
		defer func() {
			stopCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
			defer stop()
			_ = srv.Stop(stopCtx)
		}()
	}

	if err := s.app.StartWatcher(ctx); err != nil {
		return err
	}

	if watchUI {
		return cli.RunWatchUI(s.app)
	}
	<-ctx.Done()
	return nil
}
