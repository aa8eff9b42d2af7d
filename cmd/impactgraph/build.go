package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"impactgraph/internal/core/app"
	"impactgraph/internal/ui/cli"
)

var buildTop int

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the dependency graph from scratch",
	Long: `Parse every project file, publish a fresh snapshot and persist it when the
snapshot store is enabled.

Examples:
  impactgraph build
  impactgraph build --root ./web --format json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		setupLogging(false)
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext()
		defer cancel()

		s, err := openSession(ctx, cfg)
		if err != nil {
			return err
		}
		defer s.close(context.Background())

		if _, err := s.app.Scan(ctx); err != nil {
			return err
		}
		return printStats(s.app, buildTop)
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the latest snapshot",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(nil, func(ctx context.Context, a *app.App) error {
			return printStats(a, buildTop)
		})
	},
}

func printStats(a *app.App, top int) error {
	snap := a.Snapshot()
	st := snap.Stats()
	hotspots := snap.TopImported(top)
	if jsonOutput() {
		return cli.WriteJSON(os.Stdout, struct {
			Stats    any `json:"stats"`
			Hotspots any `json:"most_imported"`
			Cache    any `json:"cache"`
		}{st, hotspots, a.CacheStats()})
	}
	fmt.Print(cli.RenderStats(st, hotspots))
	return nil
}

func init() {
	buildCmd.Flags().IntVar(&buildTop, "top", 10, "Number of most imported files to list")
	statsCmd.Flags().IntVar(&buildTop, "top", 10, "Number of most imported files to list")
	rootCmd.AddCommand(buildCmd, statsCmd)
}
