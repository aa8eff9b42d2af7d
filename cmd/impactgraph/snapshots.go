package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"impactgraph/internal/core/config"
	"impactgraph/internal/ui/cli"
)

var pruneKeep int

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "Inspect persisted snapshots",
}

var snapshotsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored snapshots, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, s *session) error {
			entries, err := s.app.Store().List(ctx, s.app.ProjectKey())
			if err != nil {
				return err
			}
			if jsonOutput() {
				return cli.WriteJSON(cmd.OutOrStdout(), entries)
			}
			fmt.Fprint(cmd.OutOrStdout(), cli.RenderSnapshots(entries))
			return nil
		})
	},
}

var snapshotsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete all but the newest snapshots",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, s *session) error {
			keep := pruneKeep
			if keep <= 0 {
				keep = s.app.Config.Store.Keep
			}
			removed, err := s.app.Store().Prune(ctx, s.app.ProjectKey(), keep)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d snapshot(s)\n", removed)
			return nil
		})
	},
}

// withStore opens a session with the snapshot store forced on; no snapshot
// is restored or built.
func withStore(fn func(ctx context.Context, s *session) error) error {
	setupLogging(false)
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.Store.Enabled = true
	if cfg.Store.Path == "" {
		cfg.Store.Path = config.Default().Store.Path
	}

	ctx, cancel := commandContext()
	defer cancel()
	s, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.close(context.Background())
	return fn(ctx, s)
}

func init() {
	snapshotsPruneCmd.Flags().IntVar(&pruneKeep, "keep", 0, "Snapshots to keep, defaults to store.keep")
	snapshotsCmd.AddCommand(snapshotsListCmd, snapshotsPruneCmd)
	rootCmd.AddCommand(snapshotsCmd)
}
