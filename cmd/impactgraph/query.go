package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"impactgraph/internal/core/app"
	"impactgraph/internal/ui/cli"
)

var queryLimit int

var queryCmd = &cobra.Command{
	Use:   "query <cql>",
	Short: "Filter snapshot files with a small query language",
	Long: `Run a query of the form SELECT files [WHERE cond AND ...] against the
latest snapshot.

Numeric fields: fan_in, fan_out, unresolved.
Text fields: path, language, classification, status, stale.

Examples:
  impactgraph query "SELECT files WHERE fan_in >= 10"
  impactgraph query "SELECT files WHERE classification = 'page' AND unresolved > 0"
  impactgraph query "SELECT files WHERE path CONTAINS 'components'"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(nil, func(ctx context.Context, a *app.App) error {
			rows, err := a.Query(args[0], queryLimit)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return cli.WriteJSON(cmd.OutOrStdout(), rows)
			}
			fmt.Fprint(cmd.OutOrStdout(), cli.RenderRows(rows))
			return nil
		})
	},
}

func init() {
	queryCmd.Flags().IntVar(&queryLimit, "limit", 0, "Maximum rows, 0 for all")
	rootCmd.AddCommand(queryCmd)
}
