package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"impactgraph/internal/core/app"
	"impactgraph/internal/ui/cli"
)

var pagesDepth int

var pagesCmd = &cobra.Command{
	Use:   "pages <path>...",
	Short: "List the pages that reach each file",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(nil, func(ctx context.Context, a *app.App) error {
			if len(args) == 1 {
				pages := a.PagesUsing(ctx, args[0], pagesDepth)
				if jsonOutput() {
					return cli.WriteJSON(cmd.OutOrStdout(), pages)
				}
				fmt.Fprint(cmd.OutOrStdout(), cli.RenderPages(args[0], pages))
				return nil
			}
			byPath := a.PagesUsingAll(ctx, args, pagesDepth)
			if jsonOutput() {
				return cli.WriteJSON(cmd.OutOrStdout(), byPath)
			}
			fmt.Fprint(cmd.OutOrStdout(), cli.RenderPagesByPath(byPath))
			return nil
		})
	},
}

var chainCmd = &cobra.Command{
	Use:   "chain <from> <to>",
	Short: "Print the shortest import chain between two files",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(nil, func(ctx context.Context, a *app.App) error {
			chain, err := a.ImportChain(args[0], args[1])
			if err != nil {
				return err
			}
			if jsonOutput() {
				return cli.WriteJSON(cmd.OutOrStdout(), chain)
			}
			fmt.Fprint(cmd.OutOrStdout(), cli.RenderChain(chain))
			return nil
		})
	},
}

func init() {
	pagesCmd.Flags().IntVar(&pagesDepth, "depth", 0, "Search depth, defaults to analysis.depth")
	rootCmd.AddCommand(pagesCmd, chainCmd)
}
