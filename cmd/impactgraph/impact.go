package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"impactgraph/internal/core/app"
	"impactgraph/internal/core/config"
	"impactgraph/internal/data/source"
	"impactgraph/internal/engine/impact"
	"impactgraph/internal/ui/cli"
	"impactgraph/internal/ui/report"
)

var (
	impactDiff      string
	impactDepth     int
	impactFailAbove int
)

var impactCmd = &cobra.Command{
	Use:   "impact [paths...]",
	Short: "Estimate the impact of a change set",
	Long: `Apply a change set to the latest snapshot and report the affected files,
pages, critical paths and an impact score between 0 and 100.

The change set comes from a unified diff (--diff, "-" for stdin) or from
project-relative paths, which are classified as modified or deleted by
looking at the file system.

Examples:
  git diff | impactgraph impact --diff -
  impactgraph impact src/lib/format.ts --depth 4
  impactgraph impact --diff change.patch --fail-above 60
  impactgraph impact --diff change.patch --format markdown`,
	RunE: runImpact,
}

func init() {
	impactCmd.Flags().StringVar(&impactDiff, "diff", "", `Unified diff file, "-" reads stdin`)
	impactCmd.Flags().IntVar(&impactDepth, "depth", 0, "Propagation depth, overrides analysis.depth")
	impactCmd.Flags().IntVar(&impactFailAbove, "fail-above", -1, "Exit with an error when the score exceeds this value")
	rootCmd.AddCommand(impactCmd)
}

func runImpact(cmd *cobra.Command, args []string) error {
	if impactDiff == "" && len(args) == 0 {
		return fmt.Errorf("impact needs --diff or at least one path")
	}
	if impactDiff != "" && len(args) > 0 {
		return fmt.Errorf("--diff and paths cannot be used together")
	}

	var diff []byte
	if impactDiff != "" {
		var err error
		if diff, err = readDiff(impactDiff, cmd.InOrStdin()); err != nil {
			return err
		}
	}

	return withSession(depthOverride(impactDepth), func(ctx context.Context, a *app.App) error {
		var (
			res impact.Result
			err error
		)
		if diff != nil {
			res, err = a.AnalyzeDiff(ctx, diff)
		} else {
			res, err = a.Analyze(ctx, source.ChangeSetFromPaths(a.Root(), args))
		}
		if err != nil {
			return err
		}

		if err := writeImpact(cmd.OutOrStdout(), a.ProjectKey(), res); err != nil {
			return err
		}

		if impactFailAbove >= 0 && res.Score > impactFailAbove {
			return fmt.Errorf("impact score %d exceeds %d", res.Score, impactFailAbove)
		}
		return nil
	})
}

func writeImpact(w io.Writer, project string, res impact.Result) error {
	switch outFormat {
	case "json":
		return cli.WriteJSON(w, res)
	case "markdown", "md":
		_, err := io.WriteString(w, report.GenerateMarkdown(res, report.MarkdownOptions{
			ProjectName:    project,
			Version:        version,
			IncludeMermaid: true,
		}))
		return err
	case "mermaid":
		_, err := io.WriteString(w, report.GenerateMermaid(res))
		return err
	case "sarif":
		data, err := report.GenerateSARIF(res, version)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	default:
		_, err := io.WriteString(w, cli.RenderImpact(res))
		return err
	}
}

func readDiff(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read diff: %w", err)
	}
	return data, nil
}

func depthOverride(depth int) func(*config.Config) {
	return func(cfg *config.Config) {
		if depth > 0 {
			cfg.Analysis.Depth = depth
		}
	}
}
