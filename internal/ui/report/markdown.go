// Package report formats impact results for sharing: markdown for pull
// request comments, mermaid diagrams and SARIF for code scanning tools.
package report

import (
	"fmt"
	"strings"
	"time"

	"impactgraph/internal/engine/impact"
)

type MarkdownOptions struct {
	ProjectName    string
	Version        string
	GeneratedAt    time.Time
	IncludeMermaid bool
}

func GenerateMarkdown(res impact.Result, opts MarkdownOptions) string {
	if opts.GeneratedAt.IsZero() {
		opts.GeneratedAt = time.Now().UTC()
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.WriteString("title: Change Impact Report\n")
	b.WriteString("project: " + nonEmpty(opts.ProjectName, "unknown") + "\n")
	b.WriteString("generated_at: " + opts.GeneratedAt.UTC().Format(time.RFC3339) + "\n")
	b.WriteString("version: " + nonEmpty(opts.Version, "unknown") + "\n")
	b.WriteString("---\n\n")

	b.WriteString("# Change Impact\n\n")
	b.WriteString("| Metric | Value |\n")
	b.WriteString("| --- | --- |\n")
	fmt.Fprintf(&b, "| Score | %d / 100 |\n", res.Score)
	fmt.Fprintf(&b, "| Snapshot | v%d |\n", res.SnapshotVersion)
	fmt.Fprintf(&b, "| Changed Files | %d |\n", len(res.Changed))
	fmt.Fprintf(&b, "| Affected Files | %d |\n", res.TotalAffected)
	fmt.Fprintf(&b, "| Affected Pages | %d |\n", len(res.Pages))
	fmt.Fprintf(&b, "| Warnings | %d |\n\n", res.TotalWarnings)

	b.WriteString("## Changed Files\n")
	for _, p := range res.Changed {
		b.WriteString("- `" + p + "`\n")
	}
	b.WriteString("\n")

	if len(res.Pages) > 0 {
		b.WriteString("## Affected Pages\n")
		for _, p := range res.Pages {
			b.WriteString("- `" + p + "`\n")
		}
		b.WriteString("\n")
	}

	if len(res.Groups) > 0 {
		b.WriteString("## Affected Files\n")
		for _, g := range res.Groups {
			fmt.Fprintf(&b, "<details>\n<summary>%s (%d)</summary>\n\n", g.Classification, len(g.Files))
			for _, f := range g.Files {
				b.WriteString("- `" + f + "`\n")
			}
			b.WriteString("\n</details>\n\n")
		}
	}

	if len(res.CriticalPaths) > 0 {
		b.WriteString("## Critical Paths\n")
		b.WriteString("| Endpoint | Weight | Path |\n")
		b.WriteString("| --- | --- | --- |\n")
		for _, cp := range res.CriticalPaths {
			fmt.Fprintf(&b, "| `%s` | %.3f | %s |\n", escapeCell(cp.Endpoint), cp.Contribution, escapeCell(strings.Join(cp.Path, " → ")))
		}
		b.WriteString("\n")
		if opts.IncludeMermaid {
			b.WriteString("```mermaid\n")
			b.WriteString(GenerateMermaid(res))
			b.WriteString("```\n\n")
		}
	}

	if len(res.Warnings) > 0 {
		b.WriteString("## Warnings\n")
		b.WriteString("| Code | File | Detail |\n")
		b.WriteString("| --- | --- | --- |\n")
		for _, w := range res.Warnings {
			fmt.Fprintf(&b, "| %s | `%s` | %s |\n", w.Code, escapeCell(w.Path), escapeCell(w.Detail))
		}
		if res.TotalWarnings > len(res.Warnings) {
			fmt.Fprintf(&b, "\n_%d more warnings not shown._\n", res.TotalWarnings-len(res.Warnings))
		}
	}
	return b.String()
}
