// Package cli renders engine results for terminals and serves the
// observability endpoints used in watch mode.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"impactgraph/internal/data/query"
	"impactgraph/internal/data/snapshots"
	"impactgraph/internal/engine/graph"
	"impactgraph/internal/engine/impact"
	"impactgraph/internal/engine/parser"
	"impactgraph/internal/shared/util"
)

// WriteJSON writes v as indented JSON followed by a newline.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func RenderImpact(res impact.Result) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Change Impact") + "\n")
	fmt.Fprintf(&b, "Snapshot v%d | score %s | %d changed | %d affected\n\n",
		res.SnapshotVersion,
		scoreStyle(res.Score).Render(fmt.Sprintf("%d/100", res.Score)),
		len(res.Changed),
		res.TotalAffected,
	)

	b.WriteString(headingStyle.Render("Changed") + "\n")
	for _, p := range res.Changed {
		fmt.Fprintf(&b, "  %s\n", p)
	}

	if len(res.Pages) > 0 {
		b.WriteString("\n" + headingStyle.Render(fmt.Sprintf("Pages (%d)", len(res.Pages))) + "\n")
		for _, p := range res.Pages {
			fmt.Fprintf(&b, "  %s\n", p)
		}
	}

	if len(res.Affected) > 0 {
		b.WriteString("\n" + headingStyle.Render("Affected") + "\n")
		tw := tabwriter.NewWriter(&b, 2, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "  PATH\tDIST\tWEIGHT\tCLASS\tVIA")
		for _, a := range res.Affected {
			fmt.Fprintf(tw, "  %s\t%d\t%.3f\t%s\t%s\n", a.Path, a.Distance, a.Contribution, a.Classification, a.Parent)
		}
		_ = tw.Flush()
		if res.TotalAffected > len(res.Affected) {
			b.WriteString(statusStyle.Render(fmt.Sprintf("  ... %d more", res.TotalAffected-len(res.Affected))) + "\n")
		}
	}

	if len(res.CriticalPaths) > 0 {
		b.WriteString("\n" + headingStyle.Render("Critical paths") + "\n")
		for _, cp := range res.CriticalPaths {
			fmt.Fprintf(&b, "  %.3f  %s\n", cp.Contribution, strings.Join(cp.Path, " -> "))
		}
	}

	if len(res.Warnings) > 0 {
		b.WriteString("\n" + headingStyle.Render(fmt.Sprintf("Warnings (%d)", res.TotalWarnings)) + "\n")
		for _, w := range res.Warnings {
			b.WriteString(warningStyle.Render(fmt.Sprintf("  %s %s", w.Code, w.Path)))
			if w.Detail != "" {
				b.WriteString(": " + w.Detail)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func RenderPages(path string, pages []impact.AffectedFile) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Pages using "+path) + "\n")
	if len(pages) == 0 {
		b.WriteString(statusStyle.Render("  none") + "\n")
		return b.String()
	}
	tw := tabwriter.NewWriter(&b, 2, 4, 2, ' ', 0)
	for _, p := range pages {
		fmt.Fprintf(tw, "  %s\t%d\tvia %s\n", p.Path, p.Distance, p.Parent)
	}
	_ = tw.Flush()
	return b.String()
}

// RenderPagesByPath renders one RenderPages block per path, sorted by path.
func RenderPagesByPath(byPath map[string][]impact.AffectedFile) string {
	var b strings.Builder
	for i, p := range util.SortedStringKeys(byPath) {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(RenderPages(p, byPath[p]))
	}
	return b.String()
}

func RenderChain(chain []string) string {
	return strings.Join(chain, "\n  -> ") + "\n"
}

func RenderStats(st graph.Stats, hotspots []graph.Hotspot) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Dependency Graph") + "\n")
	fmt.Fprintf(&b, "Snapshot v%d | %d files | %d edges (%d unresolved) | %d cycles\n",
		st.Version, st.Files, st.Edges, st.UnresolvedEdges, st.Cycles)
	if st.FailedFiles+st.StaleFiles+st.UnparsedFiles > 0 {
		b.WriteString(warningStyle.Render(fmt.Sprintf("%d failed, %d stale, %d without parser",
			st.FailedFiles, st.StaleFiles, st.UnparsedFiles)) + "\n")
	}

	b.WriteString("\n" + headingStyle.Render("By classification") + "\n")
	for _, c := range parser.ClassificationOrder {
		if n := st.ByClassification[c]; n > 0 {
			fmt.Fprintf(&b, "  %-14s %d\n", c, n)
		}
	}

	if len(hotspots) > 0 {
		b.WriteString("\n" + headingStyle.Render("Most imported") + "\n")
		for _, h := range hotspots {
			fmt.Fprintf(&b, "  %4d  %s\n", h.Importers, h.Path)
		}
	}
	return b.String()
}

func RenderRows(rows []query.FileRow) string {
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tLANG\tCLASS\tSTATUS\tIN\tOUT\tUNRESOLVED")
	for _, r := range rows {
		status := r.Status
		if r.Stale {
			status += " (stale)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\n", r.Path, r.Language, r.Classification, status, r.FanIn, r.FanOut, r.Unresolved)
	}
	_ = tw.Flush()
	return b.String()
}

func RenderSnapshots(entries []snapshots.Entry) string {
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tCREATED\tFILES\tEDGES\tBYTES\tID")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%s\n", e.Version, e.CreatedAt.Format("2006-01-02 15:04:05"), e.Files, e.Edges, e.Bytes, e.SnapshotID)
	}
	_ = tw.Flush()
	return b.String()
}
