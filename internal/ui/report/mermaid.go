package report

import (
	"fmt"
	"sort"
	"strings"

	"impactgraph/internal/engine/impact"
	"impactgraph/internal/engine/parser"
)

// GenerateMermaid draws the critical paths of res as a flowchart. Edges
// point from the changed file toward the files it affects.
func GenerateMermaid(res impact.Result) string {
	var b strings.Builder
	b.WriteString("%%{init: {'theme': 'base', 'flowchart': {'curve': 'basis'}}}%%\n")
	b.WriteString("flowchart LR\n")

	nodeSet := make(map[string]bool)
	type edge struct{ from, to string }
	edgeSet := make(map[edge]bool)
	for _, cp := range res.CriticalPaths {
		for i, p := range cp.Path {
			nodeSet[p] = true
			if i > 0 {
				edgeSet[edge{cp.Path[i-1], p}] = true
			}
		}
	}
	for _, p := range res.Changed {
		nodeSet[p] = true
	}

	nodes := make([]string, 0, len(nodeSet))
	for p := range nodeSet {
		nodes = append(nodes, p)
	}
	sort.Strings(nodes)
	ids := makeIDs(nodes)

	changed := make(map[string]bool, len(res.Changed))
	for _, p := range res.Changed {
		changed[p] = true
	}
	classOf := make(map[string]parser.Classification, len(res.Affected))
	for _, a := range res.Affected {
		classOf[a.Path] = a.Classification
	}

	for _, p := range nodes {
		fmt.Fprintf(&b, "  %s[\"%s\"]\n", ids[p], escapeLabel(p))
	}

	edges := make([]edge, 0, len(edgeSet))
	for e := range edgeSet {
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].from != edges[j].from {
			return edges[i].from < edges[j].from
		}
		return edges[i].to < edges[j].to
	})
	for _, e := range edges {
		fmt.Fprintf(&b, "  %s --> %s\n", ids[e.from], ids[e.to])
	}

	b.WriteString("  classDef changed fill:#FECACA,stroke:#B91C1C,color:#000000\n")
	b.WriteString("  classDef page fill:#BFDBFE,stroke:#1D4ED8,color:#000000\n")
	for _, p := range nodes {
		switch {
		case changed[p]:
			fmt.Fprintf(&b, "  class %s changed\n", ids[p])
		case classOf[p] == parser.ClassPage:
			fmt.Fprintf(&b, "  class %s page\n", ids[p])
		}
	}
	return b.String()
}
