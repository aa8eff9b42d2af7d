package graph

import (
	"sort"

	"impactgraph/internal/engine/parser"
)

type Stats struct {
	Version          uint64                        `json:"version"`
	Files            int                           `json:"files"`
	Edges            int                           `json:"edges"`
	ResolvedEdges    int                           `json:"resolved_edges"`
	UnresolvedEdges  int                           `json:"unresolved_edges"`
	StaleFiles       int                           `json:"stale_files"`
	FailedFiles      int                           `json:"failed_files"`
	UnparsedFiles    int                           `json:"unparsed_files"`
	ByClassification map[parser.Classification]int `json:"by_classification"`
	ByLanguage       map[string]int                `json:"by_language"`
	Cycles           int                           `json:"cycles"`
}

func (s *Snapshot) Stats() Stats {
	st := Stats{
		Version:          s.version,
		Files:            len(s.nodes),
		Edges:            s.edgeCount,
		ByClassification: make(map[parser.Classification]int),
		ByLanguage:       make(map[string]int),
		Cycles:           len(s.Cycles()),
	}
	for _, p := range s.paths {
		n := s.nodes[p]
		st.ByClassification[n.Classification]++
		if n.Language != "" {
			st.ByLanguage[n.Language]++
		}
		switch n.Status {
		case StatusFailed:
			st.FailedFiles++
		case StatusUnparsed:
			st.UnparsedFiles++
		}
		if n.Stale {
			st.StaleFiles++
		}
		for _, e := range s.forward[p] {
			if e.Resolved {
				st.ResolvedEdges++
			} else {
				st.UnresolvedEdges++
			}
		}
	}
	return st
}

type Hotspot struct {
	Path           string                `json:"path"`
	Classification parser.Classification `json:"classification"`
	Importers      int                   `json:"importers"`
}

// TopImported returns the n files with the most direct importers.
func (s *Snapshot) TopImported(n int) []Hotspot {
	if n <= 0 {
		return nil
	}
	hotspots := make([]Hotspot, 0, len(s.reverse))
	for target, importers := range s.reverse {
		node := s.nodes[target]
		hotspots = append(hotspots, Hotspot{
			Path:           target,
			Classification: node.Classification,
			Importers:      len(importers),
		})
	}
	sort.Slice(hotspots, func(i, j int) bool {
		if hotspots[i].Importers == hotspots[j].Importers {
			return hotspots[i].Path < hotspots[j].Path
		}
		return hotspots[i].Importers > hotspots[j].Importers
	})
	if len(hotspots) > n {
		return hotspots[:n]
	}
	return hotspots
}
