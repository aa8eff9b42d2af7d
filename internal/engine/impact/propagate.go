// Package impact walks reverse dependencies from changed files and scores
// how far a change reaches.
package impact

import (
	"math"
	"sort"

	"impactgraph/internal/engine/graph"
	"impactgraph/internal/engine/parser"
)

type visit struct {
	distance int
	parent   string
}

type propagation struct {
	seeds     []string
	inGraph   int
	visits    map[string]visit
	untracked []string
}

// propagate runs a multi-source breadth-first search over reverse edges.
// Each level is expanded in lexicographic order, so the first discoverer of
// a node, which becomes its parent, is the smallest node of the previous
// level that imports it. Deleted seeds expand through their tombstones.
func propagate(snap *graph.Snapshot, changed []string, depth int) propagation {
	p := propagation{visits: make(map[string]visit)}
	for _, path := range changed {
		if _, seen := p.visits[path]; seen {
			continue
		}
		switch {
		case snap.Has(path):
			p.inGraph++
		case hasTombstone(snap, path):
		default:
			p.untracked = append(p.untracked, path)
			continue
		}
		p.visits[path] = visit{}
		p.seeds = append(p.seeds, path)
	}
	sort.Strings(p.seeds)
	sort.Strings(p.untracked)

	level := p.seeds
	for d := 1; d <= depth && len(level) > 0; d++ {
		next := make([]string, 0)
		for _, u := range level {
			for _, v := range importersOf(snap, u) {
				if !snap.Has(v) {
					continue
				}
				if _, seen := p.visits[v]; seen {
					continue
				}
				p.visits[v] = visit{distance: d, parent: u}
				next = append(next, v)
			}
		}
		sort.Strings(next)
		level = next
	}
	return p
}

func hasTombstone(snap *graph.Snapshot, path string) bool {
	_, ok := snap.Tombstone(path)
	return ok
}

func importersOf(snap *graph.Snapshot, path string) []string {
	if snap.Has(path) {
		return snap.Importers(path)
	}
	importers, _ := snap.Tombstone(path)
	return importers
}

// pathTo walks parent pointers back from endpoint to its changed file.
func (p propagation) pathTo(endpoint string) []string {
	path := []string{endpoint}
	for node := endpoint; p.visits[node].distance > 0; {
		node = p.visits[node].parent
		path = append(path, node)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func contribution(opts Options, class parser.Classification, distance int) float64 {
	w := opts.BaseWeight
	if opts.significant(class) {
		w *= opts.CriticalityFactor
	}
	return w / float64(distance+1)
}

// branchingFactor is the mean in-degree over nodes with at least one
// importer, rounded up and never below one.
func branchingFactor(snap *graph.Snapshot) float64 {
	total, count := 0, 0
	for _, path := range snap.Paths() {
		if n := snap.InDegree(path); n > 0 {
			total += n
			count++
		}
	}
	if count == 0 {
		return 1
	}
	return math.Max(1, math.Ceil(float64(total)/float64(count)))
}

// normalizer is the largest contribution sum reachable within depth: each
// level holds at most seeds·b^d of the nodes not yet counted, all at the
// significant weight.
func normalizer(opts Options, seeds, remaining int, b float64) float64 {
	var norm float64
	frontier := float64(seeds)
	left := float64(remaining)
	maxWeight := opts.BaseWeight * opts.CriticalityFactor
	for d := 1; d <= opts.Depth && left > 0; d++ {
		frontier *= b
		n := math.Min(frontier, left)
		if n <= 0 {
			break
		}
		norm += n * maxWeight / float64(d+1)
		left -= n
	}
	return norm
}

func score(sum, norm float64) int {
	if norm <= 0 || sum <= 0 {
		return 0
	}
	s := int(math.Round(100 * sum / norm))
	if s > 100 {
		return 100
	}
	return s
}
