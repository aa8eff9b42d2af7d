package impact

import (
	"sort"
	"time"

	"impactgraph/internal/core/errors"
	"impactgraph/internal/engine/graph"
	"impactgraph/internal/engine/parser"
	"impactgraph/internal/shared/observability"
	"impactgraph/internal/shared/util"
)

type AffectedFile struct {
	Path           string                `json:"path"`
	Distance       int                   `json:"distance"`
	Contribution   float64               `json:"contribution"`
	Classification parser.Classification `json:"classification"`
	Parent         string                `json:"parent"`
}

type Group struct {
	Classification parser.Classification `json:"classification"`
	Files          []string              `json:"files"`
}

type CriticalPath struct {
	Endpoint     string   `json:"endpoint"`
	Contribution float64  `json:"contribution"`
	Path         []string `json:"path"`
}

// Result is the outcome of one impact run. Its JSON encoding is identical
// for identical inputs.
type Result struct {
	SnapshotVersion uint64          `json:"snapshot_version"`
	Changed         []string        `json:"changed"`
	Affected        []AffectedFile  `json:"affected"`
	TotalAffected   int             `json:"total_affected"`
	Groups          []Group         `json:"groups"`
	Pages           []string        `json:"pages"`
	Score           int             `json:"score"`
	CriticalPaths   []CriticalPath  `json:"critical_paths"`
	Warnings        []graph.Warning `json:"warnings"`
	TotalWarnings   int             `json:"total_warnings"`
}

// Analyze computes the impact of the changed paths on snap. It never
// fails: untracked paths and degraded nodes surface as warnings.
func Analyze(snap *graph.Snapshot, changed []string, opts Options) Result {
	start := time.Now()
	opts = opts.withDefaults()
	if snap == nil {
		snap = graph.Empty()
	}

	normalized := make([]string, 0, len(changed))
	for _, p := range changed {
		normalized = append(normalized, util.NormalizePath(p))
	}
	changed = util.SortedUnique(normalized)

	prop := propagate(snap, changed, opts.Depth)
	affected := collectAffected(snap, prop, opts)

	res := Result{
		SnapshotVersion: snap.Version(),
		Changed:         changed,
		TotalAffected:   len(affected),
		Groups:          groupAffected(affected),
		Pages:           pagesOf(affected),
		CriticalPaths:   criticalPaths(prop, affected, opts),
	}

	var sum float64
	for _, a := range affected {
		sum += a.Contribution
	}
	remaining := snap.Len() - prop.inGraph
	res.Score = score(sum, normalizer(opts, len(prop.seeds), remaining, branchingFactor(snap)))

	res.Warnings, res.TotalWarnings = collectWarnings(snap, prop, affected, opts.MaxWarnings)

	if len(affected) > opts.MaxAffected {
		affected = affected[:opts.MaxAffected]
	}
	res.Affected = affected

	observability.ImpactScore.Observe(float64(res.Score))
	observability.ImpactDuration.Observe(time.Since(start).Seconds())
	return res
}

// PagesUsing lists the significant files that reach path within depth,
// closest first.
func PagesUsing(snap *graph.Snapshot, path string, depth int, opts Options) []AffectedFile {
	opts = opts.withDefaults()
	if depth > 0 {
		opts.Depth = depth
	}
	prop := propagate(snap, []string{util.NormalizePath(path)}, opts.Depth)

	pages := make([]AffectedFile, 0)
	for _, a := range collectAffected(snap, prop, opts) {
		if opts.significant(a.Classification) {
			pages = append(pages, a)
		}
	}
	sort.Slice(pages, func(i, j int) bool {
		if pages[i].Distance != pages[j].Distance {
			return pages[i].Distance < pages[j].Distance
		}
		return pages[i].Path < pages[j].Path
	})
	return pages
}

// PagesUsingAll runs PagesUsing for each path. Every requested path gets an
// entry, empty when no page reaches it.
func PagesUsingAll(snap *graph.Snapshot, paths []string, depth int, opts Options) map[string][]AffectedFile {
	out := make(map[string][]AffectedFile, len(paths))
	for _, p := range paths {
		key := util.NormalizePath(p)
		if _, done := out[key]; done {
			continue
		}
		out[key] = PagesUsing(snap, key, depth, opts)
	}
	return out
}

func collectAffected(snap *graph.Snapshot, prop propagation, opts Options) []AffectedFile {
	affected := make([]AffectedFile, 0, len(prop.visits))
	for path, v := range prop.visits {
		if v.distance == 0 {
			continue
		}
		n, _ := snap.Node(path)
		class := n.Classification
		if class == "" {
			class = parser.ClassUnclassified
		}
		affected = append(affected, AffectedFile{
			Path:           path,
			Distance:       v.distance,
			Contribution:   contribution(opts, class, v.distance),
			Classification: class,
			Parent:         v.parent,
		})
	}
	sort.Slice(affected, func(i, j int) bool { return affectedLess(affected[i], affected[j]) })
	return affected
}

func affectedLess(a, b AffectedFile) bool {
	if a.Contribution != b.Contribution {
		return a.Contribution > b.Contribution
	}
	if a.Distance != b.Distance {
		return a.Distance < b.Distance
	}
	return a.Path < b.Path
}

func groupAffected(affected []AffectedFile) []Group {
	byClass := make(map[parser.Classification][]string)
	for _, a := range affected {
		byClass[a.Classification] = append(byClass[a.Classification], a.Path)
	}
	groups := make([]Group, 0, len(byClass))
	for _, class := range parser.ClassificationOrder {
		if files := byClass[class]; len(files) > 0 {
			groups = append(groups, Group{Classification: class, Files: files})
			delete(byClass, class)
		}
	}
	// Tags outside the fixed order follow it, sorted by name.
	extra := make([]string, 0, len(byClass))
	for class := range byClass {
		extra = append(extra, string(class))
	}
	sort.Strings(extra)
	for _, class := range extra {
		groups = append(groups, Group{Classification: parser.Classification(class), Files: byClass[parser.Classification(class)]})
	}
	return groups
}

func pagesOf(affected []AffectedFile) []string {
	pages := make([]string, 0)
	for _, a := range affected {
		if a.Classification == parser.ClassPage {
			pages = append(pages, a.Path)
		}
	}
	sort.Strings(pages)
	return pages
}

// criticalPaths picks every significant affected file plus the highest
// contributors as endpoints and traces each back to its changed file.
func criticalPaths(prop propagation, affected []AffectedFile, opts Options) []CriticalPath {
	picked := make(map[string]bool)
	endpoints := make([]AffectedFile, 0)
	for i, a := range affected {
		if opts.significant(a.Classification) || i < opts.MaxCriticalPaths {
			if !picked[a.Path] {
				picked[a.Path] = true
				endpoints = append(endpoints, a)
			}
		}
	}

	paths := make([]CriticalPath, 0, len(endpoints))
	for _, a := range endpoints {
		paths = append(paths, CriticalPath{
			Endpoint:     a.Path,
			Contribution: a.Contribution,
			Path:         prop.pathTo(a.Path),
		})
	}
	sort.Slice(paths, func(i, j int) bool {
		if paths[i].Contribution != paths[j].Contribution {
			return paths[i].Contribution > paths[j].Contribution
		}
		if len(paths[i].Path) != len(paths[j].Path) {
			return len(paths[i].Path) < len(paths[j].Path)
		}
		return paths[i].Endpoint < paths[j].Endpoint
	})
	if len(paths) > opts.MaxCriticalPaths {
		paths = paths[:opts.MaxCriticalPaths]
	}
	return paths
}

func collectWarnings(snap *graph.Snapshot, prop propagation, affected []AffectedFile, limit int) ([]graph.Warning, int) {
	warnings := make([]graph.Warning, 0)
	for _, p := range prop.seeds {
		warnings = append(warnings, snap.Warnings(p)...)
	}
	for _, a := range affected {
		warnings = append(warnings, snap.Warnings(a.Path)...)
	}
	for _, p := range prop.untracked {
		warnings = append(warnings, graph.Warning{
			Path:   p,
			Code:   errors.CodeNotTracked,
			Detail: "path is not part of the snapshot",
		})
	}
	sort.Slice(warnings, func(i, j int) bool { return graph.WarningLess(warnings[i], warnings[j]) })
	total := len(warnings)
	if len(warnings) > limit {
		warnings = warnings[:limit]
	}
	return warnings, total
}
