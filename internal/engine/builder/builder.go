// Package builder turns file contents into dependency graph snapshots,
// either from scratch or incrementally from a change set.
package builder

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"impactgraph/internal/core/errors"
	"impactgraph/internal/engine/changeset"
	"impactgraph/internal/engine/fingerprint"
	"impactgraph/internal/engine/graph"
	"impactgraph/internal/engine/parser"
	"impactgraph/internal/engine/resolver"
	"impactgraph/internal/engine/resolver/drivers"
	"impactgraph/internal/shared/observability"
	"impactgraph/internal/shared/util"
)

const goModFile = "go.mod"

// Registry is the part of the parser registry the builder needs.
type Registry interface {
	Parse(path string, content []byte) parser.ParseResult
	Classify(path string) parser.Classification
}

type Options struct {
	PoolSize int
	Ignore   parser.Matcher
	Resolve  resolver.Options
}

// File is one project file handed to a full build.
type File struct {
	Path    string
	Content []byte
}

type Builder struct {
	registry Registry
	cache    *fingerprint.Cache
	opts     Options
}

func New(registry Registry, cache *fingerprint.Cache, opts Options) *Builder {
	if opts.PoolSize <= 0 {
		opts.PoolSize = runtime.NumCPU()
	}
	return &Builder{registry: registry, cache: cache, opts: opts}
}

type parseTask struct {
	path     string
	content  []byte
	previous *graph.FileNode

	fingerprint string
	result      parser.ParseResult
	cached      bool
}

// BuildFull parses every non-ignored file and assembles a fresh snapshot.
func (b *Builder) BuildFull(ctx context.Context, files []File, version uint64) (*graph.Snapshot, error) {
	start := time.Now()
	defer func() {
		observability.BuildDuration.WithLabelValues("full").Observe(time.Since(start).Seconds())
	}()

	draft := graph.NewDraft()
	seen := make(map[string]bool, len(files))
	tasks := make([]*parseTask, 0, len(files))
	for _, f := range files {
		p := util.NormalizePath(f.Path)
		if p == "" || seen[p] || b.ignored(p) {
			continue
		}
		seen[p] = true
		tasks = append(tasks, &parseTask{path: p, content: f.Content})
		if p == goModFile {
			draft.SetGoModulePath(drivers.ModulePath(f.Content))
		}
	}

	if err := b.parseAll(ctx, tasks); err != nil {
		return nil, err
	}
	for _, t := range tasks {
		draft.PutNode(b.nodeFor(t))
	}
	b.resolve(draft, draft.Paths())

	snap := draft.Freeze(version)
	slog.Info("graph built", "version", version, "files", snap.Len(), "edges", snap.EdgeCount(), "duration", time.Since(start))
	return snap, nil
}

// Update applies cs to current and returns the next snapshot. current is
// never modified. Only written files whose fingerprint changed are
// re-parsed; other nodes are re-resolved from their stored facts when the
// set of known paths changes.
func (b *Builder) Update(ctx context.Context, current *graph.Snapshot, cs changeset.ChangeSet) (*graph.Snapshot, error) {
	start := time.Now()
	defer func() {
		observability.BuildDuration.WithLabelValues("incremental").Observe(time.Since(start).Seconds())
	}()
	if current == nil {
		current = graph.Empty()
	}
	cs = cs.Normalize()

	draft := current.Draft()
	pathsChanged := false
	moduleChanged := false

	for _, p := range cs.Removed() {
		if b.ignored(p) || !draft.Has(p) {
			continue
		}
		draft.SetTombstone(p, current.Importers(p))
		draft.RemoveNode(p)
		if b.cache != nil {
			b.cache.Invalidate(p)
		}
		pathsChanged = true
		if p == goModFile {
			draft.SetGoModulePath("")
			moduleChanged = true
		}
	}

	tasks := make([]*parseTask, 0)
	touched := make([]string, 0)
	for _, p := range cs.Written() {
		if b.ignored(p) {
			continue
		}
		var previous *graph.FileNode
		if n, ok := draft.Node(p); ok {
			previous = &n
		} else {
			pathsChanged = true
		}

		content, ok := cs.Contents[p]
		if !ok {
			draft.PutNode(missingContent(p, previous, b.registry.Classify(p)))
			touched = append(touched, p)
			continue
		}
		if p == goModFile {
			if mp := drivers.ModulePath(content); mp != draft.GoModulePath() {
				draft.SetGoModulePath(mp)
				moduleChanged = true
			}
		}
		if previous != nil && previous.Fingerprint == fingerprint.Of(content) && previous.WarningCode != errors.CodeMissingContent {
			continue
		}
		tasks = append(tasks, &parseTask{path: p, content: content, previous: previous})
	}

	if err := b.parseAll(ctx, tasks); err != nil {
		return nil, err
	}
	for _, t := range tasks {
		draft.PutNode(b.nodeFor(t))
		touched = append(touched, t.path)
	}

	// A new path can win resolution for specifiers that never pointed at it
	// ("./util" moving from util/index.ts to util.ts), so any change to the
	// path set re-resolves every node from its stored imports.
	if pathsChanged || moduleChanged {
		b.resolve(draft, draft.Paths())
	} else {
		b.resolve(draft, touched)
	}

	snap := draft.Freeze(current.Version() + 1)
	slog.Info("graph updated",
		"version", snap.Version(),
		"reparsed", len(tasks),
		"removed", len(cs.Removed()),
		"reresolved_all", pathsChanged || moduleChanged,
		"duration", time.Since(start),
	)
	return snap, nil
}

// parseAll runs tasks on the bounded pool. The context is checked before
// each task starts; a cancelled run returns the context error.
func (b *Builder) parseAll(ctx context.Context, tasks []*parseTask) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.opts.PoolSize)
	for _, t := range tasks {
		t := t
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if b.cache != nil {
				t.fingerprint, t.result, t.cached = b.cache.Parse(t.path, t.content, b.registry.Parse)
			} else {
				t.fingerprint = fingerprint.Of(t.content)
				t.result = b.registry.Parse(t.path, t.content)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func (b *Builder) nodeFor(t *parseTask) graph.FileNode {
	res := t.result
	n := graph.FileNode{
		Path:           t.path,
		Language:       res.Language,
		Fingerprint:    t.fingerprint,
		Classification: res.Classification,
	}
	if n.Classification == "" {
		n.Classification = parser.ClassUnclassified
	}

	switch {
	case res.Success:
		n.Status = graph.StatusOK
		n.Imports = res.Imports
	case errors.IsCode(res.Err, errors.CodeNoParserFound):
		n.Status = graph.StatusUnparsed
		n.WarningCode = errors.CodeNoParserFound
		n.WarningDetail = "no parser registered"
	default:
		n.Status = graph.StatusFailed
		n.Stale = true
		n.WarningCode = errors.CodeParseFailed
		n.WarningDetail = errors.MessageOf(res.Err)
		if t.previous != nil {
			// Keep the last good facts so existing edges survive.
			n.Imports = t.previous.Imports
			if t.previous.Language != "" {
				n.Language = t.previous.Language
			}
		}
	}
	return n
}

func missingContent(p string, previous *graph.FileNode, class parser.Classification) graph.FileNode {
	n := graph.FileNode{
		Path:           p,
		Status:         graph.StatusUnparsed,
		Classification: class,
	}
	if previous != nil {
		n = *previous
		n.Stale = true
	}
	n.WarningCode = errors.CodeMissingContent
	n.WarningDetail = "no content supplied for written path"
	return n
}

// resolve recomputes the outgoing edges of paths against the draft's
// current path set.
func (b *Builder) resolve(draft *graph.Draft, paths []string) {
	opts := b.opts.Resolve
	opts.GoModulePath = draft.GoModulePath()
	r := resolver.New(resolver.NewFileSet(draft.Paths()), opts)

	for _, p := range paths {
		n, ok := draft.Node(p)
		if !ok {
			continue
		}
		edges := make([]graph.Edge, 0, len(n.Imports))
		for _, imp := range n.Imports {
			targets := r.Resolve(p, n.Language, imp)
			if len(targets) == 0 {
				edges = append(edges, graph.Edge{Source: p, Raw: imp.Raw, Kind: imp.Kind, Line: imp.Line})
				continue
			}
			for _, target := range targets {
				edges = append(edges, graph.Edge{
					Source:   p,
					Raw:      imp.Raw,
					Kind:     imp.Kind,
					Line:     imp.Line,
					Target:   target,
					Resolved: true,
				})
			}
		}
		draft.SetEdges(p, edges)
	}
}

func (b *Builder) ignored(p string) bool {
	return b.opts.Ignore != nil && b.opts.Ignore.Match(p)
}
