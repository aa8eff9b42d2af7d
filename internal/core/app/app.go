package app

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"impactgraph/internal/core/config"
	"impactgraph/internal/core/errors"
	"impactgraph/internal/core/watcher"
	"impactgraph/internal/data/query"
	"impactgraph/internal/data/queue"
	"impactgraph/internal/data/snapshots"
	"impactgraph/internal/data/source"
	"impactgraph/internal/engine/builder"
	"impactgraph/internal/engine/changeset"
	"impactgraph/internal/engine/fingerprint"
	"impactgraph/internal/engine/graph"
	"impactgraph/internal/engine/impact"
	"impactgraph/internal/engine/parser"
	"impactgraph/internal/shared/observability"
	"impactgraph/internal/shared/util"
)

// Update is delivered to watch subscribers after each applied change.
type Update struct {
	Snapshot *graph.Snapshot
	Result   impact.Result
	Err      error
}

type App struct {
	Config *config.Config

	root       string
	projectKey string
	registry   *parser.Registry
	cache      *fingerprint.Cache
	builder    *builder.Builder
	published  *graph.Published
	ignore     *util.PathMatcher
	store      *snapshots.Store

	persistQueue *queue.MemoryQueue[*graph.Snapshot]
	workerCancel context.CancelFunc
	workerDone   chan struct{}

	updateMu sync.RWMutex
	onUpdate func(Update)

	activeWatcher atomic.Pointer[watcher.Watcher]
}

func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	root, err := filepath.Abs(cfg.Project.Root)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "resolve project root")
	}

	storePath := cfg.Store.Path
	if storePath != "" && !filepath.IsAbs(storePath) {
		storePath = filepath.Join(root, storePath)
	}
	patterns := cfg.IgnorePatterns
	if cfg.Store.Enabled {
		patterns = append(append([]string(nil), patterns...), storeIgnorePatterns(root, storePath)...)
	}
	ignore, err := util.NewPathMatcher(patterns)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "compile ignore patterns")
	}
	rules := make([]parser.ClassifierRule, 0, len(cfg.Classification.Rules))
	for _, r := range cfg.Classification.Rules {
		rules = append(rules, parser.ClassifierRule{Pattern: r.Pattern, Tag: parser.Classification(r.Tag)})
	}
	classifier, err := parser.NewClassifier(rules)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "compile classification rules")
	}
	cache, err := fingerprint.New(cfg.Cache.Capacity)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "create fingerprint cache")
	}

	registry := parser.NewDefaultRegistry(parser.NewGrammarLoader(), classifier)
	a := &App{
		Config:     cfg,
		root:       root,
		projectKey: projectKey(cfg, root),
		registry:   registry,
		cache:      cache,
		ignore:     ignore,
		published:  graph.NewPublished(nil),
		builder: builder.New(registry, cache, builder.Options{
			PoolSize: cfg.Workers.PoolSize,
			Ignore:   ignore,
			Resolve:  resolveOptions(cfg),
		}),
	}

	if cfg.Store.Enabled {
		store, err := snapshots.Open(storePath, cfg.Store.BusyTimeout)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, "open snapshot store")
		}
		a.store = store
		a.startPersistWorker()
	}
	return a, nil
}

// storeIgnorePatterns keeps the snapshot database and its WAL files out of
// the graph and the watcher when they live inside the project.
func storeIgnorePatterns(root, storePath string) []string {
	rel, ok := util.RelativeTo(root, storePath)
	if !ok || rel == "" {
		return nil
	}
	if dir := path.Dir(rel); dir != "." {
		return []string{dir + "/"}
	}
	return []string{rel, rel + "-wal", rel + "-shm", rel + "-journal"}
}

func projectKey(cfg *config.Config, root string) string {
	if key := strings.TrimSpace(cfg.Project.Key); key != "" {
		return key
	}
	return filepath.Base(root)
}

func (a *App) Root() string { return a.root }

func (a *App) ProjectKey() string { return a.projectKey }

// Snapshot returns the currently published snapshot.
func (a *App) Snapshot() *graph.Snapshot { return a.published.Load() }

func (a *App) CacheStats() fingerprint.Stats { return a.cache.Stats() }

func (a *App) Store() *snapshots.Store { return a.store }

// BuildFull builds a snapshot from files without publishing it.
func (a *App) BuildFull(ctx context.Context, files []builder.File) (*graph.Snapshot, error) {
	ctx, span := observability.Tracer.Start(ctx, "App.BuildFull", trace.WithAttributes(attribute.Int("files", len(files))))
	defer span.End()
	return a.builder.BuildFull(ctx, files, a.Snapshot().Version()+1)
}

// UpdateIncremental applies cs to current without publishing the result.
func (a *App) UpdateIncremental(ctx context.Context, current *graph.Snapshot, cs changeset.ChangeSet) (*graph.Snapshot, error) {
	ctx, span := observability.Tracer.Start(ctx, "App.UpdateIncremental", trace.WithAttributes(attribute.Int("paths", len(cs.Paths()))))
	defer span.End()
	return a.builder.Update(ctx, current, cs)
}

// ComputeImpact scores cs against snap. It never fails.
func (a *App) ComputeImpact(ctx context.Context, snap *graph.Snapshot, cs changeset.ChangeSet) impact.Result {
	_, span := observability.Tracer.Start(ctx, "App.ComputeImpact")
	defer span.End()
	res := impact.Analyze(snap, cs.Paths(), a.ImpactOptions())
	span.SetAttributes(attribute.Int("affected", res.TotalAffected), attribute.Int("score", res.Score))
	return res
}

// PagesUsing lists the significant files reaching path within depth; a
// non-positive depth uses the configured one.
func (a *App) PagesUsing(ctx context.Context, path string, depth int) []impact.AffectedFile {
	_, span := observability.Tracer.Start(ctx, "App.PagesUsing", trace.WithAttributes(attribute.String("path", path)))
	defer span.End()
	return impact.PagesUsing(a.Snapshot(), path, depth, a.ImpactOptions())
}

// PagesUsingAll is PagesUsing for several paths, keyed by normalized path.
func (a *App) PagesUsingAll(ctx context.Context, paths []string, depth int) map[string][]impact.AffectedFile {
	_, span := observability.Tracer.Start(ctx, "App.PagesUsingAll", trace.WithAttributes(attribute.Int("paths", len(paths))))
	defer span.End()
	return impact.PagesUsingAll(a.Snapshot(), paths, depth, a.ImpactOptions())
}

// Scan lists the project on disk, builds a full snapshot and publishes it.
func (a *App) Scan(ctx context.Context) (*graph.Snapshot, error) {
	files, err := source.ListProject(a.root, a.ignore)
	if err != nil {
		return nil, errors.AddContext(err, errors.CtxOperation, "list_project")
	}
	return a.publish(func(cur *graph.Snapshot) (*graph.Snapshot, error) {
		return a.builder.BuildFull(ctx, files, cur.Version()+1)
	})
}

// Restore publishes the latest stored snapshot. ok is false when the store
// is disabled or holds nothing for this project.
func (a *App) Restore(ctx context.Context) (*graph.Snapshot, bool, error) {
	if a.store == nil {
		return nil, false, nil
	}
	snap, err := a.store.LoadLatest(ctx, a.projectKey)
	if errors.IsCode(err, errors.CodeNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if _, err := a.published.Update(func(*graph.Snapshot) (*graph.Snapshot, error) { return snap, nil }); err != nil {
		return nil, false, err
	}
	a.recordPublished(snap)
	slog.Info("restored snapshot", "version", snap.Version(), "files", snap.Len(), "id", snap.ID())
	return snap, true, nil
}

// Open restores the latest stored snapshot or scans the project when none
// is available.
func (a *App) Open(ctx context.Context) (*graph.Snapshot, error) {
	snap, ok, err := a.Restore(ctx)
	if err != nil {
		slog.Warn("snapshot restore failed, rebuilding", "error", err)
	}
	if ok {
		return snap, nil
	}
	return a.Scan(ctx)
}

// Apply updates the published snapshot with cs.
func (a *App) Apply(ctx context.Context, cs changeset.ChangeSet) (*graph.Snapshot, error) {
	return a.publish(func(cur *graph.Snapshot) (*graph.Snapshot, error) {
		return a.UpdateIncremental(ctx, cur, cs)
	})
}

// Analyze applies cs and computes its impact on the resulting snapshot.
func (a *App) Analyze(ctx context.Context, cs changeset.ChangeSet) (impact.Result, error) {
	snap, err := a.Apply(ctx, cs)
	if err != nil {
		return impact.Result{}, err
	}
	return a.ComputeImpact(ctx, snap, cs), nil
}

// AnalyzeDiff reads a unified diff, resolving contents from the project
// root.
func (a *App) AnalyzeDiff(ctx context.Context, diff []byte) (impact.Result, error) {
	cs, err := source.ParseUnifiedDiff(diff, source.Reader(a.root))
	if err != nil {
		return impact.Result{}, errors.Wrap(err, errors.CodeValidationError, "parse diff")
	}
	return a.Analyze(ctx, cs)
}

func (a *App) Query(raw string, limit int) ([]query.FileRow, error) {
	q, err := query.ParseCQL(raw)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "parse query")
	}
	return query.Execute(a.Snapshot(), q, limit), nil
}

func (a *App) ImportChain(from, to string) ([]string, error) {
	from, to = util.NormalizePath(from), util.NormalizePath(to)
	chain, ok := a.Snapshot().ImportChain(from, to)
	if !ok {
		err := errors.New(errors.CodeNotFound, "no import chain")
		err = errors.AddContext(err, "from", from)
		return nil, errors.AddContext(err, "to", to)
	}
	return chain, nil
}

func (a *App) publish(fn func(cur *graph.Snapshot) (*graph.Snapshot, error)) (*graph.Snapshot, error) {
	before := a.published.Load()
	snap, err := a.published.Update(fn)
	if err != nil {
		return nil, err
	}
	if snap != before {
		a.recordPublished(snap)
		a.enqueuePersist(snap)
	}
	return snap, nil
}

func (a *App) recordPublished(snap *graph.Snapshot) {
	observability.GraphNodes.Set(float64(snap.Len()))
	observability.GraphEdges.Set(float64(snap.EdgeCount()))
	observability.SnapshotVersion.Set(float64(snap.Version()))
}

func (a *App) SetUpdateHandler(fn func(Update)) {
	a.updateMu.Lock()
	defer a.updateMu.Unlock()
	a.onUpdate = fn
}

func (a *App) emitUpdate(u Update) {
	a.updateMu.RLock()
	fn := a.onUpdate
	a.updateMu.RUnlock()
	if fn != nil {
		fn(u)
	}
}

func (a *App) Close(ctx context.Context) error {
	var firstErr error
	if w := a.activeWatcher.Swap(nil); w != nil {
		if err := w.Close(); err != nil {
			firstErr = err
		}
	}
	if err := a.stopPersistWorker(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close snapshot store: %w", err)
		}
	}
	return firstErr
}
