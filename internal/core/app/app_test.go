package app

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"impactgraph/internal/core/config"
	"impactgraph/internal/core/errors"
	"impactgraph/internal/data/source"
	"impactgraph/internal/engine/changeset"
	"impactgraph/internal/shared/util"
)

var projectFiles = map[string]string{
	"src/pages/index.tsx":       "import Header from '../components/Header'\n",
	"src/pages/about.tsx":       "import Header from '../components/Header'\n",
	"src/components/Header.tsx": "import { fmt } from '../lib/format'\n",
	"src/lib/format.ts":         "export const fmt = (s: string) => s\n",
	"node_modules/x/index.js":   "module.exports = {}\n",
}

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for p, c := range files {
		require.NoError(t, util.WriteFileWithDirs(filepath.Join(root, filepath.FromSlash(p)), []byte(c), 0o644))
	}
	return root
}

func newTestApp(t *testing.T, root string, withStore bool) *App {
	t.Helper()
	cfg := config.Default()
	cfg.Project.Root = root
	cfg.Project.Key = "demo"
	cfg.Workers.PoolSize = 2
	if withStore {
		cfg.Store.Enabled = true
		cfg.Store.Path = filepath.Join(root, ".impactgraph", "snapshots.db")
	}
	a, err := New(cfg)
	require.NoError(t, err)
	return a
}

func TestScanPublishesSnapshot(t *testing.T) {
	a := newTestApp(t, writeProject(t, projectFiles), false)
	defer a.Close(context.Background())

	assert.Equal(t, uint64(0), a.Snapshot().Version())

	snap, err := a.Scan(context.Background())
	require.NoError(t, err)
	assert.Same(t, snap, a.Snapshot())
	assert.Equal(t, uint64(1), snap.Version())
	assert.Equal(t, 4, snap.Len())
	assert.Equal(t, []string{"src/pages/about.tsx", "src/pages/index.tsx"}, snap.Importers("src/components/Header.tsx"))
}

func TestAnalyzeChangeSet(t *testing.T) {
	root := writeProject(t, projectFiles)
	a := newTestApp(t, root, false)
	defer a.Close(context.Background())
	_, err := a.Scan(context.Background())
	require.NoError(t, err)

	require.NoError(t, util.WriteFileWithDirs(filepath.Join(root, "src", "lib", "format.ts"), []byte("export const fmt = (s: string) => s.trim()\n"), 0o644))
	res, err := a.Analyze(context.Background(), source.ChangeSetFromPaths(root, []string{"src/lib/format.ts"}))
	require.NoError(t, err)

	assert.Equal(t, uint64(2), res.SnapshotVersion)
	assert.Equal(t, []string{"src/lib/format.ts"}, res.Changed)
	assert.Equal(t, 3, res.TotalAffected)
	assert.Equal(t, []string{"src/pages/about.tsx", "src/pages/index.tsx"}, res.Pages)
	assert.Greater(t, res.Score, 0)
	assert.LessOrEqual(t, res.Score, 100)
}

func TestComputeImpactIsPure(t *testing.T) {
	a := newTestApp(t, writeProject(t, projectFiles), false)
	defer a.Close(context.Background())
	snap, err := a.Scan(context.Background())
	require.NoError(t, err)

	cs := changeset.ChangeSet{Modified: []string{"src/components/Header.tsx"}}
	first := a.ComputeImpact(context.Background(), snap, cs)
	second := a.ComputeImpact(context.Background(), snap, cs)
	assert.Equal(t, first, second)
	assert.Same(t, snap, a.Snapshot(), "computing impact never publishes")
}

func TestUpdateIncrementalDoesNotPublish(t *testing.T) {
	a := newTestApp(t, writeProject(t, projectFiles), false)
	defer a.Close(context.Background())
	snap, err := a.Scan(context.Background())
	require.NoError(t, err)

	cs := changeset.ChangeSet{
		Added:    []string{"src/pages/contact.tsx"},
		Contents: map[string][]byte{"src/pages/contact.tsx": []byte("import Header from '../components/Header'\n")},
	}
	next, err := a.UpdateIncremental(context.Background(), snap, cs)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), next.Version())
	assert.Same(t, snap, a.Snapshot())
	assert.False(t, snap.Has("src/pages/contact.tsx"), "published snapshot is immutable")
	assert.True(t, next.Has("src/pages/contact.tsx"))
}

func TestAnalyzeDiff(t *testing.T) {
	root := writeProject(t, projectFiles)
	a := newTestApp(t, root, false)
	defer a.Close(context.Background())
	_, err := a.Scan(context.Background())
	require.NoError(t, err)

	diff := "diff --git a/src/components/Header.tsx b/src/components/Header.tsx\n" +
		"--- a/src/components/Header.tsx\n" +
		"+++ b/src/components/Header.tsx\n" +
		"@@ -1 +1 @@\n" +
		"-import { fmt } from '../lib/format'\n" +
		"+import { fmt } from '../lib/format' \n"
	res, err := a.AnalyzeDiff(context.Background(), []byte(diff))
	require.NoError(t, err)
	assert.Equal(t, []string{"src/components/Header.tsx"}, res.Changed)
	assert.Equal(t, []string{"src/pages/about.tsx", "src/pages/index.tsx"}, res.Pages)
}

func TestQueryAndImportChain(t *testing.T) {
	a := newTestApp(t, writeProject(t, projectFiles), false)
	defer a.Close(context.Background())
	_, err := a.Scan(context.Background())
	require.NoError(t, err)

	rows, err := a.Query("SELECT files WHERE fan_in >= 2", 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "src/components/Header.tsx", rows[0].Path)

	_, err = a.Query("DROP files", 10)
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))

	chain, err := a.ImportChain("src/pages/index.tsx", "./src/lib/format.ts")
	require.NoError(t, err)
	assert.Equal(t, []string{"src/pages/index.tsx", "src/components/Header.tsx", "src/lib/format.ts"}, chain)

	_, err = a.ImportChain("src/lib/format.ts", "src/pages/index.tsx")
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))
}

func TestPagesUsing(t *testing.T) {
	a := newTestApp(t, writeProject(t, projectFiles), false)
	defer a.Close(context.Background())
	_, err := a.Scan(context.Background())
	require.NoError(t, err)

	pages := a.PagesUsing(context.Background(), "src/lib/format.ts", 0)
	require.Len(t, pages, 2)
	assert.Equal(t, "src/pages/about.tsx", pages[0].Path)
	assert.Equal(t, 2, pages[0].Distance)

	assert.Empty(t, a.PagesUsing(context.Background(), "src/lib/format.ts", 1))

	all := a.PagesUsingAll(context.Background(), []string{"src/lib/format.ts", "./src/pages/about.tsx"}, 0)
	require.Len(t, all, 2)
	assert.Len(t, all["src/lib/format.ts"], 2)
	assert.Empty(t, all["src/pages/about.tsx"])
}

func TestHandleChangesEmitsUpdate(t *testing.T) {
	root := writeProject(t, projectFiles)
	a := newTestApp(t, root, false)
	defer a.Close(context.Background())
	_, err := a.Scan(context.Background())
	require.NoError(t, err)

	var (
		mu      sync.Mutex
		updates []Update
	)
	a.SetUpdateHandler(func(u Update) {
		mu.Lock()
		defer mu.Unlock()
		updates = append(updates, u)
	})

	require.NoError(t, util.WriteFileWithDirs(filepath.Join(root, "src", "pages", "contact.tsx"), []byte("import Header from '../components/Header'\n"), 0o644))
	a.HandleChanges(context.Background(), []string{"src/pages/contact.tsx"})

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, updates, 1)
	require.NoError(t, updates[0].Err)
	assert.Equal(t, uint64(2), updates[0].Snapshot.Version())
	assert.Equal(t, []string{"src/pages/contact.tsx"}, updates[0].Result.Changed)
	assert.Contains(t, a.Snapshot().Importers("src/components/Header.tsx"), "src/pages/contact.tsx")
}

func TestSnapshotPersistence(t *testing.T) {
	root := writeProject(t, projectFiles)
	a := newTestApp(t, root, true)

	snap, err := a.Scan(context.Background())
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, a.Close(ctx))

	b := newTestApp(t, root, true)
	defer b.Close(context.Background())
	restored, ok, err := b.Restore(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, snap.ID(), restored.ID())
	assert.Equal(t, snap.Version(), restored.Version())
	assert.Equal(t, snap.AllEdges(), restored.AllEdges())
	assert.Same(t, restored, b.Snapshot())

	status := NewHealthService(b).Check(context.Background())
	assert.Equal(t, "up", status.Status)
	assert.Equal(t, "ok", status.Components["snapshot_store"])
}

func TestOpenScansWhenStoreIsEmpty(t *testing.T) {
	a := newTestApp(t, writeProject(t, projectFiles), true)
	defer a.Close(context.Background())

	snap, err := a.Open(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), snap.Version())
	assert.Equal(t, 4, snap.Len())
}

func TestHealthDegradedBeforeScan(t *testing.T) {
	a := newTestApp(t, writeProject(t, projectFiles), false)
	defer a.Close(context.Background())

	status := NewHealthService(a).Check(context.Background())
	assert.Equal(t, "degraded", status.Status)
	assert.Equal(t, "no snapshot published", status.Components["graph"])
}

func TestStoreIgnorePatterns(t *testing.T) {
	root := filepath.Join("tmp", "project")
	assert.Equal(t, []string{".impactgraph/"}, storeIgnorePatterns(root, filepath.Join(root, ".impactgraph", "snapshots.db")))
	assert.Equal(t, []string{"graph.db", "graph.db-wal", "graph.db-shm", "graph.db-journal"}, storeIgnorePatterns(root, filepath.Join(root, "graph.db")))
	assert.Nil(t, storeIgnorePatterns(root, filepath.Join("tmp", "elsewhere", "graph.db")))
}

func TestCloseStopsWatcherStartedElsewhere(t *testing.T) {
	a := newTestApp(t, writeProject(t, projectFiles), false)
	_, err := a.Scan(context.Background())
	require.NoError(t, err)

	started := make(chan error, 1)
	go func() { started <- a.StartWatcher(context.Background()) }()
	require.NoError(t, <-started)
	require.NotNil(t, a.activeWatcher.Load())

	require.NoError(t, a.StartWatcher(context.Background()))
	require.NoError(t, a.Close(context.Background()))
	assert.Nil(t, a.activeWatcher.Load())
}
