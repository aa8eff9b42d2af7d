package snapshots

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "impactgraph/internal/core/errors"
	"impactgraph/internal/engine/graph"
	"impactgraph/internal/engine/parser"
)

func sampleSnapshot(version uint64, files ...string) *graph.Snapshot {
	d := graph.NewDraft()
	for _, f := range files {
		d.PutNode(graph.FileNode{Path: f, Language: "typescript", Status: graph.StatusOK, Classification: parser.ClassUtility})
	}
	for i := 0; i+1 < len(files); i++ {
		d.SetEdges(files[i], []graph.Edge{{
			Raw: "./" + files[i+1], Kind: parser.KindStatic, Line: 1, Target: files[i+1], Resolved: true,
		}})
	}
	d.SetTombstone("removed.ts", []string{files[0]})
	return d.Freeze(version)
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "snapshots.db"), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_SaveLoadLatest(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	first := sampleSnapshot(1, "a.ts", "b.ts")
	second := sampleSnapshot(2, "a.ts", "b.ts", "c.ts")
	require.NoError(t, store.Save(ctx, "web", first))
	require.NoError(t, store.Save(ctx, "web", second))
	require.NoError(t, store.Save(ctx, "web", second), "saving twice is a no-op")
	require.NoError(t, store.Save(ctx, "other", first))

	got, err := store.LoadLatest(ctx, "web")
	require.NoError(t, err)
	assert.Equal(t, second.ID(), got.ID())
	assert.Equal(t, second.Version(), got.Version())
	assert.Equal(t, second.AllEdges(), got.AllEdges())
	assert.Equal(t, []string{"b.ts"}, got.Importers("c.ts"))
	importers, ok := got.Tombstone("removed.ts")
	require.True(t, ok)
	assert.Equal(t, []string{"a.ts"}, importers)

	entries, err := store.List(ctx, "web")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, uint64(2), entries[0].Version)
	assert.Equal(t, 3, entries[0].Files)
	assert.Equal(t, 2, entries[0].Edges)
	assert.Greater(t, entries[0].Bytes, 0)
}

func TestStore_LoadLatestMissing(t *testing.T) {
	_, err := openTestStore(t).LoadLatest(context.Background(), "")
	require.Error(t, err)
	assert.True(t, domainerrors.IsCode(err, domainerrors.CodeNotFound))
}

func TestStore_Prune(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	for v := uint64(1); v <= 5; v++ {
		require.NoError(t, store.Save(ctx, "web", sampleSnapshot(v, "a.ts", "b.ts")))
	}

	removed, err := store.Prune(ctx, "web", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)

	entries, err := store.List(ctx, "web")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, uint64(5), entries[0].Version)
	assert.Equal(t, uint64(4), entries[1].Version)
}

func TestStore_OpenRejectsDirectoryPath(t *testing.T) {
	_, err := Open(t.TempDir(), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is a directory")
}

func TestStore_OpenCorruptDBPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots.db")
	require.NoError(t, os.WriteFile(path, []byte("this is not sqlite"), 0o644))

	_, err := Open(path, 0)
	require.Error(t, err)
	lower := strings.ToLower(err.Error())
	assert.True(t, strings.Contains(lower, "not a database") || strings.Contains(lower, "schema"), "got %v", err)
}

func TestEnsureSchema_DetectsNewerVersionDrift(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots.db")
	store, err := Open(path, 0)
	require.NoError(t, err)
	defer store.Close()

	_, err = store.db.Exec(`INSERT OR REPLACE INTO schema_migrations(version) VALUES (?)`, SchemaVersion+1)
	require.NoError(t, err)

	db, err := sql.Open(driverName, "file:"+path)
	require.NoError(t, err)
	defer db.Close()
	err = EnsureSchema(db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "newer than supported")
}
