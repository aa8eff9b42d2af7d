package builder

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"impactgraph/internal/core/errors"
	"impactgraph/internal/engine/changeset"
	"impactgraph/internal/engine/fingerprint"
	"impactgraph/internal/engine/graph"
	"impactgraph/internal/engine/parser"
	"impactgraph/internal/engine/resolver"
	"impactgraph/internal/shared/util"
)

var project = map[string]string{
	"src/pages/index.tsx":         "import Header from '../components/Header'\nimport './index.css'\n",
	"src/pages/about.tsx":         "import Header from '../components/Header'\n",
	"src/components/Header.tsx":   "import { fmt } from '../lib/format'\nimport React from 'react'\n",
	"src/lib/format.ts":           "export const fmt = (s: string) => s\n",
	"src/pages/index.css":         "@import './theme.css';\n",
	"src/pages/theme.css":         "body { color: red; }\n",
	"README.md":                   "# demo\n",
	"node_modules/react/index.js": "module.exports = {}\n",
}

func newTestBuilder(t *testing.T) *Builder {
	t.Helper()
	classifier, err := parser.NewClassifier(nil)
	require.NoError(t, err)
	cache, err := fingerprint.New(64)
	require.NoError(t, err)
	ignore, err := util.NewPathMatcher([]string{"node_modules/"})
	require.NoError(t, err)
	return New(parser.NewDefaultRegistry(parser.NewGrammarLoader(), classifier), cache, Options{
		PoolSize: 4,
		Ignore:   ignore,
		Resolve: resolver.Options{
			Extensions: []string{".ts", ".tsx", ".js", ".css"},
			IndexFiles: []string{"index"},
			Roots:      []string{"", "src"},
		},
	})
}

func filesOf(m map[string]string) []File {
	files := make([]File, 0, len(m))
	for p, c := range m {
		files = append(files, File{Path: p, Content: []byte(c)})
	}
	return files
}

func edgeSet(s *graph.Snapshot) []string {
	out := make([]string, 0, s.EdgeCount())
	for _, e := range s.AllEdges() {
		if n, _ := s.Node(e.Source); n.Stale {
			continue
		}
		out = append(out, fmt.Sprintf("%s -%s-> %s [%s] %v", e.Source, e.Kind, e.Target, e.Raw, e.Resolved))
	}
	sort.Strings(out)
	return out
}

func TestBuildFull(t *testing.T) {
	b := newTestBuilder(t)
	snap, err := b.BuildFull(context.Background(), filesOf(project), 1)
	require.NoError(t, err)

	assert.Equal(t, uint64(1), snap.Version())
	assert.False(t, snap.Has("node_modules/react/index.js"), "ignored files never become nodes")
	assert.Equal(t, 7, snap.Len())

	assert.Equal(t, []string{"src/pages/about.tsx", "src/pages/index.tsx"}, snap.Importers("src/components/Header.tsx"))
	assert.Equal(t, []string{"src/components/Header.tsx"}, snap.Importers("src/lib/format.ts"))
	assert.Equal(t, []string{"src/pages/index.css"}, snap.Importers("src/pages/theme.css"))

	page, ok := snap.Node("src/pages/index.tsx")
	require.True(t, ok)
	assert.Equal(t, parser.ClassPage, page.Classification)
	assert.Equal(t, graph.StatusOK, page.Status)
	assert.Equal(t, fingerprint.Of([]byte(project["src/pages/index.tsx"])), page.Fingerprint)

	readme, ok := snap.Node("README.md")
	require.True(t, ok)
	assert.Equal(t, graph.StatusUnparsed, readme.Status)
	assert.Empty(t, snap.Edges("README.md"))
	assert.Equal(t, errors.CodeNoParserFound, readme.WarningCode)

	warnings := snap.Warnings("src/components/Header.tsx")
	require.Len(t, warnings, 1)
	assert.Equal(t, errors.CodeUnresolvedImport, warnings[0].Code)
	assert.Equal(t, "react", warnings[0].Detail)
}

func TestIncrementalMatchesFullBuild(t *testing.T) {
	ctx := context.Background()
	b := newTestBuilder(t)
	base, err := b.BuildFull(ctx, filesOf(project), 1)
	require.NoError(t, err)

	final := map[string]string{}
	for p, c := range project {
		final[p] = c
	}
	delete(final, "src/pages/about.tsx")
	delete(final, "src/lib/format.ts")
	final["src/lib/strings.ts"] = project["src/lib/format.ts"]
	final["src/components/Header.tsx"] = "import { fmt } from '../lib/strings'\nimport { x } from '../lib/missing'\n"
	final["src/components/Footer.tsx"] = "import Header from './Header'\n"

	cs := changeset.ChangeSet{
		Added:    []string{"src/components/Footer.tsx"},
		Modified: []string{"src/components/Header.tsx"},
		Deleted:  []string{"src/pages/about.tsx"},
		Renamed:  []changeset.Rename{{From: "src/lib/format.ts", To: "src/lib/strings.ts"}},
		Contents: map[string][]byte{
			"src/components/Footer.tsx": []byte(final["src/components/Footer.tsx"]),
			"src/components/Header.tsx": []byte(final["src/components/Header.tsx"]),
			"src/lib/strings.ts":        []byte(final["src/lib/strings.ts"]),
		},
	}
	next, err := b.Update(ctx, base, cs)
	require.NoError(t, err)
	full, err := newTestBuilder(t).BuildFull(ctx, filesOf(final), 2)
	require.NoError(t, err)

	assert.Equal(t, uint64(2), next.Version())
	assert.Equal(t, full.Paths(), next.Paths())
	assert.Equal(t, edgeSet(full), edgeSet(next))

	importers, ok := next.Tombstone("src/pages/about.tsx")
	require.True(t, ok)
	assert.Empty(t, importers)
	importers, ok = next.Tombstone("src/lib/format.ts")
	require.True(t, ok)
	assert.Equal(t, []string{"src/components/Header.tsx"}, importers)

	// The base snapshot is never modified.
	assert.True(t, base.Has("src/pages/about.tsx"))
	assert.Equal(t, uint64(1), base.Version())
}

func TestUpdateAddedFileTakesPrecedence(t *testing.T) {
	ctx := context.Background()
	b := newTestBuilder(t)
	base, err := b.BuildFull(ctx, filesOf(map[string]string{
		"src/a.ts":          "import { u } from './util'\n",
		"src/util/index.ts": "export const u = 1\n",
	}), 1)
	require.NoError(t, err)
	require.Equal(t, []string{"src/a.ts"}, base.Importers("src/util/index.ts"))

	// a.ts imports neither the added path nor anything removed, yet its
	// edge moves because the new file wins resolution.
	next, err := b.Update(ctx, base, changeset.ChangeSet{
		Added:    []string{"src/util.ts"},
		Contents: map[string][]byte{"src/util.ts": []byte("export const u = 2\n")},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"src/a.ts"}, next.Importers("src/util.ts"))
	assert.Empty(t, next.Importers("src/util/index.ts"))
}

func TestUpdateDeleteLeavesUnresolvedEdges(t *testing.T) {
	ctx := context.Background()
	b := newTestBuilder(t)
	base, err := b.BuildFull(ctx, filesOf(project), 1)
	require.NoError(t, err)

	next, err := b.Update(ctx, base, changeset.ChangeSet{Deleted: []string{"src/lib/format.ts"}})
	require.NoError(t, err)

	assert.False(t, next.Has("src/lib/format.ts"))
	for _, e := range next.AllEdges() {
		assert.NotEqual(t, "src/lib/format.ts", e.Target)
	}
	var dead []graph.Edge
	for _, e := range next.Edges("src/components/Header.tsx") {
		if e.Raw == "../lib/format" {
			dead = append(dead, e)
		}
	}
	require.Len(t, dead, 1)
	assert.False(t, dead[0].Resolved)
	assert.Contains(t, next.Warnings("src/components/Header.tsx"),
		graph.Warning{Path: "src/components/Header.tsx", Code: errors.CodeUnresolvedImport, Detail: "../lib/format"})
}

func TestUpdateParseFailureKeepsEdges(t *testing.T) {
	ctx := context.Background()
	b := newTestBuilder(t)
	base, err := b.BuildFull(ctx, filesOf(project), 1)
	require.NoError(t, err)

	next, err := b.Update(ctx, base, changeset.ChangeSet{
		Modified: []string{"src/components/Header.tsx"},
		Contents: map[string][]byte{"src/components/Header.tsx": []byte("import { from '../lib/format'\n")},
	})
	require.NoError(t, err)

	n, ok := next.Node("src/components/Header.tsx")
	require.True(t, ok)
	assert.Equal(t, graph.StatusFailed, n.Status)
	assert.True(t, n.Stale)
	assert.Equal(t, errors.CodeParseFailed, n.WarningCode)
	assert.Equal(t, base.Edges("src/components/Header.tsx"), next.Edges("src/components/Header.tsx"))
	assert.Equal(t, []string{"src/components/Header.tsx"}, next.Importers("src/lib/format.ts"))
}

func TestUpdateSkipsUnchangedFingerprint(t *testing.T) {
	ctx := context.Background()
	b := newTestBuilder(t)
	base, err := b.BuildFull(ctx, filesOf(project), 1)
	require.NoError(t, err)
	before := b.cache.Stats()

	next, err := b.Update(ctx, base, changeset.ChangeSet{
		Modified: []string{"src/lib/format.ts"},
		Contents: map[string][]byte{"src/lib/format.ts": []byte(project["src/lib/format.ts"])},
	})
	require.NoError(t, err)

	after := b.cache.Stats()
	assert.Equal(t, before.Hits, after.Hits)
	assert.Equal(t, before.Misses, after.Misses)
	assert.Equal(t, edgeSet(base), edgeSet(next))
}

func TestUpdateMissingContent(t *testing.T) {
	ctx := context.Background()
	b := newTestBuilder(t)
	base, err := b.BuildFull(ctx, filesOf(project), 1)
	require.NoError(t, err)

	next, err := b.Update(ctx, base, changeset.ChangeSet{
		Added:    []string{"src/pages/new.tsx"},
		Modified: []string{"src/lib/format.ts"},
	})
	require.NoError(t, err)

	added, ok := next.Node("src/pages/new.tsx")
	require.True(t, ok)
	assert.Equal(t, errors.CodeMissingContent, added.WarningCode)
	assert.Equal(t, parser.ClassPage, added.Classification)

	kept, ok := next.Node("src/lib/format.ts")
	require.True(t, ok)
	assert.True(t, kept.Stale)
	assert.Equal(t, errors.CodeMissingContent, kept.WarningCode)
	assert.Equal(t, []string{"src/components/Header.tsx"}, next.Importers("src/lib/format.ts"))
}

func TestGoModuleResolution(t *testing.T) {
	ctx := context.Background()
	b := newTestBuilder(t)
	files := map[string]string{
		"go.mod":                   "module example.com/app\n\ngo 1.22\n",
		"main.go":                  "package main\n\nimport (\n\t\"fmt\"\n\t\"example.com/app/internal/store\"\n)\n",
		"internal/store/a.go":      "package store\n",
		"internal/store/b.go":      "package store\n",
		"internal/store/a_test.go": "package store\n",
	}
	snap, err := b.BuildFull(ctx, filesOf(files), 1)
	require.NoError(t, err)
	assert.Equal(t, "example.com/app", snap.GoModulePath())
	assert.Equal(t, []string{"main.go"}, snap.Importers("internal/store/a.go"))
	assert.Equal(t, []string{"main.go"}, snap.Importers("internal/store/b.go"))
	assert.Empty(t, snap.Importers("internal/store/a_test.go"))

	next, err := b.Update(ctx, snap, changeset.ChangeSet{
		Modified: []string{"go.mod"},
		Contents: map[string][]byte{"go.mod": []byte("module example.com/renamed\n")},
	})
	require.NoError(t, err)
	assert.Equal(t, "example.com/renamed", next.GoModulePath())
	assert.Empty(t, next.Importers("internal/store/a.go"), "imports re-resolve against the new module path")
}

func TestBuildCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := newTestBuilder(t)
	snap, err := b.BuildFull(ctx, filesOf(project), 1)
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, snap)

	snap, err = b.Update(ctx, graph.Empty(), changeset.ChangeSet{
		Added:    []string{"a.ts"},
		Contents: map[string][]byte{"a.ts": []byte("export {}\n")},
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, snap)
}

func TestBuildIsDeterministic(t *testing.T) {
	ctx := context.Background()
	first, err := newTestBuilder(t).BuildFull(ctx, filesOf(project), 1)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := newTestBuilder(t).BuildFull(ctx, filesOf(project), 1)
		require.NoError(t, err)
		assert.Equal(t, first.AllEdges(), again.AllEdges())
	}
}
