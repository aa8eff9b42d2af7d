package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"impactgraph/internal/core/errors"
	"impactgraph/internal/data/query"
	"impactgraph/internal/data/snapshots"
	"impactgraph/internal/engine/graph"
	"impactgraph/internal/engine/impact"
	"impactgraph/internal/engine/parser"
)

func sampleResult() impact.Result {
	return impact.Result{
		SnapshotVersion: 3,
		Changed:         []string{"src/lib/format.ts"},
		Affected: []impact.AffectedFile{
			{Path: "src/components/Header.tsx", Distance: 1, Contribution: 0.5, Classification: parser.ClassComponent, Parent: "src/lib/format.ts"},
			{Path: "src/pages/index.tsx", Distance: 2, Contribution: 0.667, Classification: parser.ClassPage, Parent: "src/components/Header.tsx"},
		},
		TotalAffected: 4,
		Pages:         []string{"src/pages/index.tsx"},
		Score:         72,
		CriticalPaths: []impact.CriticalPath{
			{Endpoint: "src/pages/index.tsx", Contribution: 0.667, Path: []string{"src/lib/format.ts", "src/components/Header.tsx", "src/pages/index.tsx"}},
		},
		Warnings:      []graph.Warning{{Path: "src/lib/format.ts", Code: errors.CodeUnresolvedImport, Detail: "lodash"}},
		TotalWarnings: 1,
	}
}

func TestRenderImpact(t *testing.T) {
	out := RenderImpact(sampleResult())

	assert.Contains(t, out, "72/100")
	assert.Contains(t, out, "Pages (1)")
	assert.Contains(t, out, "src/components/Header.tsx")
	assert.Contains(t, out, "... 2 more")
	assert.Contains(t, out, "src/lib/format.ts -> src/components/Header.tsx -> src/pages/index.tsx")
	assert.Contains(t, out, "UNRESOLVED_IMPORT src/lib/format.ts")
	assert.Contains(t, out, "lodash")
}

func TestRenderImpactEmpty(t *testing.T) {
	out := RenderImpact(impact.Result{Changed: []string{"README.md"}})
	assert.Contains(t, out, "0/100")
	assert.NotContains(t, out, "Affected")
	assert.NotContains(t, out, "Warnings")
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleResult()))

	var decoded impact.Result
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, sampleResult(), decoded)
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))
}

func TestRenderTables(t *testing.T) {
	rows := RenderRows([]query.FileRow{{Path: "a.ts", Language: "typescript", Classification: "utility", Status: "failed", Stale: true, FanIn: 2}})
	assert.Contains(t, rows, "failed (stale)")

	snaps := RenderSnapshots([]snapshots.Entry{{Version: 7, CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), Files: 10, Edges: 12, Bytes: 512, SnapshotID: "abc"}})
	assert.Contains(t, snaps, "2026-01-02 03:04:05")
	assert.Contains(t, snaps, "abc")

	pages := RenderPages("src/lib/format.ts", nil)
	assert.Contains(t, pages, "none")

	multi := RenderPagesByPath(map[string][]impact.AffectedFile{
		"src/z.ts": nil,
		"src/a.ts": {{Path: "src/pages/index.tsx", Distance: 1, Parent: "src/a.ts"}},
	})
	assert.Less(t, strings.Index(multi, "src/a.ts"), strings.Index(multi, "src/z.ts"))
	assert.Contains(t, multi, "src/pages/index.tsx")

	stats := RenderStats(graph.Stats{
		Version:          2,
		Files:            3,
		ByClassification: map[parser.Classification]int{parser.ClassPage: 1, parser.ClassUtility: 2},
	}, []graph.Hotspot{{Path: "src/lib/format.ts", Importers: 2}})
	assert.Less(t, strings.Index(stats, "page"), strings.Index(stats, "utility"))
	assert.Contains(t, stats, "src/lib/format.ts")

	assert.Equal(t, "a\n  -> b\n", RenderChain([]string{"a", "b"}))
}
