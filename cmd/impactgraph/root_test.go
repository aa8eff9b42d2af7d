package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"impactgraph/internal/core/config"
	"impactgraph/internal/engine/impact"
)

func TestReadDiff(t *testing.T) {
	got, err := readDiff("-", strings.NewReader("diff --git a/x b/x\n"))
	require.NoError(t, err)
	assert.Equal(t, "diff --git a/x b/x\n", string(got))

	path := filepath.Join(t.TempDir(), "change.patch")
	require.NoError(t, os.WriteFile(path, []byte("patch"), 0o644))
	got, err = readDiff(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "patch", string(got))

	_, err = readDiff(filepath.Join(t.TempDir(), "missing.patch"), nil)
	assert.Error(t, err)
}

func TestDepthOverride(t *testing.T) {
	cfg := config.Default()
	depthOverride(0)(cfg)
	assert.Equal(t, 3, cfg.Analysis.Depth)
	depthOverride(5)(cfg)
	assert.Equal(t, 5, cfg.Analysis.Depth)
}

func TestResolveLogPath(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/tmp/state")
	assert.Equal(t, filepath.Join("/tmp/state", "impactgraph", "impactgraph.log"), resolveLogPath())
}

func TestCommandTree(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"build", "stats", "impact", "pages", "chain", "query", "snapshots", "watch", "version"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}

func TestWriteImpactFormats(t *testing.T) {
	res := impact.Result{SnapshotVersion: 1, Changed: []string{"a.ts"}, Score: 10}
	defer func(prev string) { outFormat = prev }(outFormat)

	for format, want := range map[string]string{
		"text":     "Change Impact",
		"json":     `"snapshot_version": 1`,
		"markdown": "title: Change Impact Report",
		"mermaid":  "flowchart LR",
		"sarif":    `"version": "2.1.0"`,
	} {
		outFormat = format
		var buf bytes.Buffer
		require.NoError(t, writeImpact(&buf, "demo", res))
		assert.Contains(t, buf.String(), want, format)
	}
}
