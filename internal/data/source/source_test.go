package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"impactgraph/internal/engine/changeset"
	"impactgraph/internal/shared/util"
)

const sampleDiff = `diff --git a/src/lib/format.ts b/src/lib/format.ts
index 83db48f..bf269f4 100644
--- a/src/lib/format.ts
+++ b/src/lib/format.ts
@@ -1,3 +1,3 @@
 export const a = 1
-export const b = 2
+export const b = 3
 export const c = 4
diff --git a/src/components/New.tsx b/src/components/New.tsx
new file mode 100644
index 0000000..e69de29
--- /dev/null
+++ b/src/components/New.tsx
@@ -0,0 +1 @@
+export default function New() { return null }
diff --git a/src/old.ts b/src/old.ts
deleted file mode 100644
index 83db48f..0000000
--- a/src/old.ts
+++ /dev/null
@@ -1 +0,0 @@
-export {}
diff --git a/src/pages/a.tsx b/src/pages/b.tsx
similarity index 100%
rename from src/pages/a.tsx
rename to src/pages/b.tsx
`

func TestParseUnifiedDiff(t *testing.T) {
	files := map[string]string{
		"src/lib/format.ts":      "export const b = 3\n",
		"src/components/New.tsx": "export default function New() { return null }\n",
		"src/pages/b.tsx":        "export default 1\n",
	}
	read := func(p string) ([]byte, error) {
		if c, ok := files[p]; ok {
			return []byte(c), nil
		}
		return nil, os.ErrNotExist
	}

	cs, err := ParseUnifiedDiff([]byte(sampleDiff), read)
	require.NoError(t, err)

	assert.Equal(t, []string{"src/components/New.tsx"}, cs.Added)
	assert.Equal(t, []string{"src/lib/format.ts"}, cs.Modified)
	assert.Equal(t, []string{"src/old.ts"}, cs.Deleted)
	assert.Equal(t, []changeset.Rename{{From: "src/pages/a.tsx", To: "src/pages/b.tsx"}}, cs.Renamed)
	assert.Len(t, cs.Contents, 3)
	assert.Equal(t, []byte(files["src/pages/b.tsx"]), cs.Contents["src/pages/b.tsx"])
}

func TestParseUnifiedDiffEdgeCases(t *testing.T) {
	cs, err := ParseUnifiedDiff(nil, nil)
	require.NoError(t, err)
	assert.True(t, cs.Empty())

	unreadable := func(string) ([]byte, error) { return nil, os.ErrPermission }
	cs, err = ParseUnifiedDiff([]byte(sampleDiff), unreadable)
	require.NoError(t, err)
	assert.Empty(t, cs.Contents, "unreadable files carry no content")
	assert.Len(t, cs.Modified, 1)
}

func TestCleanPath(t *testing.T) {
	assert.Equal(t, "", cleanPath("/dev/null"))
	assert.Equal(t, "src/a.ts", cleanPath("a/src/a.ts"))
	assert.Equal(t, "src/a.ts", cleanPath("b/src/a.ts\t2024-01-01 00:00:00"))
	assert.Equal(t, "plain.ts", cleanPath("plain.ts"))

	from, to := splitGitHeader("a/dir with space/x.ts b/dir with space/y.ts")
	assert.Equal(t, "dir with space/x.ts", from)
	assert.Equal(t, "dir with space/y.ts", to)
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for p, c := range files {
		require.NoError(t, util.WriteFileWithDirs(filepath.Join(root, filepath.FromSlash(p)), []byte(c), 0o644))
	}
}

func TestListProject(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/a.ts":                    "export {}\n",
		"src/pages/index.tsx":         "import './a'\n",
		"node_modules/react/index.js": "module.exports = {}\n",
		"src/a.test.ts":               "test\n",
	})
	ignore, err := util.NewPathMatcher([]string{"node_modules/", "*.test.ts"})
	require.NoError(t, err)

	files, err := ListProject(root, ignore)
	require.NoError(t, err)
	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	assert.Equal(t, []string{"src/a.ts", "src/pages/index.tsx"}, paths)
	assert.Equal(t, "export {}\n", string(files[0].Content))

	_, err = ListProject(filepath.Join(root, "missing"), ignore)
	assert.Error(t, err)
}

func TestChangeSetFromPaths(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"src/a.ts": "export {}\n"})

	cs := ChangeSetFromPaths(root, []string{"./src/a.ts", "src/gone.ts"})
	assert.Equal(t, []string{"src/a.ts"}, cs.Modified)
	assert.Equal(t, []string{"src/gone.ts"}, cs.Deleted)
	assert.Equal(t, "export {}\n", string(cs.Contents["src/a.ts"]))
}
