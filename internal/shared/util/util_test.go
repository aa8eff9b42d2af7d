package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNormalizePath(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Empty", input: "", expected: ""},
		{name: "Dot", input: ".", expected: ""},
		{name: "Trim", input: "  ./foo/bar  ", expected: "foo/bar"},
		{name: "Relative", input: "foo/../bar", expected: "bar"},
		{name: "Backslashes", input: `src\pages\index.tsx`, expected: "src/pages/index.tsx"},
		{name: "LeadingSlash", input: "/src/a.ts", expected: "src/a.ts"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := NormalizePath(tc.input); got != tc.expected {
				t.Fatalf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestRelativeTo(t *testing.T) {
	t.Parallel()

	root := filepath.Join("tmp", "project")
	got, ok := RelativeTo(root, filepath.Join(root, "src", "a.ts"))
	if !ok || got != "src/a.ts" {
		t.Fatalf("expected src/a.ts, got %q (ok=%v)", got, ok)
	}
	if _, ok := RelativeTo(root, filepath.Join("tmp", "other", "a.ts")); ok {
		t.Fatal("expected path outside root to be rejected")
	}
}

func TestHasPathPrefix(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		path     string
		prefix   string
		expected bool
	}{
		{name: "Exact", path: "foo/bar", prefix: "foo/bar", expected: true},
		{name: "Nested", path: "foo/bar/baz", prefix: "foo/bar", expected: true},
		{name: "Neighbor", path: "foo/barista", prefix: "foo/bar", expected: false},
		{name: "Shorter", path: "foo", prefix: "foo/bar", expected: false},
		{name: "MixedSeparators", path: `foo\bar\baz`, prefix: "foo/bar", expected: true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := HasPathPrefix(tc.path, tc.prefix); got != tc.expected {
				t.Fatalf("expected %v, got %v", tc.expected, got)
			}
		})
	}
}

func TestSortedHelpers(t *testing.T) {
	t.Parallel()

	keys := SortedStringKeys(map[string]int{"b": 2, "a": 1, "c": 3})
	expected := []string{"a", "b", "c"}
	for i, key := range expected {
		if keys[i] != key {
			t.Fatalf("expected %q at %d, got %q", key, i, keys[i])
		}
	}

	uniq := SortedUnique([]string{"b", "", "a", "b"})
	if len(uniq) != 2 || uniq[0] != "a" || uniq[1] != "b" {
		t.Fatalf("unexpected unique values %v", uniq)
	}
}

func TestPathMatcher(t *testing.T) {
	t.Parallel()

	m, err := NewPathMatcher([]string{"node_modules/", ".git/", "*.test.ts", "generated/api/", "docs/*.md"})
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}

	cases := []struct {
		path     string
		expected bool
	}{
		{"node_modules/react/index.js", true},
		{"packages/ui/node_modules/x.js", true},
		{".git/HEAD", true},
		{"src/a.test.ts", true},
		{"src/a.ts", false},
		{"generated/api/client.ts", true},
		{"src/generated/api/client.ts", false},
		{"docs/readme.md", true},
		{"docs/nested/readme.md", false},
		{"node_modules.ts", false},
	}
	for _, tc := range cases {
		if got := m.Match(tc.path); got != tc.expected {
			t.Errorf("Match(%q) = %v, want %v", tc.path, got, tc.expected)
		}
	}

	if !m.MatchDir("web/node_modules") {
		t.Error("expected node_modules directory to be skipped")
	}
	if m.MatchDir("src") {
		t.Error("expected src directory to be walked")
	}
}

func TestPathMatcherInvalid(t *testing.T) {
	t.Parallel()

	if _, err := NewPathMatcher([]string{"[unterminated"}); err == nil {
		t.Fatal("expected invalid glob to fail")
	}
}

func TestWriteFileWithDirs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "file.txt")
	content := []byte("hello")

	if err := WriteFileWithDirs(path, content, 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(got) != string(content) {
		t.Fatalf("expected %q, got %q", string(content), string(got))
	}
}
