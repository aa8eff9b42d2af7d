// Package drivers holds the per-language import resolution strategies.
package drivers

import (
	"path"
	"strings"

	"impactgraph/internal/engine/parser"
)

// FileIndex is the set of project paths a driver may resolve into.
type FileIndex interface {
	Has(p string) bool
	// Dir lists the files directly inside dir, sorted. "" is the project root.
	Dir(dir string) []string
}

// Driver maps one raw import of source onto project paths. An empty result
// means the import is unresolved.
type Driver interface {
	Resolve(idx FileIndex, source string, imp parser.ImportReference) []string
}

// join cleans a candidate path; ok is false when it escapes the project.
func join(elem ...string) (string, bool) {
	p := path.Join(elem...)
	if p == "." {
		return "", true
	}
	if p == ".." || strings.HasPrefix(p, "../") || strings.HasPrefix(p, "/") {
		return "", false
	}
	return p, true
}

func sourceDir(source string) string {
	dir := path.Dir(source)
	if dir == "." {
		return ""
	}
	return dir
}

func firstExisting(idx FileIndex, candidates []string) []string {
	for _, c := range candidates {
		if c != "" && idx.Has(c) {
			return []string{c}
		}
	}
	return nil
}
