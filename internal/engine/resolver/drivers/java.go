package drivers

import (
	"strings"

	"impactgraph/internal/engine/parser"
)

// DefaultJavaRoots are the source roots searched for class files.
var DefaultJavaRoots = []string{"", "src/main/java", "src/test/java", "src"}

// JavaResolver maps fully qualified class names onto .java files.
type JavaResolver struct {
	roots []string
}

func NewJavaResolver(roots []string) *JavaResolver {
	return &JavaResolver{roots: roots}
}

func (r *JavaResolver) Resolve(idx FileIndex, _ string, imp parser.ImportReference) []string {
	name := strings.TrimSpace(imp.Raw)
	if strings.HasSuffix(name, ".*") {
		return r.resolvePackage(idx, strings.TrimSuffix(name, ".*"))
	}

	// Static member imports name a class followed by members; drop
	// trailing segments until a class file matches.
	parts := strings.Split(name, ".")
	for n := len(parts); n >= 1; n-- {
		rel := strings.Join(parts[:n], "/") + ".java"
		for _, root := range r.roots {
			if p, ok := join(root, rel); ok && idx.Has(p) {
				return []string{p}
			}
		}
	}
	return nil
}

func (r *JavaResolver) resolvePackage(idx FileIndex, pkg string) []string {
	rel := strings.ReplaceAll(pkg, ".", "/")
	for _, root := range r.roots {
		dir, ok := join(root, rel)
		if !ok {
			continue
		}
		var out []string
		for _, f := range idx.Dir(dir) {
			if strings.HasSuffix(f, ".java") {
				out = append(out, f)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}
