package drivers

import (
	"path"
	"strings"

	"impactgraph/internal/engine/parser"
)

// PythonResolver maps dotted module names onto module files or packages.
type PythonResolver struct {
	roots []string
}

func NewPythonResolver(roots []string) *PythonResolver {
	return &PythonResolver{roots: roots}
}

func (r *PythonResolver) Resolve(idx FileIndex, source string, imp parser.ImportReference) []string {
	raw := strings.TrimSpace(imp.Raw)
	rest := strings.TrimLeft(raw, ".")
	dots := len(raw) - len(rest)
	modPath := strings.ReplaceAll(rest, ".", "/")

	if dots > 0 {
		base := sourceDir(source)
		for i := 1; i < dots; i++ {
			if base == "" {
				return nil
			}
			base = sourceDir(base)
		}
		return r.candidates(idx, base, modPath)
	}
	for _, root := range r.roots {
		if found := r.candidates(idx, root, modPath); found != nil {
			return found
		}
	}
	return nil
}

func (r *PythonResolver) candidates(idx FileIndex, base, modPath string) []string {
	p, ok := join(base, modPath)
	if !ok {
		return nil
	}
	if modPath == "" {
		return firstExisting(idx, []string{path.Join(p, "__init__.py")})
	}
	return firstExisting(idx, []string{p + ".py", p + "/__init__.py"})
}
