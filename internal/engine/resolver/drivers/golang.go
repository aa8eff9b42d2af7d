package drivers

import (
	"strings"

	"golang.org/x/mod/modfile"

	"impactgraph/internal/engine/parser"
)

// GoResolver maps imports under the project's module path onto every
// non-test Go file of the imported package directory.
type GoResolver struct {
	modulePath string
}

func NewGoResolver(modulePath string) *GoResolver {
	return &GoResolver{modulePath: modulePath}
}

// ModulePath extracts the module path from go.mod content, or "".
func ModulePath(goMod []byte) string {
	return modfile.ModulePath(goMod)
}

func (r *GoResolver) Resolve(idx FileIndex, _ string, imp parser.ImportReference) []string {
	if r.modulePath == "" {
		return nil
	}
	if imp.Raw != r.modulePath && !strings.HasPrefix(imp.Raw, r.modulePath+"/") {
		return nil
	}
	dir := strings.TrimPrefix(strings.TrimPrefix(imp.Raw, r.modulePath), "/")

	var out []string
	for _, f := range idx.Dir(dir) {
		if strings.HasSuffix(f, ".go") && !strings.HasSuffix(f, "_test.go") {
			out = append(out, f)
		}
	}
	return out
}
