package drivers

import (
	"path"
	"strings"

	"impactgraph/internal/engine/parser"
)

// RustResolver maps `mod name;` onto name.rs or name/mod.rs.
type RustResolver struct{}

func NewRustResolver() *RustResolver { return &RustResolver{} }

func (r *RustResolver) Resolve(idx FileIndex, source string, imp parser.ImportReference) []string {
	dir := sourceDir(source)
	switch base := path.Base(source); base {
	case "main.rs", "lib.rs", "mod.rs":
	default:
		// src/net.rs declares its children in src/net/.
		var ok bool
		if dir, ok = join(dir, strings.TrimSuffix(base, ".rs")); !ok {
			return nil
		}
	}
	a, okA := join(dir, imp.Raw+".rs")
	b, okB := join(dir, imp.Raw, "mod.rs")
	if !okA || !okB {
		return nil
	}
	return firstExisting(idx, []string{a, b})
}
