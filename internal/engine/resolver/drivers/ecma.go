package drivers

import (
	"path"
	"sort"
	"strings"

	"impactgraph/internal/engine/parser"
)

// Alias rewrites specifiers starting with Prefix onto Target ("@/" -> "src/").
// A trailing "*" on either side is ignored.
type Alias struct {
	Prefix string
	Target string
}

// EcmaResolver resolves JavaScript-family, markup, style and manifest
// specifiers: relative and root-absolute paths, aliases, then root lookup.
type EcmaResolver struct {
	extensions []string
	indexFiles []string
	roots      []string
	aliases    []Alias
}

func NewEcmaResolver(extensions, indexFiles, roots []string, aliases []Alias) *EcmaResolver {
	sorted := make([]Alias, 0, len(aliases))
	for _, a := range aliases {
		sorted = append(sorted, Alias{
			Prefix: strings.TrimSuffix(a.Prefix, "*"),
			Target: strings.TrimSuffix(a.Target, "*"),
		})
	}
	// Longest prefix wins.
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i].Prefix) > len(sorted[j].Prefix) })
	return &EcmaResolver{extensions: extensions, indexFiles: indexFiles, roots: roots, aliases: sorted}
}

func (r *EcmaResolver) Resolve(idx FileIndex, source string, imp parser.ImportReference) []string {
	specifier := imp.Raw
	if i := strings.IndexAny(specifier, "?#"); i >= 0 {
		specifier = specifier[:i]
	}
	specifier = strings.TrimPrefix(specifier, "~")
	if specifier == "" {
		return nil
	}
	dir := sourceDir(source)

	switch {
	case specifier == "." || specifier == ".." || strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../"):
		return r.variants(idx, imp.Kind, dir, specifier)
	case strings.HasPrefix(specifier, "/"):
		return r.variants(idx, imp.Kind, strings.TrimPrefix(specifier, "/"))
	}

	for _, alias := range r.aliases {
		if alias.Prefix == "" || !strings.HasPrefix(specifier, alias.Prefix) {
			continue
		}
		if found := r.variants(idx, imp.Kind, alias.Target, strings.TrimPrefix(specifier, alias.Prefix)); found != nil {
			return found
		}
	}

	// CSS resolves bare @import targets against the importing file.
	if imp.Kind == parser.KindStyleReference {
		if found := r.variants(idx, imp.Kind, dir, specifier); found != nil {
			return found
		}
	}
	for _, root := range r.roots {
		if found := r.variants(idx, imp.Kind, root, specifier); found != nil {
			return found
		}
	}
	return nil
}

// variants tries the exact path, each extension, then index files.
func (r *EcmaResolver) variants(idx FileIndex, kind parser.ImportKind, elem ...string) []string {
	base, ok := join(elem...)
	if !ok {
		return nil
	}
	candidates := make([]string, 0, 1+len(r.extensions)*(1+len(r.indexFiles)))
	if base != "" {
		candidates = append(candidates, base)
		for _, ext := range r.extensions {
			candidates = append(candidates, base+ext)
		}
		if kind == parser.KindStyleReference {
			// Sass partials: "mixins" -> "_mixins.scss".
			dir, name := path.Split(base)
			if !strings.HasPrefix(name, "_") {
				for _, ext := range r.extensions {
					candidates = append(candidates, dir+"_"+name+ext)
				}
			}
		}
	}
	for _, index := range r.indexFiles {
		prefix := index
		if base != "" {
			prefix = base + "/" + index
		}
		for _, ext := range r.extensions {
			candidates = append(candidates, prefix+ext)
		}
	}
	return firstExisting(idx, candidates)
}
