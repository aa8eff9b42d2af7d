// Package resolver turns raw import facts into project paths.
package resolver

import (
	"impactgraph/internal/engine/parser"
	"impactgraph/internal/engine/resolver/drivers"
)

type Options struct {
	Extensions   []string
	IndexFiles   []string
	Roots        []string
	Aliases      []drivers.Alias
	GoModulePath string
}

// Resolver dispatches to a driver by the importing file's language.
type Resolver struct {
	files   *FileSet
	drivers map[string]drivers.Driver
}

func New(files *FileSet, opts Options) *Resolver {
	ecma := drivers.NewEcmaResolver(opts.Extensions, opts.IndexFiles, opts.Roots, opts.Aliases)
	return &Resolver{
		files: files,
		drivers: map[string]drivers.Driver{
			"javascript": ecma,
			"typescript": ecma,
			"tsx":        ecma,
			"vue":        ecma,
			"html":       ecma,
			"css":        ecma,
			"scss":       ecma,
			"sass":       ecma,
			"less":       ecma,
			"json":       ecma,
			"python":     drivers.NewPythonResolver(opts.Roots),
			"go":         drivers.NewGoResolver(opts.GoModulePath),
			"java":       drivers.NewJavaResolver(append(append([]string{}, drivers.DefaultJavaRoots...), opts.Roots...)),
			"rust":       drivers.NewRustResolver(),
		},
	}
}

// Resolve returns the target paths of imp as written in source. An empty
// result marks the import unresolved.
func (r *Resolver) Resolve(source, language string, imp parser.ImportReference) []string {
	d, ok := r.drivers[language]
	if !ok {
		return nil
	}
	return d.Resolve(r.files, source, imp)
}

func (r *Resolver) Files() *FileSet {
	return r.files
}
