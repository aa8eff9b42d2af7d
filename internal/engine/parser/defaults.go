package parser

// NewDefaultRegistry registers the built-in parsers in dispatch order.
// Manifests are registered by file name ahead of the extension matchers.
func NewDefaultRegistry(loader *GrammarLoader, classifier *Classifier) *Registry {
	r := NewRegistry(classifier)
	ecma := NewEcmaParser(loader)
	css := NewCSSParser(loader)

	r.Register(Filenames("package.json", "jsconfig.json", "tsconfig.json"), NewManifestParser())
	if m, err := Globs("tsconfig.*.json"); err == nil {
		r.Register(m, NewManifestParser())
	}
	r.Register(Extensions(".js", ".jsx", ".mjs", ".cjs", ".ts", ".mts", ".cts", ".tsx"), ecma)
	r.Register(Extensions(".vue"), NewVueParser(loader, ecma, css))
	r.Register(Extensions(".html", ".htm"), NewHTMLParser(loader, ecma, css))
	r.Register(Extensions(".css"), css)
	r.Register(Extensions(".scss", ".sass", ".less"), NewStylesheetParser())
	r.Register(Extensions(".py"), NewPythonParser(loader))
	r.Register(Extensions(".go"), NewGoParser(loader))
	r.Register(Extensions(".java"), NewJavaParser(loader))
	r.Register(Extensions(".rs"), NewRustParser(loader))
	return r
}
