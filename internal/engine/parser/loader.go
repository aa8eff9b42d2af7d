package parser

import (
	"impactgraph/internal/shared/util"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_css "github.com/tree-sitter/tree-sitter-css/bindings/go"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_html "github.com/tree-sitter/tree-sitter-html/bindings/go"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// Grammar identifiers known to the loader.
const (
	GrammarCSS        = "css"
	GrammarGo         = "go"
	GrammarHTML       = "html"
	GrammarJava       = "java"
	GrammarJavaScript = "javascript"
	GrammarPython     = "python"
	GrammarRust       = "rust"
	GrammarTSX        = "tsx"
	GrammarTypeScript = "typescript"
)

// GrammarLoader owns the compiled-in tree-sitter grammars and one parser
// pool per grammar.
type GrammarLoader struct {
	languages map[string]*sitter.Language
	pools     map[string]*ParserPool
}

func NewGrammarLoader() *GrammarLoader {
	gl := &GrammarLoader{
		languages: map[string]*sitter.Language{
			GrammarCSS:        sitter.NewLanguage(tree_sitter_css.Language()),
			GrammarGo:         sitter.NewLanguage(tree_sitter_go.Language()),
			GrammarHTML:       sitter.NewLanguage(tree_sitter_html.Language()),
			GrammarJava:       sitter.NewLanguage(tree_sitter_java.Language()),
			GrammarJavaScript: sitter.NewLanguage(tree_sitter_javascript.Language()),
			GrammarPython:     sitter.NewLanguage(tree_sitter_python.Language()),
			GrammarRust:       sitter.NewLanguage(tree_sitter_rust.Language()),
			GrammarTSX:        sitter.NewLanguage(tree_sitter_typescript.LanguageTSX()),
			GrammarTypeScript: sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()),
		},
		pools: make(map[string]*ParserPool),
	}
	for id, lang := range gl.languages {
		gl.pools[id] = NewParserPool(lang)
	}
	return gl
}

func (gl *GrammarLoader) Language(id string) *sitter.Language {
	return gl.languages[id]
}

// Pool returns the parser pool for a grammar, or nil when unknown.
func (gl *GrammarLoader) Pool(id string) *ParserPool {
	return gl.pools[id]
}

func (gl *GrammarLoader) Grammars() []string {
	return util.SortedStringKeys(gl.languages)
}
