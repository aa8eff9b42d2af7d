package parser

import (
	"path"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// RustParser records out-of-line module declarations (`mod name;`), the
// only Rust construct that maps directly onto another file.
type RustParser struct {
	loader *GrammarLoader
	engine *ExtractorEngine
}

func NewRustParser(loader *GrammarLoader) *RustParser {
	p := &RustParser{loader: loader}
	p.engine = NewExtractorEngine(map[string]NodeHandler{
		"mod_item":      p.extractMod,
		"function_item": skipNode,
	})
	return p
}

func (p *RustParser) CanHandle(filePath string) bool {
	return strings.EqualFold(path.Ext(filePath), ".rs")
}

func (p *RustParser) Parse(content []byte, filePath string) ParseResult {
	imports, ok := extractWith(p.loader.Pool(GrammarRust), p.engine, content, 0)
	if !ok {
		return parseFailed("rust", filePath, "syntax error")
	}
	return parsed("rust", imports)
}

func (p *RustParser) extractMod(ctx *ExtractionContext, node *sitter.Node) bool {
	if node.ChildByFieldName("body") == nil {
		ctx.Add(ctx.Text(node.ChildByFieldName("name")), KindStatic, node)
	}
	return true
}
