package parser

import (
	"path"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// GoParser extracts import paths from Go source files.
type GoParser struct {
	loader *GrammarLoader
	engine *ExtractorEngine
}

func NewGoParser(loader *GrammarLoader) *GoParser {
	p := &GoParser{loader: loader}
	p.engine = NewExtractorEngine(map[string]NodeHandler{
		"import_spec": p.extractImport,
		// Nothing below a function body can import.
		"function_declaration": skipNode,
		"method_declaration":   skipNode,
	})
	return p
}

func (p *GoParser) CanHandle(filePath string) bool {
	return strings.EqualFold(path.Ext(filePath), ".go")
}

func (p *GoParser) Parse(content []byte, filePath string) ParseResult {
	imports, ok := extractWith(p.loader.Pool(GrammarGo), p.engine, content, 0)
	if !ok {
		return parseFailed("go", filePath, "syntax error")
	}
	return parsed("go", imports)
}

func (p *GoParser) extractImport(ctx *ExtractionContext, node *sitter.Node) bool {
	if importPath := node.ChildByFieldName("path"); importPath != nil {
		ctx.Add(Unquote(ctx.Text(importPath)), KindStatic, node)
	}
	return true
}

func skipNode(*ExtractionContext, *sitter.Node) bool { return true }
