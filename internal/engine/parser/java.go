package parser

import (
	"path"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// JavaParser extracts import declarations ("a.b.C", "a.b.*").
type JavaParser struct {
	loader *GrammarLoader
	engine *ExtractorEngine
}

func NewJavaParser(loader *GrammarLoader) *JavaParser {
	p := &JavaParser{loader: loader}
	p.engine = NewExtractorEngine(map[string]NodeHandler{
		"import_declaration": p.extractImport,
		"class_declaration":  skipNode,
	})
	return p
}

func (p *JavaParser) CanHandle(filePath string) bool {
	return strings.EqualFold(path.Ext(filePath), ".java")
}

func (p *JavaParser) Parse(content []byte, filePath string) ParseResult {
	imports, ok := extractWith(p.loader.Pool(GrammarJava), p.engine, content, 0)
	if !ok {
		return parseFailed("java", filePath, "syntax error")
	}
	return parsed("java", imports)
}

func (p *JavaParser) extractImport(ctx *ExtractionContext, node *sitter.Node) bool {
	name := ChildOfKind(node, "scoped_identifier", "identifier")
	if name == nil {
		return true
	}
	raw := ctx.Text(name)
	if ChildOfKind(node, "asterisk") != nil {
		raw += ".*"
	}
	ctx.Add(raw, KindStatic, node)
	return true
}
