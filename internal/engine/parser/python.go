package parser

import (
	"path"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// PythonParser extracts `import x` and `from x import y` modules. Relative
// imports keep their leading dots; `from . import a` yields ".a".
type PythonParser struct {
	loader *GrammarLoader
	engine *ExtractorEngine
}

func NewPythonParser(loader *GrammarLoader) *PythonParser {
	p := &PythonParser{loader: loader}
	p.engine = NewExtractorEngine(map[string]NodeHandler{
		"import_statement":      p.extractImport,
		"import_from_statement": p.extractFromImport,
	})
	return p
}

func (p *PythonParser) CanHandle(filePath string) bool {
	return strings.EqualFold(path.Ext(filePath), ".py")
}

func (p *PythonParser) Parse(content []byte, filePath string) ParseResult {
	imports, ok := extractWith(p.loader.Pool(GrammarPython), p.engine, content, 0)
	if !ok {
		return parseFailed("python", filePath, "syntax error")
	}
	return parsed("python", imports)
}

func (p *PythonParser) extractImport(ctx *ExtractionContext, node *sitter.Node) bool {
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		switch child.Kind() {
		case "dotted_name":
			ctx.Add(ctx.Text(child), KindStatic, child)
		case "aliased_import":
			ctx.Add(ctx.Text(child.ChildByFieldName("name")), KindStatic, child)
		}
	}
	return true
}

func (p *PythonParser) extractFromImport(ctx *ExtractionContext, node *sitter.Node) bool {
	module := node.ChildByFieldName("module_name")
	if module == nil {
		return true
	}
	moduleText := ctx.Text(module)
	if module.Kind() != "relative_import" || strings.Trim(moduleText, ".") != "" {
		ctx.Add(moduleText, KindStatic, node)
		return true
	}

	// `from .. import a, b` imports sibling modules a and b.
	found := false
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child.StartByte() == module.StartByte() {
			continue
		}
		name := ""
		switch child.Kind() {
		case "dotted_name":
			name = ctx.Text(child)
		case "aliased_import":
			name = ctx.Text(child.ChildByFieldName("name"))
		}
		if name != "" {
			ctx.Add(moduleText+name, KindStatic, node)
			found = true
		}
	}
	if !found {
		ctx.Add(moduleText, KindStatic, node)
	}
	return true
}
