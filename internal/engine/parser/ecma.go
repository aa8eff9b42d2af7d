package parser

import (
	"path"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

var ecmaGrammars = map[string]string{
	".js":  GrammarJavaScript,
	".jsx": GrammarJavaScript,
	".mjs": GrammarJavaScript,
	".cjs": GrammarJavaScript,
	".ts":  GrammarTypeScript,
	".mts": GrammarTypeScript,
	".cts": GrammarTypeScript,
	".tsx": GrammarTSX,
}

var styleExtensions = map[string]bool{".css": true, ".scss": true, ".sass": true, ".less": true}

// EcmaParser extracts imports from JavaScript, TypeScript and TSX modules:
// static imports, require calls, dynamic import() and export-from.
type EcmaParser struct {
	loader *GrammarLoader
	engine *ExtractorEngine
}

func NewEcmaParser(loader *GrammarLoader) *EcmaParser {
	p := &EcmaParser{loader: loader}
	p.engine = NewExtractorEngine(map[string]NodeHandler{
		"import_statement": p.extractImport,
		"export_statement": p.extractExport,
		"call_expression":  p.extractCall,
	})
	return p
}

func (p *EcmaParser) CanHandle(filePath string) bool {
	_, ok := ecmaGrammars[strings.ToLower(path.Ext(filePath))]
	return ok
}

func (p *EcmaParser) Parse(content []byte, filePath string) ParseResult {
	grammar := ecmaGrammars[strings.ToLower(path.Ext(filePath))]
	imports, ok := p.Extract(grammar, content, 0)
	if !ok {
		return parseFailed(grammar, filePath, "syntax error")
	}
	return parsed(grammar, imports)
}

// Extract runs the ECMAScript extraction on content with the given grammar.
// Used directly for scripts embedded in HTML and Vue files.
func (p *EcmaParser) Extract(grammar string, content []byte, lineOffset int) ([]ImportReference, bool) {
	return extractWith(p.loader.Pool(grammar), p.engine, content, lineOffset)
}

func (p *EcmaParser) extractImport(ctx *ExtractionContext, node *sitter.Node) bool {
	source := node.ChildByFieldName("source")
	if source == nil {
		// TypeScript: import x = require("y")
		if clause := ChildOfKind(node, "import_require_clause"); clause != nil {
			source = clause.ChildByFieldName("source")
		}
	}
	if raw, ok := ecmaString(ctx, source); ok {
		ctx.Add(raw, styleKindOr(raw, KindStatic), node)
	}
	return true
}

func (p *EcmaParser) extractExport(ctx *ExtractionContext, node *sitter.Node) bool {
	source := node.ChildByFieldName("source")
	if source == nil {
		// export const x = () => import("./y") still needs its body walked.
		return false
	}
	if raw, ok := ecmaString(ctx, source); ok {
		ctx.Add(raw, KindReExport, node)
	}
	return true
}

func (p *EcmaParser) extractCall(ctx *ExtractionContext, node *sitter.Node) bool {
	fn := node.ChildByFieldName("function")
	args := node.ChildByFieldName("arguments")
	if fn == nil || args == nil || args.NamedChildCount() == 0 {
		return false
	}

	var kind ImportKind
	switch {
	case fn.Kind() == "import":
		kind = KindDynamic
	case fn.Kind() == "identifier" && ctx.Text(fn) == "require":
		kind = KindStatic
	default:
		return false
	}
	if raw, ok := ecmaString(ctx, args.NamedChild(0)); ok {
		if kind == KindStatic {
			kind = styleKindOr(raw, kind)
		}
		ctx.Add(raw, kind, node)
	}
	return false
}

// ecmaString returns the literal value of a string or substitution-free
// template string node.
func ecmaString(ctx *ExtractionContext, node *sitter.Node) (string, bool) {
	if node == nil {
		return "", false
	}
	switch node.Kind() {
	case "string":
		return Unquote(ctx.Text(node)), true
	case "template_string":
		if ChildOfKind(node, "template_substitution") != nil {
			return "", false
		}
		return Unquote(ctx.Text(node)), true
	}
	return "", false
}

func styleKindOr(raw string, kind ImportKind) ImportKind {
	clean := raw
	if i := strings.IndexAny(clean, "?#"); i >= 0 {
		clean = clean[:i]
	}
	if styleExtensions[strings.ToLower(path.Ext(clean))] {
		return KindStyleReference
	}
	return kind
}
