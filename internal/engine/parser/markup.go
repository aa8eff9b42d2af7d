package parser

import (
	"path"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// MarkupParser handles HTML documents and Vue single-file components. The
// HTML grammar is error tolerant, so only embedded scripts and styles can
// fail a parse.
type MarkupParser struct {
	loader     *GrammarLoader
	ecma       *EcmaParser
	css        *CSSParser
	language   string
	extensions map[string]bool
}

func NewHTMLParser(loader *GrammarLoader, ecma *EcmaParser, css *CSSParser) *MarkupParser {
	return &MarkupParser{
		loader:     loader,
		ecma:       ecma,
		css:        css,
		language:   "html",
		extensions: map[string]bool{".html": true, ".htm": true},
	}
}

func NewVueParser(loader *GrammarLoader, ecma *EcmaParser, css *CSSParser) *MarkupParser {
	return &MarkupParser{
		loader:     loader,
		ecma:       ecma,
		css:        css,
		language:   "vue",
		extensions: map[string]bool{".vue": true},
	}
}

func (p *MarkupParser) CanHandle(filePath string) bool {
	return p.extensions[strings.ToLower(path.Ext(filePath))]
}

type markupWalk struct {
	parser *MarkupParser
	ctx    *ExtractionContext
	failed bool
}

func (p *MarkupParser) Parse(content []byte, filePath string) ParseResult {
	tree := p.loader.Pool(GrammarHTML).Parse(content)
	if tree == nil {
		return parseFailed(p.language, filePath, "markup parser returned no tree")
	}
	defer tree.Close()

	w := &markupWalk{parser: p, ctx: &ExtractionContext{Source: content}}
	engine := NewExtractorEngine(map[string]NodeHandler{
		"script_element":   w.script,
		"style_element":    w.style,
		"start_tag":        w.tag,
		"self_closing_tag": w.tag,
	})
	engine.Walk(w.ctx, tree.RootNode())
	if w.failed {
		return parseFailed(p.language, filePath, "syntax error in embedded block")
	}
	return parsed(p.language, w.ctx.Imports)
}

// tag handles link and generic elements outside script/style blocks.
func (w *markupWalk) tag(ctx *ExtractionContext, node *sitter.Node) bool {
	name := strings.ToLower(ctx.Text(ChildOfKind(node, "tag_name")))
	if name != "link" {
		return true
	}
	attrs := attributes(ctx, node)
	href := attrs["href"]
	if href == "" || isExternalURL(href) {
		return true
	}
	rel := strings.ToLower(attrs["rel"])
	switch {
	case strings.Contains(rel, "stylesheet") || styleKindOr(href, "") == KindStyleReference:
		ctx.Add(href, KindStyleReference, node)
	case strings.Contains(rel, "modulepreload"):
		ctx.Add(href, KindStatic, node)
	}
	return true
}

func (w *markupWalk) script(ctx *ExtractionContext, node *sitter.Node) bool {
	start := ChildOfKind(node, "start_tag")
	attrs := attributes(ctx, start)
	if src := attrs["src"]; src != "" {
		if !isExternalURL(src) {
			ctx.Add(src, KindStatic, node)
		}
		return true
	}
	grammar, ok := scriptGrammar(attrs)
	if !ok {
		return true
	}
	raw := ChildOfKind(node, "raw_text")
	if raw == nil {
		return true
	}
	imports, ok := w.parser.ecma.Extract(grammar, ctx.Source[raw.StartByte():raw.EndByte()], int(raw.StartPosition().Row))
	if !ok {
		w.failed = true
		return true
	}
	ctx.Imports = append(ctx.Imports, imports...)
	return true
}

func (w *markupWalk) style(ctx *ExtractionContext, node *sitter.Node) bool {
	attrs := attributes(ctx, ChildOfKind(node, "start_tag"))
	if src := attrs["src"]; src != "" {
		ctx.Add(src, KindStyleReference, node)
		return true
	}
	raw := ChildOfKind(node, "raw_text")
	if raw == nil {
		return true
	}
	body := ctx.Source[raw.StartByte():raw.EndByte()]
	offset := int(raw.StartPosition().Row)
	switch strings.ToLower(attrs["lang"]) {
	case "", "css", "postcss":
		imports, ok := w.parser.css.Extract(body, offset)
		if !ok {
			w.failed = true
			return true
		}
		ctx.Imports = append(ctx.Imports, imports...)
	default:
		ctx.Imports = append(ctx.Imports, ExtractStylesheet(body, offset)...)
	}
	return true
}

// scriptGrammar picks the grammar for an inline script from its lang/type
// attributes. ok is false for non-code scripts such as JSON or templates.
func scriptGrammar(attrs map[string]string) (string, bool) {
	switch strings.ToLower(attrs["lang"]) {
	case "ts", "typescript":
		return GrammarTypeScript, true
	case "tsx":
		return GrammarTSX, true
	case "", "js", "javascript", "jsx":
	default:
		return "", false
	}
	switch strings.ToLower(attrs["type"]) {
	case "", "module", "text/javascript", "application/javascript":
		return GrammarJavaScript, true
	case "text/typescript":
		return GrammarTypeScript, true
	}
	return "", false
}

func attributes(ctx *ExtractionContext, tag *sitter.Node) map[string]string {
	attrs := make(map[string]string)
	if tag == nil {
		return attrs
	}
	for i := uint(0); i < tag.ChildCount(); i++ {
		attr := tag.Child(i)
		if attr.Kind() != "attribute" {
			continue
		}
		name := strings.ToLower(ctx.Text(ChildOfKind(attr, "attribute_name")))
		value := ""
		if v := ChildOfKind(attr, "quoted_attribute_value", "attribute_value"); v != nil {
			value = Unquote(ctx.Text(v))
		}
		attrs[name] = strings.TrimSpace(value)
	}
	return attrs
}

func isExternalURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") ||
		strings.HasPrefix(lower, "//") || strings.HasPrefix(lower, "data:")
}
