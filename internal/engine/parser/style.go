package parser

import (
	"bytes"
	"path"
	"regexp"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// CSSParser extracts @import rules from plain CSS.
type CSSParser struct {
	loader *GrammarLoader
	engine *ExtractorEngine
}

func NewCSSParser(loader *GrammarLoader) *CSSParser {
	p := &CSSParser{loader: loader}
	p.engine = NewExtractorEngine(map[string]NodeHandler{
		"import_statement": p.extractImport,
	})
	return p
}

func (p *CSSParser) CanHandle(filePath string) bool {
	return strings.EqualFold(path.Ext(filePath), ".css")
}

func (p *CSSParser) Parse(content []byte, filePath string) ParseResult {
	imports, ok := p.Extract(content, 0)
	if !ok {
		return parseFailed("css", filePath, "syntax error")
	}
	return parsed("css", imports)
}

func (p *CSSParser) Extract(content []byte, lineOffset int) ([]ImportReference, bool) {
	return extractWith(p.loader.Pool(GrammarCSS), p.engine, content, lineOffset)
}

func (p *CSSParser) extractImport(ctx *ExtractionContext, node *sitter.Node) bool {
	// @import "a.css"; @import url(a.css); @import url("a.css") screen;
	if value := FirstDescendant(node, "string_value", "plain_value"); value != nil {
		ctx.Add(Unquote(ctx.Text(value)), KindStyleReference, node)
	}
	return true
}

var (
	styleDirective = regexp.MustCompile(`@(?:import|use|forward)\b([^;{}\n]*)`)
	styleTarget    = regexp.MustCompile(`"([^"]+)"|'([^']+)'|url\(\s*([^)"'\s]+)\s*\)`)
)

// StylesheetParser handles SCSS, Sass and Less. None of these have a grammar
// in the loader, so directives are matched lexically; it never fails.
type StylesheetParser struct{}

func NewStylesheetParser() *StylesheetParser { return &StylesheetParser{} }

func (p *StylesheetParser) CanHandle(filePath string) bool {
	switch strings.ToLower(path.Ext(filePath)) {
	case ".scss", ".sass", ".less":
		return true
	}
	return false
}

func (p *StylesheetParser) Parse(content []byte, filePath string) ParseResult {
	language := strings.TrimPrefix(strings.ToLower(path.Ext(filePath)), ".")
	return parsed(language, ExtractStylesheet(content, 0))
}

// ExtractStylesheet returns the targets of @import/@use/@forward directives.
func ExtractStylesheet(content []byte, lineOffset int) []ImportReference {
	var out []ImportReference
	for _, loc := range styleDirective.FindAllSubmatchIndex(content, -1) {
		lineStart := bytes.LastIndexByte(content[:loc[0]], '\n') + 1
		if bytes.Contains(content[lineStart:loc[0]], []byte("//")) {
			continue
		}
		line := bytes.Count(content[:loc[0]], []byte("\n")) + 1 + lineOffset
		args := content[loc[2]:loc[3]]
		for _, m := range styleTarget.FindAllSubmatch(args, -1) {
			raw := ""
			for _, group := range m[1:] {
				if len(group) > 0 {
					raw = string(group)
					break
				}
			}
			if raw == "" {
				continue
			}
			out = append(out, ImportReference{Raw: raw, Kind: KindStyleReference, Line: line})
		}
	}
	return out
}
