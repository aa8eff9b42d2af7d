package parser

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// NodeHandler processes a node for a language-specific parser.
// Returns true if the handler has processed children and the walker should stop.
type NodeHandler func(ctx *ExtractionContext, node *sitter.Node) bool

// ExtractionContext carries shared state and helpers used by all parsers.
type ExtractionContext struct {
	Source  []byte
	Imports []ImportReference
	// LineOffset shifts reported lines for embedded blocks (Vue/HTML scripts).
	LineOffset int
}

// ExtractorEngine walks the syntax tree and dispatches node handlers by kind.
type ExtractorEngine struct {
	handlers map[string]NodeHandler
}

func NewExtractorEngine(handlers map[string]NodeHandler) *ExtractorEngine {
	return &ExtractorEngine{handlers: handlers}
}

func (e *ExtractorEngine) Walk(ctx *ExtractionContext, node *sitter.Node) {
	if node == nil {
		return
	}
	if handler, ok := e.handlers[node.Kind()]; ok && handler(ctx, node) {
		return
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		e.Walk(ctx, node.Child(i))
	}
}

func (c *ExtractionContext) Text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return string(c.Source[node.StartByte():node.EndByte()])
}

// Line returns the 1-based line of node in the original file.
func (c *ExtractionContext) Line(node *sitter.Node) int {
	return int(node.StartPosition().Row) + 1 + c.LineOffset
}

func (c *ExtractionContext) Add(raw string, kind ImportKind, node *sitter.Node) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return
	}
	c.Imports = append(c.Imports, ImportReference{Raw: raw, Kind: kind, Line: c.Line(node)})
}

// ChildOfKind returns the first direct child with the given kind.
func ChildOfKind(node *sitter.Node, kinds ...string) *sitter.Node {
	if node == nil {
		return nil
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		for _, kind := range kinds {
			if child.Kind() == kind {
				return child
			}
		}
	}
	return nil
}

// FirstDescendant returns the first node of the given kind in pre-order.
func FirstDescendant(node *sitter.Node, kinds ...string) *sitter.Node {
	if node == nil {
		return nil
	}
	for _, kind := range kinds {
		if node.Kind() == kind {
			return node
		}
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		if found := FirstDescendant(node.Child(i), kinds...); found != nil {
			return found
		}
	}
	return nil
}

// Unquote strips one layer of matching quotes or backticks.
func Unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '"' || first == '\'' || first == '`') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// dedupeImports drops repeated (raw, kind) facts, keeping the first line.
func dedupeImports(imports []ImportReference) []ImportReference {
	if len(imports) == 0 {
		return nil
	}
	type key struct {
		raw  string
		kind ImportKind
	}
	seen := make(map[key]bool, len(imports))
	out := make([]ImportReference, 0, len(imports))
	for _, imp := range imports {
		k := key{imp.Raw, imp.Kind}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, imp)
	}
	return out
}

// extractWith parses content on pool and walks it with engine. ok is false
// when the tree contains syntax errors.
func extractWith(pool *ParserPool, engine *ExtractorEngine, content []byte, lineOffset int) (imports []ImportReference, ok bool) {
	if pool == nil {
		return nil, false
	}
	tree := pool.Parse(content)
	if tree == nil {
		return nil, false
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil || root.HasError() {
		return nil, false
	}
	ctx := &ExtractionContext{Source: content, LineOffset: lineOffset}
	engine.Walk(ctx, root)
	return ctx.Imports, true
}
