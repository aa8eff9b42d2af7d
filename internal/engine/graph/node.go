package graph

import (
	"impactgraph/internal/core/errors"
	"impactgraph/internal/engine/parser"
)

type ParseStatus string

const (
	StatusUnparsed ParseStatus = "unparsed"
	StatusOK       ParseStatus = "ok"
	StatusFailed   ParseStatus = "failed"
)

// FileNode is one project file. Imports holds the facts of the last
// successful parse so edges can be re-resolved without re-parsing.
type FileNode struct {
	Path           string                   `json:"path"`
	Language       string                   `json:"language,omitempty"`
	Fingerprint    string                   `json:"fingerprint"`
	Status         ParseStatus              `json:"status"`
	Stale          bool                     `json:"stale,omitempty"`
	Classification parser.Classification    `json:"classification"`
	Imports        []parser.ImportReference `json:"imports,omitempty"`
	WarningCode    errors.ErrorCode         `json:"warning_code,omitempty"`
	WarningDetail  string                   `json:"warning_detail,omitempty"`
}

func (n FileNode) clone() *FileNode {
	c := n
	c.Imports = append([]parser.ImportReference(nil), n.Imports...)
	return &c
}

// Edge is a directed import from Source to Target. Unresolved edges keep
// the raw specifier with an empty Target and are never traversed.
type Edge struct {
	Source   string            `json:"source"`
	Raw      string            `json:"raw"`
	Kind     parser.ImportKind `json:"kind"`
	Line     int               `json:"line"`
	Target   string            `json:"target,omitempty"`
	Resolved bool              `json:"resolved"`
}

func edgeLess(a, b Edge) bool {
	if a.Source != b.Source {
		return a.Source < b.Source
	}
	if a.Target != b.Target {
		return a.Target < b.Target
	}
	if a.Raw != b.Raw {
		return a.Raw < b.Raw
	}
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	return a.Line < b.Line
}

// Warning is a non-fatal problem attached to a file.
type Warning struct {
	Path   string           `json:"path"`
	Code   errors.ErrorCode `json:"code"`
	Detail string           `json:"detail"`
}

func WarningLess(a, b Warning) bool {
	if a.Path != b.Path {
		return a.Path < b.Path
	}
	if a.Code != b.Code {
		return a.Code < b.Code
	}
	return a.Detail < b.Detail
}
