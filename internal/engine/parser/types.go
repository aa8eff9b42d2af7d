package parser

// ImportKind is the flavour of a declared dependency.
type ImportKind string

const (
	KindStatic          ImportKind = "static"
	KindDynamic         ImportKind = "dynamic"
	KindReExport        ImportKind = "re-export"
	KindStyleReference  ImportKind = "style-reference"
	KindConfigReference ImportKind = "config-reference"
)

// Classification tags a file with its architectural role.
type Classification string

const (
	ClassPage         Classification = "page"
	ClassComponent    Classification = "component"
	ClassUtility      Classification = "utility"
	ClassConfig       Classification = "config"
	ClassStyle        Classification = "style"
	ClassUnclassified Classification = "unclassified"
)

// ClassificationOrder is the fixed order used when grouping results.
var ClassificationOrder = []Classification{
	ClassPage, ClassComponent, ClassUtility, ClassConfig, ClassStyle, ClassUnclassified,
}

// ImportReference is one import fact exactly as written in the source.
type ImportReference struct {
	Raw  string     `json:"raw"`
	Kind ImportKind `json:"kind"`
	Line int        `json:"line"`
}

// ParseResult is the normalized output of a parser for a single file.
// Err carries a DomainError (NO_PARSER_FOUND or PARSE_FAILED) when
// Success is false.
type ParseResult struct {
	Success        bool
	Language       string
	Imports        []ImportReference
	Classification Classification
	Err            error
}

// Parser turns file content into import facts. Implementations must be safe
// for concurrent use.
type Parser interface {
	CanHandle(path string) bool
	Parse(content []byte, path string) ParseResult
}

// Matcher selects the files a registered parser is offered.
type Matcher interface {
	Match(path string) bool
}
