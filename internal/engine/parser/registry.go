package parser

import (
	"fmt"
	"log/slog"
	"path"
	"strings"
	"sync"
	"time"

	"impactgraph/internal/core/errors"
	"impactgraph/internal/shared/observability"
	"impactgraph/internal/shared/util"
)

type registration struct {
	matcher Matcher
	parser  Parser
}

// Registry dispatches files to parsers. The first registration whose matcher
// accepts a path and whose parser can handle it wins.
type Registry struct {
	mu         sync.RWMutex
	entries    []registration
	classifier *Classifier
}

func NewRegistry(classifier *Classifier) *Registry {
	return &Registry{classifier: classifier}
}

func (r *Registry) Register(m Matcher, p Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, registration{matcher: m, parser: p})
}

// Lookup returns the parser chosen for path.
func (r *Registry) Lookup(filePath string) (Parser, bool) {
	filePath = util.NormalizePath(filePath)
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, entry := range r.entries {
		if entry.matcher.Match(filePath) && entry.parser.CanHandle(filePath) {
			return entry.parser, true
		}
	}
	return nil, false
}

// Classify returns the classification tag of path without parsing it.
func (r *Registry) Classify(filePath string) Classification {
	return r.classifier.Classify(util.NormalizePath(filePath))
}

// Parse produces the normalized facts for one file. It never returns a Go
// error: unsupported files yield NO_PARSER_FOUND and broken files
// PARSE_FAILED inside the result.
func (r *Registry) Parse(filePath string, content []byte) ParseResult {
	filePath = util.NormalizePath(filePath)
	classification := r.classifier.Classify(filePath)

	p, ok := r.Lookup(filePath)
	if !ok {
		observability.ParseOutcomesTotal.WithLabelValues("no_parser").Inc()
		return ParseResult{
			Classification: classification,
			Err:            errors.AddContext(errors.New(errors.CodeNoParserFound, "no parser registered"), errors.CtxPath, filePath),
		}
	}

	start := time.Now()
	res := safeParse(p, content, filePath)
	observability.ParsingDuration.WithLabelValues(res.Language).Observe(time.Since(start).Seconds())

	res.Imports = dedupeImports(res.Imports)
	if res.Classification == "" {
		res.Classification = classification
	}
	if res.Success {
		observability.ParseOutcomesTotal.WithLabelValues("ok").Inc()
	} else {
		observability.ParseOutcomesTotal.WithLabelValues("parse_failed").Inc()
		if res.Err == nil {
			res.Err = errors.New(errors.CodeParseFailed, "parser reported failure")
		}
		slog.Debug("parse failed", "path", filePath, "language", res.Language, "error", res.Err)
	}
	return res
}

// safeParse turns a parser panic into a PARSE_FAILED result.
func safeParse(p Parser, content []byte, filePath string) (res ParseResult) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("parser panicked", "path", filePath, "panic", r)
			res = parseFailed("", filePath, fmt.Sprintf("parser panicked: %v", r))
		}
	}()
	return p.Parse(content, filePath)
}

// Extensions matches by lower-cased file extension (".ts").
func Extensions(exts ...string) Matcher {
	set := make(map[string]bool, len(exts))
	for _, ext := range exts {
		set[strings.ToLower(ext)] = true
	}
	return extensionMatcher(set)
}

type extensionMatcher map[string]bool

func (m extensionMatcher) Match(p string) bool {
	return m[strings.ToLower(path.Ext(p))]
}

// Filenames matches exact base names, case-insensitively.
func Filenames(names ...string) Matcher {
	set := make(map[string]bool, len(names))
	for _, name := range names {
		set[strings.ToLower(name)] = true
	}
	return filenameMatcher(set)
}

type filenameMatcher map[string]bool

func (m filenameMatcher) Match(p string) bool {
	return m[strings.ToLower(path.Base(p))]
}

// Globs matches path-matcher patterns ("dir/", base-name globs, full-path globs).
func Globs(patterns ...string) (Matcher, error) {
	m, err := util.NewPathMatcher(patterns)
	if err != nil {
		return nil, fmt.Errorf("parser matcher: %w", err)
	}
	return m, nil
}

func parseFailed(language, filePath, msg string) ParseResult {
	return ParseResult{
		Language: language,
		Err:      errors.AddContext(errors.New(errors.CodeParseFailed, msg), errors.CtxPath, filePath),
	}
}

func parsed(language string, imports []ImportReference) ParseResult {
	return ParseResult{Success: true, Language: language, Imports: imports}
}
