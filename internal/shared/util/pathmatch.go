package util

import (
	"fmt"
	"path"
	"strings"

	"github.com/gobwas/glob"
)

// PathMatcher matches project paths against ignore-style patterns.
//
// Pattern forms:
//   - "name/" excludes any path with a directory segment matching name
//   - a pattern without "/" is matched against the base name
//   - anything else is matched against the whole normalized path
type PathMatcher struct {
	patterns []string
	dirs     []glob.Glob
	bases    []glob.Glob
	full     []glob.Glob
}

func NewPathMatcher(patterns []string) (*PathMatcher, error) {
	m := &PathMatcher{}
	for _, raw := range patterns {
		p := strings.TrimSpace(strings.ReplaceAll(raw, "\\", "/"))
		if p == "" {
			continue
		}
		m.patterns = append(m.patterns, p)
		switch {
		case strings.HasSuffix(p, "/"):
			dir := strings.Trim(p, "/")
			g, err := glob.Compile(dir, '/')
			if err != nil {
				return nil, fmt.Errorf("invalid path pattern %q: %w", raw, err)
			}
			m.dirs = append(m.dirs, g)
			if strings.Contains(dir, "/") {
				// Multi-segment directory patterns anchor at the project root.
				g, err = glob.Compile(dir+"/**", '/')
				if err != nil {
					return nil, fmt.Errorf("invalid path pattern %q: %w", raw, err)
				}
				m.full = append(m.full, g)
			}
		case !strings.Contains(p, "/"):
			g, err := glob.Compile(p, '/')
			if err != nil {
				return nil, fmt.Errorf("invalid path pattern %q: %w", raw, err)
			}
			m.bases = append(m.bases, g)
		default:
			g, err := glob.Compile(strings.TrimPrefix(p, "/"), '/')
			if err != nil {
				return nil, fmt.Errorf("invalid path pattern %q: %w", raw, err)
			}
			m.full = append(m.full, g)
		}
	}
	return m, nil
}

// Patterns returns the patterns the matcher was built from.
func (m *PathMatcher) Patterns() []string {
	out := make([]string, len(m.patterns))
	copy(out, m.patterns)
	return out
}

// Match reports whether the file at p matches any pattern.
func (m *PathMatcher) Match(p string) bool {
	if m == nil {
		return false
	}
	p = NormalizePath(p)
	if p == "" {
		return false
	}
	for _, g := range m.full {
		if g.Match(p) {
			return true
		}
	}
	base := path.Base(p)
	for _, g := range m.bases {
		if g.Match(base) {
			return true
		}
	}
	if len(m.dirs) == 0 {
		return false
	}
	segments := strings.Split(p, "/")
	for _, seg := range segments[:len(segments)-1] {
		for _, g := range m.dirs {
			if g.Match(seg) {
				return true
			}
		}
	}
	return false
}

// MatchDir reports whether every file below dir matches, so a walk can skip it.
func (m *PathMatcher) MatchDir(dir string) bool {
	if m == nil {
		return false
	}
	dir = NormalizePath(dir)
	if dir == "" {
		return false
	}
	// Probe with a synthetic child so directory patterns see dir as a segment.
	return m.Match(dir + "/_")
}
