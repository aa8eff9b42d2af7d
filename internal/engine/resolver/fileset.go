package resolver

import (
	"path"
	"sort"

	"impactgraph/internal/shared/util"
)

// FileSet is an immutable index of project paths by directory.
type FileSet struct {
	files map[string]struct{}
	dirs  map[string][]string
}

func NewFileSet(paths []string) *FileSet {
	s := &FileSet{
		files: make(map[string]struct{}, len(paths)),
		dirs:  make(map[string][]string),
	}
	for _, p := range paths {
		p = util.NormalizePath(p)
		if p == "" {
			continue
		}
		if _, dup := s.files[p]; dup {
			continue
		}
		s.files[p] = struct{}{}
		dir := dirKey(p)
		s.dirs[dir] = append(s.dirs[dir], p)
	}
	for _, files := range s.dirs {
		sort.Strings(files)
	}
	return s
}

func dirKey(p string) string {
	dir := path.Dir(p)
	if dir == "." {
		return ""
	}
	return dir
}

func (s *FileSet) Has(p string) bool {
	_, ok := s.files[p]
	return ok
}

func (s *FileSet) Dir(dir string) []string {
	return s.dirs[util.NormalizePath(dir)]
}

func (s *FileSet) Len() int {
	return len(s.files)
}
