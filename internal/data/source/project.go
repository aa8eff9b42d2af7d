package source

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"impactgraph/internal/engine/builder"
	"impactgraph/internal/engine/changeset"
	"impactgraph/internal/shared/util"
)

// MaxFileSize bounds the files read into a build. Larger files are
// usually generated bundles and are skipped.
const MaxFileSize = 2 << 20

// Matcher excludes paths from a listing.
type Matcher interface {
	Match(path string) bool
	MatchDir(dir string) bool
}

// ListProject walks root and returns every non-ignored regular file with
// its content, in path order.
func ListProject(root string, ignore Matcher) ([]builder.File, error) {
	files := make([]builder.File, 0)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, ok := util.RelativeTo(root, path)
		if !ok {
			return nil
		}
		if d.IsDir() {
			if rel != "" && ignore != nil && ignore.MatchDir(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || (ignore != nil && ignore.Match(rel)) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.Size() > MaxFileSize {
			slog.Debug("skipping large file", "path", rel, "size", info.Size())
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		files = append(files, builder.File{Path: rel, Content: content})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// Reader returns a ReadFunc for project-relative paths under root.
func Reader(root string) ReadFunc {
	return func(p string) ([]byte, error) {
		return os.ReadFile(filepath.Join(root, filepath.FromSlash(p)))
	}
}

// ChangeSetFromPaths classifies project-relative paths as modified or
// deleted by looking at the file system.
func ChangeSetFromPaths(root string, paths []string) changeset.ChangeSet {
	read := Reader(root)
	exists := func(p string) bool {
		info, err := os.Stat(filepath.Join(root, filepath.FromSlash(p)))
		return err == nil && info.Mode().IsRegular()
	}
	normalized := make([]string, 0, len(paths))
	for _, p := range paths {
		normalized = append(normalized, util.NormalizePath(p))
	}
	return changeset.FromPaths(normalized, exists, read).Normalize()
}
