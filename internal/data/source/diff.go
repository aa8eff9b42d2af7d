// Package source reads project files and change sets from disk and from
// unified diffs.
package source

import (
	"fmt"
	"log/slog"
	"strings"

	godiff "github.com/sourcegraph/go-diff/diff"

	"impactgraph/internal/engine/changeset"
	"impactgraph/internal/shared/util"
)

const devNull = "/dev/null"

// ReadFunc returns the current content of a project-relative path.
type ReadFunc func(path string) ([]byte, error)

// ParseUnifiedDiff turns a (git) unified diff into a change set. Contents
// of added, modified and renamed-to files are loaded through read; a path
// that cannot be read is left without content.
func ParseUnifiedDiff(diff []byte, read ReadFunc) (changeset.ChangeSet, error) {
	cs := changeset.ChangeSet{Contents: make(map[string][]byte)}
	if len(strings.TrimSpace(string(diff))) == 0 {
		return cs, nil
	}

	fileDiffs, err := godiff.ParseMultiFileDiff(diff)
	if err != nil {
		return changeset.ChangeSet{}, fmt.Errorf("parse diff: %w", err)
	}

	for _, fd := range fileDiffs {
		oldPath, newPath := diffPaths(fd)
		switch {
		case oldPath == "" && newPath == "":
			continue
		case oldPath == "":
			cs.Added = append(cs.Added, newPath)
		case newPath == "":
			cs.Deleted = append(cs.Deleted, oldPath)
		case oldPath != newPath:
			cs.Renamed = append(cs.Renamed, changeset.Rename{From: oldPath, To: newPath})
		default:
			cs.Modified = append(cs.Modified, newPath)
		}
	}

	if read != nil {
		for _, p := range cs.Written() {
			content, err := read(p)
			if err != nil {
				slog.Warn("cannot read changed file", "path", p, "error", err)
				continue
			}
			cs.Contents[p] = content
		}
	}
	return cs.Normalize(), nil
}

// diffPaths resolves the old and new path of one file diff. Git's extended
// headers win over the ---/+++ lines, which are absent for pure renames and
// mode-only changes.
func diffPaths(fd *godiff.FileDiff) (string, string) {
	oldPath, newPath := cleanPath(fd.OrigName), cleanPath(fd.NewName)
	var gitOld, gitNew string
	isNew, isDeleted := false, false

	for _, line := range fd.Extended {
		switch {
		case strings.HasPrefix(line, "diff --git "):
			gitOld, gitNew = splitGitHeader(strings.TrimPrefix(line, "diff --git "))
		case strings.HasPrefix(line, "rename from "):
			oldPath = cleanPath(strings.TrimPrefix(line, "rename from "))
		case strings.HasPrefix(line, "rename to "):
			newPath = cleanPath(strings.TrimPrefix(line, "rename to "))
		case strings.HasPrefix(line, "new file mode"):
			isNew = true
		case strings.HasPrefix(line, "deleted file mode"):
			isDeleted = true
		}
	}

	if oldPath == "" && !isNew {
		oldPath = gitOld
	}
	if newPath == "" && !isDeleted {
		newPath = gitNew
	}
	if isNew {
		oldPath = ""
	}
	if isDeleted {
		newPath = ""
	}
	return util.NormalizePath(oldPath), util.NormalizePath(newPath)
}

// splitGitHeader splits "a/x b/y" from a diff --git line. Paths with
// spaces are split on the " b/" marker.
func splitGitHeader(rest string) (string, string) {
	if i := strings.Index(rest, " b/"); i >= 0 {
		return cleanPath(rest[:i]), cleanPath(rest[i+1:])
	}
	parts := strings.Fields(rest)
	if len(parts) != 2 {
		return "", ""
	}
	return cleanPath(parts[0]), cleanPath(parts[1])
}

// cleanPath removes the a/ or b/ prefix from git diff paths and maps
// /dev/null to the empty path.
func cleanPath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" || path == devNull {
		return ""
	}
	if i := strings.IndexByte(path, '\t'); i >= 0 {
		path = path[:i]
	}
	path = strings.Trim(path, `"`)
	if strings.HasPrefix(path, "a/") || strings.HasPrefix(path, "b/") {
		return path[2:]
	}
	return path
}
