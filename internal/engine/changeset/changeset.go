// Package changeset describes a batch of file changes fed to the builder
// and the impact propagator.
package changeset

import (
	"sort"

	"impactgraph/internal/shared/util"
)

type Rename struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// ChangeSet lists the paths touched by one change. Contents holds the new
// bytes of every added, modified or rename-target path.
type ChangeSet struct {
	Added    []string          `json:"added,omitempty"`
	Modified []string          `json:"modified,omitempty"`
	Deleted  []string          `json:"deleted,omitempty"`
	Renamed  []Rename          `json:"renamed,omitempty"`
	Contents map[string][]byte `json:"-"`
}

// Normalize returns a copy with normalized, sorted, de-duplicated paths.
// A path both deleted and written counts as written.
func (cs ChangeSet) Normalize() ChangeSet {
	out := ChangeSet{Contents: make(map[string][]byte, len(cs.Contents))}
	for p, content := range cs.Contents {
		out.Contents[util.NormalizePath(p)] = content
	}
	written := make(map[string]bool)
	norm := func(paths []string) []string {
		res := make([]string, 0, len(paths))
		for _, p := range paths {
			res = append(res, util.NormalizePath(p))
		}
		return util.SortedUnique(res)
	}

	out.Added = norm(cs.Added)
	out.Modified = norm(cs.Modified)
	for _, r := range cs.Renamed {
		from, to := util.NormalizePath(r.From), util.NormalizePath(r.To)
		if from == "" || to == "" || from == to {
			if to != "" {
				out.Modified = util.SortedUnique(append(out.Modified, to))
			}
			continue
		}
		out.Renamed = append(out.Renamed, Rename{From: from, To: to})
	}
	sort.Slice(out.Renamed, func(i, j int) bool {
		if out.Renamed[i].From == out.Renamed[j].From {
			return out.Renamed[i].To < out.Renamed[j].To
		}
		return out.Renamed[i].From < out.Renamed[j].From
	})

	for _, p := range out.Written() {
		written[p] = true
	}
	deleted := make([]string, 0, len(cs.Deleted))
	for _, p := range norm(cs.Deleted) {
		if !written[p] {
			deleted = append(deleted, p)
		}
	}
	out.Deleted = deleted
	return out
}

// Removed returns deleted paths plus the old side of renames.
func (cs ChangeSet) Removed() []string {
	paths := append([]string{}, cs.Deleted...)
	for _, r := range cs.Renamed {
		paths = append(paths, r.From)
	}
	return util.SortedUnique(paths)
}

// Written returns added and modified paths plus the new side of renames.
func (cs ChangeSet) Written() []string {
	paths := append(append([]string{}, cs.Added...), cs.Modified...)
	for _, r := range cs.Renamed {
		paths = append(paths, r.To)
	}
	return util.SortedUnique(paths)
}

// Paths returns every path the change touches, sorted.
func (cs ChangeSet) Paths() []string {
	return util.SortedUnique(append(cs.Removed(), cs.Written()...))
}

func (cs ChangeSet) Empty() bool {
	return len(cs.Added) == 0 && len(cs.Modified) == 0 && len(cs.Deleted) == 0 && len(cs.Renamed) == 0
}

// FromPaths builds a change set from a plain list of paths, such as a
// watcher flush. exists decides between modified and deleted; read
// supplies contents.
func FromPaths(paths []string, exists func(string) bool, read func(string) ([]byte, error)) ChangeSet {
	cs := ChangeSet{Contents: make(map[string][]byte)}
	for _, p := range util.SortedUnique(paths) {
		if !exists(p) {
			cs.Deleted = append(cs.Deleted, p)
			continue
		}
		content, err := read(p)
		if err != nil {
			cs.Deleted = append(cs.Deleted, p)
			continue
		}
		cs.Modified = append(cs.Modified, p)
		cs.Contents[p] = content
	}
	return cs
}
