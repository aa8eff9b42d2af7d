package graph

import (
	"sort"
	"time"
)

// SnapshotData is the serializable form of a Snapshot.
type SnapshotData struct {
	Version      uint64              `json:"version"`
	ID           string              `json:"id"`
	CreatedAt    time.Time           `json:"created_at"`
	GoModulePath string              `json:"go_module_path,omitempty"`
	Nodes        []FileNode          `json:"nodes"`
	Edges        []Edge              `json:"edges"`
	Tombstones   map[string][]string `json:"tombstones,omitempty"`
}

func (s *Snapshot) Data() SnapshotData {
	d := SnapshotData{
		Version:      s.version,
		ID:           s.id,
		CreatedAt:    s.createdAt,
		GoModulePath: s.goModulePath,
		Nodes:        make([]FileNode, 0, len(s.paths)),
		Edges:        s.AllEdges(),
	}
	for _, p := range s.paths {
		d.Nodes = append(d.Nodes, *s.nodes[p])
	}
	if len(s.tombstones) > 0 {
		d.Tombstones = make(map[string][]string, len(s.tombstones))
		for p, importers := range s.tombstones {
			d.Tombstones[p] = importers
		}
	}
	return d
}

// FromData rebuilds a snapshot. Identity and version are preserved.
func FromData(d SnapshotData) *Snapshot {
	draft := NewDraft()
	draft.SetGoModulePath(d.GoModulePath)
	for _, n := range d.Nodes {
		draft.PutNode(n)
	}
	bySource := make(map[string][]Edge)
	for _, e := range d.Edges {
		bySource[e.Source] = append(bySource[e.Source], e)
	}
	for source, edges := range bySource {
		draft.SetEdges(source, edges)
	}
	paths := make([]string, 0, len(d.Tombstones))
	for p := range d.Tombstones {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		draft.SetTombstone(p, d.Tombstones[p])
	}
	return draft.freeze(d.Version, d.ID, d.CreatedAt)
}
