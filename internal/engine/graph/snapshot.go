package graph

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"impactgraph/internal/core/errors"
)

// Snapshot is an immutable dependency graph. All accessors are safe for
// concurrent use; returned slices must not be modified.
type Snapshot struct {
	version      uint64
	id           string
	createdAt    time.Time
	goModulePath string

	nodes      map[string]*FileNode
	paths      []string
	forward    map[string][]Edge
	reverse    map[string][]string
	tombstones map[string][]string
	edgeCount  int
}

// Empty returns the version 0 snapshot with no nodes.
func Empty() *Snapshot {
	return &Snapshot{
		id:         uuid.Nil.String(),
		nodes:      map[string]*FileNode{},
		forward:    map[string][]Edge{},
		reverse:    map[string][]string{},
		tombstones: map[string][]string{},
	}
}

func (s *Snapshot) Version() uint64      { return s.version }
func (s *Snapshot) ID() string           { return s.id }
func (s *Snapshot) CreatedAt() time.Time { return s.createdAt }
func (s *Snapshot) GoModulePath() string { return s.goModulePath }
func (s *Snapshot) Len() int             { return len(s.nodes) }
func (s *Snapshot) EdgeCount() int       { return s.edgeCount }

// Paths returns every node path in lexicographic order.
func (s *Snapshot) Paths() []string { return s.paths }

func (s *Snapshot) Node(path string) (FileNode, bool) {
	n, ok := s.nodes[path]
	if !ok {
		return FileNode{}, false
	}
	return *n, true
}

func (s *Snapshot) Has(path string) bool {
	_, ok := s.nodes[path]
	return ok
}

// Edges returns the outgoing edges of path, sorted.
func (s *Snapshot) Edges(path string) []Edge { return s.forward[path] }

// Importers returns the sorted, de-duplicated sources of resolved edges
// pointing at path.
func (s *Snapshot) Importers(path string) []string { return s.reverse[path] }

func (s *Snapshot) InDegree(path string) int { return len(s.reverse[path]) }

// Tombstone returns the importers a path had just before the transition
// that deleted it.
func (s *Snapshot) Tombstone(path string) ([]string, bool) {
	importers, ok := s.tombstones[path]
	return importers, ok
}

// AllEdges returns every edge in the snapshot, sorted.
func (s *Snapshot) AllEdges() []Edge {
	out := make([]Edge, 0, s.edgeCount)
	for _, p := range s.paths {
		out = append(out, s.forward[p]...)
	}
	return out
}

// Warnings derives the warnings of one file: its parse problem, if any,
// plus one entry per unresolved import.
func (s *Snapshot) Warnings(path string) []Warning {
	n, ok := s.nodes[path]
	if !ok {
		return nil
	}
	var out []Warning
	if n.WarningCode != "" {
		out = append(out, Warning{Path: path, Code: n.WarningCode, Detail: n.WarningDetail})
	}
	seen := make(map[string]bool)
	for _, e := range s.forward[path] {
		if e.Resolved || seen[e.Raw] {
			continue
		}
		seen[e.Raw] = true
		out = append(out, Warning{Path: path, Code: errors.CodeUnresolvedImport, Detail: e.Raw})
	}
	sort.Slice(out, func(i, j int) bool { return WarningLess(out[i], out[j]) })
	return out
}

// Draft returns a mutable copy sharing unchanged nodes with s.
func (s *Snapshot) Draft() *Draft {
	d := &Draft{
		goModulePath: s.goModulePath,
		nodes:        make(map[string]*FileNode, len(s.nodes)),
		edges:        make(map[string][]Edge, len(s.forward)),
		tombstones:   make(map[string][]string),
	}
	for p, n := range s.nodes {
		d.nodes[p] = n
	}
	for p, e := range s.forward {
		d.edges[p] = e
	}
	return d
}

// Draft accumulates a graph under construction. It is owned by a single
// writer and turned into a Snapshot by Freeze.
type Draft struct {
	goModulePath string
	nodes        map[string]*FileNode
	edges        map[string][]Edge
	tombstones   map[string][]string
}

func NewDraft() *Draft {
	return &Draft{
		nodes:      make(map[string]*FileNode),
		edges:      make(map[string][]Edge),
		tombstones: make(map[string][]string),
	}
}

func (d *Draft) PutNode(n FileNode) {
	d.nodes[n.Path] = n.clone()
}

func (d *Draft) Node(path string) (FileNode, bool) {
	n, ok := d.nodes[path]
	if !ok {
		return FileNode{}, false
	}
	return *n, true
}

func (d *Draft) Has(path string) bool {
	_, ok := d.nodes[path]
	return ok
}

// RemoveNode drops a node and its outgoing edges. Edges of other nodes
// that targeted it become unresolved at Freeze.
func (d *Draft) RemoveNode(path string) {
	delete(d.nodes, path)
	delete(d.edges, path)
}

func (d *Draft) SetEdges(source string, edges []Edge) {
	if len(edges) == 0 {
		delete(d.edges, source)
		return
	}
	d.edges[source] = append([]Edge(nil), edges...)
}

func (d *Draft) Edges(source string) []Edge { return d.edges[source] }

func (d *Draft) SetTombstone(path string, importers []string) {
	d.tombstones[path] = append([]string{}, importers...)
}

func (d *Draft) SetGoModulePath(modulePath string) { d.goModulePath = modulePath }
func (d *Draft) GoModulePath() string              { return d.goModulePath }

// Paths returns the node paths in lexicographic order.
func (d *Draft) Paths() []string {
	paths := make([]string, 0, len(d.nodes))
	for p := range d.nodes {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Freeze validates the draft and builds an immutable snapshot. Edges from
// unknown sources are dropped; edges to unknown targets are kept as
// unresolved markers.
func (d *Draft) Freeze(version uint64) *Snapshot {
	return d.freeze(version, uuid.NewString(), time.Now().UTC())
}

func (d *Draft) freeze(version uint64, id string, createdAt time.Time) *Snapshot {
	s := &Snapshot{
		version:      version,
		id:           id,
		createdAt:    createdAt,
		goModulePath: d.goModulePath,
		nodes:        make(map[string]*FileNode, len(d.nodes)),
		forward:      make(map[string][]Edge, len(d.edges)),
		reverse:      make(map[string][]string),
		tombstones:   make(map[string][]string, len(d.tombstones)),
	}
	for p, n := range d.nodes {
		s.nodes[p] = n
	}
	s.paths = d.Paths()

	reverseSets := make(map[string]map[string]bool)
	for _, source := range s.paths {
		raw := d.edges[source]
		if len(raw) == 0 {
			continue
		}
		edges := make([]Edge, 0, len(raw))
		seen := make(map[Edge]bool, len(raw))
		for _, e := range raw {
			e.Source = source
			if e.Resolved {
				if _, ok := d.nodes[e.Target]; !ok {
					e.Resolved = false
					e.Target = ""
				}
			} else {
				e.Target = ""
			}
			if seen[e] {
				continue
			}
			seen[e] = true
			edges = append(edges, e)
			if e.Resolved {
				if reverseSets[e.Target] == nil {
					reverseSets[e.Target] = make(map[string]bool)
				}
				reverseSets[e.Target][source] = true
			}
		}
		sort.Slice(edges, func(i, j int) bool { return edgeLess(edges[i], edges[j]) })
		s.forward[source] = edges
		s.edgeCount += len(edges)
	}
	for target, set := range reverseSets {
		importers := make([]string, 0, len(set))
		for src := range set {
			importers = append(importers, src)
		}
		sort.Strings(importers)
		s.reverse[target] = importers
	}
	for p, importers := range d.tombstones {
		if _, alive := d.nodes[p]; alive {
			continue
		}
		s.tombstones[p] = importers
	}
	return s
}
