package graph

import "sort"

// Cycles returns every strongly connected component that forms an import
// cycle: components with more than one file, or a single file importing
// itself. Members are sorted and cycles are ordered by their first member.
func (s *Snapshot) Cycles() [][]string {
	adjacency := make(map[string][]string, len(s.forward))
	selfLoop := make(map[string]bool)
	for _, p := range s.paths {
		for _, e := range s.forward[p] {
			if !e.Resolved {
				continue
			}
			if e.Target == p {
				selfLoop[p] = true
			}
			adjacency[p] = append(adjacency[p], e.Target)
		}
	}
	_, components := stronglyConnectedComponents(s.paths, adjacency)

	cycles := make([][]string, 0)
	for _, comp := range components {
		if len(comp) > 1 || selfLoop[comp[0]] {
			cycles = append(cycles, comp)
		}
	}
	sort.Slice(cycles, func(i, j int) bool { return cycles[i][0] < cycles[j][0] })
	return cycles
}

func stronglyConnectedComponents(nodes []string, adjacency map[string][]string) (map[string]int, [][]string) {
	index := 0
	stack := make([]string, 0, len(nodes))
	onStack := make(map[string]bool, len(nodes))
	indexByNode := make(map[string]int, len(nodes))
	lowLink := make(map[string]int, len(nodes))
	componentOf := make(map[string]int, len(nodes))
	components := make([][]string, 0)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indexByNode[v] = index
		lowLink[v] = index
		index++

		stack = append(stack, v)
		onStack[v] = true

		for _, w := range adjacency[v] {
			if _, seen := indexByNode[w]; !seen {
				strongConnect(w)
				if lowLink[w] < lowLink[v] {
					lowLink[v] = lowLink[w]
				}
			} else if onStack[w] && indexByNode[w] < lowLink[v] {
				lowLink[v] = indexByNode[w]
			}
		}

		if lowLink[v] != indexByNode[v] {
			return
		}

		component := make([]string, 0)
		for {
			last := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			onStack[last] = false
			component = append(component, last)
			if last == v {
				break
			}
		}
		sort.Strings(component)
		compID := len(components)
		components = append(components, component)
		for _, n := range component {
			componentOf[n] = compID
		}
	}

	for _, node := range nodes {
		if _, seen := indexByNode[node]; !seen {
			strongConnect(node)
		}
	}

	return componentOf, components
}

// ImportChain returns the shortest chain of resolved imports leading from
// one file to another. Ties are broken by visiting targets in
// lexicographic order.
func (s *Snapshot) ImportChain(from, to string) ([]string, bool) {
	if !s.Has(from) || !s.Has(to) {
		return nil, false
	}
	if from == to {
		return []string{from}, true
	}

	queue := []string{from}
	visited := map[string]bool{from: true}
	prev := make(map[string]string)

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]

		// Forward edges are sorted by target already.
		for _, e := range s.forward[curr] {
			next := e.Target
			if !e.Resolved || visited[next] {
				continue
			}
			visited[next] = true
			prev[next] = curr

			if next == to {
				path := []string{to}
				for node := to; node != from; {
					node = prev[node]
					path = append(path, node)
				}
				for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
					path[i], path[j] = path[j], path[i]
				}
				return path, true
			}
			queue = append(queue, next)
		}
	}
	return nil, false
}
