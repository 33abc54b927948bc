package similarity

import (
	"sort"

	"github.com/francescoalemanno/latex-thebib/internal/latex"
)

// Group is one connected component of the similarity graph.
type Group struct {
	Canonical int   // index of the canonical entry
	Members   []int // every member index, canonical first, in visit order
}

// Clustering is the result of grouping bibliography entries.
type Clustering struct {
	// Remap sends every non-canonical key to its cluster's canonical key.
	// Keys that are already canonical are never recorded.
	Remap map[string]string

	// Canonical holds one entry per cluster, sorted by key.
	Canonical []latex.BibEntry

	// Groups lists the clusters in seed order.
	Groups []Group
}

// Lookup returns the canonical key for key. Unmapped keys are returned unchanged.
func (c Clustering) Lookup(key string) string {
	if canon, ok := c.Remap[key]; ok {
		return canon
	}
	return key
}

// Duplicates returns the groups that hold more than one entry.
func (c Clustering) Duplicates() []Group {
	var groups []Group
	for _, g := range c.Groups {
		if len(g.Members) > 1 {
			groups = append(groups, g)
		}
	}
	return groups
}

// Cluster builds the similarity graph over entries and returns its connected
// components. Two entries are joined when their text Distance is at most
// threshold, or when they share a key regardless of text.
//
// Components are seeded in ascending index order, so the canonical member of
// each cluster is its lowest extraction index.
func Cluster(entries []latex.BibEntry, threshold float64) Clustering {
	graph := buildGraph(entries, threshold)
	components := connectedComponents(graph)

	result := Clustering{Remap: make(map[string]string)}
	for _, members := range components {
		canon := entries[members[0]]
		result.Canonical = append(result.Canonical, canon)
		result.Groups = append(result.Groups, Group{Canonical: members[0], Members: members})
		for _, i := range members[1:] {
			if entries[i].Key == canon.Key {
				continue
			}
			result.Remap[entries[i].Key] = canon.Key
		}
	}

	sort.SliceStable(result.Canonical, func(i, j int) bool {
		return result.Canonical[i].Key < result.Canonical[j].Key
	})
	return result
}

// buildGraph returns adjacency lists. Neighbors are appended in ascending
// index order.
func buildGraph(entries []latex.BibEntry, threshold float64) [][]int {
	graph := make([][]int, len(entries))
	for i := range entries {
		for j := i + 1; j < len(entries); j++ {
			if entries[i].Key != entries[j].Key && Distance(entries[i].Text, entries[j].Text) > threshold {
				continue
			}
			graph[i] = append(graph[i], j)
			graph[j] = append(graph[j], i)
		}
	}
	return graph
}

// connectedComponents walks the graph depth-first from each unvisited node
// in ascending order. Isolated nodes form singleton components.
func connectedComponents(graph [][]int) [][]int {
	visited := make([]bool, len(graph))
	var components [][]int

	for seed := range graph {
		if visited[seed] {
			continue
		}
		var component []int
		stack := []int{seed}
		for len(stack) > 0 {
			node := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if visited[node] {
				continue
			}
			visited[node] = true
			component = append(component, node)
			for k := len(graph[node]) - 1; k >= 0; k-- {
				if next := graph[node][k]; !visited[next] {
					stack = append(stack, next)
				}
			}
		}
		components = append(components, component)
	}
	return components
}
