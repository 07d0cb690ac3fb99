// Package facegraph implements the face adjacency graph the view-selection
// stage labels: one node per mesh triangle, an undirected edge between
// triangles sharing a mesh edge, and a mutable per-node integer label where
// 0 means unlabeled/background and i in [1,K] references view i-1.
package facegraph

import (
	"fmt"
	"sort"

	"github.com/voxelforge/texrecon/pkg/geom"
)

// Graph is a face adjacency graph with per-node labels.
//
// Labels are write-once-then-read per pipeline run: mutated by the optimizer
// or the labeling override, never by later stages.
type Graph struct {
	adj    [][]int
	labels []int
}

// New creates a graph with n unconnected, unlabeled nodes.
func New(n int) *Graph {
	return &Graph{
		adj:    make([][]int, n),
		labels: make([]int, n),
	}
}

// NumNodes returns the node (face) count.
func (g *Graph) NumNodes() int {
	return len(g.labels)
}

// NumEdges returns the undirected edge count.
func (g *Graph) NumEdges() int {
	total := 0
	for _, a := range g.adj {
		total += len(a)
	}
	return total / 2
}

// Label returns the label of node i.
func (g *Graph) Label(i int) int {
	return g.labels[i]
}

// SetLabel assigns label l to node i.
func (g *Graph) SetLabel(i, l int) {
	g.labels[i] = l
}

// Labels returns a copy of the full label vector.
func (g *Graph) Labels() []int {
	out := make([]int, len(g.labels))
	copy(out, g.labels)
	return out
}

// Adjacent returns the neighbor list of node i. The slice is owned by the
// graph and must not be modified.
func (g *Graph) Adjacent(i int) []int {
	return g.adj[i]
}

// AddEdge connects nodes a and b. Duplicate edges are ignored.
func (g *Graph) AddEdge(a, b int) error {
	if a < 0 || a >= len(g.adj) || b < 0 || b >= len(g.adj) || a == b {
		return fmt.Errorf("invalid edge (%d, %d) for graph of %d nodes", a, b, len(g.adj))
	}
	for _, n := range g.adj[a] {
		if n == b {
			return nil
		}
	}
	g.adj[a] = append(g.adj[a], b)
	g.adj[b] = append(g.adj[b], a)
	return nil
}

// BuildAdjacency constructs the adjacency graph of m: one node per face,
// one edge for every mesh edge shared by exactly two faces. Non-manifold
// edges (more than two incident faces) connect all incident face pairs,
// matching the forgiving behavior expected from scanned meshes.
func BuildAdjacency(m *geom.Mesh, info *geom.Info) *Graph {
	g := New(m.NumFaces())

	// Two faces are adjacent when they share two vertices. Walk each
	// vertex's incidence list and count shared vertices pairwise.
	seen := make(map[[2]int]bool)
	for _, faces := range info.VertexFaces {
		for i := 0; i < len(faces); i++ {
			for j := i + 1; j < len(faces); j++ {
				a, b := faces[i], faces[j]
				if a > b {
					a, b = b, a
				}
				key := [2]int{a, b}
				if seen[key] {
					continue
				}
				if sharedVertices(m, a, b) >= 2 {
					seen[key] = true
					_ = g.AddEdge(a, b)
				}
			}
		}
	}

	// Deterministic neighbor order regardless of map iteration.
	for i := range g.adj {
		sort.Ints(g.adj[i])
	}
	return g
}

// sharedVertices counts vertices common to faces a and b.
func sharedVertices(m *geom.Mesh, a, b int) int {
	fa, fb := m.FaceVertices(a), m.FaceVertices(b)
	n := 0
	for _, va := range fa {
		for _, vb := range fb {
			if va == vb {
				n++
			}
		}
	}
	return n
}
