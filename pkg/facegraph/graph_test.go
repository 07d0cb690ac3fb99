package facegraph

import (
	"strings"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/voxelforge/texrecon/pkg/geom"
)

func tetrahedron() *geom.Mesh {
	return &geom.Mesh{
		Vertices: []r3.Vec{
			{X: 0, Y: 0, Z: 0},
			{X: 1, Y: 0, Z: 0},
			{X: 0, Y: 1, Z: 0},
			{X: 0, Y: 0, Z: 1},
		},
		Faces: []int{
			0, 2, 1,
			0, 1, 3,
			0, 3, 2,
			1, 2, 3,
		},
	}
}

func TestBuildAdjacencyTetrahedron(t *testing.T) {
	m := tetrahedron()
	g := BuildAdjacency(m, geom.NewInfo(m))

	if g.NumNodes() != 4 {
		t.Fatalf("NumNodes = %d, want 4", g.NumNodes())
	}
	// Every tetrahedron face borders the three others.
	if g.NumEdges() != 6 {
		t.Errorf("NumEdges = %d, want 6", g.NumEdges())
	}
	for i := 0; i < 4; i++ {
		if len(g.Adjacent(i)) != 3 {
			t.Errorf("face %d has %d neighbors, want 3", i, len(g.Adjacent(i)))
		}
	}
}

func TestBuildAdjacencyStrip(t *testing.T) {
	// Two triangles sharing edge (1,2); a third sharing only vertex 2.
	m := &geom.Mesh{
		Vertices: []r3.Vec{
			{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}, {X: -1, Y: 2}, {X: 0, Y: 2},
		},
		Faces: []int{
			0, 1, 2,
			1, 3, 2,
			2, 4, 5,
		},
	}
	g := BuildAdjacency(m, geom.NewInfo(m))
	if g.NumEdges() != 1 {
		t.Fatalf("NumEdges = %d, want 1", g.NumEdges())
	}
	if len(g.Adjacent(2)) != 0 {
		t.Errorf("vertex-touching face has %d neighbors, want 0", len(g.Adjacent(2)))
	}
}

func TestLabels(t *testing.T) {
	g := New(3)
	for i := 0; i < 3; i++ {
		if g.Label(i) != 0 {
			t.Fatalf("fresh node %d has label %d, want 0", i, g.Label(i))
		}
	}
	g.SetLabel(1, 7)
	if g.Label(1) != 7 {
		t.Errorf("Label(1) = %d, want 7", g.Label(1))
	}

	labels := g.Labels()
	labels[0] = 99
	if g.Label(0) != 0 {
		t.Error("Labels() did not return a copy")
	}
}

func TestAddEdgeValidation(t *testing.T) {
	g := New(2)
	if err := g.AddEdge(0, 0); err == nil {
		t.Error("self edge accepted")
	}
	if err := g.AddEdge(0, 5); err == nil {
		t.Error("out-of-range edge accepted")
	}
	if err := g.AddEdge(0, 1); err != nil {
		t.Errorf("valid edge rejected: %v", err)
	}
	// Duplicate is a no-op.
	if err := g.AddEdge(1, 0); err != nil {
		t.Errorf("duplicate edge errored: %v", err)
	}
	if g.NumEdges() != 1 {
		t.Errorf("NumEdges = %d, want 1", g.NumEdges())
	}
}

func TestToDOT(t *testing.T) {
	m := tetrahedron()
	g := BuildAdjacency(m, geom.NewInfo(m))
	g.SetLabel(0, 1)
	g.SetLabel(1, 2)

	dot := g.ToDOT()
	if !strings.HasPrefix(dot, "graph faces {") {
		t.Errorf("unexpected DOT prefix: %q", dot[:20])
	}
	for _, want := range []string{`f0 [label="0/1"`, `f1 [label="1/2"`, "f0 -- f1"} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT output missing %q", want)
		}
	}
}
