// Package geom provides the triangle mesh model consumed by the texturing
// pipeline: vertex positions, per-vertex normals and a flat face index
// buffer, plus the incidence information the adjacency-graph builder needs.
//
// All coordinates use gonum's r3.Vec. Faces are stored as a flat []int with
// three vertex indices per triangle, so face i occupies Faces[3*i:3*i+3].
package geom

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Mesh is an indexed triangle mesh.
//
// Normals are per-vertex and index-aligned with Vertices. A mesh loaded
// without normals has len(Normals) == 0 until PrepareNormals is called.
type Mesh struct {
	Vertices []r3.Vec
	Normals  []r3.Vec
	Faces    []int
}

// NumFaces returns the triangle count.
func (m *Mesh) NumFaces() int {
	return len(m.Faces) / 3
}

// FaceVertices returns the three vertex indices of face i.
func (m *Mesh) FaceVertices(i int) [3]int {
	return [3]int{m.Faces[3*i], m.Faces[3*i+1], m.Faces[3*i+2]}
}

// FaceNormal returns the (unnormalized for degenerate faces) unit normal of face i.
func (m *Mesh) FaceNormal(i int) r3.Vec {
	f := m.FaceVertices(i)
	a, b, c := m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]
	n := r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
	if norm := r3.Norm(n); norm > 0 {
		return r3.Scale(1/norm, n)
	}
	return n
}

// FaceCentroid returns the centroid of face i.
func (m *Mesh) FaceCentroid(i int) r3.Vec {
	f := m.FaceVertices(i)
	s := r3.Add(m.Vertices[f[0]], r3.Add(m.Vertices[f[1]], m.Vertices[f[2]]))
	return r3.Scale(1.0/3.0, s)
}

// FaceArea returns the area of face i.
func (m *Mesh) FaceArea(i int) float64 {
	f := m.FaceVertices(i)
	a, b, c := m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]
	return 0.5 * r3.Norm(r3.Cross(r3.Sub(b, a), r3.Sub(c, a)))
}

// Validate checks structural consistency: the face buffer length is a
// multiple of three, every index is in range, and normals (if present) are
// index-aligned with the vertices.
func (m *Mesh) Validate() error {
	if len(m.Faces)%3 != 0 {
		return fmt.Errorf("face buffer length %d is not a multiple of 3", len(m.Faces))
	}
	for i, v := range m.Faces {
		if v < 0 || v >= len(m.Vertices) {
			return fmt.Errorf("face corner %d references vertex %d of %d", i, v, len(m.Vertices))
		}
	}
	if len(m.Normals) != 0 && len(m.Normals) != len(m.Vertices) {
		return fmt.Errorf("normal count %d does not match vertex count %d", len(m.Normals), len(m.Vertices))
	}
	return nil
}

// PrepareNormals computes area-weighted per-vertex normals when the mesh was
// loaded without them. Existing normals are kept untouched.
func (m *Mesh) PrepareNormals() {
	if len(m.Normals) == len(m.Vertices) && len(m.Vertices) > 0 {
		return
	}
	m.Normals = make([]r3.Vec, len(m.Vertices))
	for i := 0; i < m.NumFaces(); i++ {
		f := m.FaceVertices(i)
		a, b, c := m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]
		// Cross product magnitude carries the area weighting.
		n := r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
		for _, vi := range f {
			m.Normals[vi] = r3.Add(m.Normals[vi], n)
		}
	}
	for i, n := range m.Normals {
		if norm := r3.Norm(n); norm > 0 {
			m.Normals[i] = r3.Scale(1/norm, n)
		}
	}
}

// FromBuffers builds a mesh from flat float32 buffers as handed over by the
// in-memory library surface: points and normals as xyz triples, triangles as
// vertex-index triples.
func FromBuffers(points, normals []float32, triangles []int32) (*Mesh, error) {
	if len(points)%3 != 0 || len(normals)%3 != 0 || len(triangles)%3 != 0 {
		return nil, fmt.Errorf("buffer lengths must be multiples of 3 (points %d, normals %d, triangles %d)",
			len(points), len(normals), len(triangles))
	}
	if len(normals) != 0 && len(normals) != len(points) {
		return nil, fmt.Errorf("normal buffer length %d does not match point buffer length %d", len(normals), len(points))
	}
	m := &Mesh{
		Vertices: make([]r3.Vec, len(points)/3),
		Faces:    make([]int, len(triangles)),
	}
	for i := range m.Vertices {
		m.Vertices[i] = r3.Vec{X: float64(points[3*i]), Y: float64(points[3*i+1]), Z: float64(points[3*i+2])}
	}
	if len(normals) > 0 {
		m.Normals = make([]r3.Vec, len(normals)/3)
		for i := range m.Normals {
			m.Normals[i] = r3.Vec{X: float64(normals[3*i]), Y: float64(normals[3*i+1]), Z: float64(normals[3*i+2])}
		}
	}
	for i, v := range triangles {
		m.Faces[i] = int(v)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	m.PrepareNormals()
	return m, nil
}

// Info holds derived incidence data: for every vertex, the faces that touch
// it. It is the input the adjacency-graph builder and the patch generator
// share, computed once per run.
type Info struct {
	// VertexFaces[v] lists the faces incident to vertex v.
	VertexFaces [][]int
}

// NewInfo computes vertex-face incidence for m.
func NewInfo(m *Mesh) *Info {
	info := &Info{VertexFaces: make([][]int, len(m.Vertices))}
	for f := 0; f < m.NumFaces(); f++ {
		for _, v := range m.FaceVertices(f) {
			info.VertexFaces[v] = append(info.VertexFaces[v], f)
		}
	}
	return info
}
