package texturing

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/voxelforge/texrecon/pkg/geom"
)

// Model is the consolidated, deduplicated output mesh: one output vertex per
// unique atlas texcoord (not per original mesh vertex, since a mesh vertex
// carries different texture coordinates on different sides of a UV seam).
// Points, Normals and TexCoords are parallel, index-aligned arrays;
// Triangles holds three output-vertex indices per face. Immutable once
// built.
type Model struct {
	Points    []r3.Vec
	Normals   []r3.Vec
	TexCoords []TexCoord
	Triangles []int

	TextureWidth  int
	TextureHeight int
	Texture       []byte // RGB, 3 bytes per pixel
}

// NumVertices returns the output vertex count.
func (m *Model) NumVertices() int { return len(m.Points) }

// NumTriangles returns the output triangle count.
func (m *Model) NumTriangles() int { return len(m.Triangles) / 3 }

// BuildModel consolidates texture atlases and the original mesh into one
// output model.
//
// Only the first atlas contributes, even when packing produced several; this
// reproduces the single-atlas limitation of the original exporter rather
// than silently merging atlases. An empty atlas set yields an empty model,
// not an error.
//
// The construction fixes the output vertex count to the atlas texcoord
// count, then maps every texcoord index back to its original mesh vertex
// through the atlas's per-corner pairing. That mapping is a surjection, not
// a bijection: vertices on UV seams appear at several texcoord indices and
// their position/normal data is duplicated accordingly. Output triangles
// are the atlas's per-corner texcoord-id triples verbatim, already indexing
// the deduplicated output space. Neither the mesh nor the atlases are
// mutated. Deterministic for identical inputs.
func BuildModel(mesh *geom.Mesh, atlases []*TextureAtlas) *Model {
	model := &Model{}
	if len(atlases) == 0 {
		return model
	}
	atlas := atlases[0]

	model.TextureWidth = atlas.Width
	model.TextureHeight = atlas.Height
	model.Texture = make([]byte, len(atlas.Pixels))
	copy(model.Texture, atlas.Pixels)

	model.TexCoords = make([]TexCoord, len(atlas.Texcoords))
	copy(model.TexCoords, atlas.Texcoords)

	// Pair every face corner's original vertex index with its atlas
	// texcoord index, and emit triangles in texcoord-index space.
	model.Triangles = make([]int, len(atlas.TexcoordIDs))
	copy(model.Triangles, atlas.TexcoordIDs)

	toVertex := make([]int, len(atlas.Texcoords))
	for i, f := range atlas.Faces {
		for j := 0; j < 3; j++ {
			toVertex[atlas.TexcoordIDs[3*i+j]] = mesh.Faces[3*f+j]
		}
	}

	model.Points = make([]r3.Vec, len(atlas.Texcoords))
	model.Normals = make([]r3.Vec, len(atlas.Texcoords))
	for i, vi := range toVertex {
		model.Points[i] = mesh.Vertices[vi]
		model.Normals[i] = mesh.Normals[vi]
	}
	return model
}
