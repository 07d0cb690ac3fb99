package texturing

import (
	"testing"
)

func TestBuildModelEmpty(t *testing.T) {
	m := BuildModel(tetrahedron(), nil)
	if m.NumVertices() != 0 || m.NumTriangles() != 0 {
		t.Errorf("empty atlas set yielded %d vertices, %d triangles", m.NumVertices(), m.NumTriangles())
	}
	if m.Texture != nil {
		t.Error("empty model carries a texture")
	}
}

func TestBuildModel(t *testing.T) {
	mesh := tetrahedron()
	patches := generateTestPatches(t)
	atlases := GenerateAtlases(patches)
	model := BuildModel(mesh, atlases)

	a := atlases[0]
	if model.NumVertices() != len(a.Texcoords) {
		t.Fatalf("vertex count %d, want one per atlas texcoord (%d)", model.NumVertices(), len(a.Texcoords))
	}
	if len(model.Points) != len(model.Normals) || len(model.Points) != len(model.TexCoords) {
		t.Fatalf("vertex arrays misaligned: %d points, %d normals, %d texcoords",
			len(model.Points), len(model.Normals), len(model.TexCoords))
	}
	if model.NumTriangles() != len(a.Faces) {
		t.Errorf("triangle count %d, want %d", model.NumTriangles(), len(a.Faces))
	}
	for i, vi := range model.Triangles {
		if vi < 0 || vi >= model.NumVertices() {
			t.Fatalf("triangle corner %d references vertex %d outside [0,%d)", i, vi, model.NumVertices())
		}
	}

	if model.TextureWidth != a.Width || model.TextureHeight != a.Height {
		t.Errorf("texture dims %dx%d, want %dx%d", model.TextureWidth, model.TextureHeight, a.Width, a.Height)
	}
	if len(model.Texture) != len(a.Pixels) {
		t.Fatalf("texture has %d bytes, want %d", len(model.Texture), len(a.Pixels))
	}

	// Every output point must coincide with some input vertex.
	for i, pt := range model.Points {
		found := false
		for _, v := range mesh.Vertices {
			if pt == v {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("output vertex %d at %+v matches no input vertex", i, pt)
		}
	}
}

func TestBuildModelDoesNotAliasAtlas(t *testing.T) {
	mesh := tetrahedron()
	atlases := GenerateAtlases(generateTestPatches(t))
	model := BuildModel(mesh, atlases)

	atlases[0].Pixels[0] ^= 0xFF
	if model.Texture[0] == atlases[0].Pixels[0] {
		t.Error("model texture aliases the atlas raster")
	}
	atlases[0].TexcoordIDs[0] = -1
	if model.Triangles[0] == -1 {
		t.Error("model triangles alias the atlas texcoord ids")
	}
}

func TestBuildModelFirstAtlasOnly(t *testing.T) {
	mesh := tetrahedron()
	atlases := GenerateAtlases(generateTestPatches(t))
	// Append a decoy atlas; it must not contribute.
	decoy := &TextureAtlas{
		Width: 2, Height: 2,
		Pixels:      make([]byte, 12),
		Texcoords:   []TexCoord{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}},
		Faces:       []int{0},
		TexcoordIDs: []int{0, 1, 2},
	}
	withDecoy := BuildModel(mesh, append(atlases, decoy))
	firstOnly := BuildModel(mesh, atlases[:1])

	if withDecoy.NumVertices() != firstOnly.NumVertices() ||
		withDecoy.NumTriangles() != firstOnly.NumTriangles() {
		t.Errorf("second atlas leaked into the model: %d/%d vs %d/%d vertices/triangles",
			withDecoy.NumVertices(), withDecoy.NumTriangles(),
			firstOnly.NumVertices(), firstOnly.NumTriangles())
	}
}

func TestBuildModelDeterministic(t *testing.T) {
	mesh := tetrahedron()
	build := func() *Model {
		return BuildModel(mesh, GenerateAtlases(generateTestPatches(t)))
	}
	a, b := build(), build()
	if a.NumVertices() != b.NumVertices() {
		t.Fatalf("vertex counts differ: %d vs %d", a.NumVertices(), b.NumVertices())
	}
	for i := range a.Points {
		if a.Points[i] != b.Points[i] || a.TexCoords[i] != b.TexCoords[i] {
			t.Fatalf("vertex %d differs between runs", i)
		}
	}
	for i := range a.Triangles {
		if a.Triangles[i] != b.Triangles[i] {
			t.Fatalf("triangle corner %d differs between runs", i)
		}
	}
	for i := range a.Texture {
		if a.Texture[i] != b.Texture[i] {
			t.Fatalf("texture byte %d differs between runs", i)
		}
	}
}
