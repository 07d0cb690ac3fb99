package texturing

import (
	"bytes"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/voxelforge/texrecon/pkg/geom"
	"github.com/voxelforge/texrecon/pkg/view"
)

// tetrahedron returns the 4-face mesh shared by the texturing tests.
func tetrahedron() *geom.Mesh {
	m := &geom.Mesh{
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
	m.PrepareNormals()
	return m
}

// frontView looks down +Z from 5 units behind the origin; the tetrahedron
// projects well inside its 32x32 raster.
func frontView(t *testing.T, id int) *view.TextureView {
	t.Helper()
	pixels := make([]byte, 32*32*3)
	for i := range pixels {
		pixels[i] = byte(60 + id*40)
	}
	v, err := view.NewTextureView(id, "synthetic", 32, 32, pixels, view.Camera{
		R:  [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1},
		T:  [3]float64{0, 0, 5},
		F:  20,
		PX: 16,
		PY: 16,
	})
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func TestDataCostsSetRow(t *testing.T) {
	d := NewDataCosts(2, 4)
	d.Set(0, 3, 0.5)
	d.Set(0, 1, 0.2)
	d.Set(0, 2, 0.9)
	d.Set(0, 2, 0.4) // overwrite

	row := d.Row(0)
	if len(row) != 3 {
		t.Fatalf("row has %d entries, want 3", len(row))
	}
	for i := 1; i < len(row); i++ {
		if row[i-1].View >= row[i].View {
			t.Fatalf("row not sorted by view: %v", row)
		}
	}
	if row[1].View != 2 || row[1].Cost != 0.4 {
		t.Errorf("overwrite failed: %v", row[1])
	}
	if len(d.Row(1)) != 0 {
		t.Errorf("untouched row is non-empty")
	}
}

func TestCalculateDataCosts(t *testing.T) {
	m := tetrahedron()
	views := []*view.TextureView{frontView(t, 0)}
	d := CalculateDataCosts(m, views)

	if d.NumFaces() != 4 || d.NumViews() != 1 {
		t.Fatalf("dims %dx%d", d.NumFaces(), d.NumViews())
	}
	// Face 0 (the z=0 base, normal -Z) faces the camera; face 3 (the slanted
	// cap, normal towards +Z) faces away and must not be a candidate.
	if len(d.Row(0)) != 1 {
		t.Errorf("front face has %d candidates, want 1", len(d.Row(0)))
	}
	if len(d.Row(3)) != 0 {
		t.Errorf("back face has %d candidates, want 0", len(d.Row(3)))
	}
	if len(d.Row(0)) == 1 {
		c := d.Row(0)[0].Cost
		if c <= 0 || c >= 1 {
			t.Errorf("cost %v outside (0,1)", c)
		}
	}
}

func TestDataCostsRoundtrip(t *testing.T) {
	d := NewDataCosts(3, 2)
	d.Set(0, 0, 0.25)
	d.Set(0, 1, 0.75)
	d.Set(2, 1, 0.5)

	var buf bytes.Buffer
	if err := d.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	got, err := ReadDataCosts(bytes.NewReader(buf.Bytes()), 3, 2)
	if err != nil {
		t.Fatalf("ReadDataCosts: %v", err)
	}
	for f := 0; f < 3; f++ {
		a, b := d.Row(f), got.Row(f)
		if len(a) != len(b) {
			t.Fatalf("face %d: %d vs %d entries", f, len(a), len(b))
		}
		for i := range a {
			if a[i] != b[i] {
				t.Errorf("face %d entry %d: %v vs %v", f, i, a[i], b[i])
			}
		}
	}
}

func TestReadDataCostsRejects(t *testing.T) {
	d := NewDataCosts(3, 2)
	var buf bytes.Buffer
	if err := d.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}

	if _, err := ReadDataCosts(bytes.NewReader(buf.Bytes()), 4, 2); err == nil {
		t.Error("face-count mismatch accepted")
	}
	if _, err := ReadDataCosts(bytes.NewReader(buf.Bytes()), 3, 1); err == nil {
		t.Error("view-count mismatch accepted")
	}
	if _, err := ReadDataCosts(bytes.NewReader([]byte("nope")), 3, 2); err == nil {
		t.Error("garbage accepted")
	}
}
