// Package texturing implements the core of the reconstruction pipeline:
// per-face view costs and selection, labeling overrides, texture patches,
// the parallel validity pass, seam leveling, atlas packing and the final
// atlas-to-mesh consolidation.
package texturing

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/chewxy/math32"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/voxelforge/texrecon/pkg/geom"
	"github.com/voxelforge/texrecon/pkg/view"
)

// ViewCost is one sparse entry of the face-by-view cost matrix.
type ViewCost struct {
	View int32 // 0-based view index
	Cost float32
}

// DataCosts is a sparse face-by-view cost matrix. A missing entry means the
// view cannot texture the face at all. Rows are kept sorted by view index so
// serialization and optimization are deterministic.
//
// The matrix is owned by the stage that computes or loads it and is
// read-only once handed to view selection.
type DataCosts struct {
	numFaces int
	numViews int
	rows     [][]ViewCost
}

// NewDataCosts creates an empty matrix for the given dimensions.
func NewDataCosts(numFaces, numViews int) *DataCosts {
	return &DataCosts{
		numFaces: numFaces,
		numViews: numViews,
		rows:     make([][]ViewCost, numFaces),
	}
}

// NumFaces returns the row count.
func (d *DataCosts) NumFaces() int { return d.numFaces }

// NumViews returns the column count.
func (d *DataCosts) NumViews() int { return d.numViews }

// Set stores the cost for (face, view), keeping the row sorted by view.
func (d *DataCosts) Set(face, v int, cost float32) {
	row := d.rows[face]
	i := 0
	for i < len(row) && int(row[i].View) < v {
		i++
	}
	if i < len(row) && int(row[i].View) == v {
		row[i].Cost = cost
		return
	}
	row = append(row, ViewCost{})
	copy(row[i+1:], row[i:])
	row[i] = ViewCost{View: int32(v), Cost: cost}
	d.rows[face] = row
}

// Row returns the sparse entries for one face, sorted by view index.
// The slice is owned by the matrix and must not be modified.
func (d *DataCosts) Row(face int) []ViewCost {
	return d.rows[face]
}

// minQuality is the projection quality below which a view is not considered
// a candidate for a face at all.
const minQuality = 1e-6

// CalculateDataCosts computes the sparse cost matrix from projected face
// quality: a view is a candidate when all three face vertices project inside
// its raster in front of the camera and the face is oriented towards it. The
// cost decreases with projected area and viewing angle, so the optimizer
// favors large, head-on observations.
func CalculateDataCosts(m *geom.Mesh, views []*view.TextureView) *DataCosts {
	d := NewDataCosts(m.NumFaces(), len(views))

	for f := 0; f < m.NumFaces(); f++ {
		fv := m.FaceVertices(f)
		normal := m.FaceNormal(f)
		for _, v := range views {
			var px, py [3]float64
			visible := true
			for j, vi := range fv {
				x, y, front := v.Camera.Project(m.Vertices[vi])
				if !front || !v.Inside(x, y) {
					visible = false
					break
				}
				px[j], py[j] = x, y
			}
			if !visible {
				continue
			}
			// Back faces never receive texture from this view.
			facing := -r3.Dot(normal, v.Camera.ViewDir())
			if facing <= 0 {
				continue
			}
			area := 0.5 * math32.Abs(
				float32((px[1]-px[0])*(py[2]-py[0])-(px[2]-px[0])*(py[1]-py[0])))
			quality := area * float32(facing)
			if quality < minQuality {
				continue
			}
			d.Set(f, v.ID, 1/(1+quality))
		}
	}
	return d
}

// dataCostMagic identifies the binary data-cost file format.
var dataCostMagic = [4]byte{'T', 'R', 'D', 'C'}

// WriteTo serializes the matrix in little-endian binary form:
// magic, uint32 faces, uint32 views, then per face a uint32 entry count
// followed by (uint32 view, float32 cost) pairs.
func (d *DataCosts) WriteTo(w io.Writer) error {
	if err := binary.Write(w, binary.LittleEndian, dataCostMagic); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, [2]uint32{uint32(d.numFaces), uint32(d.numViews)}); err != nil {
		return err
	}
	for _, row := range d.rows {
		if err := binary.Write(w, binary.LittleEndian, uint32(len(row))); err != nil {
			return err
		}
		for _, e := range row {
			if err := binary.Write(w, binary.LittleEndian, uint32(e.View)); err != nil {
				return err
			}
			if err := binary.Write(w, binary.LittleEndian, e.Cost); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReadDataCosts deserializes a matrix written by WriteTo and checks it
// against the expected dimensions.
func ReadDataCosts(r io.Reader, numFaces, numViews int) (*DataCosts, error) {
	var magic [4]byte
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return nil, fmt.Errorf("read magic: %w", err)
	}
	if magic != dataCostMagic {
		return nil, fmt.Errorf("bad magic %q, not a data-cost file", magic)
	}
	var dims [2]uint32
	if err := binary.Read(r, binary.LittleEndian, &dims); err != nil {
		return nil, fmt.Errorf("read dimensions: %w", err)
	}
	if int(dims[0]) != numFaces || int(dims[1]) != numViews {
		return nil, fmt.Errorf("data-cost file is %dx%d, expected %dx%d for this mesh/scene",
			dims[0], dims[1], numFaces, numViews)
	}

	d := NewDataCosts(numFaces, numViews)
	for f := 0; f < numFaces; f++ {
		var count uint32
		if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
			return nil, fmt.Errorf("face %d: %w", f, err)
		}
		if int(count) > numViews {
			return nil, fmt.Errorf("face %d claims %d entries for %d views", f, count, numViews)
		}
		row := make([]ViewCost, count)
		for i := range row {
			var v uint32
			if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
				return nil, fmt.Errorf("face %d entry %d: %w", f, i, err)
			}
			if int(v) >= numViews {
				return nil, fmt.Errorf("face %d references view %d of %d", f, v, numViews)
			}
			row[i].View = int32(v)
			if err := binary.Read(r, binary.LittleEndian, &row[i].Cost); err != nil {
				return nil, fmt.Errorf("face %d entry %d cost: %w", f, i, err)
			}
		}
		d.rows[f] = row
	}
	return d, nil
}

// SaveDataCosts writes the matrix to path.
func SaveDataCosts(d *DataCosts, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if err := d.WriteTo(f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// LoadDataCosts reads a matrix from path, validating dimensions.
func LoadDataCosts(path string, numFaces, numViews int) (*DataCosts, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	d, err := ReadDataCosts(f, numFaces, numViews)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return d, nil
}
