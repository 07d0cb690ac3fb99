package texturing

import (
	"fmt"
	"math"

	"github.com/chewxy/math32"

	"github.com/voxelforge/texrecon/pkg/facegraph"
	"github.com/voxelforge/texrecon/pkg/geom"
	"github.com/voxelforge/texrecon/pkg/view"
)

// TexCoord is a 2D texture coordinate. Patch-local coordinates are in
// pixels relative to the patch crop origin; atlas and model coordinates are
// normalized to [0,1].
type TexCoord struct {
	X float64
	Y float64
}

// Color is an RGB adjustment or sample in [0,1] float space.
type Color [3]float32

// patchBorder is the padding in pixels around a patch's projected bounding
// box, kept so bilinear lookups at patch edges stay inside the crop.
const patchBorder = 1

// TexturePatch is a maximal connected set of faces sharing one view label,
// together with the raster crop that textures them.
//
// Texcoords holds three entries per face (corner order matches the mesh face
// winding) in patch-local pixel coordinates. Valid is the per-pixel validity
// mask established by AdjustColors; it is nil until that pass ran. A patch
// is exclusively owned by its pipeline run and mutated in place.
type TexturePatch struct {
	Label     int   // view label, 1-based
	Faces     []int // original mesh face indices
	Texcoords []TexCoord
	Width     int
	Height    int
	Pixels    []byte // RGB crop from the source view
	Valid     []bool
}

// GeneratePatches grows connected components of same-labeled faces into
// texture patches. Background faces (label 0) produce no patch. Patch order
// is deterministic: components are discovered in ascending seed-face order.
func GeneratePatches(g *facegraph.Graph, m *geom.Mesh, views []*view.TextureView) ([]*TexturePatch, error) {
	if g.NumNodes() != m.NumFaces() {
		return nil, fmt.Errorf("graph has %d nodes for a mesh of %d faces", g.NumNodes(), m.NumFaces())
	}

	var patches []*TexturePatch
	visited := make([]bool, g.NumNodes())
	for seed := 0; seed < g.NumNodes(); seed++ {
		if visited[seed] || g.Label(seed) == 0 {
			continue
		}
		label := g.Label(seed)

		// BFS over the same-label component.
		faces := []int{seed}
		visited[seed] = true
		for i := 0; i < len(faces); i++ {
			for _, n := range g.Adjacent(faces[i]) {
				if !visited[n] && g.Label(n) == label {
					visited[n] = true
					faces = append(faces, n)
				}
			}
		}

		if label-1 >= len(views) {
			// Lax labeling bound: a label equal to the view count names no
			// view. Such faces keep their label but cannot be textured.
			continue
		}
		p, err := newPatch(label, faces, m, views[label-1])
		if err != nil {
			return nil, err
		}
		patches = append(patches, p)
	}
	return patches, nil
}

// newPatch projects the component's faces into the source view and crops
// the covered raster region.
func newPatch(label int, faces []int, m *geom.Mesh, v *view.TextureView) (*TexturePatch, error) {
	texcoords := make([]TexCoord, 0, 3*len(faces))
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, f := range faces {
		for _, vi := range m.FaceVertices(f) {
			x, y, _ := v.Camera.Project(m.Vertices[vi])
			texcoords = append(texcoords, TexCoord{X: x, Y: y})
			minX, minY = math.Min(minX, x), math.Min(minY, y)
			maxX, maxY = math.Max(maxX, x), math.Max(maxY, y)
		}
	}

	x0 := clampInt(int(math.Floor(minX))-patchBorder, 0, v.Width-1)
	y0 := clampInt(int(math.Floor(minY))-patchBorder, 0, v.Height-1)
	x1 := clampInt(int(math.Ceil(maxX))+patchBorder, x0, v.Width-1)
	y1 := clampInt(int(math.Ceil(maxY))+patchBorder, y0, v.Height-1)
	width, height := x1-x0+1, y1-y0+1

	pixels := make([]byte, width*height*3)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b := v.At(x0+x, y0+y)
			off := (y*width + x) * 3
			pixels[off], pixels[off+1], pixels[off+2] = r, g, b
		}
	}

	for i := range texcoords {
		texcoords[i].X -= float64(x0)
		texcoords[i].Y -= float64(y0)
	}
	return &TexturePatch{
		Label:     label,
		Faces:     faces,
		Texcoords: texcoords,
		Width:     width,
		Height:    height,
		Pixels:    pixels,
	}, nil
}

// AdjustColors applies one RGB adjustment per triangle corner instance and
// establishes the patch's validity mask: a pixel is valid when it is covered
// by at least one of the patch's triangles. The adjustment vector must have
// exactly 3*len(Faces) entries; the zero vector leaves colors untouched and
// only computes validity.
func (p *TexturePatch) AdjustColors(adjust []Color) error {
	if len(adjust) != 3*len(p.Faces) {
		return fmt.Errorf("adjustment vector has %d entries for %d faces (want %d)",
			len(adjust), len(p.Faces), 3*len(p.Faces))
	}

	p.Valid = make([]bool, p.Width*p.Height)
	for i := range p.Faces {
		t0, t1, t2 := p.Texcoords[3*i], p.Texcoords[3*i+1], p.Texcoords[3*i+2]
		a0, a1, a2 := adjust[3*i], adjust[3*i+1], adjust[3*i+2]
		p.rasterize(t0, t1, t2, a0, a1, a2)
	}
	return nil
}

// coverEps expands triangle coverage slightly so seam pixels on shared
// edges land in the mask of both patches.
const coverEps = 1e-9

// rasterize marks pixels covered by the triangle and applies the
// barycentric interpolation of the corner adjustments.
func (p *TexturePatch) rasterize(t0, t1, t2 TexCoord, a0, a1, a2 Color) {
	minX := clampInt(int(math.Floor(min3(t0.X, t1.X, t2.X))), 0, p.Width-1)
	maxX := clampInt(int(math.Ceil(max3(t0.X, t1.X, t2.X))), 0, p.Width-1)
	minY := clampInt(int(math.Floor(min3(t0.Y, t1.Y, t2.Y))), 0, p.Height-1)
	maxY := clampInt(int(math.Ceil(max3(t0.Y, t1.Y, t2.Y))), 0, p.Height-1)

	area := (t1.X-t0.X)*(t2.Y-t0.Y) - (t2.X-t0.X)*(t1.Y-t0.Y)
	degenerate := math.Abs(area) < 1e-12

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			px, py := float64(x)+0.5, float64(y)+0.5

			var w0, w1, w2 float64
			if degenerate {
				// Degenerate projections still own their bounding pixels so
				// the face's texels stay valid.
				w0, w1, w2 = 1, 0, 0
			} else {
				w0 = ((t1.X-px)*(t2.Y-py) - (t2.X-px)*(t1.Y-py)) / area
				w1 = ((t2.X-px)*(t0.Y-py) - (t0.X-px)*(t2.Y-py)) / area
				w2 = 1 - w0 - w1
				if w0 < -coverEps || w1 < -coverEps || w2 < -coverEps {
					continue
				}
			}

			idx := y*p.Width + x
			p.Valid[idx] = true
			off := idx * 3
			for c := 0; c < 3; c++ {
				delta := float32(w0)*a0[c] + float32(w1)*a1[c] + float32(w2)*a2[c]
				if delta != 0 {
					v := float32(p.Pixels[off+c]) + delta*255
					p.Pixels[off+c] = byte(math32.Round(clamp32(v, 0, 255)))
				}
			}
		}
	}
}

// SampleAt returns the patch color at a patch-local coordinate, nearest
// neighbor with border clamping, normalized to [0,1].
func (p *TexturePatch) SampleAt(t TexCoord) Color {
	x := clampInt(int(t.X), 0, p.Width-1)
	y := clampInt(int(t.Y), 0, p.Height-1)
	off := (y*p.Width + x) * 3
	return Color{
		float32(p.Pixels[off]) / 255,
		float32(p.Pixels[off+1]) / 255,
		float32(p.Pixels[off+2]) / 255,
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func min3(a, b, c float64) float64 { return math.Min(a, math.Min(b, c)) }
func max3(a, b, c float64) float64 { return math.Max(a, math.Max(b, c)) }
