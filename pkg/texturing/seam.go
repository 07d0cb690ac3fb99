package texturing

import (
	"github.com/voxelforge/texrecon/pkg/geom"
)

// GlobalSeamLeveling blends colors across patch boundaries jointly: for
// every mesh vertex it gathers the colors all patches sample at that vertex,
// and each patch corner receives the difference to the cross-patch mean as
// its adjustment. Corners at patch-interior vertices (seen by one patch
// only) get a zero adjustment, so interiors keep their source colors.
//
// The pass also establishes every patch's validity mask, taking the place of
// ComputeValidityMasks on this settings path.
func GlobalSeamLeveling(m *geom.Mesh, patches []*TexturePatch) error {
	type sample struct {
		sum   Color
		count int
	}
	vertexColor := make([]sample, len(m.Vertices))

	// Pass 1: per-vertex mean over all patch corner samples.
	for _, p := range patches {
		for i, f := range p.Faces {
			fv := m.FaceVertices(f)
			for j := 0; j < 3; j++ {
				c := p.SampleAt(p.Texcoords[3*i+j])
				s := &vertexColor[fv[j]]
				for k := 0; k < 3; k++ {
					s.sum[k] += c[k]
				}
				s.count++
			}
		}
	}

	// Pass 2: per-corner adjustment towards the mean.
	for _, p := range patches {
		adjust := make([]Color, 3*len(p.Faces))
		for i, f := range p.Faces {
			fv := m.FaceVertices(f)
			for j := 0; j < 3; j++ {
				s := vertexColor[fv[j]]
				if s.count < 2 {
					continue
				}
				have := p.SampleAt(p.Texcoords[3*i+j])
				for k := 0; k < 3; k++ {
					adjust[3*i+j][k] = s.sum[k]/float32(s.count) - have[k]
				}
			}
		}
		if err := p.AdjustColors(adjust); err != nil {
			return err
		}
	}
	return nil
}

// localSeamRadius is the blur neighborhood radius for local leveling.
const localSeamRadius = 1

// LocalSeamLeveling softens residual seams patch by patch: valid pixels on
// the rim of a patch's validity mask are replaced by the average of their
// valid neighbors. Requires validity masks, so it runs after global leveling
// or the parallel validity pass.
func LocalSeamLeveling(patches []*TexturePatch) {
	for _, p := range patches {
		if p.Valid == nil {
			continue
		}
		levelPatchBorder(p)
	}
}

// levelPatchBorder blurs mask-border texels of one patch in place.
func levelPatchBorder(p *TexturePatch) {
	border := make([]int, 0, p.Width*2+p.Height*2)
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			idx := y*p.Width + x
			if p.Valid[idx] && onMaskBorder(p, x, y) {
				border = append(border, idx)
			}
		}
	}

	// Blur from a snapshot so the result does not depend on texel order.
	src := make([]byte, len(p.Pixels))
	copy(src, p.Pixels)
	for _, idx := range border {
		x, y := idx%p.Width, idx/p.Width
		var sum [3]int
		n := 0
		for dy := -localSeamRadius; dy <= localSeamRadius; dy++ {
			for dx := -localSeamRadius; dx <= localSeamRadius; dx++ {
				nx, ny := x+dx, y+dy
				if nx < 0 || ny < 0 || nx >= p.Width || ny >= p.Height {
					continue
				}
				nidx := ny*p.Width + nx
				if !p.Valid[nidx] {
					continue
				}
				for c := 0; c < 3; c++ {
					sum[c] += int(src[nidx*3+c])
				}
				n++
			}
		}
		if n == 0 {
			continue
		}
		for c := 0; c < 3; c++ {
			p.Pixels[idx*3+c] = byte(sum[c] / n)
		}
	}
}

// onMaskBorder reports whether a valid texel touches an invalid one or the
// crop edge.
func onMaskBorder(p *TexturePatch, x, y int) bool {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			nx, ny := x+dx, y+dy
			if nx < 0 || ny < 0 || nx >= p.Width || ny >= p.Height {
				return true
			}
			if !p.Valid[ny*p.Width+nx] {
				return true
			}
		}
	}
	return false
}
