package texturing

import (
	"sort"
)

// Atlas packing bounds. Sizes are powers of two; an atlas grows until the
// packed area fits or MaxAtlasSize is reached, after which further patches
// spill into additional atlases.
const (
	MinAtlasSize = 64
	MaxAtlasSize = 4096

	// atlasPadding separates patches so bilinear lookups do not bleed
	// across patch boundaries.
	atlasPadding = 1
)

// TextureAtlas is a packed raster combining one or more patches.
//
// Texcoords are atlas-local normalized coordinates (origin bottom-left, v
// up, matching OBJ). Faces lists the original mesh face indices contained
// in the atlas; TexcoordIDs holds three indices into Texcoords per
// contained face, corner order matching the mesh face winding.
type TextureAtlas struct {
	Width       int
	Height      int
	Pixels      []byte // RGB, 3 bytes per pixel
	Texcoords   []TexCoord
	Faces       []int
	TexcoordIDs []int
}

// shelfPacker places rectangles left to right on horizontal shelves.
type shelfPacker struct {
	size    int
	cursorX int
	cursorY int
	shelfH  int
}

// place returns the origin for a w-by-h rectangle, or ok=false when the
// rectangle does not fit the remaining space.
func (s *shelfPacker) place(w, h int) (x, y int, ok bool) {
	if w > s.size || h > s.size {
		return 0, 0, false
	}
	if s.cursorX+w > s.size {
		// Open the next shelf.
		s.cursorY += s.shelfH + atlasPadding
		s.cursorX = 0
		s.shelfH = 0
	}
	if s.cursorY+h > s.size {
		return 0, 0, false
	}
	x, y = s.cursorX, s.cursorY
	s.cursorX += w + atlasPadding
	if h > s.shelfH {
		s.shelfH = h
	}
	return x, y, true
}

// GenerateAtlases packs the patches into as few atlases as possible.
// Returns nil for an empty patch set. The packing is deterministic: patches
// are placed tallest first (ties broken by width, then generation order).
func GenerateAtlases(patches []*TexturePatch) []*TextureAtlas {
	if len(patches) == 0 {
		return nil
	}

	order := make([]int, len(patches))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		pa, pb := patches[order[a]], patches[order[b]]
		if pa.Height != pb.Height {
			return pa.Height > pb.Height
		}
		return pa.Width > pb.Width
	})

	size := atlasSizeFor(patches)

	var atlases []*TextureAtlas
	var current *TextureAtlas
	var packer *shelfPacker
	for _, pi := range order {
		p := patches[pi]
		if current == nil {
			current, packer = newAtlas(size)
			atlases = append(atlases, current)
		}
		x, y, ok := packer.place(p.Width, p.Height)
		if !ok && len(current.Faces) > 0 {
			current, packer = newAtlas(size)
			atlases = append(atlases, current)
			x, y, ok = packer.place(p.Width, p.Height)
		}
		if !ok {
			// Patch larger than the maximum atlas: repurpose the fresh
			// atlas at the patch's exact size, keep it dedicated, and
			// force the next patch onto a new atlas. Every returned
			// atlas holds at least one face.
			current.Width, current.Height = p.Width, p.Height
			current.Pixels = make([]byte, p.Width*p.Height*3)
			insertPatch(current, p, 0, 0)
			current, packer = nil, nil
			continue
		}
		insertPatch(current, p, x, y)
	}
	return atlases
}

// newAtlas allocates a black square atlas and its packer.
func newAtlas(size int) (*TextureAtlas, *shelfPacker) {
	return &TextureAtlas{
		Width:  size,
		Height: size,
		Pixels: make([]byte, size*size*3),
	}, &shelfPacker{size: size}
}

// atlasSizeFor picks a power-of-two size covering the patch set: at least
// the largest patch dimension, and enough area for all patches with slack
// for padding waste.
func atlasSizeFor(patches []*TexturePatch) int {
	maxDim, area := 0, 0
	for _, p := range patches {
		maxDim = maxInt(maxDim, maxInt(p.Width, p.Height))
		area += (p.Width + atlasPadding) * (p.Height + atlasPadding)
	}
	size := MinAtlasSize
	for size < maxDim {
		size *= 2
	}
	for size < MaxAtlasSize && size*size < area*5/4 {
		size *= 2
	}
	if size > MaxAtlasSize {
		size = MaxAtlasSize
	}
	return size
}

// insertPatch copies the patch raster to (x0,y0) and appends the patch's
// faces with atlas-local texcoords. Corner texcoords are deduplicated per
// patch: corners landing on the same patch-local coordinate (shared mesh
// vertices within the patch) map to one atlas texcoord.
func insertPatch(a *TextureAtlas, p *TexturePatch, x0, y0 int) {
	for y := 0; y < p.Height; y++ {
		src := y * p.Width * 3
		dst := ((y0+y)*a.Width + x0) * 3
		copy(a.Pixels[dst:dst+p.Width*3], p.Pixels[src:src+p.Width*3])
	}

	seen := make(map[TexCoord]int, len(p.Texcoords))
	for i, f := range p.Faces {
		a.Faces = append(a.Faces, f)
		for j := 0; j < 3; j++ {
			local := p.Texcoords[3*i+j]
			id, ok := seen[local]
			if !ok {
				id = len(a.Texcoords)
				seen[local] = id
				a.Texcoords = append(a.Texcoords, TexCoord{
					X: (float64(x0) + local.X) / float64(a.Width),
					Y: 1 - (float64(y0)+local.Y)/float64(a.Height),
				})
			}
			a.TexcoordIDs = append(a.TexcoordIDs, id)
		}
	}
}

func maxInt(a, b int) int {
	if a >= b {
		return a
	}
	return b
}
