package view

import (
	"image"
	"image/color"

	"github.com/nfnt/resize"
)

// debugMosaicSize is the side of the coarse thumbnail the source raster is
// reduced to before it is blown back up to the view's dimensions.
const debugMosaicSize = 16

// ApplyDebugEmbeddings replaces every view's raster with an id-coded tint
// over a coarse mosaic of the photograph, so the view-selection debug model
// shows which view textured which face while the image's rough structure
// stays recognizable. The calibration and dimensions stay untouched, so
// patch generation and atlas packing run unchanged against the swapped
// rasters.
func ApplyDebugEmbeddings(views []*TextureView) {
	for _, v := range views {
		c := debugColor(v.ID, len(views))

		src := image.NewRGBA(image.Rect(0, 0, v.Width, v.Height))
		i := 0
		for y := 0; y < v.Height; y++ {
			for x := 0; x < v.Width; x++ {
				src.SetRGBA(x, y, color.RGBA{v.Pixels[i], v.Pixels[i+1], v.Pixels[i+2], 255})
				i += 3
			}
		}
		// Downscale to a coarse thumbnail, then blow it back up as blocks.
		thumb := resize.Resize(debugMosaicSize, debugMosaicSize, src, resize.Bilinear)
		mosaic := resize.Resize(uint(v.Width), uint(v.Height), thumb, resize.NearestNeighbor)

		pixels := make([]byte, v.Width*v.Height*3)
		i = 0
		for y := 0; y < v.Height; y++ {
			for x := 0; x < v.Width; x++ {
				r, g, b, _ := mosaic.At(x, y).RGBA()
				lum := (299*(r>>8) + 587*(g>>8) + 114*(b>>8)) / 1000
				// Keep the tint visible on black input by flooring the
				// luminance scale.
				scale := 64 + lum*191/255
				pixels[i] = byte(uint32(c.R) * scale / 255)
				pixels[i+1] = byte(uint32(c.G) * scale / 255)
				pixels[i+2] = byte(uint32(c.B) * scale / 255)
				i += 3
			}
		}
		v.Pixels = pixels
	}
}

// debugColor spreads view ids over the hue circle.
func debugColor(id, total int) color.RGBA {
	if total <= 0 {
		total = 1
	}
	h := float64(id) / float64(total) * 6
	seg := int(h)
	f := h - float64(seg)
	q := byte(255 * (1 - f))
	t := byte(255 * f)
	switch seg % 6 {
	case 0:
		return color.RGBA{255, t, 0, 255}
	case 1:
		return color.RGBA{q, 255, 0, 255}
	case 2:
		return color.RGBA{0, 255, t, 255}
	case 3:
		return color.RGBA{0, q, 255, 255}
	case 4:
		return color.RGBA{t, 0, 255, 255}
	default:
		return color.RGBA{255, 0, q, 255}
	}
}
