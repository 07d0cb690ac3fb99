// Package view models the calibrated photographs ("texture views") the
// pipeline selects face textures from. A view owns an RGB raster and a
// pinhole calibration; views are immutable for the duration of a run except
// for the debug-embedding pass, which swaps rasters wholesale.
package view

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Camera is a pinhole calibration: world-to-camera rotation R (row major)
// and translation T, focal length and principal point in pixels.
type Camera struct {
	R  [9]float64
	T  [3]float64
	F  float64 // focal length, pixels
	PX float64 // principal point x, pixels
	PY float64 // principal point y, pixels
}

// Transform maps a world point into camera space.
func (c *Camera) Transform(p r3.Vec) r3.Vec {
	return r3.Vec{
		X: c.R[0]*p.X + c.R[1]*p.Y + c.R[2]*p.Z + c.T[0],
		Y: c.R[3]*p.X + c.R[4]*p.Y + c.R[5]*p.Z + c.T[1],
		Z: c.R[6]*p.X + c.R[7]*p.Y + c.R[8]*p.Z + c.T[2],
	}
}

// Project maps a world point to pixel coordinates. The boolean reports
// whether the point lies in front of the camera.
func (c *Camera) Project(p r3.Vec) (x, y float64, inFront bool) {
	pc := c.Transform(p)
	if pc.Z <= 0 {
		return 0, 0, false
	}
	return c.F*pc.X/pc.Z + c.PX, c.F*pc.Y/pc.Z + c.PY, true
}

// ViewDir returns the camera viewing direction in world space (the camera
// z axis back-rotated, since R is world-to-camera).
func (c *Camera) ViewDir() r3.Vec {
	return r3.Vec{X: c.R[6], Y: c.R[7], Z: c.R[8]}
}

// TextureView is one calibrated source photograph.
type TextureView struct {
	ID     int    // 0-based view index
	Name   string // display name, usually the image basename
	Width  int
	Height int
	Pixels []byte // RGB, 3 bytes per pixel, row major
	Camera Camera
}

// NewTextureView builds a view and validates the raster size.
func NewTextureView(id int, name string, width, height int, pixels []byte, cam Camera) (*TextureView, error) {
	if len(pixels) != width*height*3 {
		return nil, fmt.Errorf("view %s: raster is %d bytes, want %d (w=%d h=%d, RGB)",
			name, len(pixels), width*height*3, width, height)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("view %s: invalid dimensions %dx%d", name, width, height)
	}
	return &TextureView{ID: id, Name: name, Width: width, Height: height, Pixels: pixels, Camera: cam}, nil
}

// Inside reports whether the pixel coordinate lies on the raster.
func (v *TextureView) Inside(x, y float64) bool {
	return x >= 0 && y >= 0 && x < float64(v.Width) && y < float64(v.Height)
}

// At returns the RGB value at integer pixel coordinates. Out-of-range
// coordinates are clamped to the border.
func (v *TextureView) At(x, y int) (r, g, b byte) {
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	if x >= v.Width {
		x = v.Width - 1
	}
	if y >= v.Height {
		y = v.Height - 1
	}
	off := (y*v.Width + x) * 3
	return v.Pixels[off], v.Pixels[off+1], v.Pixels[off+2]
}
