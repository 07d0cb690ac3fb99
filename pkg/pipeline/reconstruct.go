package pipeline

import (
	"context"

	"github.com/voxelforge/texrecon/pkg/errors"
	"github.com/voxelforge/texrecon/pkg/geom"
	"github.com/voxelforge/texrecon/pkg/view"
)

// ReconstructRequest is the raw-buffer input of the in-memory surface.
// All images share one resolution; calibration matrices are row-major.
type ReconstructRequest struct {
	// Mesh buffers: xyz triples for points and normals, vertex-index
	// triples for triangles. Normals may be empty; they are then derived
	// from face geometry.
	Points    []float32
	Normals   []float32
	Triangles []int32

	// View buffers: packed RGB rasters plus one 9-element intrinsic (K)
	// and one 12-element extrinsic ([R|t]) matrix per image.
	ImageWidth  int
	ImageHeight int
	Images      [][]byte
	Intrinsics  [][]float32
	Extrinsics  [][]float32

	Options Options
}

// ReconstructResult mirrors the consolidated model as flat buffers:
// positions, normals and texcoords are index-aligned, triangles index into
// them, and the texture is packed RGB.
type ReconstructResult struct {
	Positions []float32
	Normals   []float32
	TexCoords []float32
	Triangles []int32

	TextureWidth  int
	TextureHeight int
	Texture       []byte
}

// Reconstruct runs the full pipeline on in-memory buffers. The second
// return value is empty on success and carries a descriptive message on
// failure; on failure the result is nil. Nothing is written to disk on
// this path.
func Reconstruct(ctx context.Context, req ReconstructRequest) (*ReconstructResult, string) {
	mesh, err := geom.FromBuffers(req.Points, req.Normals, req.Triangles)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeLoad, err, "invalid mesh buffers").Error()
	}
	views, err := view.FromBuffers(req.ImageWidth, req.ImageHeight, req.Images, req.Intrinsics, req.Extrinsics)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeLoad, err, "invalid view buffers").Error()
	}

	runner := NewRunner(nil, nil, req.Options.Logger)
	result, err := runner.Execute(ctx, mesh, views, req.Options)
	if err != nil {
		return nil, err.Error()
	}

	m := result.Model
	out := &ReconstructResult{
		Positions:     make([]float32, 3*len(m.Points)),
		Normals:       make([]float32, 3*len(m.Normals)),
		TexCoords:     make([]float32, 2*len(m.TexCoords)),
		Triangles:     make([]int32, len(m.Triangles)),
		TextureWidth:  m.TextureWidth,
		TextureHeight: m.TextureHeight,
		Texture:       m.Texture,
	}
	for i, p := range m.Points {
		out.Positions[3*i] = float32(p.X)
		out.Positions[3*i+1] = float32(p.Y)
		out.Positions[3*i+2] = float32(p.Z)
	}
	for i, n := range m.Normals {
		out.Normals[3*i] = float32(n.X)
		out.Normals[3*i+1] = float32(n.Y)
		out.Normals[3*i+2] = float32(n.Z)
	}
	for i, tc := range m.TexCoords {
		out.TexCoords[2*i] = float32(tc.X)
		out.TexCoords[2*i+1] = float32(tc.Y)
	}
	for i, t := range m.Triangles {
		out.Triangles[i] = int32(t)
	}
	return out, ""
}
