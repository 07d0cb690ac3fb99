package export

import (
	"bufio"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/voxelforge/texrecon/pkg/texturing"
)

// materialName is the single material every exported model references.
const materialName = "material0000"

// WriteOBJ writes the model geometry as Wavefront OBJ. mtlName is the
// material library filename referenced from the header.
func WriteOBJ(m *texturing.Model, w io.Writer, mtlName string) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "mtllib %s\n", mtlName)

	for _, p := range m.Points {
		fmt.Fprintf(bw, "v %g %g %g\n", p.X, p.Y, p.Z)
	}
	for _, n := range m.Normals {
		fmt.Fprintf(bw, "vn %g %g %g\n", n.X, n.Y, n.Z)
	}
	for _, tc := range m.TexCoords {
		fmt.Fprintf(bw, "vt %g %g\n", tc.X, tc.Y)
	}

	fmt.Fprintf(bw, "usemtl %s\n", materialName)
	// Vertex, texcoord and normal arrays are index-aligned, so each corner
	// uses one 1-based index for all three slots.
	for i := 0; i < len(m.Triangles); i += 3 {
		a, b, c := m.Triangles[i]+1, m.Triangles[i+1]+1, m.Triangles[i+2]+1
		fmt.Fprintf(bw, "f %d/%d/%d %d/%d/%d %d/%d/%d\n", a, a, a, b, b, b, c, c, c)
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write obj: %w", err)
	}
	return nil
}

// WriteMTL writes a material library with one diffuse-mapped material.
// textureName is the texture filename referenced by map_Kd.
func WriteMTL(w io.Writer, textureName string) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "newmtl %s\n", materialName)
	fmt.Fprintln(bw, "Ka 1.0 1.0 1.0")
	fmt.Fprintln(bw, "Kd 1.0 1.0 1.0")
	fmt.Fprintln(bw, "Ks 0.0 0.0 0.0")
	fmt.Fprintln(bw, "d 1.0")
	fmt.Fprintln(bw, "Ns 0.0")
	fmt.Fprintln(bw, "illum 1")
	fmt.Fprintf(bw, "map_Kd %s\n", textureName)
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write mtl: %w", err)
	}
	return nil
}

// WritePNG encodes the model texture as PNG. An empty model (no atlas, no
// texture) yields a single black pixel so the material's map_Kd reference
// always resolves to a decodable file.
func WritePNG(m *texturing.Model, w io.Writer) error {
	if m.TextureWidth == 0 || m.TextureHeight == 0 {
		img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
		img.Pix[3] = 0xFF
		if err := png.Encode(w, img); err != nil {
			return fmt.Errorf("encode png: %w", err)
		}
		return nil
	}
	img := image.NewNRGBA(image.Rect(0, 0, m.TextureWidth, m.TextureHeight))
	for i := 0; i < m.TextureWidth*m.TextureHeight; i++ {
		img.Pix[4*i+0] = m.Texture[3*i+0]
		img.Pix[4*i+1] = m.Texture[3*i+1]
		img.Pix[4*i+2] = m.Texture[3*i+2]
		img.Pix[4*i+3] = 0xFF
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// ExportModel writes the OBJ/MTL/PNG triple for a model into dir using the
// given filename prefix. dir is created if missing.
func ExportModel(m *texturing.Model, dir, prefix string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	mtlName := prefix + ".mtl"
	texName := prefix + "_" + materialName + "_map_Kd.png"

	if err := writeFile(filepath.Join(dir, prefix+".obj"), func(w io.Writer) error {
		return WriteOBJ(m, w, mtlName)
	}); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(dir, mtlName), func(w io.Writer) error {
		return WriteMTL(w, texName)
	}); err != nil {
		return err
	}
	return writeFile(filepath.Join(dir, texName), func(w io.Writer) error {
		return WritePNG(m, w)
	})
}

// writeFile creates path and streams fn into it.
func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
