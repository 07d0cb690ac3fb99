package view

import (
	"bufio"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	// Registered codecs for the view rasters.
	_ "image/jpeg"
	_ "image/png"
)

// imageExts are the raster extensions the scene loader recognizes.
var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// LoadScene loads all texture views from a scene directory.
//
// A view consists of an image file (png/jpeg) and a calibration sidecar with
// the same basename and a .cam extension:
//
//	scene/
//	  view_0000.png
//	  view_0000.cam
//	  view_0001.png
//	  view_0001.cam
//
// Views are ordered by image filename; their IDs are assigned 0..K-1 in that
// order. Images without a sidecar are an error, as a silently dropped view
// would shift every label after it.
func LoadScene(dir string) ([]*TextureView, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read scene dir %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("scene dir %s contains no images", dir)
	}
	sort.Strings(names)

	views := make([]*TextureView, 0, len(names))
	for i, name := range names {
		imgPath := filepath.Join(dir, name)
		camPath := strings.TrimSuffix(imgPath, filepath.Ext(imgPath)) + ".cam"

		width, height, pixels, err := loadRGB(imgPath)
		if err != nil {
			return nil, err
		}
		cam, err := loadCamera(camPath, width, height)
		if err != nil {
			return nil, err
		}
		v, err := NewTextureView(i, name, width, height, pixels, cam)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

// loadRGB decodes an image file into a tightly packed RGB byte slice.
func loadRGB(path string) (width, height int, pixels []byte, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("decode %s: %w", path, err)
	}
	b := img.Bounds()
	width, height = b.Dx(), b.Dy()
	pixels = make([]byte, width*height*3)
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bb, _ := img.At(x, y).RGBA()
			pixels[i] = byte(r >> 8)
			pixels[i+1] = byte(g >> 8)
			pixels[i+2] = byte(bb >> 8)
			i += 3
		}
	}
	return width, height, pixels, nil
}

// loadCamera parses a .cam sidecar. The format is two data lines (comments
// starting with # are skipped):
//
//	tx ty tz r11 r12 r13 r21 r22 r23 r31 r32 r33
//	f [ppx ppy]
//
// Focal length and principal point are in pixels; a missing principal point
// defaults to the image center.
func loadCamera(path string, width, height int) (Camera, error) {
	f, err := os.Open(path)
	if err != nil {
		return Camera{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var rows [][]float64
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		row := make([]float64, len(fields))
		for i, fv := range fields {
			if row[i], err = strconv.ParseFloat(fv, 64); err != nil {
				return Camera{}, fmt.Errorf("%s: bad number %q: %w", path, fv, err)
			}
		}
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return Camera{}, fmt.Errorf("read %s: %w", path, err)
	}
	if len(rows) < 2 || len(rows[0]) != 12 || len(rows[1]) < 1 {
		return Camera{}, fmt.Errorf("%s: expected extrinsic line (12 values) and intrinsic line", path)
	}

	var cam Camera
	copy(cam.T[:], rows[0][:3])
	copy(cam.R[:], rows[0][3:])
	cam.F = rows[1][0]
	if len(rows[1]) >= 3 {
		cam.PX, cam.PY = rows[1][1], rows[1][2]
	} else {
		cam.PX, cam.PY = float64(width)/2, float64(height)/2
	}
	return cam, nil
}

// FromBuffers builds texture views from raw in-memory data, the input shape
// of the library surface: all images share one width/height, each image is a
// packed RGB buffer, intrinsics are 9-element row-major K matrices in pixels
// and extrinsics are 12-element row-major [R|t] matrices.
func FromBuffers(width, height int, images [][]byte, intrinsics, extrinsics [][]float32) ([]*TextureView, error) {
	if len(images) == 0 {
		return nil, fmt.Errorf("no images supplied")
	}
	if len(intrinsics) != len(images) || len(extrinsics) != len(images) {
		return nil, fmt.Errorf("calibration count mismatch: %d images, %d intrinsics, %d extrinsics",
			len(images), len(intrinsics), len(extrinsics))
	}

	views := make([]*TextureView, 0, len(images))
	for i := range images {
		if len(intrinsics[i]) != 9 {
			return nil, fmt.Errorf("view %d: intrinsic matrix has %d values, want 9", i, len(intrinsics[i]))
		}
		if len(extrinsics[i]) != 12 {
			return nil, fmt.Errorf("view %d: extrinsic matrix has %d values, want 12", i, len(extrinsics[i]))
		}
		k, e := intrinsics[i], extrinsics[i]
		cam := Camera{
			F:  float64(k[0]),
			PX: float64(k[2]),
			PY: float64(k[5]),
		}
		for j := 0; j < 3; j++ {
			cam.R[3*j] = float64(e[4*j])
			cam.R[3*j+1] = float64(e[4*j+1])
			cam.R[3*j+2] = float64(e[4*j+2])
			cam.T[j] = float64(e[4*j+3])
		}
		v, err := NewTextureView(i, fmt.Sprintf("buffer_%04d", i), width, height, images[i], cam)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}
