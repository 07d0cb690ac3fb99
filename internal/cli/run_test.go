package cli

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"
)

const tetraPLY = `ply
format ascii 1.0
element vertex 4
property float x
property float y
property float z
element face 4
property list uchar int vertex_indices
end_header
0 0 0
1 0 0
0 1 0
0 0 1
3 0 2 1
3 0 1 3
3 0 3 2
3 1 2 3
`

// writeScene builds a minimal scene directory with n synthetic front views.
func writeScene(t *testing.T, n int) string {
	t.Helper()
	dir := t.TempDir()
	for i := 0; i < n; i++ {
		img := image.NewRGBA(image.Rect(0, 0, 32, 32))
		shade := uint8(60 + i*40)
		for y := 0; y < 32; y++ {
			for x := 0; x < 32; x++ {
				img.Set(x, y, color.RGBA{shade, shade, shade, 255})
			}
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			t.Fatal(err)
		}
		name := filepath.Join(dir, "view_000"+string(rune('0'+i)))
		if err := os.WriteFile(name+".png", buf.Bytes(), 0644); err != nil {
			t.Fatal(err)
		}
		cam := "0 0 5 1 0 0 0 1 0 0 0 1\n20 16 16\n"
		if err := os.WriteFile(name+".cam", []byte(cam), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

// writeMesh writes the tetrahedron PLY and returns its path.
func writeMesh(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mesh.ply")
	if err := os.WriteFile(path, []byte(tetraPLY), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// execute runs the root command with args against a quiet CLI.
func execute(t *testing.T, args ...string) error {
	t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	return root.Execute()
}

func TestRunCommand(t *testing.T) {
	scene := writeScene(t, 2)
	meshPath := writeMesh(t)
	outDir := t.TempDir()
	prefix := filepath.Join(outDir, "textured")

	err := execute(t, "run", meshPath, scene, prefix,
		"--no-cache", "--write-timings", "--write-intermediates")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	for _, want := range []string{
		"textured.obj",
		"textured.mtl",
		"textured_material0000_map_Kd.png",
		"textured.conf",
		"textured_timings.csv",
		"textured_labeling.vec",
		"textured_data_costs.bin",
	} {
		if _, err := os.Stat(filepath.Join(outDir, want)); err != nil {
			t.Errorf("missing output %s: %v", want, err)
		}
	}
}

func TestRunCommandLabelingOverride(t *testing.T) {
	scene := writeScene(t, 2)
	meshPath := writeMesh(t)
	outDir := t.TempDir()

	labeling := filepath.Join(t.TempDir(), "labels.vec")
	if err := os.WriteFile(labeling, []byte("1\n1\n2\n2\n"), 0644); err != nil {
		t.Fatal(err)
	}

	err := execute(t, "run", meshPath, scene, filepath.Join(outDir, "out"),
		"--no-cache", "--labeling-file", labeling, "--write-intermediates")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	// The override path must not write intermediate labels.
	if _, err := os.Stat(filepath.Join(outDir, "out_labeling.vec")); err == nil {
		t.Error("labeling intermediate written on the override path")
	}
}

func TestRunCommandMissingDestination(t *testing.T) {
	scene := writeScene(t, 1)
	meshPath := writeMesh(t)

	err := execute(t, "run", meshPath, scene,
		filepath.Join(t.TempDir(), "no", "such", "dir", "out"), "--no-cache")
	if err == nil {
		t.Fatal("missing destination directory accepted")
	}
}

func TestRunCommandBadMesh(t *testing.T) {
	scene := writeScene(t, 1)
	bad := filepath.Join(t.TempDir(), "bad.ply")
	if err := os.WriteFile(bad, []byte("not a ply"), 0644); err != nil {
		t.Fatal(err)
	}

	err := execute(t, "run", bad, scene, filepath.Join(t.TempDir(), "out"), "--no-cache")
	if err == nil {
		t.Fatal("garbage mesh accepted")
	}
}
