package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/voxelforge/texrecon/pkg/cache"
	"github.com/voxelforge/texrecon/pkg/errors"
	"github.com/voxelforge/texrecon/pkg/geom"
	"github.com/voxelforge/texrecon/pkg/texturing"
	"github.com/voxelforge/texrecon/pkg/view"
)

// tetrahedron returns the 4-face mesh shared by the pipeline tests.
func tetrahedron() *geom.Mesh {
	m := &geom.Mesh{
		Vertices: []r3.Vec{
			{X: 0, Y: 0, Z: 0},
			{X: 1, Y: 0, Z: 0},
			{X: 0, Y: 1, Z: 0},
			{X: 0, Y: 0, Z: 1},
		},
		Faces: []int{
			0, 2, 1,
			0, 1, 3,
			0, 3, 2,
			1, 2, 3,
		},
	}
	m.PrepareNormals()
	return m
}

// frontViews returns n identical-pose views with per-view shades.
func frontViews(t *testing.T, n int) []*view.TextureView {
	t.Helper()
	views := make([]*view.TextureView, n)
	for i := range views {
		pixels := make([]byte, 32*32*3)
		for j := range pixels {
			pixels[j] = byte(60 + i*40)
		}
		v, err := view.NewTextureView(i, "synthetic", 32, 32, pixels, view.Camera{
			R:  [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1},
			T:  [3]float64{0, 0, 5},
			F:  20,
			PX: 16,
			PY: 16,
		})
		if err != nil {
			t.Fatal(err)
		}
		views[i] = v
	}
	return views
}

// writeLabeling writes a labeling vector file and returns its path.
func writeLabeling(t *testing.T, labels string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "labeling.vec")
	if err := os.WriteFile(path, []byte(labels), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOptionsValidateAndSetDefaults(t *testing.T) {
	var o Options
	if err := o.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("defaults rejected: %v", err)
	}
	if o.SmoothnessWeight != texturing.DefaultSmoothnessWeight {
		t.Errorf("smoothness = %g", o.SmoothnessWeight)
	}
	if o.Optimizer == nil || o.Logger == nil {
		t.Error("defaults not filled in")
	}

	// Idempotent: a second call must not reset user values.
	o.SmoothnessWeight = 0.7
	if err := o.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if o.SmoothnessWeight != 0.7 {
		t.Error("second validation reset values")
	}

	bad := Options{LabelingFile: "a", DataCostFile: "b"}
	if err := bad.ValidateAndSetDefaults(); !errors.Is(err, errors.ErrCodeConfig) {
		t.Errorf("conflicting files not rejected: %v", err)
	}
	neg := Options{SmoothnessWeight: -1}
	if err := neg.ValidateAndSetDefaults(); !errors.Is(err, errors.ErrCodeConfig) {
		t.Errorf("negative smoothness not rejected: %v", err)
	}
}

func TestExecuteWithLabelingOverride(t *testing.T) {
	ctx := context.Background()
	runner := NewRunner(nil, nil, nil)
	defer runner.Close()

	result, err := runner.Execute(ctx, tetrahedron(), frontViews(t, 2), Options{
		LabelingFile: writeLabeling(t, "1\n1\n2\n2\n"),
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	want := []int{1, 1, 2, 2}
	for i, l := range result.Labels {
		if l != want[i] {
			t.Errorf("label[%d] = %d, want %d", i, l, want[i])
		}
	}
	if result.DataCosts != nil {
		t.Error("override path computed data costs")
	}

	m := result.Model
	if m.NumTriangles() != 4 {
		t.Fatalf("model has %d triangles, want 4", m.NumTriangles())
	}
	if m.NumVertices() != len(m.TexCoords) {
		t.Errorf("vertex count %d != texcoord count %d", m.NumVertices(), len(m.TexCoords))
	}
	if len(m.Points) != len(m.Normals) || len(m.Points) != len(m.TexCoords) {
		t.Error("vertex arrays misaligned")
	}
	for _, vi := range m.Triangles {
		if vi < 0 || vi >= m.NumVertices() {
			t.Fatalf("triangle index %d out of range", vi)
		}
	}
	if result.RunID == "" {
		t.Error("missing run id")
	}
	if len(result.Stats.Timings) == 0 {
		t.Error("no stage timings recorded")
	}
}

func TestExecuteLabelingMismatch(t *testing.T) {
	ctx := context.Background()
	runner := NewRunner(nil, nil, nil)
	defer runner.Close()

	_, err := runner.Execute(ctx, tetrahedron(), frontViews(t, 2), Options{
		LabelingFile: writeLabeling(t, "1\n1\n2\n"),
	})
	if !errors.Is(err, errors.ErrCodeLabelingMismatch) {
		t.Fatalf("short labeling gave %v, want LABELING_MISMATCH", err)
	}
}

func TestExecuteViewSelection(t *testing.T) {
	ctx := context.Background()
	runner := NewRunner(nil, nil, nil)
	defer runner.Close()

	result, err := runner.Execute(ctx, tetrahedron(), frontViews(t, 1), Options{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.DataCosts == nil {
		t.Fatal("selection path did not keep data costs")
	}
	if result.CacheInfo.DataCostHit {
		t.Error("null cache reported a hit")
	}
	// Only the base face of the tetrahedron faces the camera; it must be
	// assigned, back and silhouette faces stay background.
	if result.Labels[0] != 1 {
		t.Errorf("front face label = %d, want 1", result.Labels[0])
	}
	if result.Model.NumTriangles() < 1 {
		t.Error("model is empty")
	}
}

func TestExecuteDataCostCaching(t *testing.T) {
	ctx := context.Background()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	runner := NewRunner(fc, nil, nil)
	defer runner.Close()

	first, err := runner.Execute(ctx, tetrahedron(), frontViews(t, 2), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheInfo.DataCostHit {
		t.Error("first run hit a cold cache")
	}

	second, err := runner.Execute(ctx, tetrahedron(), frontViews(t, 2), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheInfo.DataCostHit {
		t.Error("second run missed the cache")
	}
	for i := range first.Labels {
		if first.Labels[i] != second.Labels[i] {
			t.Fatalf("labels diverge at face %d between cached and fresh run", i)
		}
	}

	// Refresh bypasses the cache read.
	third, err := runner.Execute(ctx, tetrahedron(), frontViews(t, 2), Options{Refresh: true})
	if err != nil {
		t.Fatal(err)
	}
	if third.CacheInfo.DataCostHit {
		t.Error("refresh run read from cache")
	}
}

func TestExecuteDebugModel(t *testing.T) {
	ctx := context.Background()
	runner := NewRunner(nil, nil, nil)
	defer runner.Close()

	result, err := runner.Execute(ctx, tetrahedron(), frontViews(t, 2), Options{
		LabelingFile:    writeLabeling(t, "1\n1\n2\n2\n"),
		BuildDebugModel: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.DebugModel == nil {
		t.Fatal("debug model not built")
	}
	if result.DebugModel.NumTriangles() != result.Model.NumTriangles() {
		t.Errorf("debug model has %d triangles, primary %d",
			result.DebugModel.NumTriangles(), result.Model.NumTriangles())
	}
	// The debug texture is flat per-view color, distinct from the source
	// rasters; the primary texture must be untouched by the raster swap.
	if &result.Model.Texture[0] == &result.DebugModel.Texture[0] {
		t.Error("primary and debug model share a texture buffer")
	}
}

func TestExecuteEmptyInputs(t *testing.T) {
	ctx := context.Background()
	runner := NewRunner(nil, nil, nil)
	defer runner.Close()

	if _, err := runner.Execute(ctx, &geom.Mesh{}, frontViews(t, 1), Options{}); !errors.Is(err, errors.ErrCodeConfig) {
		t.Errorf("empty mesh gave %v", err)
	}
	if _, err := runner.Execute(ctx, tetrahedron(), nil, Options{}); !errors.Is(err, errors.ErrCodeConfig) {
		t.Errorf("no views gave %v", err)
	}
}

func TestExecuteGlobalAndLocalLeveling(t *testing.T) {
	ctx := context.Background()
	runner := NewRunner(nil, nil, nil)
	defer runner.Close()

	for _, opts := range []Options{
		{LabelingFile: writeLabeling(t, "1\n1\n2\n2\n"), GlobalSeamLeveling: true},
		{LabelingFile: writeLabeling(t, "1\n1\n2\n2\n"), LocalSeamLeveling: true},
		{LabelingFile: writeLabeling(t, "1\n1\n2\n2\n"), GlobalSeamLeveling: true, LocalSeamLeveling: true},
	} {
		result, err := runner.Execute(ctx, tetrahedron(), frontViews(t, 2), opts)
		if err != nil {
			t.Fatalf("Execute(%+v): %v", opts, err)
		}
		if result.Model.NumTriangles() != 4 {
			t.Errorf("leveling run produced %d triangles", result.Model.NumTriangles())
		}
	}
}
