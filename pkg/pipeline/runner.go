package pipeline

import (
	"bytes"
	"context"
	"encoding/binary"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/voxelforge/texrecon/pkg/cache"
	"github.com/voxelforge/texrecon/pkg/errors"
	"github.com/voxelforge/texrecon/pkg/export"
	"github.com/voxelforge/texrecon/pkg/facegraph"
	"github.com/voxelforge/texrecon/pkg/geom"
	"github.com/voxelforge/texrecon/pkg/observability"
	"github.com/voxelforge/texrecon/pkg/texturing"
	"github.com/voxelforge/texrecon/pkg/view"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and library surface use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete labeling → patches → atlases → model pipeline.
//
// The mesh must carry per-vertex normals (see geom.Mesh.PrepareNormals). Any
// precondition or stage failure aborts the run; nothing is written to disk
// by Execute itself, so a failed run leaves no partial outputs.
//
// When opts.BuildDebugModel is set, the view rasters are replaced by flat
// per-view debug colors after the primary model is complete and a second
// model is consolidated from them.
func (r *Runner) Execute(ctx context.Context, mesh *geom.Mesh, views []*view.TextureView, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	if mesh == nil || mesh.NumFaces() == 0 {
		return nil, errors.New(errors.ErrCodeConfig, "mesh is empty")
	}
	if len(views) == 0 {
		return nil, errors.New(errors.ErrCodeConfig, "no texture views")
	}

	result := &Result{RunID: uuid.NewString()}
	result.Stats.FaceCount = mesh.NumFaces()
	result.Stats.ViewCount = len(views)

	// Stage 1: Adjacency
	var graph *facegraph.Graph
	err := r.timed(ctx, result, StageAdjacency, func() error {
		graph = facegraph.BuildAdjacency(mesh, geom.NewInfo(mesh))
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.Graph = graph
	opts.Logger.Info("built face adjacency",
		"faces", graph.NumNodes(),
		"edges", graph.NumEdges())

	// Stage 2: Labeling - either the user-supplied vector or view selection.
	if opts.LabelingFile != "" {
		err = r.timed(ctx, result, StageLabeling, func() error {
			labels, lerr := texturing.LoadLabelingVector(opts.LabelingFile)
			if lerr != nil {
				return errors.Wrap(errors.ErrCodeLoad, lerr, "load labeling %s", opts.LabelingFile)
			}
			return texturing.ApplyLabeling(graph, len(views), labels)
		})
		if err != nil {
			return nil, err
		}
		opts.Logger.Info("applied labeling override", "file", opts.LabelingFile)
	} else {
		costs, hit, cerr := r.ComputeDataCostsWithCacheInfo(ctx, mesh, views, opts, result)
		if cerr != nil {
			return nil, cerr
		}
		result.DataCosts = costs
		result.CacheInfo.DataCostHit = hit

		err = r.timed(ctx, result, StageViewSelection, func() error {
			opts.Optimizer.Optimize(graph, costs)
			return nil
		})
		if err != nil {
			return nil, err
		}
		opts.Logger.Info("selected views",
			"smoothness", opts.SmoothnessWeight,
			"cache_hit", hit)
	}
	result.Labels = graph.Labels()

	// Stage 3: Patches
	var patches []*texturing.TexturePatch
	err = r.timed(ctx, result, StagePatches, func() error {
		var perr error
		patches, perr = texturing.GeneratePatches(graph, mesh, views)
		return perr
	})
	if err != nil {
		return nil, err
	}
	result.Stats.PatchCount = len(patches)
	opts.Logger.Info("generated patches", "patches", len(patches))

	// Stage 4: Leveling, or the plain validity pass when leveling is off.
	err = r.timed(ctx, result, StageLeveling, func() error {
		if opts.GlobalSeamLeveling {
			if lerr := texturing.GlobalSeamLeveling(mesh, patches); lerr != nil {
				return lerr
			}
		} else {
			onProgress := func(done, total int) {
				observability.Pipeline().OnProgress(ctx, StageLeveling, done, total)
			}
			if lerr := texturing.ComputeValidityMasks(patches, onProgress); lerr != nil {
				return lerr
			}
		}
		if opts.LocalSeamLeveling {
			texturing.LocalSeamLeveling(patches)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Stage 5: Atlases
	var atlases []*texturing.TextureAtlas
	err = r.timed(ctx, result, StageAtlases, func() error {
		atlases = texturing.GenerateAtlases(patches)
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.Stats.AtlasCount = len(atlases)
	opts.Logger.Info("packed atlases", "atlases", len(atlases))

	// Stage 6: Model
	err = r.timed(ctx, result, StageModel, func() error {
		result.Model = texturing.BuildModel(mesh, atlases)
		return nil
	})
	if err != nil {
		return nil, err
	}
	opts.Logger.Info("consolidated model",
		"vertices", result.Model.NumVertices(),
		"triangles", result.Model.NumTriangles())

	// Optional debug pass: flat per-view colors through the same patch,
	// atlas and consolidation stages. Runs last so the primary model is
	// untouched by the raster swap.
	if opts.BuildDebugModel {
		err = r.timed(ctx, result, StageDebugModel, func() error {
			view.ApplyDebugEmbeddings(views)
			debugPatches, derr := texturing.GeneratePatches(graph, mesh, views)
			if derr != nil {
				return derr
			}
			result.DebugModel = texturing.BuildModel(mesh, texturing.GenerateAtlases(debugPatches))
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return result, nil
}

// ComputeDataCostsWithCacheInfo resolves the data-cost matrix and reports
// whether it came from cache. Resolution order: explicit cost file, cache,
// fresh computation (which is then written back to the cache).
func (r *Runner) ComputeDataCostsWithCacheInfo(ctx context.Context, mesh *geom.Mesh, views []*view.TextureView, opts Options, result *Result) (*texturing.DataCosts, bool, error) {
	r.applyLogger(&opts)

	if opts.DataCostFile != "" {
		var costs *texturing.DataCosts
		err := r.timed(ctx, result, StageDataCosts, func() error {
			d, lerr := texturing.LoadDataCosts(opts.DataCostFile, mesh.NumFaces(), len(views))
			if lerr != nil {
				return errors.Wrap(errors.ErrCodeLoad, lerr, "load data costs %s", opts.DataCostFile)
			}
			costs = d
			return nil
		})
		return costs, false, err
	}

	key := r.Keyer.DataCostKey(hashMesh(mesh), hashViews(views), cache.DataCostKeyOpts{
		NumFaces: mesh.NumFaces(),
		NumViews: len(views),
	})

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			if d, derr := texturing.ReadDataCosts(bytes.NewReader(data), mesh.NumFaces(), len(views)); derr == nil {
				observability.Cache().OnCacheHit(ctx, "datacost")
				result.Stats.Timings = append(result.Stats.Timings, export.Timing{Stage: StageDataCosts})
				return d, true, nil
			}
			// Corrupt entry - recompute.
			_ = r.Cache.Delete(ctx, key)
		}
		observability.Cache().OnCacheMiss(ctx, "datacost")
	}

	var costs *texturing.DataCosts
	err := r.timed(ctx, result, StageDataCosts, func() error {
		costs = texturing.CalculateDataCosts(mesh, views)
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	var buf bytes.Buffer
	if werr := costs.WriteTo(&buf); werr == nil {
		if serr := r.Cache.Set(ctx, key, buf.Bytes(), cache.TTLDataCosts); serr == nil {
			observability.Cache().OnCacheSet(ctx, "datacost", buf.Len())
		}
	}

	return costs, false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// timed runs one stage with hook events, recording its wall time on the
// result.
func (r *Runner) timed(ctx context.Context, result *Result, stage string, fn func() error) error {
	observability.Pipeline().OnStageStart(ctx, stage)
	start := time.Now()
	err := fn()
	d := time.Since(start)
	result.Stats.Timings = append(result.Stats.Timings, export.Timing{Stage: stage, Duration: d})
	observability.Pipeline().OnStageComplete(ctx, stage, d, err)
	return err
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// hashMesh derives a content hash over vertex positions and face indices.
func hashMesh(m *geom.Mesh) string {
	var buf bytes.Buffer
	for _, v := range m.Vertices {
		binary.Write(&buf, binary.LittleEndian, v.X)
		binary.Write(&buf, binary.LittleEndian, v.Y)
		binary.Write(&buf, binary.LittleEndian, v.Z)
	}
	for _, f := range m.Faces {
		binary.Write(&buf, binary.LittleEndian, int64(f))
	}
	return cache.Hash(buf.Bytes())
}

// hashViews derives a content hash over view rasters and calibrations.
func hashViews(views []*view.TextureView) string {
	var buf bytes.Buffer
	for _, v := range views {
		binary.Write(&buf, binary.LittleEndian, int64(v.Width))
		binary.Write(&buf, binary.LittleEndian, int64(v.Height))
		binary.Write(&buf, binary.LittleEndian, v.Camera.R)
		binary.Write(&buf, binary.LittleEndian, v.Camera.T)
		binary.Write(&buf, binary.LittleEndian, v.Camera.F)
		binary.Write(&buf, binary.LittleEndian, v.Camera.PX)
		binary.Write(&buf, binary.LittleEndian, v.Camera.PY)
		buf.Write(v.Pixels)
	}
	return cache.Hash(buf.Bytes())
}
