// Package pipeline provides the core texture reconstruction pipeline.
//
// This package implements the complete load → label → patch → atlas →
// consolidate pipeline shared by the CLI and the in-process library surface.
// By centralizing this logic, we ensure consistent behavior across all entry
// points and avoid code duplication.
//
// # Architecture
//
// The pipeline consists of these stages:
//
//  1. Adjacency: build the face adjacency graph from the mesh
//  2. Labeling: compute data costs and run view selection, or apply a
//     user-supplied labeling vector
//  3. Patches: grow one texture patch per connected same-label component
//  4. Leveling: global seam leveling, or the parallel validity pass when
//     leveling is disabled; optionally local seam leveling on top
//  5. Atlases: pack patches into texture atlases
//  6. Model: consolidate the first atlas and the mesh into one output model
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{GlobalSeamLeveling: true}
//	result, err := runner.Execute(ctx, mesh, views, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	model := result.Model
package pipeline

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/voxelforge/texrecon/pkg/errors"
	"github.com/voxelforge/texrecon/pkg/export"
	"github.com/voxelforge/texrecon/pkg/facegraph"
	"github.com/voxelforge/texrecon/pkg/texturing"
)

// Stage name constants used in hooks, logs and timing reports.
const (
	StageAdjacency     = "adjacency"
	StageDataCosts     = "data_costs"
	StageViewSelection = "view_selection"
	StageLabeling      = "labeling"
	StagePatches       = "patches"
	StageLeveling      = "leveling"
	StageAtlases       = "atlases"
	StageModel         = "model"
	StageDebugModel    = "debug_model"
)

// Options contains all configuration for the texturing pipeline.
// This struct supports JSON serialization for embedding in run reports.
type Options struct {
	// Labeling options. When LabelingFile is set, data costs and view
	// selection are skipped entirely and the file contents label the graph.
	LabelingFile     string  `json:"labeling_file,omitempty"`
	DataCostFile     string  `json:"data_cost_file,omitempty"`
	SmoothnessWeight float64 `json:"smoothness_weight,omitempty"`

	// Seam handling. Global leveling and the parallel validity pass are
	// mutually exclusive; local leveling can run after either.
	GlobalSeamLeveling bool `json:"global_seam_leveling,omitempty"`
	LocalSeamLeveling  bool `json:"local_seam_leveling,omitempty"`

	// BuildDebugModel regenerates atlases from flat per-view debug colors
	// and consolidates them into Result.DebugModel after the primary model
	// is complete.
	BuildDebugModel bool `json:"build_debug_model,omitempty"`

	// Refresh bypasses the data-cost cache (read side; results are still
	// written back).
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger    *log.Logger         `json:"-"`
	Optimizer texturing.Optimizer `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID uniquely identifies this execution.
	RunID string

	// Graph is the labeled face adjacency graph.
	Graph *facegraph.Graph

	// Labels is the final per-face label vector (0 = background).
	Labels []int

	// DataCosts holds the cost matrix when it was computed or loaded on
	// this run; nil on the labeling-override path.
	DataCosts *texturing.DataCosts

	// Model is the consolidated output model.
	Model *texturing.Model

	// DebugModel is the view-selection debug model, set only when
	// Options.BuildDebugModel was enabled.
	DebugModel *texturing.Model

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	FaceCount  int
	ViewCount  int
	PatchCount int
	AtlasCount int

	// Timings holds one entry per executed stage, in execution order.
	Timings []export.Timing
}

// CacheInfo tracks cache hits for cached pipeline stages.
type CacheInfo struct {
	DataCostHit bool // Whether the data-cost matrix came from cache
}

// ValidateAndSetDefaults checks option consistency and applies defaults.
// This method is idempotent - calling it multiple times has the same effect
// as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.LabelingFile != "" && o.DataCostFile != "" {
		return errors.New(errors.ErrCodeConfig,
			"labeling file and data-cost file are mutually exclusive")
	}
	if o.SmoothnessWeight < 0 {
		return errors.New(errors.ErrCodeConfig,
			"smoothness weight must be non-negative, got %g", o.SmoothnessWeight)
	}
	if o.SmoothnessWeight == 0 {
		o.SmoothnessWeight = texturing.DefaultSmoothnessWeight
	}
	if o.Optimizer == nil {
		o.Optimizer = &texturing.ICM{SmoothnessWeight: float32(o.SmoothnessWeight)}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}
