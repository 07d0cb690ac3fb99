package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/voxelforge/texrecon/pkg/errors"
	"github.com/voxelforge/texrecon/pkg/export"
	"github.com/voxelforge/texrecon/pkg/geom"
	"github.com/voxelforge/texrecon/pkg/observability"
	"github.com/voxelforge/texrecon/pkg/pipeline"
	"github.com/voxelforge/texrecon/pkg/texturing"
	"github.com/voxelforge/texrecon/pkg/view"
)

// runParams collects the run command's flag values.
type runParams struct {
	meshPath  string
	sceneDir  string
	outPrefix string

	dataCostFile     string
	labelingFile     string
	smoothnessWeight float64

	skipGlobalLeveling bool
	skipLocalLeveling  bool

	writeIntermediates bool
	writeTimings       bool
	writeViewSelection bool
	writeGraph         bool

	noCache bool
	refresh bool
}

// runCommand creates the run command, the main texturing entry point.
func (c *CLI) runCommand() *cobra.Command {
	var p runParams
	var configPath string

	cmd := &cobra.Command{
		Use:   "run IN_MESH IN_SCENE OUT_PREFIX",
		Short: "Texture a mesh from a directory of calibrated photographs",
		Long: `Texture a mesh from a directory of calibrated photographs.

IN_MESH is a triangle mesh in ASCII PLY format. IN_SCENE is a directory of
images, each accompanied by a .cam calibration sidecar of the same basename.
OUT_PREFIX names the output files: <prefix>.obj, <prefix>.mtl and the PNG
texture atlas are written next to each other, so the prefix's directory must
already exist.

View selection assigns every face to the photograph that sees it best; pass
--labeling-file to skip selection and label faces from a precomputed vector
instead. Data costs for large scenes are cached under the user cache
directory between runs (see 'texrecon cache').`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			p.meshPath, p.sceneDir, p.outPrefix = args[0], args[1], args[2]
			if configPath != "" {
				cfg, err := loadFileConfig(configPath)
				if err != nil {
					return err
				}
				cfg.apply(cmd, &p)
			}
			return c.runReconstruction(cmd.Context(), p)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "TOML config file providing flag defaults")
	cmd.Flags().StringVar(&p.dataCostFile, "data-cost-file", "", "precomputed data-cost file (skips cost computation)")
	cmd.Flags().StringVar(&p.labelingFile, "labeling-file", "", "precomputed labeling vector (skips view selection)")
	cmd.Flags().Float64Var(&p.smoothnessWeight, "smoothness-weight", 0, "view-selection smoothness term weight")
	cmd.Flags().BoolVar(&p.skipGlobalLeveling, "skip-global-seam-leveling", false, "disable global color leveling across patch seams")
	cmd.Flags().BoolVar(&p.skipLocalLeveling, "skip-local-seam-leveling", false, "disable local seam blurring")
	cmd.Flags().BoolVar(&p.writeIntermediates, "write-intermediates", false, "write labeling vector and data-cost intermediates")
	cmd.Flags().BoolVar(&p.writeTimings, "write-timings", false, "write per-stage timings CSV")
	cmd.Flags().BoolVar(&p.writeViewSelection, "write-view-selection-model", false, "write a debug model colored by selected view")
	cmd.Flags().BoolVar(&p.writeGraph, "write-graph", false, "write the labeled face adjacency graph as SVG")
	cmd.Flags().BoolVar(&p.noCache, "no-cache", false, "disable the data-cost cache")
	cmd.Flags().BoolVar(&p.refresh, "refresh", false, "recompute data costs even when cached")

	return cmd
}

// runReconstruction loads the scene, executes the pipeline and writes all
// requested outputs.
func (c *CLI) runReconstruction(ctx context.Context, p runParams) error {
	outDir := filepath.Dir(p.outPrefix)
	if info, err := os.Stat(outDir); err != nil || !info.IsDir() {
		return errors.New(errors.ErrCodeConfig, "destination directory %s does not exist", outDir)
	}
	base := filepath.Base(p.outPrefix)

	// Load inputs before any pipeline work.
	spinner := newSpinnerWithContext(ctx, "Loading scene...")
	spinner.Start()
	loadStart := time.Now()
	observability.Pipeline().OnLoadStart(ctx, p.meshPath, p.sceneDir)

	mesh, err := geom.LoadPLY(p.meshPath)
	if err != nil {
		err = errors.Wrap(errors.ErrCodeLoad, err, "load mesh %s", p.meshPath)
		observability.Pipeline().OnLoadComplete(ctx, 0, 0, time.Since(loadStart), err)
		spinner.StopWithError("Could not load mesh")
		return err
	}
	mesh.PrepareNormals()

	views, err := view.LoadScene(p.sceneDir)
	if err != nil {
		err = errors.Wrap(errors.ErrCodeLoad, err, "load scene %s", p.sceneDir)
		observability.Pipeline().OnLoadComplete(ctx, mesh.NumFaces(), 0, time.Since(loadStart), err)
		spinner.StopWithError("Could not load views")
		return err
	}
	observability.Pipeline().OnLoadComplete(ctx, mesh.NumFaces(), len(views), time.Since(loadStart), nil)
	spinner.StopWithSuccess(fmt.Sprintf("Loaded %d faces, %d views", mesh.NumFaces(), len(views)))

	runner, err := c.newRunner(p.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts := pipeline.Options{
		LabelingFile:       p.labelingFile,
		DataCostFile:       p.dataCostFile,
		SmoothnessWeight:   p.smoothnessWeight,
		GlobalSeamLeveling: !p.skipGlobalLeveling,
		LocalSeamLeveling:  !p.skipLocalLeveling,
		BuildDebugModel:    p.writeViewSelection,
		Refresh:            p.refresh,
		Logger:             c.Logger,
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	spinner = newSpinnerWithContext(ctx, "Texturing mesh...")
	spinner.Start()
	result, err := runner.Execute(ctx, mesh, views, opts)
	if err != nil {
		spinner.StopWithError("Texturing failed")
		return err
	}
	spinner.Stop()

	if err := c.writeOutputs(ctx, p, opts, result, outDir, base); err != nil {
		return err
	}

	printSuccess("Textured %s", p.meshPath)
	printStats(result.Stats.FaceCount, result.Stats.ViewCount, result.Stats.PatchCount, result.CacheInfo.DataCostHit)
	return nil
}

// writeOutputs serializes the model and every requested side artifact. All
// write failures carry the FILESYSTEM error code.
func (c *CLI) writeOutputs(ctx context.Context, p runParams, opts pipeline.Options, result *pipeline.Result, outDir, base string) error {
	if err := export.ExportModel(result.Model, outDir, base); err != nil {
		return errors.Wrap(errors.ErrCodeFilesystem, err, "write model %s", p.outPrefix)
	}
	printFile(p.outPrefix + ".obj")
	printFile(p.outPrefix + ".mtl")

	if err := c.writeConf(p, opts, result); err != nil {
		return err
	}
	printFile(p.outPrefix + ".conf")

	if p.writeIntermediates {
		if p.labelingFile == "" {
			path := p.outPrefix + "_labeling.vec"
			if err := texturing.SaveLabelingVector(result.Labels, path); err != nil {
				return errors.Wrap(errors.ErrCodeFilesystem, err, "write labeling")
			}
			printFile(path)
		}
		if result.DataCosts != nil {
			path := p.outPrefix + "_data_costs.bin"
			if err := texturing.SaveDataCosts(result.DataCosts, path); err != nil {
				return errors.Wrap(errors.ErrCodeFilesystem, err, "write data costs")
			}
			printFile(path)
		}
	}

	if p.writeTimings {
		path := p.outPrefix + "_timings.csv"
		if err := export.ExportTimingsCSV(result.Stats.Timings, path); err != nil {
			return errors.Wrap(errors.ErrCodeFilesystem, err, "write timings")
		}
		printFile(path)
	}

	if result.DebugModel != nil {
		if err := export.ExportModel(result.DebugModel, outDir, base+"_view_selection"); err != nil {
			return errors.Wrap(errors.ErrCodeFilesystem, err, "write view-selection model")
		}
		printFile(p.outPrefix + "_view_selection.obj")
	}

	if p.writeGraph {
		svg, err := result.Graph.RenderSVG(ctx)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "render adjacency graph")
		}
		path := p.outPrefix + "_graph.svg"
		if err := os.WriteFile(path, svg, 0644); err != nil {
			return errors.Wrap(errors.ErrCodeFilesystem, err, "write graph")
		}
		printFile(path)
	}

	return nil
}

// runEcho is the TOML shape of the settings echo file written next to every
// run's outputs.
type runEcho struct {
	Mesh  string `toml:"mesh"`
	Scene string `toml:"scene"`
	RunID string `toml:"run_id"`

	DataCostFile       string  `toml:"data_cost_file,omitempty"`
	LabelingFile       string  `toml:"labeling_file,omitempty"`
	SmoothnessWeight   float64 `toml:"smoothness_weight"`
	GlobalSeamLeveling bool    `toml:"global_seam_leveling"`
	LocalSeamLeveling  bool    `toml:"local_seam_leveling"`
}

// writeConf records the effective settings of the run as TOML so a result
// can always be traced back to its inputs.
func (c *CLI) writeConf(p runParams, opts pipeline.Options, result *pipeline.Result) error {
	f, err := os.Create(p.outPrefix + ".conf")
	if err != nil {
		return errors.Wrap(errors.ErrCodeFilesystem, err, "write conf")
	}
	defer f.Close()

	echo := runEcho{
		Mesh:               p.meshPath,
		Scene:              p.sceneDir,
		RunID:              result.RunID,
		DataCostFile:       opts.DataCostFile,
		LabelingFile:       opts.LabelingFile,
		SmoothnessWeight:   opts.SmoothnessWeight,
		GlobalSeamLeveling: opts.GlobalSeamLeveling,
		LocalSeamLeveling:  opts.LocalSeamLeveling,
	}
	if err := toml.NewEncoder(f).Encode(echo); err != nil {
		return errors.Wrap(errors.ErrCodeFilesystem, err, "encode conf")
	}
	return nil
}
