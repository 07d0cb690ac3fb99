package cli

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
)

// fileConfig mirrors the run command's flags for TOML config files. Values
// from the file act as defaults; flags given explicitly on the command line
// win.
type fileConfig struct {
	DataCostFile            string  `toml:"data_cost_file"`
	LabelingFile            string  `toml:"labeling_file"`
	SmoothnessWeight        float64 `toml:"smoothness_weight"`
	SkipGlobalSeamLeveling  bool    `toml:"skip_global_seam_leveling"`
	SkipLocalSeamLeveling   bool    `toml:"skip_local_seam_leveling"`
	WriteIntermediates      bool    `toml:"write_intermediates"`
	WriteTimings            bool    `toml:"write_timings"`
	WriteViewSelectionModel bool    `toml:"write_view_selection_model"`
	WriteGraph              bool    `toml:"write_graph"`
	NoCache                 bool    `toml:"no_cache"`
}

// loadFileConfig decodes a TOML config file, rejecting unknown keys so
// typos surface immediately.
func loadFileConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if undec := meta.Undecoded(); len(undec) > 0 {
		return cfg, fmt.Errorf("config %s: unknown key %q", path, undec[0].String())
	}
	return cfg, nil
}

// applyFileConfig copies config values onto the run flags that the user did
// not set explicitly.
func (cfg fileConfig) apply(cmd *cobra.Command, p *runParams) {
	set := cmd.Flags().Changed
	if !set("data-cost-file") && cfg.DataCostFile != "" {
		p.dataCostFile = cfg.DataCostFile
	}
	if !set("labeling-file") && cfg.LabelingFile != "" {
		p.labelingFile = cfg.LabelingFile
	}
	if !set("smoothness-weight") && cfg.SmoothnessWeight != 0 {
		p.smoothnessWeight = cfg.SmoothnessWeight
	}
	if !set("skip-global-seam-leveling") {
		p.skipGlobalLeveling = cfg.SkipGlobalSeamLeveling
	}
	if !set("skip-local-seam-leveling") {
		p.skipLocalLeveling = cfg.SkipLocalSeamLeveling
	}
	if !set("write-intermediates") {
		p.writeIntermediates = cfg.WriteIntermediates
	}
	if !set("write-timings") {
		p.writeTimings = cfg.WriteTimings
	}
	if !set("write-view-selection-model") {
		p.writeViewSelection = cfg.WriteViewSelectionModel
	}
	if !set("write-graph") {
		p.writeGraph = cfg.WriteGraph
	}
	if !set("no-cache") {
		p.noCache = cfg.NoCache
	}
}
