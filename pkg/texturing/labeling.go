package texturing

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/voxelforge/texrecon/pkg/errors"
	"github.com/voxelforge/texrecon/pkg/facegraph"
)

// ApplyLabeling validates a precomputed label vector against the graph and,
// on success, copies it one-to-one into the graph nodes. On failure the
// graph is left untouched and a LABELING_MISMATCH error is returned.
//
// A vector is valid iff its length equals the node count and every entry is
// <= numViews. Note the bound: a label equal to numViews passes even though
// view indices are 0-based and numViews denotes a non-existent view. This
// reproduces the long-standing boundary check of the original pipeline
// (`label > views` rather than `>=`); tightening it would reject labeling
// files the original accepts, so it stays lax on purpose.
func ApplyLabeling(g *facegraph.Graph, numViews int, labels []int) error {
	if len(labels) != g.NumNodes() {
		return errors.New(errors.ErrCodeLabelingMismatch,
			"labeling has %d entries for a graph of %d faces", len(labels), g.NumNodes())
	}
	for i, l := range labels {
		if l > numViews {
			return errors.New(errors.ErrCodeLabelingMismatch,
				"label %d at face %d exceeds view count %d", l, i, numViews)
		}
	}
	for i, l := range labels {
		g.SetLabel(i, l)
	}
	return nil
}

// ReadLabelingVector parses a labeling vector: one non-negative decimal
// label per line, blank lines and #-comments skipped.
func ReadLabelingVector(r io.Reader) ([]int, error) {
	var labels []int
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		v, err := strconv.ParseUint(text, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("line %d: %q is not a label: %w", line, text, err)
		}
		labels = append(labels, int(v))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return labels, nil
}

// LoadLabelingVector reads a labeling vector from path.
func LoadLabelingVector(path string) ([]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	labels, err := ReadLabelingVector(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return labels, nil
}

// SaveLabelingVector writes one label per line to path.
func SaveLabelingVector(labels []int, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	for _, l := range labels {
		fmt.Fprintln(w, l)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
