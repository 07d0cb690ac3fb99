package texturing

import (
	"github.com/chewxy/math32"

	"github.com/voxelforge/texrecon/pkg/facegraph"
)

// Optimizer assigns a view label to every graph node, minimizing total data
// cost plus a pairwise smoothness penalty between adjacent faces. It mutates
// labels in place and has no failure mode beyond running to completion.
//
// The bundled implementation is ICM; callers with stronger solvers can
// inject their own.
type Optimizer interface {
	Optimize(g *facegraph.Graph, costs *DataCosts)
}

// ICM is an iterated-conditional-modes optimizer over the Potts model:
// starting from the per-face minimum-cost assignment, it sweeps the graph
// repeatedly and moves each node to the label minimizing its data cost plus
// SmoothnessWeight per disagreeing neighbor, until a sweep changes nothing
// or MaxSweeps is reached. Deterministic for a given input.
type ICM struct {
	// SmoothnessWeight is the penalty per adjacent face pair with
	// different labels. Zero selects DefaultSmoothnessWeight.
	SmoothnessWeight float32

	// MaxSweeps bounds the number of full passes. Zero selects
	// DefaultMaxSweeps.
	MaxSweeps int
}

const (
	// DefaultSmoothnessWeight balances seam count against projection
	// quality for the cost scale produced by CalculateDataCosts.
	DefaultSmoothnessWeight = 0.1

	// DefaultMaxSweeps is enough for the assignment to settle on typical
	// scan meshes; ICM converges fast or not at all.
	DefaultMaxSweeps = 10

	// backgroundCost is the data cost of leaving a face unlabeled. High
	// enough that any candidate view wins, low enough to stay finite.
	backgroundCost = 2.0
)

// Optimize implements Optimizer.
func (o *ICM) Optimize(g *facegraph.Graph, costs *DataCosts) {
	weight := o.SmoothnessWeight
	if weight == 0 {
		weight = DefaultSmoothnessWeight
	}
	sweeps := o.MaxSweeps
	if sweeps == 0 {
		sweeps = DefaultMaxSweeps
	}

	// Initial assignment: per-face minimum data cost, background where no
	// view is a candidate.
	for i := 0; i < g.NumNodes(); i++ {
		best, bestCost := 0, float32(math32.MaxFloat32)
		for _, e := range costs.Row(i) {
			if e.Cost < bestCost {
				best, bestCost = int(e.View)+1, e.Cost
			}
		}
		g.SetLabel(i, best)
	}

	for s := 0; s < sweeps; s++ {
		changed := false
		for i := 0; i < g.NumNodes(); i++ {
			best := g.Label(i)
			bestEnergy := o.energy(g, costs, i, best, weight)
			// Candidate labels: background plus every view with a cost entry.
			if e := o.energy(g, costs, i, 0, weight); e < bestEnergy {
				best, bestEnergy = 0, e
			}
			for _, e := range costs.Row(i) {
				l := int(e.View) + 1
				if en := o.energy(g, costs, i, l, weight); en < bestEnergy {
					best, bestEnergy = l, en
				}
			}
			if best != g.Label(i) {
				g.SetLabel(i, best)
				changed = true
			}
		}
		if !changed {
			break
		}
	}
}

// energy is the local Potts energy of assigning label l to node i.
func (o *ICM) energy(g *facegraph.Graph, costs *DataCosts, i, l int, weight float32) float32 {
	e := float32(backgroundCost)
	if l > 0 {
		e = math32.MaxFloat32
		for _, c := range costs.Row(i) {
			if int(c.View)+1 == l {
				e = c.Cost
				break
			}
		}
	}
	for _, n := range g.Adjacent(i) {
		if g.Label(n) != l {
			e += weight
		}
	}
	return e
}
