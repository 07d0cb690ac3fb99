package texturing

import (
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// ComputeValidityMasks runs the per-patch validity pass in parallel: every
// patch gets a zero adjustment vector of length 3 times its face count, so
// AdjustColors only establishes the validity mask. This is the path taken
// when global seam leveling is disabled.
//
// Patches are distributed dynamically over GOMAXPROCS workers; each worker
// owns a patch exclusively for the duration of its computation and patches
// share no state, so the pass needs no locking. The only shared mutable
// state is the completed-patch counter feeding onProgress; its value is
// advisory and never drives control flow. Results are independent of
// scheduling order.
func ComputeValidityMasks(patches []*TexturePatch, onProgress func(done, total int)) error {
	if len(patches) == 0 {
		return nil
	}

	// The queue is pre-filled so a failing worker can never strand the
	// producer on a blocked send.
	work := make(chan *TexturePatch, len(patches))
	for _, p := range patches {
		work <- p
	}
	close(work)

	var completed atomic.Int64

	var g errgroup.Group
	for w := 0; w < runtime.GOMAXPROCS(0); w++ {
		g.Go(func() error {
			for p := range work {
				adjust := make([]Color, 3*len(p.Faces))
				if err := p.AdjustColors(adjust); err != nil {
					return err
				}
				n := completed.Add(1)
				if onProgress != nil {
					onProgress(int(n), len(patches))
				}
			}
			return nil
		})
	}
	return g.Wait()
}
