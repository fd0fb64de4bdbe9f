package engine

import (
	"github.com/spectralkit/pencilfft/kernel"
	"golang.org/x/sync/errgroup"
)

// computeKind names the plan entry point an axis phase calls.
type computeKind uint8

const (
	opR2C computeKind = iota
	opC2C
	opR2R
)

// runPlans executes one axis phase across all ranks that own data. Each
// rank's plan is an independent handle with its own scratch, so the
// fan-out is race-free. Unbuilt axis slots (nil plans) are skipped.
func runPlans(pairs []kernel.PlanPair, op computeKind, dir kernel.Direction) error {
	var g errgroup.Group
	for i := range pairs {
		p := pairs[i].Fwd
		if dir == kernel.Backward {
			p = pairs[i].Bwd
		}
		if p == nil {
			continue
		}
		g.Go(func() error {
			switch op {
			case opR2C:
				return p.R2C(dir)
			case opC2C:
				return p.C2C(dir)
			default:
				return p.R2R(dir)
			}
		})
	}
	return g.Wait()
}

// pairFor distributes a single bidirectional handle into the slots the
// engine's direction restriction asks for.
func pairFor(p *kernel.Plan, info Info) kernel.PlanPair {
	var pp kernel.PlanPair
	if info.wantFwd() {
		pp.Fwd = p
	}
	if info.wantBwd() {
		pp.Bwd = p
	}
	return pp
}

// destroyPairs releases every per-rank plan pair exactly once.
func destroyPairs(pairs []kernel.PlanPair) {
	for i := range pairs {
		pairs[i].Destroy()
	}
}
