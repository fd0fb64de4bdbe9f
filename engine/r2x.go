package engine

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spectralkit/pencilfft/grid"
	"github.com/spectralkit/pencilfft/kernel"
	"github.com/spectralkit/pencilfft/mem"
	"github.com/spectralkit/pencilfft/redist"
)

// SpectralOp is the post-forward callback of an R2X round trip. The
// transformed data is real or complex depending on the boundary
// conditions, so the callback handles both; indices arrive in canonical
// (x,y,z) order. Exactly one of the two methods fires per cell.
type SpectralOp interface {
	ModifyReal(i, j, k int, v *float64)
	ModifyCmplx(i, j, k int, v *complex128)
}

// R2X is the generalised transform engine with independent per-axis
// boundary conditions. A periodic axis runs r2c on real data or c2c on
// complex data; a non-periodic axis runs the DCT/DST variant selected by
// its endpoint pair, on real data or componentwise on complex data.
//
// Four execution paths exist, keyed by where the pipeline first turns
// complex:
//
//	(1) x periodic:              rx -r2c-> cx -> cy -c2c-> ... -> cz
//	(2) x r2r, y periodic:       rx -> ry -r2c-> cy -> cz
//	(3) x,y r2r, z periodic:     rx -> ry -> rz -r2c-> cz
//	(4) all r2r:                 rx -> ry -> rz
//
// Working arrays with disjoint live ranges alias pairwise onto two arena
// buffers; see the construction code for the pairing per path.
type R2X struct {
	info Info
	log  zerolog.Logger

	dom0 grid.Box
	bc   [3]kernel.BoundaryPair

	rx grid.Array[float64]
	ry grid.Array[float64]
	rz grid.Array[float64]
	cx grid.Array[complex128]
	cy grid.Array[complex128]
	cz grid.Array[complex128]

	domRY grid.Box
	domRZ grid.Box
	domCX grid.Box
	domCY grid.Box
	domCZ grid.Box

	share1 *mem.Share
	share2 *mem.Share

	cmdCX2CY *redist.CommMetadata
	cmdCY2CX *redist.CommMetadata
	cmdRX2RY *redist.CommMetadata
	cmdRY2RX *redist.CommMetadata
	cmdCY2CZ *redist.CommMetadata
	cmdCZ2CY *redist.CommMetadata
	cmdRY2RZ *redist.CommMetadata
	cmdRZ2RY *redist.CommMetadata

	fftX []kernel.PlanPair
	fftY []kernel.PlanPair
	fftZ []kernel.PlanPair
	opX  computeKind
	opY  computeKind
	opZ  computeKind
}

// NewR2X builds the engine for a domain and its per-axis boundary pairs.
// The domain must start at the origin with more than one cell along x,
// and a degenerate y axis forces a degenerate z axis. An axis with a
// single cell is not transformed and its boundary pair is ignored.
func NewR2X(domain grid.Box, bc [3]kernel.BoundaryPair, info Info) (*R2X, error) {
	e := &R2X{
		info: info,
		log:  info.logger(),
		dom0: domain,
		bc:   bc,
	}
	n0 := domain.Length(0)
	n1 := domain.Length(1)
	n2 := domain.Length(2)

	if domain.Lo != (grid.IntVect{}) || n0 <= 1 {
		return nil, fmt.Errorf("%w: r2x domain %v must start at the origin with nx > 1",
			grid.ErrInvalidDomain, domain)
	}
	if n1 <= 1 && n2 > 1 {
		return nil, fmt.Errorf("%w: degenerate y with non-degenerate z in %v",
			grid.ErrInvalidDomain, domain.Lengths())
	}
	for d := 0; d < 3; d++ {
		if domain.Length(d) == 1 {
			continue
		}
		if err := bc[d].Validate(); err != nil {
			return nil, fmt.Errorf("axis %d: %w", d, err)
		}
	}

	nranks := info.ranks()

	// x-phase containers
	bax, err := grid.Decompose(domain, nranks, [3]bool{true, false, false})
	if err != nil {
		return nil, err
	}
	dmx := grid.IotaRankMap(len(bax))
	e.rx.Define(bax, dmx, false)
	if bc[0].IsPeriodic() {
		e.domCX = grid.NewBox(grid.IntVect{}, grid.IntVect{n0 / 2, n1 - 1, n2 - 1})
		e.cx.Define(bax.WithBig(0, e.domCX.Hi[0]), dmx, false)
	}

	// y-phase containers, transposed to (y,x,z) storage order
	var dmy grid.RankMap
	if n1 > 1 {
		if !e.cx.Empty() {
			e.domCY = grid.NewBox(grid.IntVect{},
				grid.IntVect{e.domCX.Hi[1], e.domCX.Hi[0], e.domCX.Hi[2]})
			ba, err := grid.Decompose(e.domCY, nranks, [3]bool{true, false, false})
			if err != nil {
				return nil, err
			}
			dmy = reuseOrIota(len(ba), dmx)
			e.cy.Define(ba, dmy, false)
		} else {
			e.domRY = grid.NewBox(grid.IntVect{}, grid.IntVect{n1 - 1, n0 - 1, n2 - 1})
			ba, err := grid.Decompose(e.domRY, nranks, [3]bool{true, false, false})
			if err != nil {
				return nil, err
			}
			dmy = reuseOrIota(len(ba), dmx)
			e.ry.Define(ba, dmy, false)
			if bc[1].IsPeriodic() {
				e.domCY = grid.NewBox(grid.IntVect{}, grid.IntVect{n1 / 2, n0 - 1, n2 - 1})
				e.cy.Define(ba.WithBig(0, e.domCY.Hi[0]), dmy, false)
			}
		}
	}

	// z-phase containers, transposed to (z,x,y) storage order
	if n2 > 1 {
		if !e.cy.Empty() {
			e.domCZ = grid.NewBox(grid.IntVect{},
				grid.IntVect{e.domCY.Hi[2], e.domCY.Hi[1], e.domCY.Hi[0]})
			ba, err := grid.Decompose(e.domCZ, nranks, [3]bool{true, false, false})
			if err != nil {
				return nil, err
			}
			dmz := reuseOrIota(len(ba), dmy)
			e.cz.Define(ba, dmz, false)
		} else {
			e.domRZ = grid.NewBox(grid.IntVect{},
				grid.IntVect{e.domRY.Hi[2], e.domRY.Hi[1], e.domRY.Hi[0]})
			ba, err := grid.Decompose(e.domRZ, nranks, [3]bool{true, false, false})
			if err != nil {
				return nil, err
			}
			dmz := reuseOrIota(len(ba), dmy)
			e.rz.Define(ba, dmz, false)
			if bc[2].IsPeriodic() {
				e.domCZ = grid.NewBox(grid.IntVect{}, grid.IntVect{n2 / 2, n0 - 1, n1 - 1})
				e.cz.Define(ba.WithBig(0, e.domCZ.Hi[0]), dmz, false)
			}
		}
	}

	// Aliased storage per execution path. Each pair's live ranges are
	// disjoint within a single sweep.
	switch {
	case !e.cx.Empty():
		e.share1, err = mem.ShareStorage(&e.rx, &e.cy)
		if err == nil {
			e.share2, err = mem.ShareStorage(&e.cx, &e.cz)
		}
	case !e.cy.Empty():
		e.share1, err = mem.ShareStorage(&e.rx, &e.cy)
		if err == nil {
			e.share2, err = mem.ShareStorage(&e.ry, &e.cz)
		}
	default:
		e.share1, err = mem.ShareStorage(&e.rx, &e.rz)
		if err == nil {
			e.share2, err = mem.ShareStorage(&e.ry, &e.cz)
		}
	}
	if err != nil {
		return nil, err
	}

	// redistribution schedules
	if n1 > 1 {
		if !e.cx.Empty() {
			e.cmdCX2CY = redist.NewCommMetadata(e.cy.Boxes(), e.domCY, e.cx.Boxes(), grid.Swap01{})
			e.cmdCY2CX = redist.NewCommMetadata(e.cx.Boxes(), e.domCX, e.cy.Boxes(), grid.Swap01{})
		} else {
			e.cmdRX2RY = redist.NewCommMetadata(e.ry.Boxes(), e.domRY, e.rx.Boxes(), grid.Swap01{})
			e.cmdRY2RX = redist.NewCommMetadata(e.rx.Boxes(), e.dom0, e.ry.Boxes(), grid.Swap01{})
		}
	}
	if n2 > 1 {
		if !e.cy.Empty() {
			e.cmdCY2CZ = redist.NewCommMetadata(e.cz.Boxes(), e.domCZ, e.cy.Boxes(), grid.Swap02{})
			e.cmdCZ2CY = redist.NewCommMetadata(e.cy.Boxes(), e.domCY, e.cz.Boxes(), grid.Swap02{})
		} else {
			e.cmdRY2RZ = redist.NewCommMetadata(e.rz.Boxes(), e.domRZ, e.ry.Boxes(), grid.Swap02{})
			e.cmdRZ2RY = redist.NewCommMetadata(e.ry.Boxes(), e.domRY, e.rz.Boxes(), grid.Swap02{})
		}
	}

	if err := e.makePlans(); err != nil {
		return nil, err
	}

	e.log.Debug().
		Ints("domain", []int{n0, n1, n2}).
		Int("ranks", nranks).
		Str("bc_x", fmt.Sprintf("%s/%s", bc[0].Lo, bc[0].Hi)).
		Str("bc_y", fmt.Sprintf("%s/%s", bc[1].Lo, bc[1].Hi)).
		Str("bc_z", fmt.Sprintf("%s/%s", bc[2].Lo, bc[2].Hi)).
		Msg("r2x engine built")
	return e, nil
}

func reuseOrIota(n int, prev grid.RankMap) grid.RankMap {
	if n == len(prev) {
		return prev
	}
	return grid.IotaRankMap(n)
}

func (e *R2X) makePlans() error {
	info := e.info
	bc := e.bc

	// x axis: r2c on periodic, in-place r2r otherwise
	e.fftX = make([]kernel.PlanPair, e.rx.NumBoxes())
	if bc[0].IsPeriodic() {
		e.opX = opR2C
		for r := range e.fftX {
			p, err := kernel.NewR2C(e.rx.Box(r), e.rx.Data(r), e.cx.Data(r))
			if err != nil {
				return fmt.Errorf("x-axis plan on rank %d: %w", r, err)
			}
			e.fftX[r] = pairFor(p, info)
		}
	} else {
		e.opX = opR2R
		for r := range e.fftX {
			pp, err := r2rPair(bc[0], info, func() (*kernel.Plan, error) {
				return kernel.NewR2R(e.rx.Box(r), e.rx.Data(r), bc[0])
			})
			if err != nil {
				return fmt.Errorf("x-axis plan on rank %d: %w", r, err)
			}
			e.fftX[r] = pp
		}
	}

	// y axis: c2c when the pipeline is already complex, r2c when y is
	// the first periodic axis, r2r otherwise (componentwise on complex
	// data after an x r2c)
	switch {
	case e.ry.Empty() && bc[1].IsPeriodic():
		e.opY = opC2C
		pairs, err := makeC2CPlans(&e.cy, info)
		if err != nil {
			return fmt.Errorf("y-axis plans: %w", err)
		}
		e.fftY = pairs
	case !e.ry.Empty() && bc[1].IsPeriodic():
		e.opY = opR2C
		e.fftY = make([]kernel.PlanPair, e.ry.NumBoxes())
		for r := range e.fftY {
			p, err := kernel.NewR2C(e.ry.Box(r), e.ry.Data(r), e.cy.Data(r))
			if err != nil {
				return fmt.Errorf("y-axis plan on rank %d: %w", r, err)
			}
			e.fftY[r] = pairFor(p, info)
		}
	case !e.cy.Empty():
		e.opY = opR2R
		e.fftY = make([]kernel.PlanPair, e.cy.NumBoxes())
		for r := range e.fftY {
			pp, err := r2rPair(bc[1], info, func() (*kernel.Plan, error) {
				return kernel.NewR2RCmplx(e.cy.Box(r), e.cy.Data(r), bc[1])
			})
			if err != nil {
				return fmt.Errorf("y-axis plan on rank %d: %w", r, err)
			}
			e.fftY[r] = pp
		}
	default:
		e.opY = opR2R
		e.fftY = make([]kernel.PlanPair, e.ry.NumBoxes())
		for r := range e.fftY {
			pp, err := r2rPair(bc[1], info, func() (*kernel.Plan, error) {
				return kernel.NewR2R(e.ry.Box(r), e.ry.Data(r), bc[1])
			})
			if err != nil {
				return fmt.Errorf("y-axis plan on rank %d: %w", r, err)
			}
			e.fftY[r] = pp
		}
	}

	// z axis mirrors y
	switch {
	case e.rz.Empty() && bc[2].IsPeriodic():
		e.opZ = opC2C
		pairs, err := makeC2CPlans(&e.cz, info)
		if err != nil {
			return fmt.Errorf("z-axis plans: %w", err)
		}
		e.fftZ = pairs
	case !e.rz.Empty() && bc[2].IsPeriodic():
		e.opZ = opR2C
		e.fftZ = make([]kernel.PlanPair, e.rz.NumBoxes())
		for r := range e.fftZ {
			p, err := kernel.NewR2C(e.rz.Box(r), e.rz.Data(r), e.cz.Data(r))
			if err != nil {
				return fmt.Errorf("z-axis plan on rank %d: %w", r, err)
			}
			e.fftZ[r] = pairFor(p, info)
		}
	case !e.cz.Empty():
		e.opZ = opR2R
		e.fftZ = make([]kernel.PlanPair, e.cz.NumBoxes())
		for r := range e.fftZ {
			pp, err := r2rPair(bc[2], info, func() (*kernel.Plan, error) {
				return kernel.NewR2RCmplx(e.cz.Box(r), e.cz.Data(r), bc[2])
			})
			if err != nil {
				return fmt.Errorf("z-axis plan on rank %d: %w", r, err)
			}
			e.fftZ[r] = pp
		}
	default:
		e.opZ = opR2R
		e.fftZ = make([]kernel.PlanPair, e.rz.NumBoxes())
		for r := range e.fftZ {
			pp, err := r2rPair(bc[2], info, func() (*kernel.Plan, error) {
				return kernel.NewR2R(e.rz.Box(r), e.rz.Data(r), bc[2])
			})
			if err != nil {
				return fmt.Errorf("z-axis plan on rank %d: %w", r, err)
			}
			e.fftZ[r] = pp
		}
	}
	return nil
}

// r2rPair builds the forward/backward pair for a non-periodic axis. The
// self-inverse type-IV variants share one handle; the type-II/III
// variants are genuinely different kernels and get separate handles.
func r2rPair(bc kernel.BoundaryPair, info Info, mk func() (*kernel.Plan, error)) (kernel.PlanPair, error) {
	if bc.SelfInverse() {
		p, err := mk()
		if err != nil {
			return kernel.PlanPair{}, err
		}
		return pairFor(p, info), nil
	}
	var pp kernel.PlanPair
	if info.wantFwd() {
		p, err := mk()
		if err != nil {
			return kernel.PlanPair{}, err
		}
		pp.Fwd = p
	}
	if info.wantBwd() {
		p, err := mk()
		if err != nil {
			return kernel.PlanPair{}, err
		}
		pp.Bwd = p
	}
	return pp, nil
}

// Destroy releases every plan exactly once and drops the aliased storage.
func (e *R2X) Destroy() {
	destroyPairs(e.fftX)
	destroyPairs(e.fftY)
	destroyPairs(e.fftZ)
	e.share1.Release()
	e.share2.Release()
}

// ScalingFactor returns the factor that makes a round trip with an
// identity callback reproduce the input: 1 over the domain size times 2
// for every non-periodic transformed axis.
func (e *R2X) ScalingFactor() float64 {
	r := e.dom0.NumPts()
	for d := 0; d < 3; d++ {
		if !e.bc[d].IsPeriodic() && e.dom0.Length(d) > 1 {
			r *= 2
		}
	}
	return 1 / float64(r)
}

// ForwardThenBackward runs the forward sweep, applies f once per
// spectral cell in canonical coordinates, and runs the backward sweep
// into out. This is the engine's only exposed round trip.
func (e *R2X) ForwardThenBackward(in *grid.Array[float64], out *grid.Array[float64], f SpectralOp) error {
	if e.info.Direction != DirectionBoth {
		return fmt.Errorf("%w: round trip needs both directions", ErrInvalidDirection)
	}

	// forward
	e.rx.ParallelCopy(in)
	if err := runPlans(e.fftX, e.opX, kernel.Forward); err != nil {
		return err
	}
	switch {
	case e.cmdCX2CY != nil:
		if err := redist.ParallelCopy(&e.cy, &e.cx, e.cmdCX2CY, grid.Swap01{}); err != nil {
			return err
		}
	case e.cmdRX2RY != nil:
		if err := redist.ParallelCopy(&e.ry, &e.rx, e.cmdRX2RY, grid.Swap01{}); err != nil {
			return err
		}
	}
	if err := runPlans(e.fftY, e.opY, kernel.Forward); err != nil {
		return err
	}
	switch {
	case e.cmdCY2CZ != nil:
		if err := redist.ParallelCopy(&e.cz, &e.cy, e.cmdCY2CZ, grid.Swap02{}); err != nil {
			return err
		}
	case e.cmdRY2RZ != nil:
		if err := redist.ParallelCopy(&e.rz, &e.ry, e.cmdRY2RZ, grid.Swap02{}); err != nil {
			return err
		}
	}
	if err := runPlans(e.fftZ, e.opZ, kernel.Forward); err != nil {
		return err
	}

	e.postForwardDoit(f)

	// backward
	if err := runPlans(e.fftZ, e.opZ, kernel.Backward); err != nil {
		return err
	}
	switch {
	case e.cmdCZ2CY != nil:
		if err := redist.ParallelCopy(&e.cy, &e.cz, e.cmdCZ2CY, grid.Swap02{}); err != nil {
			return err
		}
	case e.cmdRZ2RY != nil:
		if err := redist.ParallelCopy(&e.ry, &e.rz, e.cmdRZ2RY, grid.Swap02{}); err != nil {
			return err
		}
	}
	if err := runPlans(e.fftY, e.opY, kernel.Backward); err != nil {
		return err
	}
	switch {
	case e.cmdCY2CX != nil:
		if err := redist.ParallelCopy(&e.cx, &e.cy, e.cmdCY2CX, grid.Swap01{}); err != nil {
			return err
		}
	case e.cmdRY2RX != nil:
		if err := redist.ParallelCopy(&e.rx, &e.ry, e.cmdRY2RX, grid.Swap01{}); err != nil {
			return err
		}
	}
	if err := runPlans(e.fftX, e.opX, kernel.Backward); err != nil {
		return err
	}
	out.ParallelCopy(&e.rx)
	return nil
}

// postForwardDoit dispatches the callback over the innermost phase of
// the effective dimensionality, translating the permuted storage order
// back to canonical indices. Degenerate trailing axes reduce the
// callback's index space.
func (e *R2X) postForwardDoit(f SpectralOp) {
	dim := 3
	if e.dom0.Length(1) == 1 {
		dim = 1
	} else if e.dom0.Length(2) == 1 {
		dim = 2
	}

	switch dim {
	case 1:
		if e.cx.Empty() {
			visitCells(&e.rx, func(i, j, k int, v *float64) { f.ModifyReal(i, j, k, v) })
		} else {
			visitCells(&e.cx, func(i, j, k int, v *complex128) { f.ModifyCmplx(i, j, k, v) })
		}
	case 2: // stored (y,x,z)
		if e.cy.Empty() {
			visitCells(&e.ry, func(i, j, k int, v *float64) { f.ModifyReal(j, i, k, v) })
		} else {
			visitCells(&e.cy, func(i, j, k int, v *complex128) { f.ModifyCmplx(j, i, k, v) })
		}
	default: // stored (z,x,y)
		if e.cz.Empty() {
			visitCells(&e.rz, func(i, j, k int, v *float64) { f.ModifyReal(j, k, i, v) })
		} else {
			visitCells(&e.cz, func(i, j, k int, v *complex128) { f.ModifyCmplx(j, k, i, v) })
		}
	}
}
