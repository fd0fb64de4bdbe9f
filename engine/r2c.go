package engine

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spectralkit/pencilfft/grid"
	"github.com/spectralkit/pencilfft/kernel"
	"github.com/spectralkit/pencilfft/mem"
	"github.com/spectralkit/pencilfft/redist"
)

// PostForward is invoked once per spectral cell between the forward and
// backward sweeps of a round trip. Indices arrive in canonical (x,y,z)
// order regardless of the internal permuted layout; the value may be
// modified in place.
type PostForward func(i, j, k int, v *complex128)

// R2C is the fully periodic real-to-complex transform engine over a 1-D,
// 2-D, or 3-D domain. The forward transform produces the non-redundant
// half spectrum along x; scaling follows the FFTW convention, so forward
// followed by backward multiplies the data by the domain size.
//
// The engine is frozen at construction: plans, layouts, aliased storage,
// and redistribution schedules never change afterwards. Transform calls
// on one instance must not overlap.
type R2C struct {
	info Info
	log  zerolog.Logger

	realDomain grid.Box
	specX      grid.Box
	specY      grid.Box
	specZ      grid.Box

	rx grid.Array[float64]
	cx grid.Array[complex128]
	cy grid.Array[complex128]
	cz grid.Array[complex128]

	// rx aliases cy and cx aliases cz: within one sweep the real
	// x-phase data is dead once the y-phase spectrum exists, and the
	// x-phase spectrum is dead once the z-phase spectrum exists.
	shareRxCy *mem.Share
	shareCxCz *mem.Share

	cmdX2Y *redist.CommMetadata // (x,y,z) -> (y,x,z)
	cmdY2X *redist.CommMetadata // (y,x,z) -> (x,y,z)
	cmdY2Z *redist.CommMetadata // (y,x,z) -> (z,x,y)
	cmdZ2Y *redist.CommMetadata // (z,x,y) -> (y,x,z)

	fftX []kernel.PlanPair
	fftY []kernel.PlanPair
	fftZ []kernel.PlanPair
}

// NewR2C builds the engine for the given real-space domain. The domain
// must start at the origin with more than one cell along x; a 3-D domain
// may only be degenerate in its trailing axes. Construction performs no
// communication.
func NewR2C(domain grid.Box, info Info) (*R2C, error) {
	e := &R2C{
		info:       info,
		log:        info.logger(),
		realDomain: domain,
	}
	n0 := domain.Length(0)
	n1 := domain.Length(1)
	n2 := domain.Length(2)

	if domain.Lo != (grid.IntVect{}) || n0 <= 1 {
		return nil, fmt.Errorf("%w: r2c domain %v must start at the origin with nx > 1",
			grid.ErrInvalidDomain, domain)
	}
	if info.BatchMode && n2 <= 1 {
		return nil, fmt.Errorf("%w: batch mode needs a 3-D domain, got %v",
			grid.ErrInvalidDomain, domain.Lengths())
	}
	if n1 <= 1 && n2 > 1 {
		return nil, fmt.Errorf("%w: degenerate y with non-degenerate z in %v",
			grid.ErrInvalidDomain, domain.Lengths())
	}

	e.specX = grid.NewBox(grid.IntVect{}, grid.IntVect{n0 / 2, n1 - 1, n2 - 1})
	e.specY = grid.NewBox(grid.IntVect{}, grid.IntVect{n1 - 1, n0 / 2, n2 - 1})
	e.specZ = grid.NewBox(grid.IntVect{}, grid.IntVect{n2 - 1, n0 / 2, n1 - 1})

	nranks := info.ranks()

	bax, err := grid.Decompose(domain, nranks, [3]bool{true, false, false})
	if err != nil {
		return nil, err
	}
	dmx := grid.IotaRankMap(len(bax))
	e.rx.Define(bax, dmx, false)
	e.cx.Define(bax.WithBig(0, e.specX.Hi[0]), dmx, false)

	var dmy grid.RankMap
	if n1 > 1 {
		cbay, err := grid.Decompose(e.specY, nranks, [3]bool{true, false, false})
		if err != nil {
			return nil, err
		}
		if len(cbay) == len(dmx) {
			dmy = dmx
		} else {
			dmy = grid.IotaRankMap(len(cbay))
		}
		e.cy.Define(cbay, dmy, false)
	}

	if n1 > 1 && !info.BatchMode && n2 > 1 {
		cbaz, err := grid.Decompose(e.specZ, nranks, [3]bool{true, false, false})
		if err != nil {
			return nil, err
		}
		var dmz grid.RankMap
		switch {
		case len(cbaz) == len(dmx):
			dmz = dmx
		case len(cbaz) == len(dmy):
			dmz = dmy
		default:
			dmz = grid.IotaRankMap(len(cbaz))
		}
		e.cz.Define(cbaz, dmz, false)
	}

	if e.shareRxCy, err = mem.ShareStorage(&e.rx, &e.cy); err != nil {
		return nil, err
	}
	if e.shareCxCz, err = mem.ShareStorage(&e.cx, &e.cz); err != nil {
		return nil, err
	}

	if !e.cy.Empty() {
		e.cmdX2Y = redist.NewCommMetadata(e.cy.Boxes(), e.specY, e.cx.Boxes(), grid.Swap01{})
		e.cmdY2X = redist.NewCommMetadata(e.cx.Boxes(), e.specX, e.cy.Boxes(), grid.Swap01{})
	}
	if !e.cz.Empty() {
		e.cmdY2Z = redist.NewCommMetadata(e.cz.Boxes(), e.specZ, e.cy.Boxes(), grid.Swap02{})
		e.cmdZ2Y = redist.NewCommMetadata(e.cy.Boxes(), e.specY, e.cz.Boxes(), grid.Swap02{})
	}

	e.fftX = make([]kernel.PlanPair, e.rx.NumBoxes())
	for r := range e.fftX {
		p, err := kernel.NewR2C(e.rx.Box(r), e.rx.Data(r), e.cx.Data(r))
		if err != nil {
			return nil, fmt.Errorf("x-axis plan on rank %d: %w", r, err)
		}
		e.fftX[r] = pairFor(p, info)
	}
	if e.fftY, err = makeC2CPlans(&e.cy, info); err != nil {
		return nil, fmt.Errorf("y-axis plans: %w", err)
	}
	if e.fftZ, err = makeC2CPlans(&e.cz, info); err != nil {
		return nil, fmt.Errorf("z-axis plans: %w", err)
	}

	e.log.Debug().
		Ints("domain", []int{n0, n1, n2}).
		Int("ranks", nranks).
		Int("x_boxes", e.rx.NumBoxes()).
		Int("y_boxes", e.cy.NumBoxes()).
		Int("z_boxes", e.cz.NumBoxes()).
		Bool("batch", info.BatchMode).
		Msg("r2c engine built")
	return e, nil
}

func makeC2CPlans(inout *grid.Array[complex128], info Info) ([]kernel.PlanPair, error) {
	pairs := make([]kernel.PlanPair, inout.NumBoxes())
	for r := range pairs {
		p, err := kernel.NewC2C(inout.Box(r), inout.Data(r))
		if err != nil {
			return nil, err
		}
		pairs[r] = pairFor(p, info)
	}
	return pairs, nil
}

// Destroy releases every plan exactly once (forward and backward slots
// may share a handle) and drops the aliased storage.
func (e *R2C) Destroy() {
	destroyPairs(e.fftX)
	destroyPairs(e.fftY)
	destroyPairs(e.fftZ)
	e.shareRxCy.Release()
	e.shareCxCz.Release()
}

// Forward transforms in into the engine's internal spectral storage.
func (e *R2C) Forward(in *grid.Array[float64]) error {
	if !e.info.wantFwd() {
		return fmt.Errorf("%w: forward on a backward-only engine", ErrInvalidDirection)
	}
	e.rx.ParallelCopy(in)
	if err := runPlans(e.fftX, opR2C, kernel.Forward); err != nil {
		return err
	}
	if e.cmdX2Y != nil {
		if err := redist.ParallelCopy(&e.cy, &e.cx, e.cmdX2Y, grid.Swap01{}); err != nil {
			return err
		}
	}
	if err := runPlans(e.fftY, opC2C, kernel.Forward); err != nil {
		return err
	}
	if e.cmdY2Z != nil {
		if err := redist.ParallelCopy(&e.cz, &e.cy, e.cmdY2Z, grid.Swap02{}); err != nil {
			return err
		}
	}
	return runPlans(e.fftZ, opC2C, kernel.Forward)
}

// Backward transforms the internal spectral storage into out,
// unnormalised.
func (e *R2C) Backward(out *grid.Array[float64]) error {
	if !e.info.wantBwd() {
		return fmt.Errorf("%w: backward on a forward-only engine", ErrInvalidDirection)
	}
	return e.backwardDoit(out)
}

func (e *R2C) backwardDoit(out *grid.Array[float64]) error {
	if err := runPlans(e.fftZ, opC2C, kernel.Backward); err != nil {
		return err
	}
	if e.cmdZ2Y != nil {
		if err := redist.ParallelCopy(&e.cy, &e.cz, e.cmdZ2Y, grid.Swap02{}); err != nil {
			return err
		}
	}
	if err := runPlans(e.fftY, opC2C, kernel.Backward); err != nil {
		return err
	}
	if e.cmdY2X != nil {
		if err := redist.ParallelCopy(&e.cx, &e.cy, e.cmdY2X, grid.Swap01{}); err != nil {
			return err
		}
	}
	if err := runPlans(e.fftX, opR2C, kernel.Backward); err != nil {
		return err
	}
	out.ParallelCopy(&e.rx)
	return nil
}

// ForwardThenBackward runs the forward transform, applies f once per
// spectral cell, and runs the backward transform. The callback sees the
// fully materialised spectrum on the internal layout; no redistribution
// happens on its behalf.
func (e *R2C) ForwardThenBackward(in *grid.Array[float64], out *grid.Array[float64], f PostForward) error {
	if e.info.Direction != DirectionBoth {
		return fmt.Errorf("%w: round trip needs both directions", ErrInvalidDirection)
	}
	if err := e.Forward(in); err != nil {
		return err
	}
	e.postForwardDoit(f)
	return e.backwardDoit(out)
}

// postForwardDoit translates the internal permuted layout back to
// canonical indices for the callback. In batch mode the callback fires
// once per (spectral-x, spectral-y, batch-z) tuple on the y-phase
// layout.
func (e *R2C) postForwardDoit(f PostForward) {
	switch {
	case e.info.BatchMode && !e.cy.Empty():
		visitCells(&e.cy, func(i, j, k int, v *complex128) { f(j, i, k, v) })
	case !e.cz.Empty(): // stored (z,x,y)
		visitCells(&e.cz, func(i, j, k int, v *complex128) { f(j, k, i, v) })
	case !e.cy.Empty(): // stored (y,x,z)
		visitCells(&e.cy, func(i, j, k int, v *complex128) { f(j, i, k, v) })
	default:
		visitCells(&e.cx, func(i, j, k int, v *complex128) { f(i, j, k, v) })
	}
}

// visitCells walks every cell of every box in storage order, handing the
// callback the storage-space index and a pointer to the value.
func visitCells[T grid.Elem](a *grid.Array[T], visit func(i, j, k int, v *T)) {
	for id := 0; id < a.NumBoxes(); id++ {
		b := a.Box(id)
		data := a.Data(id)
		for k := b.Lo[2]; k <= b.Hi[2]; k++ {
			for j := b.Lo[1]; j <= b.Hi[1]; j++ {
				at := b.Index(b.Lo[0], j, k)
				for i := b.Lo[0]; i <= b.Hi[0]; i++ {
					visit(i, j, k, &data[at])
					at++
				}
			}
		}
	}
}

// ForwardInto runs the forward transform and redistributes the spectrum
// into the caller-supplied array, which must be laid out on the canonical
// (x,y,z) spectral domain.
func (e *R2C) ForwardInto(in *grid.Array[float64], out *grid.Array[complex128]) error {
	if err := e.Forward(in); err != nil {
		return err
	}
	switch {
	case !e.cz.Empty(): // (z,x,y) -> (x,y,z)
		cmd := redist.NewCommMetadata(out.Boxes(), e.specX, e.cz.Boxes(), grid.RotateBwd{})
		return redist.ParallelCopy(out, &e.cz, cmd, grid.RotateBwd{})
	case !e.cy.Empty(): // (y,x,z) -> (x,y,z)
		cmd := redist.NewCommMetadata(out.Boxes(), e.specX, e.cy.Boxes(), grid.Swap01{})
		return redist.ParallelCopy(out, &e.cy, cmd, grid.Swap01{})
	default:
		out.ParallelCopy(&e.cx)
		return nil
	}
}

// BackwardFrom redistributes a caller-supplied canonical spectrum into
// the internal layout and runs the backward transform.
func (e *R2C) BackwardFrom(in *grid.Array[complex128], out *grid.Array[float64]) error {
	if !e.info.wantBwd() {
		return fmt.Errorf("%w: backward on a forward-only engine", ErrInvalidDirection)
	}
	switch {
	case !e.cz.Empty(): // (x,y,z) -> (z,x,y)
		cmd := redist.NewCommMetadata(e.cz.Boxes(), e.specZ, in.Boxes(), grid.RotateFwd{})
		if err := redist.ParallelCopy(&e.cz, in, cmd, grid.RotateFwd{}); err != nil {
			return err
		}
	case !e.cy.Empty(): // (x,y,z) -> (y,x,z)
		cmd := redist.NewCommMetadata(e.cy.Boxes(), e.specY, in.Boxes(), grid.Swap01{})
		if err := redist.ParallelCopy(&e.cy, in, cmd, grid.Swap01{}); err != nil {
			return err
		}
	default:
		e.cx.ParallelCopy(in)
	}
	return e.backwardDoit(out)
}

// SpectralData returns the innermost spectral array together with the
// permutation mapping its storage axes to canonical axes: entry d is the
// canonical axis stored along internal axis d.
func (e *R2C) SpectralData() (*grid.Array[complex128], grid.IntVect) {
	switch {
	case !e.cz.Empty():
		return &e.cz, grid.IntVect{2, 0, 1}
	case !e.cy.Empty():
		return &e.cy, grid.IntVect{1, 0, 2}
	default:
		return &e.cx, grid.IntVect{0, 1, 2}
	}
}

// SpectralLayout returns the spectral BoxArray and rank map in canonical
// (x,y,z) order, unpermuting the internal layout.
func (e *R2C) SpectralLayout() (grid.BoxArray, grid.RankMap) {
	switch {
	case !e.cz.Empty():
		ba := make(grid.BoxArray, e.cz.NumBoxes())
		for i := range ba {
			b := e.cz.Box(i)
			// (z,x,y) stored order back to (x,y,z)
			ba[i] = grid.Box{
				Lo: grid.IntVect{b.Lo[1], b.Lo[2], b.Lo[0]},
				Hi: grid.IntVect{b.Hi[1], b.Hi[2], b.Hi[0]},
			}
		}
		return ba, e.cz.RankMap()
	case !e.cy.Empty():
		ba := make(grid.BoxArray, e.cy.NumBoxes())
		for i := range ba {
			b := e.cy.Box(i)
			ba[i] = grid.Box{
				Lo: grid.IntVect{b.Lo[1], b.Lo[0], b.Lo[2]},
				Hi: grid.IntVect{b.Hi[1], b.Hi[0], b.Hi[2]},
			}
		}
		return ba, e.cy.RankMap()
	default:
		return e.cx.Boxes(), e.cx.RankMap()
	}
}

// SpectralDomain returns the canonical spectral domain [0,n0/2] x
// [0,n1-1] x [0,n2-1].
func (e *R2C) SpectralDomain() grid.Box { return e.specX }

// Ranks returns the size of the engine's rank group.
func (e *R2C) Ranks() int { return e.info.ranks() }
