package poisson

import (
	"fmt"
	"math"

	"github.com/spectralkit/pencilfft/engine"
	"github.com/spectralkit/pencilfft/grid"
	"github.com/spectralkit/pencilfft/kernel"
)

// Solver solves ∇²soln = rhs by dividing the transformed right-hand side
// by the eigenvalue of the second-order discrete Laplacian. Each axis may
// be periodic or carry any even/odd endpoint pair; the transform variant
// per axis follows from the pair.
type Solver struct {
	geom Geometry
	bc   [3]kernel.BoundaryPair
	r2x  *engine.R2X
}

// NewSolver builds a solver for the geometry and per-axis boundary pairs.
// An axis marked periodic in the geometry must carry a periodic pair and
// vice versa.
func NewSolver(geom Geometry, bc [3]kernel.BoundaryPair, info engine.Info) (*Solver, error) {
	if err := geom.validate(); err != nil {
		return nil, err
	}
	for d := 0; d < 3; d++ {
		if geom.Domain.Length(d) > 1 && geom.Periodic[d] != bc[d].IsPeriodic() {
			return nil, fmt.Errorf("%w: axis %d periodicity disagrees with (%s, %s)",
				ErrInvalidGeometry, d, bc[d].Lo, bc[d].Hi)
		}
	}
	e, err := engine.NewR2X(geom.Domain, bc, info)
	if err != nil {
		return nil, err
	}
	return &Solver{geom: geom, bc: bc, r2x: e}, nil
}

// NewPeriodicSolver builds a solver for a fully periodic geometry.
func NewPeriodicSolver(geom Geometry, info engine.Info) (*Solver, error) {
	var bc [3]kernel.BoundaryPair
	for d := 0; d < 3; d++ {
		if geom.Domain.Length(d) > 1 && !geom.Periodic[d] {
			return nil, fmt.Errorf("%w: axis %d not periodic", ErrInvalidGeometry, d)
		}
		bc[d] = kernel.BoundaryPair{Lo: kernel.Periodic, Hi: kernel.Periodic}
	}
	return NewSolver(geom, bc, info)
}

// Destroy releases the underlying transform engine.
func (s *Solver) Destroy() { s.r2x.Destroy() }

// symbolOp divides each spectral value by the discrete Laplacian
// eigenvalue and folds in the round-trip normalisation. The zero
// eigenvalue (the mean mode of an all-even or all-periodic problem) is
// left untouched, which fixes the gauge at zero mean.
type symbolOp struct {
	fac   [3]float64 // wavenumber spacing per axis, 2π/N periodic, π/N otherwise
	delta [3]float64 // half-cell shift from the endpoint parity
	dxsq  [3]float64 // 2/Δ² per axis
	on    [3]bool    // degenerate axes contribute nothing
	scale float64
}

func (op *symbolOp) eigenvalue(i, j, k int) float64 {
	idx := [3]int{i, j, k}
	lam := 0.0
	for d := 0; d < 3; d++ {
		if op.on[d] {
			lam += op.dxsq[d] * (math.Cos(op.fac[d]*(float64(idx[d])+op.delta[d])) - 1)
		}
	}
	return lam
}

func (op *symbolOp) ModifyReal(i, j, k int, v *float64) {
	if lam := op.eigenvalue(i, j, k); lam != 0 {
		*v /= lam
	}
	*v *= op.scale
}

func (op *symbolOp) ModifyCmplx(i, j, k int, v *complex128) {
	if lam := op.eigenvalue(i, j, k); lam != 0 {
		*v /= complex(lam, 0)
	}
	*v *= complex(op.scale, 0)
}

func parityShift(bc kernel.BoundaryPair) float64 {
	switch {
	case bc.IsPeriodic() || (bc.Lo == kernel.Even && bc.Hi == kernel.Even):
		return 0
	case bc.Lo == kernel.Odd && bc.Hi == kernel.Odd:
		return 1
	default:
		return 0.5
	}
}

// Solve fills soln with the solution of ∇²soln = rhs. Both arrays live on
// caller layouts covering the geometry's domain. For a problem whose
// eigenvalues include zero the right-hand side must have zero mean for
// the result to be meaningful.
func (s *Solver) Solve(soln, rhs *grid.Array[float64]) error {
	op := &symbolOp{scale: s.r2x.ScalingFactor()}
	for d := 0; d < 3; d++ {
		n := s.geom.Domain.Length(d)
		if n <= 1 {
			continue
		}
		op.on[d] = true
		op.fac[d] = math.Pi / float64(n)
		if s.bc[d].IsPeriodic() {
			op.fac[d] *= 2
		}
		op.delta[d] = parityShift(s.bc[d])
		op.dxsq[d] = 2 / (s.geom.CellSize[d] * s.geom.CellSize[d])
	}
	return s.r2x.ForwardThenBackward(rhs, soln, op)
}
