package poisson

import (
	"fmt"
	"math"

	"github.com/spectralkit/pencilfft/engine"
	"github.com/spectralkit/pencilfft/grid"
	"golang.org/x/sync/errgroup"
)

// HybridSolver solves ∇²soln = rhs on a 3-D domain that is periodic along
// x and y and Neumann along z. The horizontal axes are diagonalised by a
// batched R2C transform; each spectral column then yields a tridiagonal
// system along z, solved by Thomas elimination. Because z is never
// transformed, the vertical spacing may vary per level.
type HybridSolver struct {
	geom Geometry
	r2c  *engine.R2C
	sp   grid.Array[complex128]
	dz   []float64
}

// NewHybridSolver builds the solver. The geometry must be 3-D with nz >= 2,
// periodic along x and y and non-periodic along z.
func NewHybridSolver(geom Geometry, info engine.Info) (*HybridSolver, error) {
	if err := geom.validate(); err != nil {
		return nil, err
	}
	n0 := geom.Domain.Length(0)
	n1 := geom.Domain.Length(1)
	n2 := geom.Domain.Length(2)
	if n0 <= 1 || n1 <= 1 || n2 < 2 {
		return nil, fmt.Errorf("%w: hybrid solver needs nx,ny > 1 and nz >= 2, got %v",
			ErrInvalidGeometry, geom.Domain.Lengths())
	}
	if !geom.Periodic[0] || !geom.Periodic[1] || geom.Periodic[2] {
		return nil, fmt.Errorf("%w: hybrid solver needs periodic x,y and non-periodic z",
			ErrInvalidGeometry)
	}

	info.BatchMode = true
	info.Direction = engine.DirectionBoth
	e, err := engine.NewR2C(geom.Domain, info)
	if err != nil {
		return nil, err
	}

	s := &HybridSolver{geom: geom, r2c: e}

	// Spectral staging array: x-y decomposed, full z per column so each
	// tridiagonal solve is rank-local.
	cba, err := grid.Decompose(e.SpectralDomain(), e.Ranks(), [3]bool{false, false, true})
	if err != nil {
		e.Destroy()
		return nil, err
	}
	s.sp.Define(cba, grid.IotaRankMap(len(cba)), true)

	s.dz = make([]float64, n2)
	for k := range s.dz {
		s.dz[k] = geom.CellSize[2]
	}
	return s, nil
}

// Destroy releases the underlying transform engine.
func (s *HybridSolver) Destroy() { s.r2c.Destroy() }

// Solve fills soln with the solution using the geometry's uniform
// vertical spacing.
func (s *HybridSolver) Solve(soln, rhs *grid.Array[float64]) error {
	return s.solve(soln, rhs, s.dz)
}

// SolveWithDZ solves with an explicit per-level vertical spacing; dz[k]
// is the height of cell layer k.
func (s *HybridSolver) SolveWithDZ(soln, rhs *grid.Array[float64], dz []float64) error {
	if len(dz) != s.geom.Domain.Length(2) {
		return fmt.Errorf("%w: dz has %d levels, domain has %d",
			ErrInvalidGeometry, len(dz), s.geom.Domain.Length(2))
	}
	for k, d := range dz {
		if d <= 0 {
			return fmt.Errorf("%w: dz[%d] = %g", ErrInvalidGeometry, k, d)
		}
	}
	return s.solve(soln, rhs, dz)
}

func (s *HybridSolver) solve(soln, rhs *grid.Array[float64], dz []float64) error {
	if err := s.r2c.ForwardInto(rhs, &s.sp); err != nil {
		return err
	}

	n0 := s.geom.Domain.Length(0)
	n1 := s.geom.Domain.Length(1)
	nz := s.geom.Domain.Length(2)
	facx := 2 * math.Pi / float64(n0)
	facy := 2 * math.Pi / float64(n1)
	dxsq := 2 / (s.geom.CellSize[0] * s.geom.CellSize[0])
	dysq := 2 / (s.geom.CellSize[1] * s.geom.CellSize[1])
	scale := 1 / float64(n0*n1)

	// Off-diagonal coefficients depend only on the spacing; boundary rows
	// zero the outward coefficient, which is the homogeneous Neumann
	// closure.
	ald := make([]float64, nz)
	cu := make([]float64, nz)
	for k := 0; k < nz; k++ {
		if k > 0 {
			ald[k] = 2 / (dz[k] * (dz[k] + dz[k-1]))
		}
		if k < nz-1 {
			cu[k] = 2 / (dz[k] * (dz[k] + dz[k+1]))
		}
	}

	var g errgroup.Group
	for id := 0; id < s.sp.NumBoxes(); id++ {
		b := s.sp.Box(id)
		data := s.sp.Data(id)
		g.Go(func() error {
			bd := make([]float64, nz)
			cp := make([]float64, nz)
			col := make([]complex128, nz)
			for j := b.Lo[1]; j <= b.Hi[1]; j++ {
				jj := j
				if jj >= n1/2 {
					jj = n1 - jj // Nyquist wrap of the y wavenumber
				}
				ky := dysq * (math.Cos(facy*float64(jj)) - 1)
				for i := b.Lo[0]; i <= b.Hi[0]; i++ {
					lamxy := dxsq*(math.Cos(facx*float64(i))-1) + ky
					for k := 0; k < nz; k++ {
						bd[k] = lamxy - ald[k] - cu[k]
						col[k] = data[b.Index(i, j, k)]
					}
					if i == 0 && j == 0 {
						// The (0,0) column is singular under pure
						// Neumann; doubling the last diagonal pins the
						// constant mode.
						bd[nz-1] *= 2
					}

					// Thomas elimination
					w := bd[0]
					col[0] /= complex(w, 0)
					for k := 1; k < nz; k++ {
						cp[k-1] = cu[k-1] / w
						w = bd[k] - ald[k]*cp[k-1]
						col[k] = (col[k] - complex(ald[k], 0)*col[k-1]) / complex(w, 0)
					}
					for k := nz - 2; k >= 0; k-- {
						col[k] -= complex(cp[k], 0) * col[k+1]
					}

					for k := 0; k < nz; k++ {
						data[b.Index(i, j, k)] = col[k] * complex(scale, 0)
					}
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	return s.r2c.BackwardFrom(&s.sp, soln)
}
