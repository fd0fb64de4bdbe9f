// Package poisson provides spectral solvers for the discrete Poisson
// equation on a rectangular cell-centered grid. Solver diagonalises the
// discrete Laplacian through an R2X transform and divides by its symbol;
// HybridSolver transforms the two periodic horizontal axes and solves a
// tridiagonal system along the vertical, which permits a non-uniform
// vertical spacing.
package poisson

import (
	"errors"
	"fmt"

	"github.com/spectralkit/pencilfft/grid"
)

// ErrInvalidGeometry is returned when a geometry's domain, cell sizes, or
// periodicity do not fit the requested solver.
var ErrInvalidGeometry = errors.New("poisson: invalid geometry")

// Geometry describes the physical grid: the cell-centered index domain,
// the mesh spacing per axis, and which axes wrap around.
type Geometry struct {
	Domain   grid.Box
	CellSize [3]float64
	Periodic [3]bool
}

// ProbLength returns the physical extent of the domain along axis d.
func (g Geometry) ProbLength(d int) float64 {
	return g.CellSize[d] * float64(g.Domain.Length(d))
}

func (g Geometry) validate() error {
	if g.Domain.IsEmpty() {
		return fmt.Errorf("%w: empty domain", ErrInvalidGeometry)
	}
	for d := 0; d < 3; d++ {
		if g.CellSize[d] <= 0 {
			return fmt.Errorf("%w: cell size %g along axis %d", ErrInvalidGeometry, g.CellSize[d], d)
		}
	}
	return nil
}
