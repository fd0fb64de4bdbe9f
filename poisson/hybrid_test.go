package poisson

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spectralkit/pencilfft/engine"
	"github.com/spectralkit/pencilfft/grid"
	"github.com/spectralkit/pencilfft/kernel"
)

func hybridGeom(nx, ny, nz int, dz float64) Geometry {
	return Geometry{
		Domain:   grid.NewBox(grid.IntVect{}, grid.IntVect{nx - 1, ny - 1, nz - 1}),
		CellSize: [3]float64{1, 1, dz},
		Periodic: [3]bool{true, true, false},
	}
}

// maxHybridResidual applies the hybrid operator: periodic second
// differences in x and y, the possibly non-uniform Neumann-closed
// stencil in z.
func maxHybridResidual(geom Geometry, dz []float64, soln, rhs *grid.Array[float64]) float64 {
	dom := geom.Domain
	nx, ny, nz := dom.Length(0), dom.Length(1), dom.Length(2)
	bc := [3]kernel.BoundaryPair{
		{Lo: kernel.Periodic, Hi: kernel.Periodic},
		{Lo: kernel.Periodic, Hi: kernel.Periodic},
		{Lo: kernel.Even, Hi: kernel.Even},
	}
	worst := 0.0
	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				v := soln.At(0, i, j, k)
				lap := (ghostValue(dom, bc, soln, i+1, j, k) - 2*v + ghostValue(dom, bc, soln, i-1, j, k)) /
					(geom.CellSize[0] * geom.CellSize[0])
				lap += (ghostValue(dom, bc, soln, i, j+1, k) - 2*v + ghostValue(dom, bc, soln, i, j-1, k)) /
					(geom.CellSize[1] * geom.CellSize[1])
				if k > 0 {
					lap += 2 / (dz[k] * (dz[k] + dz[k-1])) * (soln.At(0, i, j, k-1) - v)
				}
				if k < nz-1 {
					lap += 2 / (dz[k] * (dz[k] + dz[k+1])) * (soln.At(0, i, j, k+1) - v)
				}
				if d := math.Abs(lap - rhs.At(0, i, j, k)); d > worst {
					worst = d
				}
			}
		}
	}
	return worst
}

func uniformDZ(nz int, dz float64) []float64 {
	out := make([]float64, nz)
	for i := range out {
		out[i] = dz
	}
	return out
}

// A pure vertical Neumann mode: the solve reproduces the mode and the
// solution carries no horizontal variation.
func TestHybridVerticalMode(t *testing.T) {
	geom := hybridGeom(4, 4, 4, 1)
	s, err := NewHybridSolver(geom, engine.Info{Ranks: 2})
	require.NoError(t, err)
	defer s.Destroy()

	rhs := singleBoxField(geom.Domain)
	soln := singleBoxField(geom.Domain)
	rhs.Fill(func(i, j, k int) float64 { return math.Cos(math.Pi * (float64(k) + 0.5) / 4) })

	require.NoError(t, s.Solve(soln, rhs))
	assert.Less(t, maxHybridResidual(geom, uniformDZ(4, 1), soln, rhs), 1e-10)

	for k := 0; k < 4; k++ {
		ref := soln.At(0, 0, 0, k)
		for j := 0; j < 4; j++ {
			for i := 0; i < 4; i++ {
				assert.InDelta(t, ref, soln.At(0, i, j, k), 1e-10, "xy variation at level %d", k)
			}
		}
	}
}

// rhs = 1 violates the Neumann compatibility condition: the solve runs
// but cannot satisfy the discrete equation.
func TestHybridIncompatibleRHS(t *testing.T) {
	geom := hybridGeom(4, 4, 4, 1)
	s, err := NewHybridSolver(geom, engine.Info{Ranks: 1})
	require.NoError(t, err)
	defer s.Destroy()

	rhs := singleBoxField(geom.Domain)
	soln := singleBoxField(geom.Domain)
	rhs.Fill(func(i, j, k int) float64 { return 1 })

	require.NoError(t, s.Solve(soln, rhs))
	assert.Greater(t, maxHybridResidual(geom, uniformDZ(4, 1), soln, rhs), 0.1)
}

func TestHybridMixedModes(t *testing.T) {
	geom := hybridGeom(8, 8, 6, 0.5)
	s, err := NewHybridSolver(geom, engine.Info{Ranks: 4})
	require.NoError(t, err)
	defer s.Destroy()

	rhs := singleBoxField(geom.Domain)
	soln := singleBoxField(geom.Domain)
	// zero horizontal mean in every level keeps the gauge column empty
	rhs.Fill(func(i, j, k int) float64 {
		return math.Sin(2*math.Pi*float64(i)/8)*math.Cos(math.Pi*(float64(k)+0.5)/6) +
			math.Cos(2*math.Pi*float64(3*j)/8)
	})

	require.NoError(t, s.Solve(soln, rhs))
	assert.Less(t, maxHybridResidual(geom, uniformDZ(6, 0.5), soln, rhs), 1e-10)
}

func TestHybridVariableSpacing(t *testing.T) {
	geom := hybridGeom(4, 4, 4, 1)
	s, err := NewHybridSolver(geom, engine.Info{Ranks: 2})
	require.NoError(t, err)
	defer s.Destroy()

	dz := []float64{1, 2, 2, 1}
	// dz-weighted zero mean keeps the column compatible
	levels := []float64{1, -1, 1, -1}

	rhs := singleBoxField(geom.Domain)
	soln := singleBoxField(geom.Domain)
	rhs.Fill(func(i, j, k int) float64 { return levels[k] })

	require.NoError(t, s.SolveWithDZ(soln, rhs, dz))
	assert.Less(t, maxHybridResidual(geom, dz, soln, rhs), 1e-10)
}

func TestHybridValidation(t *testing.T) {
	_, err := NewHybridSolver(hybridGeom(4, 4, 1, 1), engine.Info{Ranks: 1})
	assert.ErrorIs(t, err, ErrInvalidGeometry)

	g := hybridGeom(4, 4, 4, 1)
	g.Periodic[2] = true
	_, err = NewHybridSolver(g, engine.Info{Ranks: 1})
	assert.ErrorIs(t, err, ErrInvalidGeometry)

	g = hybridGeom(4, 4, 4, 1)
	g.Periodic[0] = false
	_, err = NewHybridSolver(g, engine.Info{Ranks: 1})
	assert.ErrorIs(t, err, ErrInvalidGeometry)

	s, err := NewHybridSolver(hybridGeom(4, 4, 4, 1), engine.Info{Ranks: 1})
	require.NoError(t, err)
	defer s.Destroy()

	rhs := singleBoxField(s.geom.Domain)
	soln := singleBoxField(s.geom.Domain)
	assert.ErrorIs(t, s.SolveWithDZ(soln, rhs, []float64{1, 1}), ErrInvalidGeometry)
	assert.ErrorIs(t, s.SolveWithDZ(soln, rhs, []float64{1, 1, 0, 1}), ErrInvalidGeometry)
}
