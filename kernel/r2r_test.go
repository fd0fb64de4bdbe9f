package kernel

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Naive O(n²) references in the FFTW convention, used to pin down the
// reduced kernels.

func naiveDCT2(x []float64) []float64 {
	n := len(x)
	out := make([]float64, n)
	for k := 0; k < n; k++ {
		s := 0.0
		for m := 0; m < n; m++ {
			s += x[m] * math.Cos(math.Pi*float64(k)*float64(2*m+1)/float64(2*n))
		}
		out[k] = 2 * s
	}
	return out
}

func naiveDCT3(x []float64) []float64 {
	n := len(x)
	out := make([]float64, n)
	for k := 0; k < n; k++ {
		s := x[0]
		for m := 1; m < n; m++ {
			s += 2 * x[m] * math.Cos(math.Pi*float64(m)*float64(2*k+1)/float64(2*n))
		}
		out[k] = s
	}
	return out
}

func naiveDST2(x []float64) []float64 {
	n := len(x)
	out := make([]float64, n)
	for k := 0; k < n; k++ {
		s := 0.0
		for m := 0; m < n; m++ {
			s += x[m] * math.Sin(math.Pi*float64(k+1)*float64(2*m+1)/float64(2*n))
		}
		out[k] = 2 * s
	}
	return out
}

func naiveDST3(x []float64) []float64 {
	n := len(x)
	out := make([]float64, n)
	for k := 0; k < n; k++ {
		s := math.Pow(-1, float64(k)) * x[n-1]
		for m := 0; m < n-1; m++ {
			s += 2 * x[m] * math.Sin(math.Pi*float64(m+1)*float64(2*k+1)/float64(2*n))
		}
		out[k] = s
	}
	return out
}

func naiveDCT4(x []float64) []float64 {
	n := len(x)
	out := make([]float64, n)
	for k := 0; k < n; k++ {
		s := 0.0
		for m := 0; m < n; m++ {
			s += x[m] * math.Cos(math.Pi*float64(2*m+1)*float64(2*k+1)/float64(4*n))
		}
		out[k] = 2 * s
	}
	return out
}

func naiveDST4(x []float64) []float64 {
	n := len(x)
	out := make([]float64, n)
	for k := 0; k < n; k++ {
		s := 0.0
		for m := 0; m < n; m++ {
			s += x[m] * math.Sin(math.Pi*float64(2*m+1)*float64(2*k+1)/float64(4*n))
		}
		out[k] = 2 * s
	}
	return out
}

func testInput(n int) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = math.Sin(1.3*float64(i)+0.4) + 0.2*float64(i%4)
	}
	return x
}

func TestR2RMatchesNaive(t *testing.T) {
	cases := []struct {
		bc  BoundaryPair
		fwd func([]float64) []float64
		bwd func([]float64) []float64
	}{
		{BoundaryPair{Even, Even}, naiveDCT2, naiveDCT3},
		{BoundaryPair{Odd, Odd}, naiveDST2, naiveDST3},
		{BoundaryPair{Even, Odd}, naiveDCT4, naiveDCT4},
		{BoundaryPair{Odd, Even}, naiveDST4, naiveDST4},
	}
	for _, tc := range cases {
		for _, n := range []int{1, 2, 4, 7, 8, 16} {
			t.Run(fmt.Sprintf("%s-%s/n=%d", tc.bc.Lo, tc.bc.Hi, n), func(t *testing.T) {
				k, err := newR2RKernel(n, tc.bc)
				require.NoError(t, err)

				x := testInput(n)
				want := tc.fwd(x)
				got := append([]float64(nil), x...)
				k.transform(got, Forward)
				for i := range want {
					assert.InDelta(t, want[i], got[i], 1e-10, "forward bin %d", i)
				}

				want = tc.bwd(x)
				got = append([]float64(nil), x...)
				k.transform(got, Backward)
				for i := range want {
					assert.InDelta(t, want[i], got[i], 1e-10, "backward bin %d", i)
				}
			})
		}
	}
}

func TestR2RRoundTripScalesBy2N(t *testing.T) {
	pairs := []BoundaryPair{
		{Even, Even}, {Odd, Odd}, {Even, Odd}, {Odd, Even},
	}
	for _, bc := range pairs {
		for _, n := range []int{1, 3, 8} {
			t.Run(fmt.Sprintf("%s-%s/n=%d", bc.Lo, bc.Hi, n), func(t *testing.T) {
				k, err := newR2RKernel(n, bc)
				require.NoError(t, err)

				x := testInput(n)
				got := append([]float64(nil), x...)
				k.transform(got, Forward)
				k.transform(got, Backward)
				for i := range x {
					assert.InDelta(t, float64(2*n)*x[i], got[i], 1e-10)
				}
			})
		}
	}
}

func TestR2RCmplxTransformsPartsIndependently(t *testing.T) {
	const n, batch = 8, 3
	c := make([]complex128, n*batch)
	re := make([]float64, n*batch)
	im := make([]float64, n*batch)
	for i := range c {
		re[i] = math.Cos(0.9 * float64(i))
		im[i] = math.Sin(0.5*float64(i)) - 0.3
		c[i] = complex(re[i], im[i])
	}

	p, err := NewR2RCmplx(lineBox(n, batch), c, BoundaryPair{Even, Even})
	require.NoError(t, err)
	defer p.Destroy()
	require.NoError(t, p.R2R(Forward))

	for l := 0; l < batch; l++ {
		wantRe := naiveDCT2(re[l*n : (l+1)*n])
		wantIm := naiveDCT2(im[l*n : (l+1)*n])
		for i := 0; i < n; i++ {
			assert.InDelta(t, wantRe[i], real(c[l*n+i]), 1e-10)
			assert.InDelta(t, wantIm[i], imag(c[l*n+i]), 1e-10)
		}
	}
}

func TestR2RRejectsPeriodic(t *testing.T) {
	_, err := newR2RKernel(8, BoundaryPair{Periodic, Periodic})
	assert.ErrorIs(t, err, ErrInvalidBoundary)
	_, err = newR2RKernel(8, BoundaryPair{Periodic, Even})
	assert.ErrorIs(t, err, ErrInvalidBoundary)
}
