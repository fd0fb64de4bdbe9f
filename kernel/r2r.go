package kernel

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// The real-to-real kernels follow the FFTW naming: the boundary pair
// (even,even) selects DCT-II forward with DCT-III backward, (odd,odd)
// selects DST-II/DST-III, and the mixed pairs select the self-inverse
// DCT-IV and DST-IV. All are unnormalised with logical length 2n, so a
// forward/backward round trip multiplies by 2n.
//
// Each kernel is reduced to a length-2n vendor transform. Types II and
// III use the even or odd extension of the data and a half-sample phase
// twist; type IV pre-twists the input by a quarter-sample shift and runs
// a zero-padded complex transform. This is the same reduction the pack's
// FFT library uses to derive its real transforms from the complex core.
type r2rVariant uint8

const (
	variantDCT r2rVariant = iota // DCT-II forward, DCT-III backward
	variantDST                   // DST-II forward, DST-III backward
	variantDCT4                  // self-inverse
	variantDST4                  // self-inverse
)

type r2rKernel struct {
	n       int
	variant r2rVariant

	rfft2n *fourier.FFT      // types II/III
	cfft2n *fourier.CmplxFFT // type IV

	ext  []float64    // length-2n extension, types II/III
	half []complex128 // half spectrum of the 2n series, length n+1
	zpad []complex128 // pre-twisted zero-padded input, type IV
	full []complex128 // full 2n spectrum, type IV

	tw    []complex128 // exp(-i pi k / 2n), k = 0..n
	twInv []complex128 // exp(+i pi k / 2n), k = 0..n
	post  []complex128 // exp(-i pi (2k+1) / 4n), k = 0..n-1

	line []float64 // component extraction for complex-array plans
}

func variantOf(bc BoundaryPair) (r2rVariant, error) {
	switch {
	case bc.Lo == Even && bc.Hi == Even:
		return variantDCT, nil
	case bc.Lo == Odd && bc.Hi == Odd:
		return variantDST, nil
	case bc.Lo == Even && bc.Hi == Odd:
		return variantDCT4, nil
	case bc.Lo == Odd && bc.Hi == Even:
		return variantDST4, nil
	}
	return 0, fmt.Errorf("%w: no r2r variant for (%s, %s)", ErrInvalidBoundary, bc.Lo, bc.Hi)
}

func newR2RKernel(n int, bc BoundaryPair) (*r2rKernel, error) {
	if err := bc.Validate(); err != nil {
		return nil, err
	}
	if bc.IsPeriodic() {
		return nil, fmt.Errorf("%w: periodic axis is not an r2r flavor", ErrInvalidBoundary)
	}
	if n < 1 {
		return nil, fmt.Errorf("%w: r2r length %d", ErrBackendFailure, n)
	}
	variant, err := variantOf(bc)
	if err != nil {
		return nil, err
	}

	k := &r2rKernel{
		n:       n,
		variant: variant,
		tw:      make([]complex128, n+1),
		twInv:   make([]complex128, n+1),
		line:    make([]float64, n),
	}
	for i := 0; i <= n; i++ {
		s, c := math.Sincos(math.Pi * float64(i) / float64(2*n))
		k.tw[i] = complex(c, -s)
		k.twInv[i] = complex(c, s)
	}

	switch variant {
	case variantDCT, variantDST:
		k.rfft2n = fourier.NewFFT(2 * n)
		k.ext = make([]float64, 2*n)
		k.half = make([]complex128, n+1)
	case variantDCT4, variantDST4:
		k.cfft2n = fourier.NewCmplxFFT(2 * n)
		k.zpad = make([]complex128, 2*n)
		k.full = make([]complex128, 2*n)
		k.post = make([]complex128, n)
		for i := 0; i < n; i++ {
			s, c := math.Sincos(math.Pi * float64(2*i+1) / float64(4*n))
			k.post[i] = complex(c, -s)
		}
	}
	return k, nil
}

func (k *r2rKernel) transform(x []float64, dir Direction) {
	switch k.variant {
	case variantDCT:
		if dir == Forward {
			k.dct2(x)
		} else {
			k.dct3(x)
		}
	case variantDST:
		if dir == Forward {
			k.dst2(x)
		} else {
			k.dst3(x)
		}
	case variantDCT4:
		k.dct4(x)
	case variantDST4:
		k.dst4(x)
	}
}

// dct2 computes X[k] = 2 sum x[m] cos(pi k (2m+1) / 2n) via the even
// extension y[m] = x[m], y[2n-1-m] = x[m] and a half-sample phase twist
// of its spectrum.
func (k *r2rKernel) dct2(x []float64) {
	n := k.n
	for m := 0; m < n; m++ {
		k.ext[m] = x[m]
		k.ext[2*n-1-m] = x[m]
	}
	k.rfft2n.Coefficients(k.half, k.ext)
	for i := 0; i < n; i++ {
		x[i] = real(k.tw[i] * k.half[i])
	}
}

// dct3 inverts dct2 up to the factor 2n by rebuilding the Hermitian
// half spectrum of the even extension and running the unnormalised
// inverse. The Nyquist bin of the extension is identically zero.
func (k *r2rKernel) dct3(x []float64) {
	n := k.n
	for i := 0; i < n; i++ {
		k.half[i] = k.twInv[i] * complex(x[i], 0)
	}
	k.half[n] = 0
	k.rfft2n.Sequence(k.ext, k.half)
	copy(x, k.ext[:n])
}

// dst2 computes X[k] = 2 sum x[m] sin(pi (k+1) (2m+1) / 2n) via the odd
// extension y[m] = x[m], y[2n-1-m] = -x[m].
func (k *r2rKernel) dst2(x []float64) {
	n := k.n
	for m := 0; m < n; m++ {
		k.ext[m] = x[m]
		k.ext[2*n-1-m] = -x[m]
	}
	k.rfft2n.Coefficients(k.half, k.ext)
	for i := 0; i < n; i++ {
		v := k.tw[i+1] * k.half[i+1]
		x[i] = real(complex(0, 1) * v)
	}
}

// dst3 inverts dst2 up to the factor 2n. The zero bin of the odd
// extension vanishes and the Nyquist bin is the last input value.
func (k *r2rKernel) dst3(x []float64) {
	n := k.n
	k.half[0] = 0
	for i := 1; i < n; i++ {
		k.half[i] = complex(0, -1) * k.twInv[i] * complex(x[i-1], 0)
	}
	k.half[n] = complex(x[n-1], 0)
	k.rfft2n.Sequence(k.ext, k.half)
	copy(x, k.ext[:n])
}

// dct4 computes X[k] = 2 sum x[m] cos(pi (2m+1)(2k+1) / 4n). The quarter
// shifted kernel factors into a pre-twist of the input, a zero-padded
// length-2n complex transform, and a post-twist; the transform is its own
// inverse up to the factor 2n.
func (k *r2rKernel) dct4(x []float64) {
	n := k.n
	for m := 0; m < n; m++ {
		k.zpad[m] = complex(x[m], 0) * k.tw[m]
		k.zpad[n+m] = 0
	}
	k.cfft2n.Coefficients(k.full, k.zpad)
	for i := 0; i < n; i++ {
		x[i] = 2 * real(k.post[i]*k.full[i])
	}
}

// dst4 computes X[k] = 2 sum x[m] sin(pi (2m+1)(2k+1) / 4n), the
// self-inverse companion of dct4.
func (k *r2rKernel) dst4(x []float64) {
	n := k.n
	for m := 0; m < n; m++ {
		k.zpad[m] = complex(x[m], 0) * k.tw[m]
		k.zpad[n+m] = 0
	}
	k.cfft2n.Coefficients(k.full, k.zpad)
	for i := 0; i < n; i++ {
		x[i] = -2 * imag(k.post[i]*k.full[i])
	}
}
