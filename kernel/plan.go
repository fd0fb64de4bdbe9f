package kernel

import (
	"fmt"

	"github.com/spectralkit/pencilfft/grid"
	"gonum.org/v1/gonum/dsp/fourier"
)

type planKind uint8

const (
	kindR2C planKind = iota
	kindC2C
	kindR2R
	kindR2RCmplx
)

// Plan is an opaque handle on a batched 1-D transform bound to the axis-0
// extent of a box and to the element buffers it reads and writes. The
// batch count is the product of the other two extents; batch lines are
// contiguous in x-fastest storage. A plan's lifetime must not exceed the
// lifetime of the buffers it references.
//
// Plans are not safe for concurrent execution: the scratch they carry is
// the work buffer of the vendor call.
type Plan struct {
	kind    planKind
	n       int // transform length (axis 0 of the bound box)
	nc      int // r2c half-spectrum line length, n/2+1
	howmany int
	bc      BoundaryPair

	r []float64
	c []complex128

	rfft *fourier.FFT
	cfft *fourier.CmplxFFT

	scratch []complex128 // c2c out-of-place line

	r2r *r2rKernel

	destroyed bool
}

func batchOf(box grid.Box) int {
	return box.Length(1) * box.Length(2)
}

// NewR2C creates a real-to-complex plan over box. Forward reads the real
// buffer and emits the non-redundant half spectrum k in [0, n/2] into the
// complex buffer; backward is the unnormalised inverse (forward then
// backward multiplies by n).
func NewR2C(box grid.Box, r []float64, c []complex128) (*Plan, error) {
	n := box.Length(0)
	if n < 1 {
		return nil, fmt.Errorf("%w: r2c length %d", ErrBackendFailure, n)
	}
	p := &Plan{
		kind:    kindR2C,
		n:       n,
		nc:      n/2 + 1,
		howmany: batchOf(box),
		r:       r,
		c:       c,
		rfft:    fourier.NewFFT(n),
	}
	if len(r) < p.n*p.howmany || len(c) < p.nc*p.howmany {
		return nil, fmt.Errorf("%w: r2c buffers too small for %v", ErrBackendFailure, box.Lengths())
	}
	return p, nil
}

// NewC2C creates a complex-to-complex plan executing in place on c.
func NewC2C(box grid.Box, c []complex128) (*Plan, error) {
	n := box.Length(0)
	if n < 1 {
		return nil, fmt.Errorf("%w: c2c length %d", ErrBackendFailure, n)
	}
	p := &Plan{
		kind:    kindC2C,
		n:       n,
		howmany: batchOf(box),
		c:       c,
		cfft:    fourier.NewCmplxFFT(n),
		scratch: make([]complex128, n),
	}
	if len(c) < p.n*p.howmany {
		return nil, fmt.Errorf("%w: c2c buffer too small for %v", ErrBackendFailure, box.Lengths())
	}
	return p, nil
}

// NewR2R creates a real-to-real plan executing in place on r. The DCT/DST
// variant derives from the endpoint pair; see r2r.go.
func NewR2R(box grid.Box, r []float64, bc BoundaryPair) (*Plan, error) {
	n := box.Length(0)
	k, err := newR2RKernel(n, bc)
	if err != nil {
		return nil, err
	}
	p := &Plan{
		kind:    kindR2R,
		n:       n,
		howmany: batchOf(box),
		bc:      bc,
		r:       r,
		r2r:     k,
	}
	if len(r) < p.n*p.howmany {
		return nil, fmt.Errorf("%w: r2r buffer too small for %v", ErrBackendFailure, box.Lengths())
	}
	return p, nil
}

// NewR2RCmplx creates a real-to-real plan executing in place on a complex
// buffer, transforming the real and imaginary parts as independent real
// sequences. The engines use this when a non-periodic axis follows a
// periodic one in the pipeline.
func NewR2RCmplx(box grid.Box, c []complex128, bc BoundaryPair) (*Plan, error) {
	n := box.Length(0)
	k, err := newR2RKernel(n, bc)
	if err != nil {
		return nil, err
	}
	p := &Plan{
		kind:    kindR2RCmplx,
		n:       n,
		howmany: batchOf(box),
		bc:      bc,
		c:       c,
		r2r:     k,
	}
	if len(c) < p.n*p.howmany {
		return nil, fmt.Errorf("%w: r2r buffer too small for %v", ErrBackendFailure, box.Lengths())
	}
	return p, nil
}

// R2C executes the bound real-to-complex transform. A nil plan is a
// no-op, which lets the engines call through axis slots that were never
// built.
func (p *Plan) R2C(dir Direction) error {
	if p == nil {
		return nil
	}
	if err := p.check(kindR2C); err != nil {
		return err
	}
	for l := 0; l < p.howmany; l++ {
		rl := p.r[l*p.n : (l+1)*p.n]
		cl := p.c[l*p.nc : (l+1)*p.nc]
		if dir == Forward {
			p.rfft.Coefficients(cl, rl)
		} else {
			p.rfft.Sequence(rl, cl)
		}
	}
	return nil
}

// C2C executes the bound complex transform in place, unnormalised in both
// directions.
func (p *Plan) C2C(dir Direction) error {
	if p == nil {
		return nil
	}
	if err := p.check(kindC2C); err != nil {
		return err
	}
	for l := 0; l < p.howmany; l++ {
		line := p.c[l*p.n : (l+1)*p.n]
		if dir == Forward {
			p.cfft.Coefficients(p.scratch, line)
		} else {
			p.cfft.Sequence(p.scratch, line)
		}
		copy(line, p.scratch)
	}
	return nil
}

// R2R executes the bound real-to-real transform in place. Forward runs
// the type-II (or type-IV) kernel, backward the type-III (or type-IV)
// kernel; a forward/backward round trip multiplies by 2n.
func (p *Plan) R2R(dir Direction) error {
	if p == nil {
		return nil
	}
	if p.destroyed {
		return fmt.Errorf("%w: plan already destroyed", ErrBackendFailure)
	}
	switch p.kind {
	case kindR2R:
		for l := 0; l < p.howmany; l++ {
			p.r2r.transform(p.r[l*p.n:(l+1)*p.n], dir)
		}
	case kindR2RCmplx:
		for l := 0; l < p.howmany; l++ {
			line := p.c[l*p.n : (l+1)*p.n]
			for part := 0; part < 2; part++ {
				for i, v := range line {
					if part == 0 {
						p.r2r.line[i] = real(v)
					} else {
						p.r2r.line[i] = imag(v)
					}
				}
				p.r2r.transform(p.r2r.line, dir)
				for i := range line {
					if part == 0 {
						line[i] = complex(p.r2r.line[i], imag(line[i]))
					} else {
						line[i] = complex(real(line[i]), p.r2r.line[i])
					}
				}
			}
		}
	default:
		return fmt.Errorf("%w: R2R on a %v plan", ErrBackendFailure, p.kind)
	}
	return nil
}

func (p *Plan) check(want planKind) error {
	if p.destroyed {
		return fmt.Errorf("%w: plan already destroyed", ErrBackendFailure)
	}
	if p.kind != want {
		return fmt.Errorf("%w: wrong compute entry for plan kind %v", ErrBackendFailure, p.kind)
	}
	return nil
}

// Destroy releases the plan's scratch and detaches it from its buffers.
// Destroying the same handle twice is a programming error and panics;
// PlanPair tracks shared handles so that each is destroyed exactly once.
func (p *Plan) Destroy() {
	if p == nil {
		return
	}
	if p.destroyed {
		panic("kernel: plan destroyed twice")
	}
	p.destroyed = true
	p.r = nil
	p.c = nil
	p.scratch = nil
	p.rfft = nil
	p.cfft = nil
	p.r2r = nil
}

// Destroyed reports whether Destroy has been called.
func (p *Plan) Destroyed() bool { return p != nil && p.destroyed }

// Len returns the 1-D transform length.
func (p *Plan) Len() int { return p.n }

// Batch returns the number of lines transformed per execution.
func (p *Plan) Batch() int { return p.howmany }
