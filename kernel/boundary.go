// Package kernel wraps batched 1-D transforms behind opaque plan handles.
// A plan binds a box shape, a kernel flavor, and the element buffers at
// creation; execution replays the bound transform. The underlying vendor
// library is gonum's dsp/fourier, whose transform objects serve both
// directions through one handle.
package kernel

import "fmt"

// Direction selects the transform sense of a plan execution.
type Direction int

const (
	Forward Direction = iota
	Backward
)

// Boundary is one endpoint condition on a transform axis.
type Boundary int

const (
	Periodic Boundary = iota
	Even
	Odd
)

func (b Boundary) String() string {
	switch b {
	case Periodic:
		return "periodic"
	case Even:
		return "even"
	case Odd:
		return "odd"
	}
	return fmt.Sprintf("Boundary(%d)", int(b))
}

// BoundaryPair holds the two endpoint conditions on one axis. A periodic
// endpoint requires the other endpoint to be periodic as well.
type BoundaryPair struct {
	Lo Boundary
	Hi Boundary
}

// Validate rejects a mixed periodic/non-periodic pair.
func (p BoundaryPair) Validate() error {
	if (p.Lo == Periodic) != (p.Hi == Periodic) {
		return fmt.Errorf("%w: (%s, %s)", ErrInvalidBoundary, p.Lo, p.Hi)
	}
	return nil
}

// IsPeriodic reports whether the axis is periodic.
func (p BoundaryPair) IsPeriodic() bool {
	return p.Lo == Periodic && p.Hi == Periodic
}

// SelfInverse reports whether the r2r transform selected by the pair is
// its own inverse, in which case the forward and backward plans may share
// one handle.
func (p BoundaryPair) SelfInverse() bool {
	return (p.Lo == Even && p.Hi == Odd) || (p.Lo == Odd && p.Hi == Even)
}
