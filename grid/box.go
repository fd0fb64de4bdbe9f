// Package grid provides the block-distributed Cartesian index-space
// abstraction the transform engines are built on: integer boxes, ordered
// box arrays with rank assignment, block decomposition, index-space
// transforms, and distributed arrays with optionally aliased storage.
package grid

// IntVect is a point in the 3-dimensional integer index space. Domains
// with fewer than three logical dimensions use trailing extents of one.
type IntVect [3]int

// Max returns the componentwise maximum of v and o.
func (v IntVect) Max(o IntVect) IntVect {
	for d := 0; d < 3; d++ {
		if o[d] > v[d] {
			v[d] = o[d]
		}
	}
	return v
}

// Min returns the componentwise minimum of v and o.
func (v IntVect) Min(o IntVect) IntVect {
	for d := 0; d < 3; d++ {
		if o[d] < v[d] {
			v[d] = o[d]
		}
	}
	return v
}

// Box is a closed integer hyper-rectangle [Lo, Hi]. Cells are
// cell-centered indices; a box is empty when Hi < Lo along any axis.
type Box struct {
	Lo IntVect
	Hi IntVect
}

// NewBox returns the box [lo, hi].
func NewBox(lo, hi IntVect) Box {
	return Box{Lo: lo, Hi: hi}
}

// Length returns the number of cells along axis d.
func (b Box) Length(d int) int {
	return b.Hi[d] - b.Lo[d] + 1
}

// Lengths returns the per-axis cell counts.
func (b Box) Lengths() IntVect {
	return IntVect{b.Length(0), b.Length(1), b.Length(2)}
}

// NumPts returns the total cell count, or zero for an empty box.
func (b Box) NumPts() int {
	if b.IsEmpty() {
		return 0
	}
	return b.Length(0) * b.Length(1) * b.Length(2)
}

// IsEmpty reports whether the box contains no cells.
func (b Box) IsEmpty() bool {
	return b.Hi[0] < b.Lo[0] || b.Hi[1] < b.Lo[1] || b.Hi[2] < b.Lo[2]
}

// Contains reports whether p lies inside the box.
func (b Box) Contains(p IntVect) bool {
	for d := 0; d < 3; d++ {
		if p[d] < b.Lo[d] || p[d] > b.Hi[d] {
			return false
		}
	}
	return true
}

// Intersect returns the overlap of b and o, which may be empty.
func (b Box) Intersect(o Box) Box {
	return Box{Lo: b.Lo.Max(o.Lo), Hi: b.Hi.Min(o.Hi)}
}

// WithBig returns a copy of b with the upper bound along axis d set to v.
func (b Box) WithBig(d, v int) Box {
	b.Hi[d] = v
	return b
}

// WithSmall returns a copy of b with the lower bound along axis d set to v.
func (b Box) WithSmall(d, v int) Box {
	b.Lo[d] = v
	return b
}

// Slab returns a copy of b flattened to the single index v along axis d.
func (b Box) Slab(d, v int) Box {
	b.Lo[d] = v
	b.Hi[d] = v
	return b
}

// Index returns the flat storage offset of cell (i,j,k) within the box.
// Storage is x-fastest: offset = (i-lo0) + n0*((j-lo1) + n1*(k-lo2)).
func (b Box) Index(i, j, k int) int {
	n0 := b.Length(0)
	n1 := b.Length(1)
	return (i - b.Lo[0]) + n0*((j-b.Lo[1])+n1*(k-b.Lo[2]))
}
