package mem

import (
	"fmt"
	"math"
	"unsafe"

	"github.com/spectralkit/pencilfft/grid"
)

// Share owns the raw buffers backing a pair of aliased distributed
// arrays. The aliasing contract is temporal: within one forward or
// backward traversal the two arrays' live ranges must not overlap.
type Share struct {
	bufs [][]byte
}

// Release drops the raw buffers. Views previously attached to the aliased
// arrays become invalid.
func (s *Share) Release() {
	if s != nil {
		s.bufs = nil
	}
}

// ShareStorage backs a and b with one raw buffer per rank, sized to the
// larger of the two storage needs for the box that rank owns. Both arrays
// must use iota rank maps, so rank r owns box r in each. Either array may
// be empty.
func ShareStorage[A, B grid.Elem](a *grid.Array[A], b *grid.Array[B]) (*Share, error) {
	na := a.NumBoxes()
	nb := b.NumBoxes()
	nr := na
	if nb > nr {
		nr = nb
	}
	s := &Share{bufs: make([][]byte, nr)}
	var za A
	var zb B
	for r := 0; r < nr; r++ {
		var need int
		var ptsA, ptsB int
		if r < na {
			ptsA = a.Box(r).NumPts()
			need = ptsA * int(unsafe.Sizeof(za))
		}
		if r < nb {
			ptsB = b.Box(r).NumPts()
			if nbBytes := ptsB * int(unsafe.Sizeof(zb)); nbBytes > need {
				need = nbBytes
			}
		}
		if need < 0 || need > math.MaxInt/2 {
			return nil, fmt.Errorf("%w: rank %d needs %d bytes", ErrOutOfMemory, r, need)
		}
		buf := AllocAligned(need)
		s.bufs[r] = buf
		if r < na && ptsA > 0 {
			if err := a.Attach(r, typedView[A](buf, ptsA)); err != nil {
				return nil, err
			}
		}
		if r < nb && ptsB > 0 {
			if err := b.Attach(r, typedView[B](buf, ptsB)); err != nil {
				return nil, err
			}
		}
	}
	return s, nil
}

func typedView[T grid.Elem](b []byte, n int) []T {
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&b[0])), n)
}
