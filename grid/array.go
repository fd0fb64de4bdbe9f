package grid

import "fmt"

// Elem constrains the element types a distributed array can carry: real
// data as float64, spectral data as complex128.
type Elem interface {
	~float64 | ~complex128
}

// Array is a distributed array over a BoxArray with per-box flat storage
// in x-fastest order. Storage for a box may be allocated directly or
// attached later from an externally owned buffer, which is how the
// engines alias two arrays with disjoint live ranges onto one arena span.
//
// The zero value is an empty array that participates in no transforms.
type Array[T Elem] struct {
	boxes BoxArray
	ranks RankMap
	data  [][]T
}

// Define binds the array to a layout. When alloc is false the per-box
// storage stays nil until Attach is called.
func (a *Array[T]) Define(boxes BoxArray, ranks RankMap, alloc bool) {
	a.boxes = boxes
	a.ranks = ranks
	a.data = make([][]T, len(boxes))
	if alloc {
		for id, b := range boxes {
			a.data[id] = make([]T, b.NumPts())
		}
	}
}

// Empty reports whether the array has no boxes.
func (a *Array[T]) Empty() bool { return len(a.boxes) == 0 }

// NumBoxes returns the number of boxes in the layout.
func (a *Array[T]) NumBoxes() int { return len(a.boxes) }

// Box returns the box with global id.
func (a *Array[T]) Box(id int) Box { return a.boxes[id] }

// Boxes returns the array's layout.
func (a *Array[T]) Boxes() BoxArray { return a.boxes }

// RankMap returns the box-to-rank assignment.
func (a *Array[T]) RankMap() RankMap { return a.ranks }

// Data returns the flat storage of a box, or nil when unallocated.
func (a *Array[T]) Data(id int) []T { return a.data[id] }

// Attach points a box's storage at an externally owned buffer. The buffer
// must hold at least NumPts elements for that box.
func (a *Array[T]) Attach(id int, buf []T) error {
	need := a.boxes[id].NumPts()
	if len(buf) < need {
		return fmt.Errorf("grid: attach buffer for box %d holds %d elements, need %d",
			id, len(buf), need)
	}
	a.data[id] = buf[:need]
	return nil
}

// At returns the value at cell (i,j,k) of the given box.
func (a *Array[T]) At(id, i, j, k int) T {
	return a.data[id][a.boxes[id].Index(i, j, k)]
}

// Set stores v at cell (i,j,k) of the given box.
func (a *Array[T]) Set(id, i, j, k int, v T) {
	a.data[id][a.boxes[id].Index(i, j, k)] = v
}

// Fill evaluates f at every cell of every box and stores the result.
func (a *Array[T]) Fill(f func(i, j, k int) T) {
	for id, b := range a.boxes {
		dst := a.data[id]
		for k := b.Lo[2]; k <= b.Hi[2]; k++ {
			for j := b.Lo[1]; j <= b.Hi[1]; j++ {
				at := b.Index(b.Lo[0], j, k)
				for i := b.Lo[0]; i <= b.Hi[0]; i++ {
					dst[at] = f(i, j, k)
					at++
				}
			}
		}
	}
}

// ParallelCopy copies src into a over the intersection of their layouts.
// Both arrays index the same space; overlapping x-runs are copied
// contiguously.
func (a *Array[T]) ParallelCopy(src *Array[T]) {
	for di, dbox := range a.boxes {
		dst := a.data[di]
		if dst == nil {
			continue
		}
		for si, sbox := range src.boxes {
			sdata := src.data[si]
			if sdata == nil {
				continue
			}
			is := dbox.Intersect(sbox)
			if is.IsEmpty() {
				continue
			}
			for k := is.Lo[2]; k <= is.Hi[2]; k++ {
				for j := is.Lo[1]; j <= is.Hi[1]; j++ {
					so := sbox.Index(is.Lo[0], j, k)
					do := dbox.Index(is.Lo[0], j, k)
					n := is.Length(0)
					copy(dst[do:do+n], sdata[so:so+n])
				}
			}
		}
	}
}
