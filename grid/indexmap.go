package grid

// IndexMap rewrites index-space coordinates during redistribution. The map
// applies to indices only; cell values are copied verbatim. Apply maps a
// source-space index to the destination space; Inverse returns the map for
// the opposite direction.
type IndexMap interface {
	Apply(i, j, k int) (int, int, int)
	Inverse() IndexMap
}

// Identity maps every index to itself.
type Identity struct{}

func (Identity) Apply(i, j, k int) (int, int, int) { return i, j, k }
func (Identity) Inverse() IndexMap                 { return Identity{} }

// Swap01 exchanges the first two axes: (i,j,k) -> (j,i,k). Self-inverse.
type Swap01 struct{}

func (Swap01) Apply(i, j, k int) (int, int, int) { return j, i, k }
func (Swap01) Inverse() IndexMap                 { return Swap01{} }

// Swap02 exchanges the first and last axes: (i,j,k) -> (k,j,i). Self-inverse.
type Swap02 struct{}

func (Swap02) Apply(i, j, k int) (int, int, int) { return k, j, i }
func (Swap02) Inverse() IndexMap                 { return Swap02{} }

// RotateFwd rotates (i,j,k) -> (k,i,j), taking the (x,y,z) ordering into
// (z,x,y).
type RotateFwd struct{}

func (RotateFwd) Apply(i, j, k int) (int, int, int) { return k, i, j }
func (RotateFwd) Inverse() IndexMap                 { return RotateBwd{} }

// RotateBwd rotates (i,j,k) -> (j,k,i), the inverse of RotateFwd.
type RotateBwd struct{}

func (RotateBwd) Apply(i, j, k int) (int, int, int) { return j, k, i }
func (RotateBwd) Inverse() IndexMap                 { return RotateFwd{} }

// MapBox applies m to a box. The maps here permute axes, so the image of a
// box is the box spanned by the images of its corners.
func MapBox(m IndexMap, b Box) Box {
	li, lj, lk := m.Apply(b.Lo[0], b.Lo[1], b.Lo[2])
	hi, hj, hk := m.Apply(b.Hi[0], b.Hi[1], b.Hi[2])
	lo := IntVect{li, lj, lk}
	hi3 := IntVect{hi, hj, hk}
	return Box{Lo: lo.Min(hi3), Hi: lo.Max(hi3)}
}
