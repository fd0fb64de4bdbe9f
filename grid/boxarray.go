package grid

// BoxArray is an ordered sequence of disjoint boxes covering a domain.
// The slice index is the global box id.
type BoxArray []Box

// NumPts returns the total cell count over all boxes.
func (ba BoxArray) NumPts() int {
	n := 0
	for _, b := range ba {
		n += b.NumPts()
	}
	return n
}

// WithBig returns a copy of ba with every box's upper bound along axis d
// set to v. The engines use this to carve the half-spectrum layout out of
// a real-space decomposition.
func (ba BoxArray) WithBig(d, v int) BoxArray {
	out := make(BoxArray, len(ba))
	for i, b := range ba {
		out[i] = b.WithBig(d, v)
	}
	return out
}

// RankMap assigns each box id to a rank.
type RankMap []int

// IotaRankMap returns the map box i -> rank i. The engines always
// distribute this way so that the first n ranks each own exactly one box.
func IotaRankMap(n int) RankMap {
	m := make(RankMap, n)
	for i := range m {
		m[i] = i
	}
	return m
}
