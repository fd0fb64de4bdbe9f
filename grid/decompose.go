package grid

import "fmt"

// Decompose splits domain into at most n subboxes. keep[d] = true forbids
// splitting along axis d; the engines lock the axis the next transform
// runs along so that it stays contiguous within each subbox.
//
// Higher axes are split first, with cell counts balanced to within one
// along each split axis. Exact volume balance is not required; the 1-D
// transform kernels tolerate varying batch counts.
func Decompose(domain Box, n int, keep [3]bool) (BoxArray, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: cannot decompose into %d pieces", ErrInvalidDomain, n)
	}
	if domain.IsEmpty() {
		return nil, fmt.Errorf("%w: empty decomposition domain", ErrInvalidDomain)
	}
	if keep[0] && keep[1] && keep[2] {
		return nil, fmt.Errorf("%w: every axis is locked", ErrInvalidDomain)
	}

	splits := IntVect{1, 1, 1}
	avail := n
	for d := 2; d >= 0; d-- {
		if keep[d] || avail == 1 {
			continue
		}
		s := domain.Length(d)
		if s > avail {
			s = avail
		}
		splits[d] = s
		avail /= s
	}

	cx := chunkAxis(domain.Lo[0], domain.Hi[0], splits[0])
	cy := chunkAxis(domain.Lo[1], domain.Hi[1], splits[1])
	cz := chunkAxis(domain.Lo[2], domain.Hi[2], splits[2])

	ba := make(BoxArray, 0, len(cx)*len(cy)*len(cz))
	for _, z := range cz {
		for _, y := range cy {
			for _, x := range cx {
				ba = append(ba, Box{
					Lo: IntVect{x[0], y[0], z[0]},
					Hi: IntVect{x[1], y[1], z[1]},
				})
			}
		}
	}
	return ba, nil
}

// chunkAxis partitions [lo, hi] into s runs whose lengths differ by at
// most one, longer runs first.
func chunkAxis(lo, hi, s int) [][2]int {
	length := hi - lo + 1
	base := length / s
	extra := length % s
	chunks := make([][2]int, 0, s)
	at := lo
	for i := 0; i < s; i++ {
		sz := base
		if i < extra {
			sz++
		}
		chunks = append(chunks, [2]int{at, at + sz - 1})
		at += sz
	}
	return chunks
}
