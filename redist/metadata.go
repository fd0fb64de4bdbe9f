// Package redist moves distributed-array data between layouts whose index
// spaces differ by an axis permutation. Build-time metadata enumerates the
// point-to-point copy regions once; execution replays them. There are no
// reductions, and every source and destination cell appears in at most one
// region.
package redist

import (
	"github.com/spectralkit/pencilfft/grid"
)

// copyRegion is one precomputed copy descriptor: the cells of region, in
// source coordinates, move from source box src to destination box dst.
type copyRegion struct {
	src    int
	dst    int
	region grid.Box
}

// CommMetadata is the frozen communication schedule for one
// redistribution. It depends only on the two layouts, the destination
// masking box, and the index map, so engines build it once per direction
// at construction.
type CommMetadata struct {
	regions []copyRegion
}

// NewCommMetadata builds the schedule for copying src-layout data into
// dst-layout data under index map m, where m maps source indices to
// destination indices. Each destination box is masked by dstDomain,
// pulled back through the inverse map, and intersected with every source
// box. Descriptor order follows box-id order, which makes the schedule
// deterministic.
func NewCommMetadata(dst grid.BoxArray, dstDomain grid.Box, src grid.BoxArray, m grid.IndexMap) *CommMetadata {
	inv := m.Inverse()
	md := &CommMetadata{}
	for di, dbox := range dst {
		masked := dbox.Intersect(dstDomain)
		if masked.IsEmpty() {
			continue
		}
		pulled := grid.MapBox(inv, masked)
		for si, sbox := range src {
			is := pulled.Intersect(sbox)
			if is.IsEmpty() {
				continue
			}
			md.regions = append(md.regions, copyRegion{src: si, dst: di, region: is})
		}
	}
	return md
}

// NumRegions returns the number of copy descriptors in the schedule.
func (md *CommMetadata) NumRegions() int { return len(md.regions) }
