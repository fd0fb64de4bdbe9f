package redist

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spectralkit/pencilfft/grid"
)

// Redistribution under a swap of the first two axes: the destination cell
// (j,i,k) must receive the source value at (i,j,k), regardless of how
// either side is decomposed.
func TestParallelCopySwap01(t *testing.T) {
	dom := grid.NewBox(grid.IntVect{}, grid.IntVect{3, 3, 3})
	sw := grid.MapBox(grid.Swap01{}, dom)

	srcBA, err := grid.Decompose(dom, 2, [3]bool{true, false, false})
	require.NoError(t, err)
	dstBA, err := grid.Decompose(sw, 3, [3]bool{true, false, false})
	require.NoError(t, err)

	var src, dst grid.Array[float64]
	src.Define(srcBA, grid.IotaRankMap(len(srcBA)), true)
	dst.Define(dstBA, grid.IotaRankMap(len(dstBA)), true)
	src.Fill(func(i, j, k int) float64 { return float64(100*i + 10*j + k) })

	md := NewCommMetadata(dst.Boxes(), sw, src.Boxes(), grid.Swap01{})
	require.NoError(t, ParallelCopy(&dst, &src, md, grid.Swap01{}))

	for id := 0; id < dst.NumBoxes(); id++ {
		b := dst.Box(id)
		for k := b.Lo[2]; k <= b.Hi[2]; k++ {
			for j := b.Lo[1]; j <= b.Hi[1]; j++ {
				for i := b.Lo[0]; i <= b.Hi[0]; i++ {
					// dst(i,j,k) = src(j,i,k)
					assert.Equal(t, float64(100*j+10*i+k), dst.At(id, i, j, k))
				}
			}
		}
	}
}

func TestCommMetadataCoverage(t *testing.T) {
	dom := grid.NewBox(grid.IntVect{}, grid.IntVect{7, 5, 3})
	rot := grid.MapBox(grid.RotateFwd{}, dom)

	srcBA, err := grid.Decompose(dom, 4, [3]bool{true, false, false})
	require.NoError(t, err)
	dstBA, err := grid.Decompose(rot, 4, [3]bool{true, false, false})
	require.NoError(t, err)

	md := NewCommMetadata(dstBA, rot, srcBA, grid.RotateFwd{})
	require.Positive(t, md.NumRegions())

	// every source cell is claimed by exactly one region
	total := 0
	for _, r := range md.regions {
		total += r.region.NumPts()
	}
	assert.Equal(t, dom.NumPts(), total)
}

// The index law dst(m(p)) = src(p), checked over random domains, random
// decompositions of both sides, and every axis permutation the engines
// use.
func TestParallelCopyIndexLaw(t *testing.T) {
	maps := []grid.IndexMap{grid.Identity{}, grid.Swap01{}, grid.Swap02{}, grid.RotateFwd{}, grid.RotateBwd{}}

	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 150
	properties := gopter.NewProperties(params)

	properties.Property("dst(m(p)) = src(p)", prop.ForAll(
		func(nx, ny, nz, nsrc, ndst, mi int) bool {
			m := maps[mi]
			dom := grid.NewBox(grid.IntVect{}, grid.IntVect{nx - 1, ny - 1, nz - 1})
			image := grid.MapBox(m, dom)

			srcBA, err := grid.Decompose(dom, nsrc, [3]bool{true, false, false})
			if err != nil {
				return false
			}
			dstBA, err := grid.Decompose(image, ndst, [3]bool{true, false, false})
			if err != nil {
				return false
			}

			var src, dst grid.Array[float64]
			src.Define(srcBA, grid.IotaRankMap(len(srcBA)), true)
			dst.Define(dstBA, grid.IotaRankMap(len(dstBA)), true)
			src.Fill(func(i, j, k int) float64 { return float64(1000*i + 100*j + k) })

			md := NewCommMetadata(dst.Boxes(), image, src.Boxes(), m)
			if err := ParallelCopy(&dst, &src, md, m); err != nil {
				return false
			}

			for id := 0; id < src.NumBoxes(); id++ {
				b := src.Box(id)
				for k := b.Lo[2]; k <= b.Hi[2]; k++ {
					for j := b.Lo[1]; j <= b.Hi[1]; j++ {
						for i := b.Lo[0]; i <= b.Hi[0]; i++ {
							mi2, mj, mk := m.Apply(i, j, k)
							want := src.At(id, i, j, k)
							found := false
							for d := 0; d < dst.NumBoxes(); d++ {
								if dst.Box(d).Contains(grid.IntVect{mi2, mj, mk}) {
									if dst.At(d, mi2, mj, mk) != want {
										return false
									}
									found = true
									break
								}
							}
							if !found {
								return false
							}
						}
					}
				}
			}
			return true
		},
		gen.IntRange(2, 8), gen.IntRange(1, 8), gen.IntRange(1, 8),
		gen.IntRange(1, 5), gen.IntRange(1, 5), gen.IntRange(0, 4),
	))

	properties.TestingRun(t)
}
