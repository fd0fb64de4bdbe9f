package redist

import (
	"github.com/spectralkit/pencilfft/grid"
	"golang.org/x/sync/errgroup"
)

// ParallelCopy executes a precomputed schedule: for every cell described
// by md, dst(m(i,j,k)) = src(i,j,k). Values are copied verbatim; the map
// rewrites indices only. The call is collective over the arrays' rank
// group and synchronous on return. Descriptors fan out across goroutines;
// no two descriptors touch the same destination cell, so the fan-out is
// race-free.
func ParallelCopy[T grid.Elem](dst, src *grid.Array[T], md *CommMetadata, m grid.IndexMap) error {
	var g errgroup.Group
	for _, cr := range md.regions {
		cr := cr
		g.Go(func() error {
			sbox := src.Box(cr.src)
			dbox := dst.Box(cr.dst)
			sdata := src.Data(cr.src)
			ddata := dst.Data(cr.dst)
			r := cr.region
			for k := r.Lo[2]; k <= r.Hi[2]; k++ {
				for j := r.Lo[1]; j <= r.Hi[1]; j++ {
					so := sbox.Index(r.Lo[0], j, k)
					for i := r.Lo[0]; i <= r.Hi[0]; i++ {
						di, dj, dk := m.Apply(i, j, k)
						ddata[dbox.Index(di, dj, dk)] = sdata[so]
						so++
					}
				}
			}
			return nil
		})
	}
	return g.Wait()
}
