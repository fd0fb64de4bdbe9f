// Package engine implements the distributed multi-dimensional transform
// engines. R2C performs fully periodic real-to-complex transforms; R2X
// generalises to independent per-axis boundary conditions. Both carve the
// domain into rank-local pencils, run batched 1-D kernels along the local
// axis, and transpose between phases with precomputed redistribution
// schedules. An engine is immutable after construction and its transform
// calls are collective over its rank group.
package engine

import (
	"runtime"

	"github.com/rs/zerolog"
)

// Direction restricts which plans an engine builds. A restricted engine
// rejects calls in the suppressed direction; there is no dispatch cost at
// execute time.
type Direction int

const (
	DirectionBoth Direction = iota
	DirectionForward
	DirectionBackward
)

// Info carries the engine construction options. The zero value is usable.
type Info struct {
	// Ranks is the size of the rank group the domain is decomposed
	// over. Defaults to GOMAXPROCS.
	Ranks int

	// BatchMode, on a 3-D domain, treats the highest axis as an
	// independent batch dimension: no transform runs along z and no
	// z-direction redistribution is built. Only R2C honors it.
	BatchMode bool

	// Direction restricts which plans are built.
	Direction Direction

	// Logger receives construction-time diagnostics. Nil disables
	// logging.
	Logger *zerolog.Logger
}

func (in Info) ranks() int {
	if in.Ranks > 0 {
		return in.Ranks
	}
	return runtime.GOMAXPROCS(0)
}

func (in Info) logger() zerolog.Logger {
	if in.Logger != nil {
		return *in.Logger
	}
	return zerolog.Nop()
}

func (in Info) wantFwd() bool { return in.Direction != DirectionBackward }
func (in Info) wantBwd() bool { return in.Direction != DirectionForward }
