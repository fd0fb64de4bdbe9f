// Package mem provides cache-line-aligned raw buffers and the typed views
// that let two distributed arrays with disjoint live ranges share one
// physical allocation.
package mem

import (
	"errors"
	"unsafe"
)

// CacheLineSize is the alignment granted to raw buffers.
const CacheLineSize = 64

// ErrOutOfMemory is returned when a requested allocation size is not
// representable.
var ErrOutOfMemory = errors.New("mem: allocation size overflow")

// AllocAligned returns an n-byte slice whose first element sits on a
// cache-line boundary. Allocation over-sizes by one alignment unit and
// offsets into it; the returned slice keeps the backing array alive.
func AllocAligned(n int) []byte {
	if n <= 0 {
		return nil
	}
	raw := make([]byte, n+CacheLineSize-1)
	addr := uintptr(unsafe.Pointer(&raw[0]))
	off := int((-addr) & (CacheLineSize - 1))
	return raw[off : off+n : off+n]
}

// Float64View reinterprets the first n*8 bytes of b as a float64 slice.
func Float64View(b []byte, n int) []float64 {
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*float64)(unsafe.Pointer(&b[0])), n)
}

// Complex128View reinterprets the first n*16 bytes of b as a complex128
// slice.
func Complex128View(b []byte, n int) []complex128 {
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*complex128)(unsafe.Pointer(&b[0])), n)
}
