package kernel

import "errors"

var (
	// ErrInvalidBoundary is returned when one endpoint of an axis is
	// periodic and the other is not.
	ErrInvalidBoundary = errors.New("kernel: mixed periodic boundary pair")

	// ErrBackendFailure is returned when a plan cannot be created or
	// executed against its bound buffers.
	ErrBackendFailure = errors.New("kernel: backend failure")
)
