package grid

import "errors"

// ErrInvalidDomain is returned when a domain violates the shape
// preconditions of a decomposition or engine: a lower bound off the
// origin, a degenerate transform axis, or a split request that cannot be
// satisfied.
var ErrInvalidDomain = errors.New("grid: invalid domain")
