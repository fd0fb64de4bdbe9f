package engine

import "errors"

// ErrInvalidDirection is returned when a transform call requires a
// direction the engine was not built for.
var ErrInvalidDirection = errors.New("engine: direction not built")
