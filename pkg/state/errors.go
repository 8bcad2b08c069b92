package state

import "errors"

// Sentinel errors for dotted-path state access.
var (
	ErrInvalidPath    = errors.New("invalid state path")
	ErrNotAMapping     = errors.New("state path traverses a non-mapping value")
	ErrIndexOutOfRange = errors.New("state path index out of range")
	ErrNotAnIndex      = errors.New("state path segment is not a valid sequence index")
)
