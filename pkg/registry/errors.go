package registry

import "errors"

var (
	// ErrAlreadyRegistered names a second registration of an (id, version)
	// pair. Register does not return it: re-registering the same pair is a
	// no-op that keeps the instance already bound.
	ErrAlreadyRegistered = errors.New("node type already registered for this version")
	// ErrNotFound is returned when a lookup finds no node for the given id.
	ErrNotFound = errors.New("no node registered for type")
	// ErrVersionCollision is returned by Register when a node id is
	// re-registered under a different version. The registry still keeps
	// the newest registration (latest wins); this error exists so the
	// host can surface the collision as a configuration problem.
	ErrVersionCollision = errors.New("node type registered under a different version")
)
