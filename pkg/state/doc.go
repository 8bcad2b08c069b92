// Package state owns the single mutable state mapping for one workflow
// execution. Nodes never touch it directly: the engine reads values to
// resolve node config, and writes the node's output and any state-setter
// steps back in. There is exactly one writer and one reader at any instant,
// matching the engine's sequential execution model.
package state
