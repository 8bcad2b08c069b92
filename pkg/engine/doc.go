// Package engine walks a resolved plan.Plan to completion.
//
// # Overview
//
// A workflow compiles (via pkg/parser) into a plan.Plan: a flat arena of
// nodes with resolved integer edge targets, rather than a dependency
// graph. The engine never schedules or parallelizes; it walks the arena
// sequentially from the plan's entry index, following either a step's
// declared edge (when the node's result names one both produced and
// configured) or its fall-through Next.
//
// # Dispatch
//
// Each arena node is one of three kinds:
//
//   - a state setter, which writes a literal to a dotted state path and
//     falls through;
//   - an invoke node, which calls a registry.Node's Execute method
//     through the middleware chain, routes on the first edge that is both
//     present in the returned EdgeMap and declared on the step, and
//     otherwise falls through to Next;
//   - a container (an inline block), which runs its child sequence before
//     falling through to its own Next.
//
// An invoke node marked IsLoop is instead driven by runLoop: it is
// re-invoked every time it returns its body edge, walking the body
// subtree between iterations, until it returns any other edge (or falls
// through) or the configured iteration cap is exceeded.
//
// # Edge context
//
// After any node returns an edge, the payload of the edge it takes (the
// first declared one, or else the first returned edge by name while control
// falls through) overwrites the execution's "_edgeContext" state key whole;
// it is not merged or keyed by edge name.
//
// # Errors
//
// A node's own Execute failure becomes a NodeError if the step declared
// no matching error edge; NodeError terminates the execution as failed.
// EngineError covers faults in the walk itself: an unresolved edge
// target, a node type missing from the registry at call time, a loop
// that exceeded its iteration cap, or cancellation/timeout. EngineError is
// always terminal and is never routed through a declared error edge,
// even for a step that happens to have one.
//
// # Side effects
//
// Execute emits observer.Event notifications around the whole run and
// around each node call, and (given a store.Store) persists an
// ExecutionRecord up front, a NodeLogEntry per node call, and a final
// status/state snapshot at the end. Both are optional: an Engine built
// with no store and no observers still executes correctly.
//
// # Concurrency
//
// Execute builds a fresh state.Manager and execContext per call, so one
// Engine can run multiple plans concurrently; the registry, config,
// middleware chain, and store are shared and must themselves be
// concurrency-safe (the registry and the in-memory store both are).
package engine
