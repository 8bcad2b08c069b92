// Package plan holds the resolved, frozen form of a workflow definition: an
// arena of nodes referenced by stable integer indices rather than names or
// pointers, so that a workflow graph containing cycles (a node's edge
// pointing back to an earlier step) can be represented without owning
// back-references.
//
// A Plan is produced once, by pkg/parser, and is read-only for the
// remainder of its life: pkg/engine walks it but never mutates it.
package plan
