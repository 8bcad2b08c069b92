// Package parser accepts a workflow definition, validates it against the
// registered node catalog, and produces a frozen pkg/plan.Plan the engine
// can execute.
//
// Validation follows the schema/classification/identifier/state-path/edge
// pipeline: first the document shape, then each step's tagged-union kind,
// then node-type identifiers against the registry (with edit-distance
// suggestions on miss), then dotted state paths, then edge targets. A
// final warning pass flags non-fatal issues (missing error? edges, AI
// nodes with no downstream validation) that do not block execution.
package parser
