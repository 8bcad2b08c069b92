// Package types provides the shared data model for the workflow execution
// core: workflow definitions, the tagged step shapes the JSON format allows,
// execution records, and automation bindings.
//
// # Overview
//
// This package has no dependency on the registry, parser, state, or engine
// packages; it exists so those packages share one vocabulary without
// circular imports.
//
// # Step shapes
//
// A workflow's `workflow` array holds steps in one of four shapes: a bare
// node-type string, a single-key object naming a node type (optionally
// loop-suffixed with "..."), a single-key object whose key begins with
// "$." (a state setter), or a single-key object whose key names neither of
// those (an inline block, resolved against the registry by pkg/parser).
// RawStep decodes the wire format while preserving object key order, since
// edge routing depends on "first declared edge wins by declaration order".
//
// # Design Principles
//
//   - Minimal dependencies: no imports of sibling workflow packages.
//   - Decode now, resolve later: RawStep only classifies what the JSON shape
//     alone can tell you; anything needing a registry lookup is left to
//     pkg/parser.
package types
