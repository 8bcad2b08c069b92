// Package registry defines the Node contract nodes implement and the
// thread-safe catalog the parser and engine consult to resolve node types.
//
// The contract is a single-method interface plus a metadata accessor,
// following the Strategy pattern: node behavior is polymorphic over Node,
// never over an inheritance hierarchy. ExecutionContext is declared here
// rather than in pkg/engine so that pkg/nodes can depend on pkg/registry
// alone, without importing the engine that drives it.
package registry
