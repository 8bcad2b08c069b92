// Package errs classifies the error taxonomy shared across the execution
// core: definition, trigger, node, engine, and store errors. Package-level
// code (pkg/parser, pkg/engine, pkg/trigger, pkg/store) returns its own
// concrete error types; this package gives callers (the HTTP surface, the
// scheduler, the webhook dispatcher) a single switch to classify any of
// them for status-code mapping and logging, without importing every
// producing package's concrete type.
package errs
