// Package store defines the narrow persistence contract the execution
// engine depends on, plus an in-memory reference implementation for tests
// and single-process deployments.
//
// The engine never owns storage: it calls CreateExecution before the first
// node runs, AppendLog after every node, and FinalizeExecution once the
// walk ends. A host wires a real implementation (Postgres, SQLite, a
// managed log sink) behind this interface; Memory exists so the engine and
// its tests don't need one.
package store
