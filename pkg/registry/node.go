package registry

import (
	"context"
	"log/slog"
)

// Tag partitions node types by deployment surface. The engine itself is
// indifferent to a node's tag; hosts use it to decide which nodes to expose
// in a given deployment (e.g. omit "client" nodes from a headless worker).
type Tag string

const (
	TagUniversal Tag = "universal" // pure computation, safe anywhere
	TagServer    Tag = "server"    // may touch filesystem, network, credentials
	TagClient    Tag = "client"    // browser-only APIs
)

// Metadata describes a node type for the registry listing and editor
// tooling. AIHints is opaque to the engine; it exists only for the
// external editor's use.
type Metadata struct {
	ID      string
	Name    string
	Version string
	Inputs  []string
	Outputs []string
	Tag     Tag
	AIHints map[string]interface{}

	// IsAIResponse marks a node whose output is model-generated text
	// rather than a deterministic computation. The parser's warning pass
	// uses this to flag a step that routes nowhere into schema
	// validation.
	IsAIResponse bool
}

// EdgeMap is the set of named outcomes a node's execution produced. The
// engine looks up the step's declared "<edge>?" keys against this map to
// decide where control flows next.
type EdgeMap map[string]interface{}

// ExecutionContext is the narrow surface a node needs from the engine: the
// current step's identity, the caller's input, the shared state, and a
// logger. Declaring it here (rather than in pkg/engine) lets pkg/nodes
// depend on pkg/registry alone.
type ExecutionContext interface {
	// Context returns the execution's deadline/cancellation context.
	Context() context.Context

	// NodeID is the identifier of the step currently executing.
	NodeID() string
	// WorkflowID is the identifier of the workflow being executed.
	WorkflowID() string
	// ExecutionID is the identifier of the current execution.
	ExecutionID() string
	// Input is the caller-supplied input for the whole execution (the
	// trigger payload: manual input, webhook request, or nil for cron).
	Input() interface{}

	// Get reads a dotted path from the shared state.
	Get(path string) (interface{}, bool)
	// Set writes a literal to a dotted path in the shared state.
	Set(path string, value interface{})

	// Logger is a structured logger pre-bound with workflow/execution/node
	// fields.
	Logger() *slog.Logger
}

// Node is the contract every node type implements. Instances are stateless
// across executions: the registry holds one instance per type and Execute
// is called once per step invocation, receiving per-call configuration.
type Node interface {
	// Metadata describes this node type for the registry listing.
	Metadata() Metadata

	// Execute runs the node once against the given configuration (edge
	// routing keys already stripped) and returns the edges it produced.
	Execute(ctx ExecutionContext, config map[string]interface{}) (EdgeMap, error)
}
