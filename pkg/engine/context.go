package engine

import (
	"context"
	"log/slog"

	"github.com/loomrun/loom/pkg/state"
)

// execContext is the engine's registry.ExecutionContext implementation. One
// instance is created per execution and its nodeID is swapped before every
// node call; state, input, and the logger are shared across the whole walk.
type execContext struct {
	ctx         context.Context
	workflowID  string
	executionID string
	nodeID      string
	input       interface{}
	state       *state.Manager
	logger      *slog.Logger
}

func (c *execContext) Context() context.Context   { return c.ctx }
func (c *execContext) NodeID() string             { return c.nodeID }
func (c *execContext) WorkflowID() string         { return c.workflowID }
func (c *execContext) ExecutionID() string        { return c.executionID }
func (c *execContext) Input() interface{}         { return c.input }

func (c *execContext) Get(path string) (interface{}, bool) {
	return c.state.Get(path)
}

func (c *execContext) Set(path string, value interface{}) {
	// Node-initiated writes use the same dotted-path contract as
	// state-setter steps. A node that writes an invalid path silently
	// drops the write; node authors are expected to write paths they
	// themselves named in their metadata's declared outputs.
	_ = c.state.Set(path, value)
}

func (c *execContext) Logger() *slog.Logger {
	return c.logger.With("node_id", c.nodeID)
}

// forNode returns a shallow copy of c scoped to nodeID, leaving the shared
// state manager and base logger untouched.
func (c *execContext) forNode(nodeID string) *execContext {
	clone := *c
	clone.nodeID = nodeID
	return &clone
}
