package nodes

import (
	"context"
	"io"
	"log/slog"

	"github.com/loomrun/loom/pkg/state"
)

// fakeCtx is a minimal registry.ExecutionContext for node tests, standing in
// for the engine's unexported execContext.
type fakeCtx struct {
	ctx    context.Context
	nodeID string
	input  interface{}
	state  *state.Manager
	logger *slog.Logger
}

func newFakeCtx() *fakeCtx {
	return &fakeCtx{
		ctx:    context.Background(),
		nodeID: "n1",
		state:  state.New(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func (c *fakeCtx) Context() context.Context { return c.ctx }
func (c *fakeCtx) NodeID() string           { return c.nodeID }
func (c *fakeCtx) WorkflowID() string       { return "wf1" }
func (c *fakeCtx) ExecutionID() string      { return "ex1" }
func (c *fakeCtx) Input() interface{}       { return c.input }

func (c *fakeCtx) Get(path string) (interface{}, bool) { return c.state.Get(path) }
func (c *fakeCtx) Set(path string, value interface{})  { _ = c.state.Set(path, value) }

func (c *fakeCtx) Logger() *slog.Logger { return c.logger }
