package nodes

import (
	"fmt"
	"time"

	"github.com/loomrun/loom/pkg/registry"
)

// Timeout wraps another registered node type, bounding it to a
// config-supplied duration. Grounded on the teacher's TimeoutExecutor for
// the timeout/timeoutAction config shape, adapted from the teacher's stub
// (which only inspected a static "execution_time" field on its input to
// simulate a timeout) into one that actually races the wrapped node's call
// against a timer, since this engine has a real node to wrap.
//
// The wrapped node's own Execute call is not preemptible mid-call (per the
// cooperative cancellation model nodes share with the engine): a call that
// overruns the deadline still runs to completion in its goroutine, but
// Timeout returns to the caller as soon as the deadline fires.
type Timeout struct {
	reg *registry.Registry
}

// NewTimeout returns a Timeout node that resolves wrapped node types
// through reg.
func NewTimeout(reg *registry.Registry) *Timeout {
	return &Timeout{reg: reg}
}

// Metadata implements registry.Node.
func (Timeout) Metadata() registry.Metadata {
	return registry.Metadata{
		ID:      "timeout",
		Name:    "Timeout",
		Version: "1.0.0",
		Inputs:  []string{"node", "nodeConfig", "timeout", "timeoutAction"},
		Outputs: []string{},
		Tag:     registry.TagUniversal,
	}
}

type timeoutResult struct {
	edges registry.EdgeMap
	err   error
}

// Execute implements registry.Node.
func (n *Timeout) Execute(ctx registry.ExecutionContext, config map[string]interface{}) (registry.EdgeMap, error) {
	nodeType, err := configString(config, "node")
	if err != nil {
		return nil, err
	}
	nodeConfig, _ := config["nodeConfig"].(map[string]interface{})

	wrapped, err := n.reg.Get(nodeType)
	if err != nil {
		return nil, fmt.Errorf("timeout: resolving wrapped node %s: %w", nodeType, err)
	}

	limit := configDuration(config, "timeout", 30*time.Second)
	action := optionalConfigString(config, "timeoutAction", "error")

	done := make(chan timeoutResult, 1)
	go func() {
		edges, execErr := wrapped.Execute(ctx, nodeConfig)
		done <- timeoutResult{edges: edges, err: execErr}
	}()

	timer := time.NewTimer(limit)
	defer timer.Stop()

	select {
	case res := <-done:
		return res.edges, res.err
	case <-timer.C:
		if action == "continue_with_partial" {
			return registry.EdgeMap{"timeout": map[string]interface{}{"node": nodeType, "timedOut": true}}, nil
		}
		return nil, fmt.Errorf("timeout: %s exceeded %s", nodeType, limit)
	case <-ctx.Context().Done():
		return nil, ctx.Context().Err()
	}
}
