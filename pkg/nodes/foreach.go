package nodes

import (
	"fmt"

	"github.com/loomrun/loom/pkg/registry"
)

// ForEach is a loop node ("...") that walks a config-supplied "items"
// array one element per invocation: each call binds the next element to
// "item" in state and returns the "body" edge the engine's loop driver
// re-invokes this node after, until the array is exhausted. Grounded on
// the teacher's foreach.go/control_foreach.go iterator shape, adapted to
// this engine's explicit loop-driving contract (runLoop/runBody in
// pkg/engine) instead of the teacher's in-node iteration.
//
// Per-call progress is tracked under "_loop.<nodeId>.index" in state,
// since the same *ForEach instance is invoked repeatedly for one loop and
// has no other place to remember which element it left off at.
type ForEach struct{}

// Metadata implements registry.Node.
func (ForEach) Metadata() registry.Metadata {
	return registry.Metadata{
		ID:      "everyArrayItem",
		Name:    "For Each Array Item",
		Version: "1.0.0",
		Inputs:  []string{"items"},
		Outputs: []string{"item", "index"},
		Tag:     registry.TagUniversal,
	}
}

// Execute implements registry.Node.
func (ForEach) Execute(ctx registry.ExecutionContext, config map[string]interface{}) (registry.EdgeMap, error) {
	items, err := configInterfaceSlice(config, "items")
	if err != nil {
		return nil, err
	}

	indexPath := fmt.Sprintf("_loop.%s.index", ctx.NodeID())
	index := 0
	if v, ok := ctx.Get(indexPath); ok {
		if f, ok := toFloat64(v); ok {
			index = int(f)
		}
	}

	if index >= len(items) {
		ctx.Set(indexPath, 0)
		return registry.EdgeMap{"done": nil}, nil
	}

	ctx.Set("item", items[index])
	ctx.Set("index", index)
	ctx.Set(indexPath, index+1)
	return registry.EdgeMap{"body": items[index]}, nil
}
