package nodes

import (
	"github.com/loomrun/loom/pkg/expression"
	"github.com/loomrun/loom/pkg/registry"
)

// While is a loop node ("...") that re-invokes its body while a
// config-supplied "condition" expression evaluates true against the
// current value at "statePath". Grounded on the teacher's
// WhileLoopExecutor, adapted from the teacher's unimplemented "count
// iterations without updating the value" stub into a real condition
// re-check per iteration, since this engine actually runs the loop body
// between invocations (the teacher's implementation only validated the
// condition once and never re-executed a sub-workflow).
type While struct{}

// Metadata implements registry.Node.
func (While) Metadata() registry.Metadata {
	return registry.Metadata{
		ID:      "while",
		Name:    "While",
		Version: "1.0.0",
		Inputs:  []string{"condition", "statePath"},
		Outputs: []string{},
		Tag:     registry.TagUniversal,
	}
}

// Execute implements registry.Node.
func (While) Execute(ctx registry.ExecutionContext, config map[string]interface{}) (registry.EdgeMap, error) {
	condition, err := configString(config, "condition")
	if err != nil {
		return nil, err
	}
	statePath := optionalConfigString(config, "statePath", "")

	var current interface{}
	if statePath != "" {
		current, _ = ctx.Get(statePath)
	}

	matched, err := expression.Evaluate(condition, current, nil)
	if err != nil {
		return nil, err
	}
	if matched {
		return registry.EdgeMap{"body": current}, nil
	}
	return registry.EdgeMap{"done": current}, nil
}
