package nodes

import (
	"fmt"

	"github.com/loomrun/loom/pkg/expression"
	"github.com/loomrun/loom/pkg/registry"
)

// Filter keeps the elements of a config-supplied "items" array for which
// "condition" evaluates true, writing the kept subset to "filterResult".
// The expression runs through expr-lang/expr (pkg/expression), with each
// element bound as "item". Grounded on the teacher's FilterExecutor;
// adapted from pulling a predecessor node's array output to reading
// "items" directly out of config, matching this engine's no-dataflow-graph
// model.
type Filter struct{}

// Metadata implements registry.Node.
func (Filter) Metadata() registry.Metadata {
	return registry.Metadata{
		ID:      "filter",
		Name:    "Filter",
		Version: "1.0.0",
		Inputs:  []string{"items", "condition"},
		Outputs: []string{"filterResult"},
		Tag:     registry.TagUniversal,
	}
}

// Execute implements registry.Node.
func (Filter) Execute(ctx registry.ExecutionContext, config map[string]interface{}) (registry.EdgeMap, error) {
	condition, err := configString(config, "condition")
	if err != nil {
		return nil, err
	}
	items, err := configInterfaceSlice(config, "items")
	if err != nil {
		return nil, err
	}

	kept := make([]interface{}, 0, len(items))
	for i, item := range items {
		matched, err := expression.Evaluate(condition, item, nil)
		if err != nil {
			return nil, fmt.Errorf("evaluating condition for items[%d]: %w", i, err)
		}
		if matched {
			kept = append(kept, item)
		}
	}

	ctx.Set("filterResult", kept)
	edge := "empty"
	if len(kept) > 0 {
		edge = "matched"
	}
	return registry.EdgeMap{edge: kept}, nil
}
