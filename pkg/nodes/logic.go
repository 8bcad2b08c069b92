package nodes

import (
	"fmt"

	"github.com/loomrun/loom/pkg/registry"
)

// Logic performs a two-value comparison, writing the boolean result to
// "logicResult" in state. Grounded on the teacher's strategy-pattern
// operation dispatch (OperationExecutor), applied to comparisons instead of
// arithmetic.
type Logic struct{}

// Metadata implements registry.Node.
func (Logic) Metadata() registry.Metadata {
	return registry.Metadata{
		ID:      "logic",
		Name:    "Logic",
		Version: "1.0.0",
		Inputs:  []string{"operation", "values"},
		Outputs: []string{"logicResult"},
		Tag:     registry.TagUniversal,
	}
}

// Execute implements registry.Node.
func (Logic) Execute(ctx registry.ExecutionContext, config map[string]interface{}) (registry.EdgeMap, error) {
	op, err := configString(config, "operation")
	if err != nil {
		return nil, err
	}
	values, err := configFloat64Slice(config, "values")
	if err != nil {
		return nil, err
	}
	if len(values) != 2 {
		return nil, fmt.Errorf("%w: values must contain exactly 2 numbers, got %d", ErrInvalidFieldType, len(values))
	}

	left, right := values[0], values[1]
	var result bool
	switch op {
	case "equal":
		result = left == right
	case "notEqual":
		result = left != right
	case "greater":
		result = left > right
	case "greaterOrEqual":
		result = left >= right
	case "less":
		result = left < right
	case "lessOrEqual":
		result = left <= right
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownOperation, op)
	}

	ctx.Set("logicResult", result)
	edge := "false"
	if result {
		edge = "true"
	}
	return registry.EdgeMap{edge: result}, nil
}
