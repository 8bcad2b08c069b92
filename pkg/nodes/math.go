package nodes

import (
	"fmt"

	"github.com/loomrun/loom/pkg/registry"
)

// Math performs arithmetic across a config-supplied list of numbers,
// writing the result to "mathResult" in state. Grounded on the teacher's
// OperationExecutor, generalized from a fixed two-input pair to an
// arbitrary-length "values" array (folded left to right), since this
// engine has no predecessor-node data flow to pull exactly two inputs
// from.
type Math struct{}

// Metadata implements registry.Node.
func (Math) Metadata() registry.Metadata {
	return registry.Metadata{
		ID:      "math",
		Name:    "Math",
		Version: "1.0.0",
		Inputs:  []string{"operation", "values"},
		Outputs: []string{"mathResult"},
		Tag:     registry.TagUniversal,
	}
}

// Execute implements registry.Node.
func (Math) Execute(ctx registry.ExecutionContext, config map[string]interface{}) (registry.EdgeMap, error) {
	op, err := configString(config, "operation")
	if err != nil {
		return nil, err
	}
	values, err := configFloat64Slice(config, "values")
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: values must not be empty", ErrInvalidFieldType)
	}
	switch op {
	case "add", "subtract", "multiply", "divide":
	default:
		return registry.EdgeMap{"error": map[string]interface{}{
			"error":     fmt.Errorf("%w: %s", ErrUnknownOperation, op).Error(),
			"operation": op,
		}}, nil
	}

	result := values[0]
	for _, v := range values[1:] {
		switch op {
		case "add":
			result += v
		case "subtract":
			result -= v
		case "multiply":
			result *= v
		case "divide":
			if v == 0 {
				return nil, fmt.Errorf("division by zero")
			}
			result /= v
		}
	}

	ctx.Set("mathResult", result)
	return registry.EdgeMap{"result": result}, nil
}
