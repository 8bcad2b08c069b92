package nodes

import (
	"fmt"

	"github.com/loomrun/loom/pkg/expression"
	"github.com/loomrun/loom/pkg/registry"
)

// Switch evaluates a config-supplied ordered list of cases against a
// switch value and routes to the first matching case's edge, falling back
// to "default" if none match. Grounded on the teacher's SwitchExecutor
// (expr-lang condition per case, last case is the default), adapted from
// reading a predecessor node's value to reading "value" directly out of
// config.
type Switch struct{}

// Metadata implements registry.Node.
func (Switch) Metadata() registry.Metadata {
	return registry.Metadata{
		ID:      "switch",
		Name:    "Switch",
		Version: "1.0.0",
		Inputs:  []string{"value", "cases", "default"},
		Outputs: []string{},
		Tag:     registry.TagUniversal,
	}
}

// Execute implements registry.Node.
func (Switch) Execute(ctx registry.ExecutionContext, config map[string]interface{}) (registry.EdgeMap, error) {
	value, ok := config["value"]
	if !ok {
		return nil, fmt.Errorf("%w: value", ErrMissingField)
	}
	rawCases, err := configInterfaceSlice(config, "cases")
	if err != nil {
		return nil, err
	}
	defaultEdge := optionalConfigString(config, "default", "default")

	for i, rawCase := range rawCases {
		caseMap, ok := rawCase.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: cases[%d] must be an object, got %T", ErrInvalidFieldType, i, rawCase)
		}
		when, err := configString(caseMap, "when")
		if err != nil {
			return nil, fmt.Errorf("cases[%d]: %w", i, err)
		}
		edge := optionalConfigString(caseMap, "edge", fmt.Sprintf("case%d", i))

		matched, err := expression.Evaluate(when, value, nil)
		if err != nil {
			// A malformed case expression is skipped, not fatal, so one bad
			// case doesn't block every other case from matching.
			continue
		}
		if matched {
			return registry.EdgeMap{edge: value}, nil
		}
	}

	return registry.EdgeMap{defaultEdge: value}, nil
}
