package nodes

import "github.com/loomrun/loom/pkg/registry"

// Empty is a no-op placeholder node: a pass-through used as a scaffold step
// while a workflow is being authored, or as the body of a loop/container
// that has nothing left to do. Grounded on the teacher's tendency to keep a
// trivial node type registered for editor scaffolding (contextconstant.go
// plays the same "always succeeds, does nothing interesting" role).
type Empty struct{}

// Metadata implements registry.Node.
func (Empty) Metadata() registry.Metadata {
	return registry.Metadata{
		ID:      "empty",
		Name:    "Empty",
		Version: "1.0.0",
		Inputs:  []string{},
		Outputs: []string{},
		Tag:     registry.TagUniversal,
	}
}

// Execute implements registry.Node.
func (Empty) Execute(ctx registry.ExecutionContext, config map[string]interface{}) (registry.EdgeMap, error) {
	return registry.EdgeMap{}, nil
}
