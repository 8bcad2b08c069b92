package parser

import (
	"fmt"

	"github.com/loomrun/loom/pkg/plan"
)

// Warning is a non-fatal issue the validator noticed. Warnings never block
// execution; the plan is still produced.
type Warning struct {
	NodeIndex int
	Message   string
}

// schemaValidatorNodeType is the registered id of pkg/nodes.SchemaValidator,
// referenced by id rather than type since pkg/parser does not import
// pkg/nodes (node types are only known to the registry at this layer).
const schemaValidatorNodeType = "schemaValidator"

// warnAboutDeclaredErrorEdges runs every non-fatal check of the warning
// pass: declared-error-edge absence, excessive container nesting depth,
// nesting ratio, and AI response nodes without downstream JSON validation.
func (b *builder) warnAboutDeclaredErrorEdges() {
	b.warnAboutMissingErrorEdges()
	b.warnAboutNestingDepth()
	b.warnAboutNestingRatio()
	b.warnAboutUnvalidatedAIResponses()
}

// warnAboutMissingErrorEdges flags nodes whose metadata declares an
// "error" output but whose step does not route it anywhere.
func (b *builder) warnAboutMissingErrorEdges() {
	for i, node := range b.p.Nodes {
		if node.Kind != plan.KindInvoke {
			continue
		}
		n, err := b.reg.Get(node.NodeType)
		if err != nil {
			continue
		}
		declaresError := false
		for _, out := range n.Metadata().Outputs {
			if out == "error" {
				declaresError = true
				break
			}
		}
		if !declaresError {
			continue
		}
		hasErrorEdge := false
		for _, e := range node.EdgeOrder {
			if e == "error" {
				hasErrorEdge = true
				break
			}
		}
		if !hasErrorEdge {
			b.warnings = append(b.warnings, Warning{
				NodeIndex: i,
				Message:   fmt.Sprintf("node %q declares an error output but the step has no error? edge", node.NodeType),
			})
		}
	}
}

// warnAboutNestingDepth flags inline blocks nested past a depth that
// likely indicates an authoring mistake rather than deliberate structure.
func (b *builder) warnAboutNestingDepth() {
	const maxReasonableDepth = 8

	depth := containerDepth(b.p.Nodes)
	if depth > maxReasonableDepth {
		b.warnings = append(b.warnings, Warning{
			NodeIndex: -1,
			Message:   fmt.Sprintf("inline block nesting reaches depth %d, consider flattening", depth),
		})
	}
}

// warnAboutNestingRatio flags workflows where inline block containers make
// up most of the plan's nodes, a sign that anonymous edge-target blocks are
// being used in place of named, reusable steps.
func (b *builder) warnAboutNestingRatio() {
	const (
		minNodesToConsider = 4
		maxReasonableRatio = 0.5
	)

	if len(b.p.Nodes) < minNodesToConsider {
		return
	}
	containers := 0
	for _, node := range b.p.Nodes {
		if node.Kind == plan.KindContainer {
			containers++
		}
	}
	ratio := float64(containers) / float64(len(b.p.Nodes))
	if ratio > maxReasonableRatio {
		b.warnings = append(b.warnings, Warning{
			NodeIndex: -1,
			Message:   fmt.Sprintf("inline block containers make up %.0f%% of the plan's nodes, consider promoting nested blocks to named steps", ratio*100),
		})
	}
}

// warnAboutUnvalidatedAIResponses flags an AI response node whose
// immediate continuation (its Next, or any declared edge target) never
// reaches a schema validator, so a malformed model reply would propagate
// into the rest of the workflow unchecked.
func (b *builder) warnAboutUnvalidatedAIResponses() {
	for i, node := range b.p.Nodes {
		if node.Kind != plan.KindInvoke {
			continue
		}
		n, err := b.reg.Get(node.NodeType)
		if err != nil || !n.Metadata().IsAIResponse {
			continue
		}
		if b.routesToSchemaValidation(node) {
			continue
		}
		b.warnings = append(b.warnings, Warning{
			NodeIndex: i,
			Message:   fmt.Sprintf("node %q returns an AI-generated response with no downstream schema validation", node.NodeType),
		})
	}
}

func (b *builder) routesToSchemaValidation(node plan.Node) bool {
	targets := make([]int, 0, len(node.Edges)+1)
	if node.Next != plan.NoNext && node.Next != plan.InheritNext {
		targets = append(targets, node.Next)
	}
	for _, idx := range node.Edges {
		targets = append(targets, idx)
	}
	for _, idx := range targets {
		next := b.p.At(idx)
		if next != nil && next.Kind == plan.KindInvoke && next.NodeType == schemaValidatorNodeType {
			return true
		}
	}
	return false
}

func containerDepth(nodes []plan.Node) int {
	var walk func(idx, depth int) int
	seen := make(map[int]bool)
	walk = func(idx, depth int) int {
		if idx < 0 || idx >= len(nodes) || seen[idx] {
			return depth
		}
		seen[idx] = true
		node := nodes[idx]
		if node.Kind != plan.KindContainer {
			return depth
		}
		max := depth + 1
		for _, child := range node.Sequence {
			if d := walk(child, depth+1); d > max {
				max = d
			}
		}
		return max
	}
	max := 0
	for i, node := range nodes {
		if node.Kind == plan.KindContainer {
			if d := walk(i, 0); d > max {
				max = d
			}
		}
	}
	return max
}
