package parser

import (
	"encoding/json"
	"fmt"

	"github.com/loomrun/loom/pkg/config"
	"github.com/loomrun/loom/pkg/plan"
	"github.com/loomrun/loom/pkg/registry"
	"github.com/loomrun/loom/pkg/types"
)

// pendingEdge is an edge entry whose target has not yet been resolved to
// an arena index. Resolution is deferred to a second pass because targets
// may name steps that appear later in the document (the workflow graph
// can contain cycles).
type pendingEdge struct {
	name   string
	target json.RawMessage
}

// topScope is the synthetic owner index representing the top-level
// workflow array, used as a map key alongside real container indices.
const topScope = -1

// builder accumulates a plan.Plan across the two build passes.
type builder struct {
	reg      *registry.Registry
	cfg      *config.Config
	p        *plan.Plan
	pending  map[int][]pendingEdge // arena index -> its edge entries awaiting resolution
	owner    map[int]int           // arena index -> owning container index (topScope for top-level)
	scopes   map[int]map[string]int // owner index -> its local name table
	warnings []Warning
}

// Parse validates def against reg and produces an executable plan. cfg may
// be nil, in which case config.Default() limits apply.
func Parse(def *types.WorkflowDefinition, reg *registry.Registry, cfg *config.Config) (*plan.Plan, []Warning, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := checkSchema(def); err != nil {
		return nil, nil, err
	}

	b := &builder{
		reg:     reg,
		cfg:     cfg,
		p:       &plan.Plan{WorkflowID: def.ID, WorkflowVersion: def.Version, InitialState: def.InitialState},
		pending: make(map[int][]pendingEdge),
		owner:   make(map[int]int),
		scopes:  make(map[int]map[string]int),
	}

	entry, names, err := b.buildSequence(def.Workflow, topScope, plan.NoNext)
	if err != nil {
		return nil, nil, err
	}
	b.p.Entry = entry
	b.scopes[topScope] = names

	if err := b.resolveEdges(); err != nil {
		return nil, nil, err
	}
	b.fixupInheritedNext()

	if b.cfg.MaxNodes > 0 && len(b.p.Nodes) > b.cfg.MaxNodes {
		return nil, nil, &DefinitionError{Err: fmt.Errorf("%w: %d nodes (limit %d)", ErrTooManyNodes, len(b.p.Nodes), b.cfg.MaxNodes)}
	}
	if b.cfg.MaxEdges > 0 {
		total := 0
		for _, n := range b.p.Nodes {
			total += len(n.EdgeOrder)
		}
		if total > b.cfg.MaxEdges {
			return nil, nil, &DefinitionError{Err: fmt.Errorf("%w: %d edges (limit %d)", ErrTooManyEdges, total, b.cfg.MaxEdges)}
		}
	}

	b.warnAboutDeclaredErrorEdges()

	return b.p, b.warnings, nil
}

func checkSchema(def *types.WorkflowDefinition) error {
	if def == nil {
		return &DefinitionError{Err: fmt.Errorf("definition is nil")}
	}
	if def.ID == "" {
		return &DefinitionError{Path: "id", Err: ErrMissingID}
	}
	if !types.ValidID(def.ID) {
		return &DefinitionError{Path: "id", Err: ErrInvalidID}
	}
	if def.Name == "" {
		return &DefinitionError{Path: "name", Err: ErrMissingName}
	}
	if !types.ValidSemver(def.Version) {
		return &DefinitionError{Path: "version", Err: ErrInvalidVersion}
	}
	if len(def.Workflow) == 0 {
		return &DefinitionError{Path: "workflow", Err: ErrEmptyWorkflow}
	}
	return nil
}

// buildSequence reserves arena slots (phase 1) for steps in declaration
// order, returning the index of the first node (or parentNext if steps is
// empty) and the name table of steps directly nameable within this scope.
// parentNext is wired as the Next of the sequence's final node.
func (b *builder) buildSequence(steps []types.RawStep, ownerIdx int, parentNext int) (int, map[string]int, error) {
	if len(steps) == 0 {
		return parentNext, map[string]int{}, nil
	}

	indices := make([]int, len(steps))
	names := make(map[string]int)

	for i, step := range steps {
		idx, err := b.reserve(step, ownerIdx)
		if err != nil {
			return 0, nil, err
		}
		indices[i] = idx
		b.owner[idx] = ownerIdx
		if name := b.p.Nodes[idx].StepName; name != "" {
			names[name] = idx
		}
	}

	for i, idx := range indices {
		next := parentNext
		if i < len(indices)-1 {
			next = indices[i+1]
		}
		b.p.Nodes[idx].Next = next
	}

	return indices[0], names, nil
}

// reserve creates the arena slot for one step, classifying it and filling
// everything phase 1 can determine (kind, config, nested sequence). Edge
// entries are recorded as pending for phase 2.
func (b *builder) reserve(step types.RawStep, ownerIdx int) (int, error) {
	idx := len(b.p.Nodes)
	b.p.Nodes = append(b.p.Nodes, plan.Node{Next: plan.NoNext})

	switch step.Kind {
	case types.StepBareNode:
		if !b.reg.Has(step.NodeType) {
			return 0, b.unknownNodeError(step.NodeType)
		}
		b.p.Nodes[idx] = plan.Node{
			Kind:     plan.KindInvoke,
			StepName: step.NodeType,
			NodeType: step.NodeType,
			Config:   map[string]interface{}{},
			Edges:    map[string]int{},
			Next:     plan.NoNext,
		}

	case types.StepStateSetter:
		if !types.ValidStatePath(step.Path) {
			return 0, &DefinitionError{Path: "$." + step.Path, Err: ErrInvalidStatePath}
		}
		var value interface{}
		if len(step.Value) > 0 {
			if err := json.Unmarshal(step.Value, &value); err != nil {
				return 0, &DefinitionError{Path: "$." + step.Path, Err: fmt.Errorf("decoding state setter value: %w", err)}
			}
		}
		b.p.Nodes[idx] = plan.Node{
			Kind:  plan.KindStateSetter,
			Path:  step.Path,
			Value: value,
			Next:  plan.NoNext,
		}

	case types.StepKeyedBlock:
		if err := b.reserveKeyedBlock(idx, step, ownerIdx); err != nil {
			return 0, err
		}

	default:
		return 0, &DefinitionError{Err: ErrUnknownStepShape}
	}

	return idx, nil
}

func (b *builder) reserveKeyedBlock(idx int, step types.RawStep, ownerIdx int) error {
	var body types.OrderedObject
	if step.Body != nil {
		body = *step.Body
	}
	return b.reserveBlockBody(idx, step.OuterKey, step.IsLoop, body, ownerIdx)
}

// reserveBlockBody fills in the node at idx from a decoded block body,
// classifying it as a configured node (if outerKey is registered) or a
// container otherwise. Shared between named keyed-block steps and
// anonymous inline-block edge targets.
func (b *builder) reserveBlockBody(idx int, outerKey string, isLoop bool, body types.OrderedObject, ownerIdx int) error {
	nodeConfig := map[string]interface{}{}
	var edgeOrder []string
	var nestedSteps []types.RawStep

	isNode := outerKey != "" && b.reg.Has(outerKey)

	for _, entry := range body.Entries {
		if types.IsEdgeKey(entry.Key) {
			name := types.EdgeName(entry.Key)
			edgeOrder = append(edgeOrder, name)
			b.pending[idx] = append(b.pending[idx], pendingEdge{name: name, target: entry.Value})
			continue
		}
		if isNode {
			var v interface{}
			if err := json.Unmarshal(entry.Value, &v); err != nil {
				return &DefinitionError{Path: outerKey, Err: fmt.Errorf("decoding config key %q: %w", entry.Key, err)}
			}
			nodeConfig[entry.Key] = v
			continue
		}
		nested, err := reconstructStep(entry)
		if err != nil {
			return &DefinitionError{Path: outerKey, Err: err}
		}
		nestedSteps = append(nestedSteps, nested)
	}

	if isNode {
		b.p.Nodes[idx] = plan.Node{
			Kind:      plan.KindInvoke,
			StepName:  outerKey,
			NodeType:  outerKey,
			IsLoop:    isLoop,
			Config:    nodeConfig,
			EdgeOrder: edgeOrder,
			Edges:     map[string]int{},
			Next:      b.p.Nodes[idx].Next,
		}
		return nil
	}

	// Inline block / container. Children are built with the InheritNext
	// sentinel as their fallthrough: idx's own Next (the continuation
	// after this whole container) is not known until idx's enclosing
	// buildSequence wires it, which happens after this call returns. A
	// fixup pass at the end of Parse replaces the sentinel once every
	// container's Next is concrete.
	ownNext := b.p.Nodes[idx].Next
	childEntry, names, err := b.buildSequence(nestedSteps, idx, plan.InheritNext)
	if err != nil {
		return err
	}
	var sequence []int
	if len(nestedSteps) > 0 {
		sequence = collectSequence(childEntry, b.p)
	}
	b.scopes[idx] = names
	b.p.Nodes[idx] = plan.Node{
		Kind:      plan.KindContainer,
		StepName:  outerKey,
		EdgeOrder: edgeOrder,
		Edges:     map[string]int{},
		Sequence:  sequence,
		Names:     names,
		Next:      ownNext,
	}
	return nil
}

// collectSequence walks a just-built chain starting at entry (following
// Next pointers, which at this point in phase 1 only span this container's
// own sequence since parentNext was InheritNext) and returns the arena indices
// in order.
func collectSequence(entry int, p *plan.Plan) []int {
	var out []int
	i := entry
	for i != plan.NoNext && i != plan.InheritNext {
		out = append(out, i)
		i = p.Nodes[i].Next
	}
	return out
}

// reconstructStep rebuilds a types.RawStep from one OrderedObject entry
// (key/value pair) found inside a container's body, by re-decoding it
// through the same single-key-object classification RawStep.UnmarshalJSON
// performs on top-level steps.
func reconstructStep(entry types.OrderedEntry) (types.RawStep, error) {
	synthetic := types.OrderedObject{Entries: []types.OrderedEntry{entry}}
	raw, err := synthetic.MarshalJSON()
	if err != nil {
		return types.RawStep{}, fmt.Errorf("re-encoding nested step %q: %w", entry.Key, err)
	}
	var step types.RawStep
	if err := json.Unmarshal(raw, &step); err != nil {
		return types.RawStep{}, fmt.Errorf("decoding nested step %q: %w", entry.Key, err)
	}
	return step, nil
}

func (b *builder) unknownNodeError(nodeType string) error {
	suggestions := Suggestions(nodeType, b.reg.Ids())
	return &DefinitionError{
		Path:        nodeType,
		Err:         fmt.Errorf("%w: %s", ErrUnknownNodeType, nodeType),
		Suggestions: suggestions,
	}
}
