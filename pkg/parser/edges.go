package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/loomrun/loom/pkg/plan"
	"github.com/loomrun/loom/pkg/types"
)

// resolveEdges is phase 2: now that every named step in every scope has an
// arena index, walk the pending edge entries recorded during phase 1 and
// resolve each target to a concrete index, building anonymous branch
// sub-plans for array/object targets as it goes.
func (b *builder) resolveEdges() error {
	indices := make([]int, 0, len(b.pending))
	for idx := range b.pending {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	for _, idx := range indices {
		ownerIdx := b.owner[idx]
		continuation := b.p.Nodes[idx].Next
		for _, pe := range b.pending[idx] {
			target, err := b.resolveTarget(pe.target, ownerIdx, continuation)
			if err != nil {
				return &DefinitionError{Path: b.p.Nodes[idx].StepName, Err: fmt.Errorf("resolving edge %q: %w", pe.name, err)}
			}
			b.p.Nodes[idx].Edges[pe.name] = target
		}
	}
	return nil
}

// resolveTarget resolves one edge's raw JSON target value: a string names
// an existing step in scope, an array is an anonymous sequential branch, an
// object is an anonymous inline block.
func (b *builder) resolveTarget(raw json.RawMessage, scopeOwner int, continuation int) (int, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return 0, fmt.Errorf("empty edge target")
	}

	switch trimmed[0] {
	case '"':
		var name string
		if err := json.Unmarshal(raw, &name); err != nil {
			return 0, fmt.Errorf("decoding edge target name: %w", err)
		}
		if idx, ok := b.resolveName(scopeOwner, name); ok {
			return idx, nil
		}
		return 0, fmt.Errorf("%w: %s", ErrUnresolvedEdgeTarget, name)

	case '[':
		var rawSteps []types.RawStep
		if err := json.Unmarshal(raw, &rawSteps); err != nil {
			return 0, fmt.Errorf("decoding edge target step list: %w", err)
		}
		entry, _, err := b.buildSequence(rawSteps, scopeOwner, continuation)
		if err != nil {
			return 0, err
		}
		return entry, nil

	case '{':
		var body types.OrderedObject
		if err := json.Unmarshal(raw, &body); err != nil {
			return 0, fmt.Errorf("decoding edge target inline block: %w", err)
		}
		idx := len(b.p.Nodes)
		b.p.Nodes = append(b.p.Nodes, plan.Node{Next: continuation})
		b.owner[idx] = scopeOwner
		if err := b.reserveBlockBody(idx, "", false, body, scopeOwner); err != nil {
			return 0, err
		}
		return idx, nil

	default:
		return 0, fmt.Errorf("edge target must be a string, array, or object")
	}
}

// resolveName looks up name starting in ownerIdx's local scope and walking
// outward through enclosing containers to the top-level scope.
func (b *builder) resolveName(ownerIdx int, name string) (int, bool) {
	for {
		if scope, ok := b.scopes[ownerIdx]; ok {
			if idx, ok2 := scope[name]; ok2 {
				return idx, true
			}
		}
		if ownerIdx == topScope {
			return 0, false
		}
		parent, ok := b.owner[ownerIdx]
		if !ok {
			return 0, false
		}
		ownerIdx = parent
	}
}

// fixupInheritedNext replaces every plan.InheritNext sentinel with the
// owning container's concrete Next, iterating to a fixed point since a
// container's own Next may itself have been a sentinel at the time its
// children were built.
func (b *builder) fixupInheritedNext() {
	changed := true
	for changed {
		changed = false
		for i := range b.p.Nodes {
			if b.p.Nodes[i].Next != plan.InheritNext {
				continue
			}
			ownerIdx, ok := b.owner[i]
			if !ok || ownerIdx == topScope {
				b.p.Nodes[i].Next = plan.NoNext
				changed = true
				continue
			}
			ownerNext := b.p.Nodes[ownerIdx].Next
			if ownerNext != plan.InheritNext {
				b.p.Nodes[i].Next = ownerNext
				changed = true
			}
		}
	}
}
