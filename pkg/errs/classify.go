package errs

import (
	"errors"

	"github.com/loomrun/loom/pkg/engine"
	"github.com/loomrun/loom/pkg/parser"
	"github.com/loomrun/loom/pkg/store"
	"github.com/loomrun/loom/pkg/trigger"
)

// Kind is the taxonomy bucket an error falls into, per the error handling
// design: definition errors are fatal at validate-time, trigger errors are
// returned to the caller without persisting an execution, node errors
// normalize into an error edge, engine errors are always terminal, and
// store errors either degrade to a warning or propagate to the caller.
type Kind int

const (
	// KindUnknown is returned for an error this package does not
	// recognize; callers should treat it as an internal/500-class fault.
	KindUnknown Kind = iota
	KindDefinition
	KindTrigger
	KindNode
	KindEngine
	KindStore
)

func (k Kind) String() string {
	switch k {
	case KindDefinition:
		return "definition"
	case KindTrigger:
		return "trigger"
	case KindNode:
		return "node"
	case KindEngine:
		return "engine"
	case KindStore:
		return "store"
	default:
		return "unknown"
	}
}

// Classify inspects err's concrete type (or, for store sentinels, its
// identity) and reports which taxonomy bucket it belongs to. A nil err
// classifies as KindUnknown; callers should check err != nil first.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	// Checked before DefinitionError: a trigger.Error wrapping a parse
	// failure is still fundamentally a trigger-layer rejection (no
	// execution was ever persisted), so it classifies as KindTrigger even
	// though errors.As could also match the wrapped DefinitionError.
	var trigErr *trigger.Error
	if errors.As(err, &trigErr) {
		return KindTrigger
	}

	var defErr *parser.DefinitionError
	if errors.As(err, &defErr) {
		return KindDefinition
	}

	var nodeErr *engine.NodeError
	if errors.As(err, &nodeErr) {
		return KindNode
	}

	var engErr *engine.EngineError
	if errors.As(err, &engErr) {
		return KindEngine
	}

	if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrAlreadyExists) {
		return KindStore
	}

	if errors.Is(err, engine.ErrUnknownNodeAtRuntime) ||
		errors.Is(err, engine.ErrUnresolvedEdgeTarget) ||
		errors.Is(err, engine.ErrLoopCapExceeded) ||
		errors.Is(err, engine.ErrExecutionCancelled) ||
		errors.Is(err, engine.ErrExecutionTimedOut) {
		return KindEngine
	}

	if errors.Is(err, parser.ErrEmptyWorkflow) ||
		errors.Is(err, parser.ErrMissingID) ||
		errors.Is(err, parser.ErrMissingName) ||
		errors.Is(err, parser.ErrInvalidID) ||
		errors.Is(err, parser.ErrInvalidVersion) ||
		errors.Is(err, parser.ErrUnknownStepShape) ||
		errors.Is(err, parser.ErrUnknownNodeType) ||
		errors.Is(err, parser.ErrInvalidStatePath) ||
		errors.Is(err, parser.ErrUnresolvedEdgeTarget) ||
		errors.Is(err, parser.ErrTooManyNodes) ||
		errors.Is(err, parser.ErrTooManyEdges) {
		return KindDefinition
	}

	return KindUnknown
}

// HTTPStatus maps a Kind to the status code the external contract implies:
// definition and trigger errors are caller mistakes (400), a disabled
// automation or webhook collision is a conflict the caller can resolve
// (409, left to the caller to apply via Kind == KindTrigger plus context),
// node/engine faults surface as part of a completed-but-failed execution
// record rather than an HTTP error, and store errors map to 404.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindDefinition, KindTrigger:
		return 400
	case KindStore:
		return 404
	default:
		return 500
	}
}
