package store

import (
	"context"
	"time"

	"github.com/loomrun/loom/pkg/types"
)

// Filter narrows a ListExecutions call. A zero value matches everything.
type Filter struct {
	WorkflowID string
	Status     types.ExecutionStatus
	Limit      int
	Offset     int
}

// Page is one page of a ListExecutions result.
type Page struct {
	Executions []*types.ExecutionRecord
	Total      int
}

// Store is the host-provided sink for execution records and their
// per-node logs. Engine calls are sequential per execution (one node log
// append at a time); the store must tolerate interleaved calls across
// distinct concurrent executions.
//
// Failure to append a log entry or to finalize an execution degrades to a
// warning in the engine (it does not abort or fail the execution); a
// failure from CreateExecution propagates to the trigger caller.
type Store interface {
	// CreateExecution persists a new record in status running and
	// returns its id (normally record.ID, already assigned by the
	// caller).
	CreateExecution(ctx context.Context, record *types.ExecutionRecord) (string, error)

	// AppendLog adds one NodeLogEntry to an existing execution. May block
	// briefly; the engine awaits it between nodes.
	AppendLog(ctx context.Context, executionID string, entry types.NodeLogEntry) error

	// FinalizeExecution sets an execution's terminal status, final state
	// snapshot, and end time.
	FinalizeExecution(ctx context.Context, executionID string, status types.ExecutionStatus, finalState map[string]interface{}, endedAt time.Time) error

	// GetExecution returns the execution record, or ErrNotFound.
	GetExecution(ctx context.Context, id string) (*types.ExecutionRecord, error)

	// ListExecutions returns a page of executions matching filter.
	ListExecutions(ctx context.Context, filter Filter) (Page, error)
}
