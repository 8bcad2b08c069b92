package store

import (
	"context"

	"github.com/loomrun/loom/pkg/types"
)

// AutomationStore is the host-provided sink for automation definitions (the
// binding of a workflow to a trigger). The scheduler and webhook dispatcher
// both read from it to rebuild their in-memory routing tables; CRUD
// handlers write through it.
type AutomationStore interface {
	// CreateAutomation persists a new automation, rejecting a duplicate id
	// with ErrAlreadyExists.
	CreateAutomation(ctx context.Context, automation *types.Automation) error

	// UpdateAutomation replaces the stored automation with the same id,
	// or returns ErrNotFound.
	UpdateAutomation(ctx context.Context, automation *types.Automation) error

	// DeleteAutomation removes an automation by id.
	DeleteAutomation(ctx context.Context, id string) error

	// GetAutomation returns a copy of the stored automation, or ErrNotFound.
	GetAutomation(ctx context.Context, id string) (*types.Automation, error)

	// ListAutomations returns every stored automation, enabled or not.
	ListAutomations(ctx context.Context) ([]*types.Automation, error)
}
