package middleware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/loomrun/loom/pkg/registry"
)

// TimeoutMiddleware enforces execution timeouts for nodes.
// If a node takes longer than the configured timeout, Process returns a
// timeout error; the handler is not stopped and runs on in its goroutine.
type TimeoutMiddleware struct {
	defaultTimeout time.Duration
}

// NewTimeoutMiddleware creates a new timeout middleware with default timeout
func NewTimeoutMiddleware(defaultTimeout time.Duration) *TimeoutMiddleware {
	return &TimeoutMiddleware{
		defaultTimeout: defaultTimeout,
	}
}

// Process enforces execution timeout
func (m *TimeoutMiddleware) Process(ctx registry.ExecutionContext, node NodeRef, config map[string]interface{}, next Handler) (registry.EdgeMap, error) {
	// Use default timeout for all nodes
	// Node-specific timeout parsing can be added if needed
	timeout := m.defaultTimeout

	// If timeout is 0 or negative, no timeout is enforced
	if timeout <= 0 {
		return next(ctx, node, config)
	}

	// Create a channel for the result
	type result struct {
		edges registry.EdgeMap
		err   error
	}
	resultChan := make(chan result, 1)

	// Execute with timeout
	go func() {
		edges, err := next(ctx, node, config)
		resultChan <- result{edges: edges, err: err}
	}()

	// Wait for result or timeout
	select {
	case res := <-resultChan:
		return res.edges, res.err
	case <-time.After(timeout):
		return nil, fmt.Errorf("node execution timeout after %v", timeout)
	}
}

// Name returns the middleware name
func (m *TimeoutMiddleware) Name() string {
	return "Timeout"
}

// TimeoutMiddlewareWithContext is a context-aware timeout middleware
// that respects context cancellation: it returns when the timeout passes or
// the execution's context is cancelled. The handler is not stopped and runs
// on in its goroutine.
type TimeoutMiddlewareWithContext struct {
	defaultTimeout time.Duration
}

// NewTimeoutMiddlewareWithContext creates a context-aware timeout middleware
func NewTimeoutMiddlewareWithContext(defaultTimeout time.Duration) *TimeoutMiddlewareWithContext {
	return &TimeoutMiddlewareWithContext{
		defaultTimeout: defaultTimeout,
	}
}

// Process enforces execution timeout using context
func (m *TimeoutMiddlewareWithContext) Process(ctx registry.ExecutionContext, node NodeRef, config map[string]interface{}, next Handler) (registry.EdgeMap, error) {
	// Use default timeout for all nodes
	// Node-specific timeout parsing can be added if needed
	timeout := m.defaultTimeout

	// If timeout is 0 or negative, no timeout is enforced
	if timeout <= 0 {
		return next(ctx, node, config)
	}

	// Create context with timeout, derived from the execution's context
	parent := context.Background()
	if ctx != nil {
		parent = ctx.Context()
	}
	timeoutCtx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	// Create a channel for the result
	type result struct {
		edges registry.EdgeMap
		err   error
	}
	resultChan := make(chan result, 1)

	// Execute in goroutine
	go func() {
		edges, err := next(ctx, node, config)
		resultChan <- result{edges: edges, err: err}
	}()

	// Wait for result or timeout
	select {
	case res := <-resultChan:
		return res.edges, res.err
	case <-timeoutCtx.Done():
		if errors.Is(timeoutCtx.Err(), context.Canceled) {
			return nil, timeoutCtx.Err()
		}
		return nil, fmt.Errorf("node execution timeout after %v", timeout)
	}
}

// Name returns the middleware name
func (m *TimeoutMiddlewareWithContext) Name() string {
	return "TimeoutWithContext"
}
