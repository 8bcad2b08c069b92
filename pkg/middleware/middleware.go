// Package middleware provides the Chain of Responsibility pattern implementation
// for node execution middleware. This enables cross-cutting concerns like logging,
// metrics, validation, and timeouts to be added without modifying node logic.
package middleware

import (
	"github.com/loomrun/loom/pkg/registry"
)

// NodeRef identifies the step a middleware is wrapping, without requiring
// the full plan.Node (which the middleware package must not depend on, to
// stay usable from both the engine and the registry's own CLI-less tests).
type NodeRef struct {
	ID   string
	Type string
}

// Handler executes a node's configured call and returns the edges it
// produced. This is the signature both the engine's final dispatch and
// every middleware in the chain share.
type Handler func(ctx registry.ExecutionContext, node NodeRef, config map[string]interface{}) (registry.EdgeMap, error)

// Middleware defines the interface for execution middleware.
// Middleware can inspect, modify, or short-circuit node execution.
//
// Example middleware implementations:
//   - LoggingMiddleware: logs execution start/end
//   - MetricsMiddleware: records performance metrics
//   - ValidationMiddleware: validates inputs before execution
//   - TimeoutMiddleware: enforces execution timeouts
//   - RetryMiddleware: retries failed executions
type Middleware interface {
	// Process handles the node execution, optionally calling next() to continue the chain.
	// The middleware can:
	//   - Pre-process: modify context or node before calling next
	//   - Execute: call next to continue the chain
	//   - Post-process: inspect or modify the result after next returns
	//   - Short-circuit: return without calling next (e.g., cache hit)
	Process(ctx registry.ExecutionContext, node NodeRef, config map[string]interface{}, next Handler) (registry.EdgeMap, error)

	// Name returns the middleware name for logging and debugging
	Name() string
}

// Chain represents an ordered chain of middleware.
// Middleware are executed in the order they were added.
type Chain struct {
	middlewares []Middleware
}

// NewChain creates a new middleware chain
func NewChain() *Chain {
	return &Chain{
		middlewares: make([]Middleware, 0),
	}
}

// Use adds middleware to the chain.
// Middleware are executed in the order they are added.
func (c *Chain) Use(middleware Middleware) *Chain {
	c.middlewares = append(c.middlewares, middleware)
	return c
}

// Execute runs the middleware chain followed by the final handler.
//
// Example execution flow with 3 middleware:
//
//	M1.Process(pre) -> M2.Process(pre) -> M3.Process(pre) -> handler() ->
//	M3.Process(post) -> M2.Process(post) -> M1.Process(post) -> return
func (c *Chain) Execute(ctx registry.ExecutionContext, node NodeRef, config map[string]interface{}, handler Handler) (registry.EdgeMap, error) {
	if len(c.middlewares) == 0 {
		return handler(ctx, node, config)
	}

	index := 0
	var next Handler
	next = func(ctx registry.ExecutionContext, node NodeRef, config map[string]interface{}) (registry.EdgeMap, error) {
		if index >= len(c.middlewares) {
			return handler(ctx, node, config)
		}
		middleware := c.middlewares[index]
		index++
		return middleware.Process(ctx, node, config, next)
	}

	return next(ctx, node, config)
}

// Len returns the number of middleware in the chain
func (c *Chain) Len() int {
	return len(c.middlewares)
}

// Middlewares returns all middleware in the chain
func (c *Chain) Middlewares() []Middleware {
	result := make([]Middleware, len(c.middlewares))
	copy(result, c.middlewares)
	return result
}
