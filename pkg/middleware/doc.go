// Package middleware provides step middleware for the workflow engine.
//
// # Overview
//
// The middleware package implements a Chain of Responsibility over node
// execution, allowing pre-processing, post-processing, and short-circuiting
// of each step the engine runs. This enables cross-cutting concerns like
// logging, metrics, retries, timeouts, and size limits without modifying
// node implementations.
//
// # Middleware Interface
//
//	type Middleware interface {
//	    Process(ctx registry.ExecutionContext, node NodeRef, config map[string]interface{}, next Handler) (registry.EdgeMap, error)
//	    Name() string
//	}
//
// # Basic Usage
//
//	import "github.com/loomrun/loom/pkg/middleware"
//
//	chain := middleware.NewChain().
//	    Use(middleware.NewLoggingMiddleware(logger)).
//	    Use(middleware.NewMetricsMiddleware(collector)).
//	    Use(middleware.NewTimeoutMiddleware(30 * time.Second))
//
//	edges, err := chain.Execute(ctx, node, config, finalHandler)
//
// # Custom Middleware Example
//
//	type ValidationMiddleware struct{}
//
//	func (m *ValidationMiddleware) Process(ctx registry.ExecutionContext, node middleware.NodeRef, config map[string]interface{}, next middleware.Handler) (registry.EdgeMap, error) {
//	    if err := validateConfig(config); err != nil {
//	        return nil, err
//	    }
//	    return next(ctx, node, config)
//	}
//
// # Built-in Middleware
//
// LoggingMiddleware logs step start/completion and timing. MetricsMiddleware
// records per-node-type execution counts and durations. RetryMiddleware and
// ConditionalRetryMiddleware retry failed steps with exponential backoff.
// TimeoutMiddleware enforces a per-step deadline. SizeLimitMiddleware bounds
// config and edge output sizes. RateLimitMiddleware enforces global,
// per-node-type, and per-workflow request rates. ValidationMiddleware and
// InputValidationMiddleware check node configuration before execution.
//
// # Middleware Chain
//
// Middleware executes in registration order on the way in and unwinds in
// reverse on the way out:
//
//	Chain:  [Logging] → [Metrics] → [Timeout] → [node.Execute]
//	        ↓            ↓            ↓              ↓
//	Step  →→→→→→→→→→→→→→→→→→→→→→→→→→→→→→→→→→→→→→→→→ Execute
//	        ←←←←←←←←←←←←←←←←←←←←←←←←←←←←←←←←←←←←←←← Edges
//
// # Thread Safety
//
// Middleware implementations should be stateless or internally synchronized.
// The same middleware instance is shared across concurrent executions.
package middleware
