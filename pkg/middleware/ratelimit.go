package middleware

import (
	"fmt"
	"sync"
	"time"

	"github.com/loomrun/loom/pkg/registry"
)

// RateLimiter defines the interface for rate limiting implementations
type RateLimiter interface {
	// Allow checks if a request is allowed based on rate limits
	// Returns true if allowed, false if rate limit exceeded
	Allow(key string) bool
	
	// Reset clears all rate limit state
	Reset()
}

// RateLimitMiddleware enforces rate limits to prevent DoS attacks.
// It uses the token bucket algorithm for smooth rate limiting.
type RateLimitMiddleware struct {
	globalLimiter     RateLimiter
	nodeTypeLimiters  map[string]RateLimiter
	workflowLimiters  map[string]RateLimiter
	mu                sync.RWMutex
	
	// Configuration
	enableGlobal      bool
	enablePerNodeType bool
	enablePerWorkflow bool
	workflowRPS       float64

	// Metrics
	rejectedCount     int64
	rejectedCountMu   sync.Mutex
}

// RateLimitConfig configures rate limiting behavior
type RateLimitConfig struct {
	// Global rate limit (requests per second across all nodes)
	GlobalRPS float64
	
	// Per-node-type rate limits
	NodeTypeRPS map[string]float64
	
	// Per-workflow rate limits (requests per second per workflow)
	WorkflowRPS float64
	
	// Enable flags
	EnableGlobal      bool
	EnablePerNodeType bool
	EnablePerWorkflow bool
}

// DefaultRateLimitConfig returns default rate limit configuration
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		GlobalRPS:         100,  // 100 requests/sec globally
		WorkflowRPS:       10,   // 10 requests/sec per workflow
		EnableGlobal:      true,
		EnablePerNodeType: false,
		EnablePerWorkflow: false,
		NodeTypeRPS:       make(map[string]float64),
	}
}

// NewRateLimitMiddleware creates a new rate limiting middleware with default config
func NewRateLimitMiddleware() *RateLimitMiddleware {
	return NewRateLimitMiddlewareWithConfig(DefaultRateLimitConfig())
}

// NewRateLimitMiddlewareWithConfig creates a new rate limiting middleware with custom config
func NewRateLimitMiddlewareWithConfig(config RateLimitConfig) *RateLimitMiddleware {
	m := &RateLimitMiddleware{
		nodeTypeLimiters:  make(map[string]RateLimiter),
		workflowLimiters:  make(map[string]RateLimiter),
		enableGlobal:      config.EnableGlobal,
		enablePerNodeType: config.EnablePerNodeType,
		enablePerWorkflow: config.EnablePerWorkflow,
		workflowRPS:       config.WorkflowRPS,
	}
	
	// Create global limiter
	if config.EnableGlobal && config.GlobalRPS > 0 {
		m.globalLimiter = NewTokenBucket(config.GlobalRPS, int64(config.GlobalRPS))
	}
	
	// Create per-node-type limiters
	if config.EnablePerNodeType {
		for nodeType, rps := range config.NodeTypeRPS {
			if rps > 0 {
				m.nodeTypeLimiters[nodeType] = NewTokenBucket(rps, int64(rps))
			}
		}
	}
	
	return m
}

// Process enforces rate limits before node execution
func (m *RateLimitMiddleware) Process(ctx registry.ExecutionContext, node NodeRef, config map[string]interface{}, next Handler) (registry.EdgeMap, error) {
	// Check global rate limit
	if m.enableGlobal && m.globalLimiter != nil {
		if !m.globalLimiter.Allow("global") {
			m.incrementRejected()
			return nil, fmt.Errorf("global rate limit exceeded")
		}
	}

	// Check per-node-type rate limit
	if m.enablePerNodeType {
		m.mu.RLock()
		limiter, exists := m.nodeTypeLimiters[node.Type]
		m.mu.RUnlock()

		if exists && !limiter.Allow(node.Type) {
			m.incrementRejected()
			return nil, fmt.Errorf("rate limit exceeded for node type: %s", node.Type)
		}
	}

	// Check per-workflow rate limit
	if m.enablePerWorkflow {
		workflowID := getWorkflowID(ctx)
		if workflowID != "" {
			limiter := m.getOrCreateWorkflowLimiter(workflowID)
			if !limiter.Allow(workflowID) {
				m.incrementRejected()
				return nil, fmt.Errorf("rate limit exceeded for workflow: %s", workflowID)
			}
		}
	}

	// Rate limits passed, execute node
	return next(ctx, node, config)
}

// Name returns the middleware name
func (m *RateLimitMiddleware) Name() string {
	return "RateLimit"
}

// GetRejectedCount returns the number of rejected requests
func (m *RateLimitMiddleware) GetRejectedCount() int64 {
	m.rejectedCountMu.Lock()
	defer m.rejectedCountMu.Unlock()
	return m.rejectedCount
}

// incrementRejected increments the rejected request counter
func (m *RateLimitMiddleware) incrementRejected() {
	m.rejectedCountMu.Lock()
	m.rejectedCount++
	m.rejectedCountMu.Unlock()
}

// getOrCreateWorkflowLimiter gets or creates a rate limiter for a workflow
func (m *RateLimitMiddleware) getOrCreateWorkflowLimiter(workflowID string) RateLimiter {
	m.mu.RLock()
	limiter, exists := m.workflowLimiters[workflowID]
	m.mu.RUnlock()
	
	if exists {
		return limiter
	}
	
	m.mu.Lock()
	defer m.mu.Unlock()
	
	// Double-check after acquiring write lock
	limiter, exists = m.workflowLimiters[workflowID]
	if exists {
		return limiter
	}
	
	// Create new limiter at WorkflowRPS (10 RPS when unset)
	rps := m.workflowRPS
	if rps <= 0 {
		rps = 10
	}
	limiter = NewTokenBucket(rps, int64(rps))
	m.workflowLimiters[workflowID] = limiter
	return limiter
}

// getWorkflowID extracts the workflow ID from the execution context.
func getWorkflowID(ctx registry.ExecutionContext) string {
	return ctx.WorkflowID()
}

// TokenBucket implements the token bucket algorithm for rate limiting
type TokenBucket struct {
	rate       float64   // tokens per second
	capacity   int64     // maximum tokens
	tokens     float64   // current tokens
	lastRefill time.Time // last refill time
	mu         sync.Mutex
}

// NewTokenBucket creates a new token bucket rate limiter
func NewTokenBucket(rate float64, capacity int64) *TokenBucket {
	return &TokenBucket{
		rate:       rate,
		capacity:   capacity,
		tokens:     float64(capacity),
		lastRefill: time.Now(),
	}
}

// Allow checks if a request is allowed based on available tokens
func (tb *TokenBucket) Allow(key string) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	
	// Refill tokens based on time elapsed
	now := time.Now()
	elapsed := now.Sub(tb.lastRefill).Seconds()
	tb.tokens = min(tb.tokens+elapsed*tb.rate, float64(tb.capacity))
	tb.lastRefill = now
	
	// Check if we have at least 1 token
	if tb.tokens >= 1.0 {
		tb.tokens -= 1.0
		return true
	}
	
	return false
}

// Reset clears the token bucket state
func (tb *TokenBucket) Reset() {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	
	tb.tokens = float64(tb.capacity)
	tb.lastRefill = time.Now()
}

// min returns the minimum of two float64 values
func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
