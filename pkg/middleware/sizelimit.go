package middleware

import (
	"encoding/json"
	"fmt"

	"github.com/loomrun/loom/pkg/registry"
)

// SizeLimitMiddleware enforces size limits to prevent memory exhaustion
type SizeLimitMiddleware struct {
	maxInputSize      int64 // Maximum size of config data per node (bytes)
	maxResultSize     int64 // Maximum size of result data per node (bytes)
	maxStringLength   int   // Maximum length of string values
	maxArrayLength    int   // Maximum length of arrays
	maxWorkflowSize   int64 // Maximum total workflow size
	maxNodeCount      int   // Maximum number of nodes
	enforceInputSize  bool  // Whether to enforce input size limits
	enforceResultSize bool  // Whether to enforce result size limits
}

// SizeLimitConfig configures size limit enforcement
type SizeLimitConfig struct {
	// Per-node limits
	MaxInputSize    int64 // Maximum config size per node (default: 10MB)
	MaxResultSize   int64 // Maximum result size per node (default: 50MB)
	MaxStringLength int   // Maximum string length (default: 1MB)
	MaxArrayLength  int   // Maximum array length (default: 10000)

	// Workflow limits
	MaxWorkflowSize int64 // Maximum total workflow size (default: 100MB)
	MaxNodeCount    int   // Maximum steps in workflow (default: 1000)

	// Control flags
	EnforceInputSize  bool // Enforce input size limits (default: true)
	EnforceResultSize bool // Enforce result size limits (default: true)
}

// DefaultSizeLimitConfig returns default size limit configuration
func DefaultSizeLimitConfig() SizeLimitConfig {
	return SizeLimitConfig{
		MaxInputSize:      10 * 1024 * 1024,  // 10 MB
		MaxResultSize:     50 * 1024 * 1024,  // 50 MB
		MaxStringLength:   1 * 1024 * 1024,   // 1 MB
		MaxArrayLength:    10000,             // 10k elements
		MaxWorkflowSize:   100 * 1024 * 1024, // 100 MB
		MaxNodeCount:      1000,              // 1000 steps
		EnforceInputSize:  true,
		EnforceResultSize: true,
	}
}

// NewSizeLimitMiddleware creates a new size limit middleware with default config
func NewSizeLimitMiddleware() *SizeLimitMiddleware {
	return NewSizeLimitMiddlewareWithConfig(DefaultSizeLimitConfig())
}

// NewSizeLimitMiddlewareWithConfig creates a new size limit middleware with custom config
func NewSizeLimitMiddlewareWithConfig(config SizeLimitConfig) *SizeLimitMiddleware {
	return &SizeLimitMiddleware{
		maxInputSize:      config.MaxInputSize,
		maxResultSize:     config.MaxResultSize,
		maxStringLength:   config.MaxStringLength,
		maxArrayLength:    config.MaxArrayLength,
		maxWorkflowSize:   config.MaxWorkflowSize,
		maxNodeCount:      config.MaxNodeCount,
		enforceInputSize:  config.EnforceInputSize,
		enforceResultSize: config.EnforceResultSize,
	}
}

// Process enforces size limits on the node's config and the edges it returns
func (m *SizeLimitMiddleware) Process(ctx registry.ExecutionContext, node NodeRef, config map[string]interface{}, next Handler) (registry.EdgeMap, error) {
	if m.enforceInputSize {
		if err := m.validateInputSize(config); err != nil {
			return nil, fmt.Errorf("input size limit exceeded: %w", err)
		}
	}

	edges, err := next(ctx, node, config)
	if err != nil {
		return edges, err
	}

	if m.enforceResultSize && edges != nil {
		if err := m.validateResultSize(edges); err != nil {
			return nil, fmt.Errorf("result size limit exceeded: %w", err)
		}
	}

	return edges, nil
}

// Name returns the middleware name
func (m *SizeLimitMiddleware) Name() string {
	return "SizeLimit"
}

// validateInputSize validates the size of a node's config fields
func (m *SizeLimitMiddleware) validateInputSize(config map[string]interface{}) error {
	for key, value := range config {
		size, err := estimateSize(value)
		if err != nil {
			return fmt.Errorf("failed to estimate size of field %q: %w", key, err)
		}

		if size > m.maxInputSize {
			return fmt.Errorf("field %q size %d bytes exceeds limit %d bytes", key, size, m.maxInputSize)
		}

		if err := m.validateValue(value); err != nil {
			return fmt.Errorf("field %q validation failed: %w", key, err)
		}
	}

	return nil
}

// validateResultSize validates the size of a node's returned edges
func (m *SizeLimitMiddleware) validateResultSize(edges registry.EdgeMap) error {
	size, err := estimateSize(edges)
	if err != nil {
		return fmt.Errorf("failed to estimate result size: %w", err)
	}

	if size > m.maxResultSize {
		return fmt.Errorf("result size %d bytes exceeds limit %d bytes", size, m.maxResultSize)
	}

	return m.validateValue(map[string]interface{}(edges))
}

// validateValue validates type-specific limits
func (m *SizeLimitMiddleware) validateValue(value interface{}) error {
	switch v := value.(type) {
	case string:
		if m.maxStringLength > 0 && len(v) > m.maxStringLength {
			return fmt.Errorf("string length %d exceeds limit %d", len(v), m.maxStringLength)
		}
	case []interface{}:
		if m.maxArrayLength > 0 && len(v) > m.maxArrayLength {
			return fmt.Errorf("array length %d exceeds limit %d", len(v), m.maxArrayLength)
		}
		for i, elem := range v {
			if err := m.validateValue(elem); err != nil {
				return fmt.Errorf("array element %d: %w", i, err)
			}
		}
	case map[string]interface{}:
		for key, val := range v {
			if err := m.validateValue(val); err != nil {
				return fmt.Errorf("map key %s: %w", key, err)
			}
		}
	}

	return nil
}

// estimateSize estimates the size of a value in bytes using JSON marshaling
// as a rough approximation.
func estimateSize(value interface{}) (int64, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return 0, err
	}
	return int64(len(data)), nil
}

// ValidateWorkflowSize validates workflow size limits before execution.
// steps is the raw, marshalable plan representation used to estimate total
// workflow size; the sequential execution model has no separate edge list to
// size alongside it.
func ValidateWorkflowSize(stepCount int, steps interface{}, config SizeLimitConfig) error {
	if config.MaxNodeCount > 0 && stepCount > config.MaxNodeCount {
		return fmt.Errorf("workflow has %d steps, exceeds limit of %d", stepCount, config.MaxNodeCount)
	}

	if config.MaxWorkflowSize > 0 {
		data, err := json.Marshal(steps)
		if err != nil {
			return fmt.Errorf("failed to marshal workflow for size check: %w", err)
		}

		size := int64(len(data))
		if size > config.MaxWorkflowSize {
			return fmt.Errorf("workflow size %d bytes exceeds limit %d bytes", size, config.MaxWorkflowSize)
		}
	}

	return nil
}
