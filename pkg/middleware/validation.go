package middleware

import (
	"fmt"

	"github.com/loomrun/loom/pkg/registry"
)

// ValidationMiddleware validates node configuration before execution.
// It uses the executor's Validate method to ensure node data is valid.
type ValidationMiddleware struct {
	registry interface {
		Validate(node NodeRef) error
	}
}

// NewValidationMiddleware creates a new validation middleware
func NewValidationMiddleware(registry interface{ Validate(node NodeRef) error }) *ValidationMiddleware {
	return &ValidationMiddleware{
		registry: registry,
	}
}

// Process validates node before execution
func (m *ValidationMiddleware) Process(ctx registry.ExecutionContext, node NodeRef, config map[string]interface{}, next Handler) (registry.EdgeMap, error) {
	// Validate node configuration
	if m.registry != nil {
		if err := m.registry.Validate(node); err != nil {
			return nil, fmt.Errorf("node validation failed: %w", err)
		}
	}

	// Validation passed, continue execution
	return next(ctx, node, config)
}

// Name returns the middleware name
func (m *ValidationMiddleware) Name() string {
	return "Validation"
}

// InputValidationMiddleware validates node inputs before execution
type InputValidationMiddleware struct {
	maxInputSize int64 // Maximum size for input data in bytes
}

// NewInputValidationMiddleware creates a new input validation middleware
func NewInputValidationMiddleware(maxInputSize int64) *InputValidationMiddleware {
	return &InputValidationMiddleware{
		maxInputSize: maxInputSize,
	}
}

// Process validates a node's configuration before execution
func (m *InputValidationMiddleware) Process(ctx registry.ExecutionContext, node NodeRef, config map[string]interface{}, next Handler) (registry.EdgeMap, error) {
	// Validate field count (basic check)
	if len(config) > 100 {
		return nil, fmt.Errorf("too many config fields: %d (max 100)", len(config))
	}

	// Validate field sizes (for string values)
	for key, value := range config {
		if str, ok := value.(string); ok {
			if m.maxInputSize > 0 && int64(len(str)) > m.maxInputSize {
				return nil, fmt.Errorf("config field %q too large: %d bytes (max %d)", key, len(str), m.maxInputSize)
			}
		}
	}

	// Validation passed, continue execution
	return next(ctx, node, config)
}

// Name returns the middleware name
func (m *InputValidationMiddleware) Name() string {
	return "InputValidation"
}
