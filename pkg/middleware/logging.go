package middleware

import (
	"time"

	"github.com/loomrun/loom/pkg/logging"
	"github.com/loomrun/loom/pkg/registry"
)

// LoggingMiddleware logs node execution start and completion.
// It records execution time and logs errors if execution fails.
type LoggingMiddleware struct {
	logger *logging.Logger
}

// NewLoggingMiddleware creates a new logging middleware
func NewLoggingMiddleware(logger *logging.Logger) *LoggingMiddleware {
	return &LoggingMiddleware{
		logger: logger,
	}
}

// Process logs node execution
func (m *LoggingMiddleware) Process(ctx registry.ExecutionContext, node NodeRef, config map[string]interface{}, next Handler) (registry.EdgeMap, error) {
	nodeLogger := m.logger.
		WithNodeID(node.ID).
		WithNodeType(node.Type)

	nodeLogger.Debug("node execution started")
	startTime := time.Now()

	edges, err := next(ctx, node, config)

	duration := time.Since(startTime)

	if err != nil {
		nodeLogger.
			WithError(err).
			WithField("duration_ms", duration.Milliseconds()).
			Error("node execution failed")
	} else {
		nodeLogger.
			WithField("duration_ms", duration.Milliseconds()).
			Debug("node execution completed")
	}

	return edges, err
}

// Name returns the middleware name
func (m *LoggingMiddleware) Name() string {
	return "Logging"
}
