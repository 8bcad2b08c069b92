package types

import (
	"regexp"
	"strings"
	"time"
)

// Context key constants, used to carry execution metadata through a
// context.Context across node boundaries.
type contextKey string

const (
	ContextKeyExecutionID contextKey = "executionID"
	ContextKeyWorkflowID  contextKey = "workflowID"
)

var (
	idPattern     = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	semverPattern = regexp.MustCompile(`^\d+\.\d+\.\d+$`)
	segmentRegexp = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
)

// ValidID reports whether id matches the [A-Za-z0-9_-]+ identifier shape
// required of workflow and automation ids.
func ValidID(id string) bool {
	return id != "" && idPattern.MatchString(id)
}

// ValidSemver reports whether v is a well-formed X.Y.Z version string.
func ValidSemver(v string) bool {
	return semverPattern.MatchString(v)
}

// ValidStatePath reports whether path matches identifier(\.identifier)*,
// where a segment may also be a plain integer addressing a sequence
// position.
func ValidStatePath(path string) bool {
	if path == "" {
		return false
	}
	for _, seg := range strings.Split(path, ".") {
		if seg == "" || !segmentRegexp.MatchString(seg) {
			return false
		}
	}
	return true
}

// WorkflowDefinition is the top-level JSON document a caller submits to be
// parsed into an executable plan.
type WorkflowDefinition struct {
	ID           string                 `json:"id"`
	Name         string                 `json:"name"`
	Version      string                 `json:"version"`
	Description  string                 `json:"description,omitempty"`
	InitialState map[string]interface{} `json:"initialState,omitempty"`
	Workflow     []RawStep              `json:"workflow"`
}

// TriggerKind identifies how an execution was started.
type TriggerKind string

const (
	TriggerManual  TriggerKind = "manual"
	TriggerCron    TriggerKind = "cron"
	TriggerWebhook TriggerKind = "webhook"
)

// ExecutionStatus is the terminal (or in-flight) state of an execution.
type ExecutionStatus string

const (
	StatusRunning   ExecutionStatus = "running"
	StatusCompleted ExecutionStatus = "completed"
	StatusFailed    ExecutionStatus = "failed"
	StatusCancelled ExecutionStatus = "cancelled"
)

// NodeLogEntry records one node invocation within an execution.
type NodeLogEntry struct {
	NodeID        string                 `json:"nodeId"`
	ConfigSummary map[string]interface{} `json:"configSummary,omitempty"`
	StartedAt     time.Time              `json:"startedAt"`
	EndedAt       time.Time              `json:"endedAt,omitempty"`
	EdgeTaken     string                 `json:"edgeTaken,omitempty"`
	Output        interface{}            `json:"output,omitempty"`
	Error         string                 `json:"error,omitempty"`
}

// ExecutionRecord is the persisted history of one workflow run.
type ExecutionRecord struct {
	ID          string                 `json:"id"`
	WorkflowID  string                 `json:"workflowId"`
	TriggerKind TriggerKind            `json:"triggerKind"`
	StartedAt   time.Time              `json:"startedAt"`
	EndedAt     *time.Time             `json:"endedAt,omitempty"`
	Status      ExecutionStatus        `json:"status"`
	FinalState  map[string]interface{} `json:"finalState,omitempty"`
	Logs        []NodeLogEntry         `json:"logs"`
}

// AutomationTriggerType names the trigger variant bound to an automation.
type AutomationTriggerType string

const (
	AutomationTriggerCron      AutomationTriggerType = "cron"
	AutomationTriggerWebhook   AutomationTriggerType = "webhook"
	AutomationTriggerImmediate AutomationTriggerType = "immediate"
)

// TriggerConfig is the tagged-by-Type configuration for an automation's
// trigger. Only the fields relevant to Type are populated.
type TriggerConfig struct {
	Type AutomationTriggerType `json:"type"`

	// cron
	Expression string `json:"expression,omitempty"`
	Timezone   string `json:"timezone,omitempty"`

	// webhook
	Path   string `json:"path,omitempty"`
	Method string `json:"method,omitempty"`
}

// Automation binds a workflow to a trigger and tracks its run bookkeeping.
type Automation struct {
	ID            string        `json:"id"`
	TenantID      string        `json:"tenantId"`
	WorkflowID    string        `json:"workflowId"`
	Enabled       bool          `json:"enabled"`
	TriggerConfig TriggerConfig `json:"triggerConfig"`
	NextRunAt     *time.Time    `json:"nextRunAt,omitempty"`
	LastRunAt     *time.Time    `json:"lastRunAt,omitempty"`
	LastError     string        `json:"lastError,omitempty"`
	FailureCount  int           `json:"failureCount"`
}

// Clone returns a deep-enough copy of the automation for safe handoff
// across goroutine boundaries (scheduler job table vs. CRUD callers).
func (a *Automation) Clone() *Automation {
	clone := *a
	if a.NextRunAt != nil {
		t := *a.NextRunAt
		clone.NextRunAt = &t
	}
	if a.LastRunAt != nil {
		t := *a.LastRunAt
		clone.LastRunAt = &t
	}
	return &clone
}
