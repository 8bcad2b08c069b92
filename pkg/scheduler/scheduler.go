package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/loomrun/loom/pkg/store"
	"github.com/loomrun/loom/pkg/trigger"
	"github.com/loomrun/loom/pkg/types"
)

// Invoker is the collaborator a Fire calls into. trigger.Trigger satisfies
// this directly; tests can substitute a stub.
type Invoker interface {
	Invoke(ctx context.Context, workflowID string, kind types.TriggerKind, payload interface{}) (*types.ExecutionRecord, error)
}

// cronParser accepts the standard five-field expression (minute, hour,
// day-of-month, month, day-of-week), matching the external contract's
// expression semantics rather than robfig's optional seconds field.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Scheduler maintains the live cron job table described in the external
// contract's Cron Scheduler component: Start/Schedule/Reschedule/
// Unschedule/Fire, one entry per enabled cron automation, with a
// per-automation run lock preventing overlapping fires.
type Scheduler struct {
	mu      sync.Mutex
	cron    *cron.Cron
	entries map[string]cron.EntryID
	locks   map[string]*sync.Mutex

	store         store.AutomationStore
	invoker       Invoker
	logger        *slog.Logger
	shutdownGrace time.Duration
}

// New returns a Scheduler backed by st (for persisting nextRunAt/lastRunAt/
// lastError) and invoker (for actually running the workflow on fire).
func New(st store.AutomationStore, invoker Invoker, logger *slog.Logger, shutdownGrace time.Duration) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:          cron.New(cron.WithLocation(time.UTC)),
		entries:       make(map[string]cron.EntryID),
		locks:         make(map[string]*sync.Mutex),
		store:         st,
		invoker:       invoker,
		logger:        logger,
		shutdownGrace: shutdownGrace,
	}
}

// Start enumerates every enabled cron automation and schedules it, then
// starts the underlying cron driver. Call once at service boot.
func (s *Scheduler) Start(ctx context.Context) error {
	automations, err := s.store.ListAutomations(ctx)
	if err != nil {
		return fmt.Errorf("listing automations at scheduler boot: %w", err)
	}
	for _, a := range automations {
		if !a.Enabled || a.TriggerConfig.Type != types.AutomationTriggerCron {
			continue
		}
		if err := s.Schedule(ctx, a); err != nil {
			s.logger.Error("failed to schedule automation at boot", "automation_id", a.ID, "error", err)
		}
	}
	s.cron.Start()
	return nil
}

// Schedule parses automation's cron expression in its declared timezone,
// arms a timer, and persists the computed nextRunAt. An invalid expression
// disables the automation and records lastError, per the external
// contract.
func (s *Scheduler) Schedule(ctx context.Context, automation *types.Automation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	schedule, err := s.parseSchedule(automation)
	if err != nil {
		automation.Enabled = false
		automation.LastError = err.Error()
		_ = s.store.UpdateAutomation(ctx, automation)
		return err
	}

	if entryID, exists := s.entries[automation.ID]; exists {
		s.cron.Remove(entryID)
	}

	id := automation.ID
	entryID := s.cron.Schedule(schedule, cron.FuncJob(func() {
		s.Fire(id)
	}))
	s.entries[id] = entryID
	if _, exists := s.locks[id]; !exists {
		s.locks[id] = &sync.Mutex{}
	}

	next := s.cron.Entry(entryID).Next
	automation.NextRunAt = &next
	return s.store.UpdateAutomation(ctx, automation)
}

// Reschedule cancels automation's existing timer, if any, and reschedules
// it from scratch (used after a cron expression or timezone edit).
func (s *Scheduler) Reschedule(ctx context.Context, automation *types.Automation) error {
	s.Unschedule(automation.ID)
	return s.Schedule(ctx, automation)
}

// Unschedule cancels and removes id's timer. A no-op if id has no live
// entry.
func (s *Scheduler) Unschedule(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entryID, exists := s.entries[id]; exists {
		s.cron.Remove(entryID)
		delete(s.entries, id)
	}
}

// Fire runs automationID's workflow under the cron trigger, skipping (and
// recording an overlap) if a prior fire is still in flight. It is the body
// of every scheduled cron.FuncJob.
func (s *Scheduler) Fire(automationID string) {
	s.mu.Lock()
	lock, ok := s.locks[automationID]
	s.mu.Unlock()
	if !ok {
		return
	}

	if !lock.TryLock() {
		s.logger.Warn("cron fire skipped: previous execution still in flight", "automation_id", automationID, "outcome", "overlap_skipped")
		return
	}
	defer lock.Unlock()

	ctx := context.Background()
	automation, err := s.store.GetAutomation(ctx, automationID)
	if err != nil {
		s.logger.Error("cron fire: automation vanished before run", "automation_id", automationID, "error", err)
		return
	}

	_, err = s.invoker.Invoke(ctx, automation.WorkflowID, types.TriggerCron, nil)

	now := time.Now()
	automation.LastRunAt = &now
	if err != nil {
		automation.LastError = err.Error()
		automation.FailureCount++
		s.logger.Error("cron fire failed", "automation_id", automationID, "error", err)
	} else {
		automation.LastError = ""
	}

	s.mu.Lock()
	if entryID, exists := s.entries[automationID]; exists {
		next := s.cron.Entry(entryID).Next
		automation.NextRunAt = &next
	}
	s.mu.Unlock()

	if err := s.store.UpdateAutomation(ctx, automation); err != nil {
		s.logger.Warn("failed to persist automation run bookkeeping", "automation_id", automationID, "error", err)
	}
}

// Stop halts new fires and waits up to the configured shutdown grace
// period for in-flight executions to end, then returns regardless.
func (s *Scheduler) Stop() {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-time.After(s.shutdownGrace):
	}
}

// Status reports every live job's next fire time, for the scheduler status
// HTTP endpoint.
type Status struct {
	AutomationID string     `json:"automationId"`
	NextRunAt    *time.Time `json:"nextRunAt,omitempty"`
	InFlight     bool       `json:"inFlight"`
}

// Statuses returns the current Status of every scheduled automation.
func (s *Scheduler) Statuses() []Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Status, 0, len(s.entries))
	for id, entryID := range s.entries {
		next := s.cron.Entry(entryID).Next
		inFlight := false
		if lock := s.locks[id]; lock != nil {
			if lock.TryLock() {
				lock.Unlock()
			} else {
				inFlight = true
			}
		}
		out = append(out, Status{AutomationID: id, NextRunAt: &next, InFlight: inFlight})
	}
	return out
}

func (s *Scheduler) parseSchedule(automation *types.Automation) (cron.Schedule, error) {
	tc := automation.TriggerConfig
	if tc.Type != types.AutomationTriggerCron {
		return nil, &trigger.Error{Reason: fmt.Sprintf("automation %s is not a cron automation", automation.ID)}
	}
	if tc.Expression == "" {
		return nil, &trigger.Error{Reason: fmt.Sprintf("automation %s has no cron expression", automation.ID)}
	}

	location := time.UTC
	if tc.Timezone != "" {
		loc, err := time.LoadLocation(tc.Timezone)
		if err != nil {
			return nil, &trigger.Error{Reason: fmt.Sprintf("invalid timezone %q", tc.Timezone), Err: err}
		}
		location = loc
	}

	schedule, err := cronParser.Parse(tc.Expression)
	if err != nil {
		return nil, &trigger.Error{Reason: fmt.Sprintf("invalid cron expression %q", tc.Expression), Err: err}
	}
	return &locatedSchedule{schedule: schedule, location: location}, nil
}

// locatedSchedule evaluates an underlying cron.Schedule's Next in a fixed
// timezone, since cronParser itself is location-agnostic (the Scheduler's
// single cron.Cron instance runs in UTC; each automation's declared
// timezone is applied per-schedule instead).
type locatedSchedule struct {
	schedule cron.Schedule
	location *time.Location
}

func (l *locatedSchedule) Next(t time.Time) time.Time {
	return l.schedule.Next(t.In(l.location))
}

// ValidateExpression reports whether expr parses as a valid five-field
// cron expression in the named timezone (empty = UTC), and the next fire
// time from now if so. It backs the "/automations/cron/validate" endpoint.
func ValidateExpression(expr, timezone string) (next time.Time, err error) {
	location := time.UTC
	if timezone != "" {
		location, err = time.LoadLocation(timezone)
		if err != nil {
			return time.Time{}, &trigger.Error{Reason: fmt.Sprintf("invalid timezone %q", timezone), Err: err}
		}
	}
	schedule, err := cronParser.Parse(expr)
	if err != nil {
		return time.Time{}, &trigger.Error{Reason: fmt.Sprintf("invalid cron expression %q", expr), Err: err}
	}
	return schedule.Next(time.Now().In(location)), nil
}
