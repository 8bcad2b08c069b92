// Package scheduler maintains an in-process table of live cron jobs keyed
// by automation id, arming and disarming robfig/cron/v3 entries as
// automations are created, toggled, and deleted. Grounded on the teacher
// pack's CronScheduler (a cron.Cron plus an id -> cron.EntryID map guarded
// by a mutex), generalized from a fixed trigger-repository shape to this
// module's store.AutomationStore + trigger.Trigger collaborators.
package scheduler
