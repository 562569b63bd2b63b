package lifecycle

import (
	"errors"
	"time"

	"github.com/dori/simplr/internal/model"
)

// Report summarises one maintenance pass
type Report struct {
	Migrated []string
	Evicted  []model.Task
	Overdue  []model.Task
	Took     time.Duration
	// ReminderErr wraps ErrReminder when an evicted task's reminder could
	// not be cancelled. The eviction itself still happened.
	ReminderErr error
}

// Empty returns true if the pass changed nothing and found nothing overdue
func (r Report) Empty() bool {
	return len(r.Migrated) == 0 && len(r.Evicted) == 0 && len(r.Overdue) == 0
}

// MigrateCompletionTimestamps assigns a completion time to completed tasks
// that predate completion tracking. The task's last modification time is used
// when it would not make the task immediately evictable; otherwise now.
// It returns the full task list and the ids of migrated tasks.
func (e *Engine) MigrateCompletionTimestamps(tasks []model.Task, now time.Time) ([]model.Task, []string) {
	out := make([]model.Task, len(tasks))
	var migrated []string

	for i, t := range tasks {
		out[i] = t
		if !t.NeedsCompletionMigration() {
			continue
		}

		stamp := now
		if !t.UpdatedAt.IsZero() && !t.UpdatedAt.After(now) && now.Sub(t.UpdatedAt) < model.RetentionWindow {
			stamp = t.UpdatedAt
		}

		next := t.Clone()
		next.CompletedAt = &stamp
		out[i] = next
		migrated = append(migrated, t.ID)
	}

	e.migrated = true
	if len(migrated) > 0 {
		e.log.Info("migrated completion timestamps", "count", len(migrated))
	}
	return out, migrated
}

// CleanupEvictable partitions tasks by eviction eligibility. Evicted tasks
// have their reminders cancelled, are removed from the index and are
// deleted from storage. A non-nil error wraps ErrReminder; the eviction is
// applied regardless.
func (e *Engine) CleanupEvictable(tasks []model.Task, now time.Time) (kept, evicted []model.Task, err error) {
	return e.cleanup(tasks, now, nil)
}

func (e *Engine) cleanup(tasks []model.Task, now time.Time, skip map[string]bool) (kept, evicted []model.Task, err error) {
	kept = make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if !skip[t.ID] && t.IsEvictable(now) {
			evicted = append(evicted, t)
			continue
		}
		kept = append(kept, t)
	}

	if len(evicted) == 0 {
		return kept, nil, nil
	}

	var errs []error
	ids := make([]string, 0, len(evicted))
	for _, t := range evicted {
		// Completed tasks shouldn't have a reminder; cancel anyway.
		if err := e.CancelReminder(t.ID); err != nil {
			errs = append(errs, err)
		}
		if e.index != nil {
			e.index.Remove(t.ID)
		}
		ids = append(ids, t.ID)
	}
	if e.persist != nil {
		e.persist.DeleteTasks(ids)
	}

	e.log.Info("evicted completed tasks", "count", len(evicted))
	return kept, evicted, errors.Join(errs...)
}

// DetectOverdue returns pending tasks whose due date has passed. It does not
// modify anything.
func DetectOverdue(tasks []model.Task, now time.Time) []model.Task {
	var overdue []model.Task
	for _, t := range tasks {
		if t.IsOverdue(now) {
			overdue = append(overdue, t)
		}
	}
	return overdue
}

// PerformMaintenance runs timestamp migration (until nothing is left to
// migrate), eviction and overdue detection, returning the surviving tasks.
// Tasks migrated in this pass are never evicted by it.
func (e *Engine) PerformMaintenance(tasks []model.Task, now time.Time) ([]model.Task, Report) {
	start := time.Now()
	var report Report

	if !e.migrated {
		var migrated []string
		tasks, migrated = e.MigrateCompletionTimestamps(tasks, now)
		if len(migrated) > 0 && e.persist != nil {
			e.persist.SaveTasks(pick(tasks, migrated))
		}
		report.Migrated = migrated
	}

	fresh := make(map[string]bool, len(report.Migrated))
	for _, id := range report.Migrated {
		fresh[id] = true
	}

	kept, evicted, err := e.cleanup(tasks, now, fresh)
	report.Evicted = evicted
	report.ReminderErr = err
	report.Overdue = DetectOverdue(kept, now)
	report.Took = time.Since(start)

	return kept, report
}

func pick(tasks []model.Task, ids []string) []model.Task {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []model.Task
	for _, t := range tasks {
		if want[t.ID] {
			out = append(out, t)
		}
	}
	return out
}
