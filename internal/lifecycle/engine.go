// Package lifecycle implements task completion, retention and reminder rules.
//
// A task is Pending (not completed) or Completed (completed with a completion
// timestamp). Completed tasks older than model.RetentionWindow are evicted.
// The engine works on values; callers own the task collection and are
// responsible for swapping results in atomically.
package lifecycle

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dori/simplr/internal/model"
	"github.com/dori/simplr/internal/reminder"
)

// ErrReminder wraps scheduler failures. The task mutation that triggered
// them has still been applied.
var ErrReminder = errors.New("reminder could not be updated")

// Indexer is the search index collaborator
type Indexer interface {
	Remove(taskID string)
}

// Persister receives asynchronous persistence requests
type Persister interface {
	SaveTasks(tasks []model.Task)
	DeleteTasks(ids []string)
}

// Transition describes what a completion toggle did
type Transition int

const (
	TransitionCompleted Transition = iota
	TransitionReopened
)

func (t Transition) String() string {
	switch t {
	case TransitionCompleted:
		return "completed"
	case TransitionReopened:
		return "reopened"
	default:
		return "unknown"
	}
}

// Config holds engine collaborators. Scheduler is required.
type Config struct {
	Scheduler reminder.Scheduler
	Index     Indexer
	Persister Persister
	Clock     func() time.Time
	Logger    *slog.Logger
}

// Engine applies lifecycle rules and drives the reminder scheduler.
// It is not safe for concurrent use; callers serialize access.
type Engine struct {
	scheduler reminder.Scheduler
	index     Indexer
	persist   Persister
	clock     func() time.Time
	log       *slog.Logger

	migrated bool
}

func NewEngine(cfg Config) *Engine {
	e := &Engine{
		scheduler: cfg.Scheduler,
		index:     cfg.Index,
		persist:   cfg.Persister,
		clock:     cfg.Clock,
		log:       cfg.Logger,
	}
	if e.clock == nil {
		e.clock = time.Now
	}
	if e.log == nil {
		e.log = slog.New(slog.DiscardHandler)
	}
	return e
}

// Now returns the engine's current time
func (e *Engine) Now() time.Time {
	return e.clock()
}

// ToggleCompletion flips a task between Pending and Completed and returns
// the updated copy. Completing cancels the reminder; reopening re-schedules
// it only if it is still in the future. A non-nil error wraps ErrReminder
// and the returned task is still valid.
func (e *Engine) ToggleCompletion(t model.Task) (model.Task, Transition, error) {
	now := e.clock()
	next := t.Clone()
	next.UpdatedAt = now

	var tr Transition
	if t.IsCompleted {
		next.IsCompleted = false
		next.CompletedAt = nil
		tr = TransitionReopened
	} else {
		next.IsCompleted = true
		next.CompletedAt = &now
		tr = TransitionCompleted
	}

	err := e.SyncReminder(next, now)
	e.log.Debug("task toggled", "task_id", t.ID, "transition", tr.String())
	return next, tr, err
}

// SyncReminder makes the scheduler agree with the task: schedule when the
// task has a future reminder and is pending, cancel otherwise.
func (e *Engine) SyncReminder(t model.Task, now time.Time) error {
	if at, ok := t.ActiveReminder(now); ok {
		if err := e.scheduler.Schedule(t.ID, at, PayloadFor(t)); err != nil {
			e.log.Warn("schedule reminder failed", "task_id", t.ID, "error", err)
			return fmt.Errorf("%w: schedule %s: %v", ErrReminder, t.ID, err)
		}
		return nil
	}
	return e.CancelReminder(t.ID)
}

// CancelReminder removes any scheduled reminder for the task
func (e *Engine) CancelReminder(taskID string) error {
	if err := e.scheduler.Cancel(taskID); err != nil {
		e.log.Warn("cancel reminder failed", "task_id", taskID, "error", err)
		return fmt.Errorf("%w: cancel %s: %v", ErrReminder, taskID, err)
	}
	return nil
}

// PayloadFor builds the notification payload for a task's reminder
func PayloadFor(t model.Task) reminder.Payload {
	body := t.Description
	if body == "" && t.DueDate != nil {
		body = "Due " + t.DueDate.Format("Mon, Jan 2 15:04")
	}
	return reminder.Payload{Title: t.Title, Body: body}
}
