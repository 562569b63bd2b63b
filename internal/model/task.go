package model

import (
	"time"
)

// RetentionWindow is how long a completed task is kept before it is evicted
const RetentionWindow = 7 * 24 * time.Hour

// Task represents a todo item
type Task struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	IsCompleted  bool       `json:"is_completed"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	DueDate      *time.Time `json:"due_date,omitempty"`
	HasReminder  bool       `json:"has_reminder"`
	ReminderDate *time.Time `json:"reminder_date,omitempty"`
	CategoryID   *string    `json:"category_id,omitempty"` // Weak reference, resolved at read time
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Clone returns a deep copy so callers can't mutate store-owned pointers
func (t Task) Clone() Task {
	c := t
	c.CompletedAt = cloneTime(t.CompletedAt)
	c.DueDate = cloneTime(t.DueDate)
	c.ReminderDate = cloneTime(t.ReminderDate)
	if t.CategoryID != nil {
		id := *t.CategoryID
		c.CategoryID = &id
	}
	return c
}

// CompletionConsistent reports whether IsCompleted and CompletedAt agree
func (t *Task) CompletionConsistent() bool {
	return t.IsCompleted == (t.CompletedAt != nil)
}

// NeedsCompletionMigration returns true for records written before completion
// timestamps were tracked
func (t *Task) NeedsCompletionMigration() bool {
	return t.IsCompleted && t.CompletedAt == nil
}

// IsEvictable returns true if the task was completed at least RetentionWindow ago.
// Un-migrated completed tasks are never evictable.
func (t *Task) IsEvictable(now time.Time) bool {
	if !t.IsCompleted || t.CompletedAt == nil {
		return false
	}
	return now.Sub(*t.CompletedAt) >= RetentionWindow
}

// IsOverdue returns true if the task is past its due date
func (t *Task) IsOverdue(now time.Time) bool {
	if t.DueDate == nil || t.IsCompleted {
		return false
	}
	return now.After(*t.DueDate)
}

// IsDueToday returns true if the task is due on the same calendar day as now
func (t *Task) IsDueToday(now time.Time) bool {
	if t.DueDate == nil {
		return false
	}
	d := t.DueDate.In(now.Location())
	return d.Year() == now.Year() && d.YearDay() == now.YearDay()
}

// ActiveReminder returns the reminder time if the task should currently
// have a scheduled callback
func (t *Task) ActiveReminder(now time.Time) (time.Time, bool) {
	if t.IsCompleted || !t.HasReminder || t.ReminderDate == nil {
		return time.Time{}, false
	}
	if !t.ReminderDate.After(now) {
		return time.Time{}, false
	}
	return *t.ReminderDate, true
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
