package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ptr(t time.Time) *time.Time { return &t }

func TestIsEvictableBoundary(t *testing.T) {
	now := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)

	exactlySeven := Task{IsCompleted: true, CompletedAt: ptr(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))}
	assert.True(t, exactlySeven.IsEvictable(now), "completed exactly 7 days ago should be evicted")

	oneSecondShort := Task{IsCompleted: true, CompletedAt: ptr(time.Date(2024, 1, 1, 0, 0, 1, 0, time.UTC))}
	assert.False(t, oneSecondShort.IsEvictable(now))

	older := Task{IsCompleted: true, CompletedAt: ptr(now.Add(-RetentionWindow - time.Second))}
	assert.True(t, older.IsEvictable(now))

	almost := Task{IsCompleted: true, CompletedAt: ptr(now.Add(-(6*24*time.Hour + 23*time.Hour + 59*time.Minute)))}
	assert.False(t, almost.IsEvictable(now))
}

func TestIsEvictableIgnoresLegacyAndPending(t *testing.T) {
	now := time.Now()

	legacy := Task{IsCompleted: true}
	assert.False(t, legacy.IsEvictable(now))
	assert.True(t, legacy.NeedsCompletionMigration())
	assert.False(t, legacy.CompletionConsistent())

	pending := Task{CompletedAt: nil}
	assert.False(t, pending.IsEvictable(now))
	assert.True(t, pending.CompletionConsistent())
}

func TestActiveReminder(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(time.Hour)

	task := Task{HasReminder: true, ReminderDate: &future}
	at, ok := task.ActiveReminder(now)
	assert.True(t, ok)
	assert.Equal(t, future, at)

	task.IsCompleted = true
	_, ok = task.ActiveReminder(now)
	assert.False(t, ok, "completed tasks never have an active reminder")

	past := now.Add(-time.Minute)
	stale := Task{HasReminder: true, ReminderDate: &past}
	_, ok = stale.ActiveReminder(now)
	assert.False(t, ok)
}

func TestIsOverdue(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	due := now.Add(-time.Hour)

	task := Task{DueDate: &due}
	assert.True(t, task.IsOverdue(now))

	task.IsCompleted = true
	assert.False(t, task.IsOverdue(now))
}

func TestCloneDoesNotSharePointers(t *testing.T) {
	cat := "abc"
	done := time.Now()
	orig := Task{ID: "1", CategoryID: &cat, CompletedAt: &done, IsCompleted: true}

	c := orig.Clone()
	*c.CategoryID = "changed"
	*c.CompletedAt = done.Add(time.Hour)

	assert.Equal(t, "abc", *orig.CategoryID)
	assert.Equal(t, done, *orig.CompletedAt)
}

func TestBuiltinLookups(t *testing.T) {
	work, ok := BuiltinByName("work")
	assert.True(t, ok)
	assert.Equal(t, "Work", work.Name)
	assert.False(t, work.IsCustom)

	byID, ok := BuiltinByID(work.ID)
	assert.True(t, ok)
	assert.Equal(t, work, byID)

	// Two calls must produce identical identifiers.
	assert.Equal(t, Builtins(), Builtins())
	assert.False(t, IsBuiltinID("not-a-builtin"))
}
