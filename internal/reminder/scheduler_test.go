package reminder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOnceSchedule(t *testing.T) {
	at := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	o := &once{at: at}
	assert.Equal(t, at, o.Next(at.Add(-time.Minute)))
	assert.True(t, o.Next(at).IsZero())
	assert.True(t, o.Next(at.Add(time.Second)).IsZero())

	// Already due on the first call: run right away, then never again.
	late := &once{at: at}
	now := at.Add(time.Minute)
	assert.Equal(t, now, late.Next(now))
	assert.True(t, late.Next(now).IsZero())
}

func TestScheduleReplacesExisting(t *testing.T) {
	s := NewCronScheduler(time.UTC, nil, nil)

	first := time.Now().Add(time.Hour)
	second := time.Now().Add(2 * time.Hour)

	require.NoError(t, s.Schedule("task-1", first, Payload{Title: "a"}))
	require.NoError(t, s.Schedule("task-1", second, Payload{Title: "a"}))
	assert.Equal(t, 1, s.Pending())

	at, ok := s.Scheduled("task-1")
	require.True(t, ok)
	assert.Equal(t, second, at)
}

func TestCancel(t *testing.T) {
	s := NewCronScheduler(time.UTC, nil, nil)

	require.NoError(t, s.Schedule("task-1", time.Now().Add(time.Hour), Payload{}))
	require.NoError(t, s.Cancel("task-1"))
	assert.Equal(t, 0, s.Pending())

	// Cancelling again is a no-op.
	require.NoError(t, s.Cancel("task-1"))
	require.NoError(t, s.Cancel("never-scheduled"))
}

func TestReminderFires(t *testing.T) {
	fired := make(chan string, 1)
	s := NewCronScheduler(time.UTC, func(taskID string, p Payload) {
		fired <- taskID + ":" + p.Title
	}, nil)
	s.Start()
	defer s.Stop()

	require.NoError(t, s.Schedule("task-1", time.Now().Add(100*time.Millisecond), Payload{Title: "Call mom"}))

	select {
	case got := <-fired:
		assert.Equal(t, "task-1:Call mom", got)
	case <-time.After(3 * time.Second):
		t.Fatal("reminder did not fire")
	}

	assert.Eventually(t, func() bool { return s.Pending() == 0 }, time.Second, 10*time.Millisecond)
}

func TestReminderDueBeforeStartFires(t *testing.T) {
	fired := make(chan string, 2)
	s := NewCronScheduler(time.UTC, func(taskID string, p Payload) {
		fired <- taskID
	}, nil)

	require.NoError(t, s.Schedule("task-1", time.Now().Add(20*time.Millisecond), Payload{}))
	time.Sleep(100 * time.Millisecond)
	s.Start()
	defer s.Stop()

	select {
	case got := <-fired:
		assert.Equal(t, "task-1", got)
	case <-time.After(3 * time.Second):
		t.Fatal("lapsed reminder did not fire after start")
	}

	assert.Eventually(t, func() bool { return s.Pending() == 0 }, time.Second, 10*time.Millisecond)
	_, ok := s.Scheduled("task-1")
	assert.False(t, ok)

	select {
	case id := <-fired:
		t.Fatalf("reminder fired twice for %s", id)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestCancelledReminderDoesNotFire(t *testing.T) {
	fired := make(chan string, 1)
	s := NewCronScheduler(time.UTC, func(taskID string, p Payload) {
		fired <- taskID
	}, nil)
	s.Start()
	defer s.Stop()

	require.NoError(t, s.Schedule("task-1", time.Now().Add(200*time.Millisecond), Payload{}))
	require.NoError(t, s.Cancel("task-1"))

	select {
	case id := <-fired:
		t.Fatalf("cancelled reminder fired for %s", id)
	case <-time.After(500 * time.Millisecond):
	}
}

func TestScheduleAfterStop(t *testing.T) {
	s := NewCronScheduler(time.UTC, nil, nil)
	s.Start()
	s.Stop()

	err := s.Schedule("task-1", time.Now().Add(time.Hour), Payload{})
	assert.ErrorIs(t, err, ErrStopped)
}
