// Package remindertest provides an in-memory reminder.Scheduler for tests.
package remindertest

import (
	"sync"
	"time"

	"github.com/dori/simplr/internal/reminder"
)

// Scheduled is one pending fake reminder
type Scheduled struct {
	At      time.Time
	Payload reminder.Payload
}

// Scheduler records schedule and cancel calls
type Scheduler struct {
	mu        sync.Mutex
	active    map[string]Scheduled
	Schedules int
	Cancels   int

	// ScheduleErr and CancelErr, when set, are returned by the calls
	ScheduleErr error
	CancelErr   error
}

func New() *Scheduler {
	return &Scheduler{active: make(map[string]Scheduled)}
}

func (s *Scheduler) Schedule(taskID string, at time.Time, payload reminder.Payload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Schedules++
	if s.ScheduleErr != nil {
		return s.ScheduleErr
	}
	s.active[taskID] = Scheduled{At: at, Payload: payload}
	return nil
}

func (s *Scheduler) Cancel(taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Cancels++
	if s.CancelErr != nil {
		return s.CancelErr
	}
	delete(s.active, taskID)
	return nil
}

// Active returns the pending reminder for a task
func (s *Scheduler) Active(taskID string) (Scheduled, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.active[taskID]
	return sc, ok
}

// Pending returns the number of active reminders
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}
