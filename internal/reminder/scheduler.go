// Package reminder schedules one-shot task reminders on top of cron.
package reminder

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

var ErrStopped = errors.New("reminder scheduler is stopped")

// Payload is delivered with a fired reminder
type Payload struct {
	Title string
	Body  string
}

// Scheduler arranges future callbacks keyed by task id. At most one
// callback is pending per task: Schedule replaces, Cancel removes.
type Scheduler interface {
	Schedule(taskID string, at time.Time, payload Payload) error
	Cancel(taskID string) error
}

// FiredFunc is called from the scheduler goroutine when a reminder fires
type FiredFunc func(taskID string, payload Payload)

// once fires a single time at a fixed instant. cron only calls Next from
// its run loop, so issued needs no lock.
type once struct {
	at     time.Time
	issued bool
}

// Next implements cron.Schedule. The first call returns the reminder time,
// or t itself when that time already passed (e.g. the scheduler was started
// late), so the reminder still fires once. Later calls return the zero time,
// which tells cron to never run again.
func (o *once) Next(t time.Time) time.Time {
	if o.issued {
		return time.Time{}
	}
	o.issued = true
	if o.at.After(t) {
		return o.at
	}
	return t
}

// CronScheduler is the in-process Scheduler used by the app
type CronScheduler struct {
	cron    *cron.Cron
	onFired FiredFunc
	log     *slog.Logger

	mu      sync.Mutex
	entries map[string]cron.EntryID
	stopped bool
}

// NewCronScheduler creates a scheduler in the given location
func NewCronScheduler(loc *time.Location, onFired FiredFunc, log *slog.Logger) *CronScheduler {
	if loc == nil {
		loc = time.Local
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &CronScheduler{
		cron:    cron.New(cron.WithLocation(loc), cron.WithSeconds()),
		onFired: onFired,
		log:     log,
		entries: make(map[string]cron.EntryID),
	}
}

// SetOnFired replaces the fired callback. Must be called before Start.
func (s *CronScheduler) SetOnFired(fn FiredFunc) {
	s.mu.Lock()
	s.onFired = fn
	s.mu.Unlock()
}

func (s *CronScheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and waits for running callbacks
func (s *CronScheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	ctx := s.cron.Stop()
	<-ctx.Done()
}

// Schedule registers a reminder, replacing any existing one for taskID
func (s *CronScheduler) Schedule(taskID string, at time.Time, payload Payload) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrStopped
	}

	if id, ok := s.entries[taskID]; ok {
		s.cron.Remove(id)
		delete(s.entries, taskID)
	}

	var entryID cron.EntryID
	entryID = s.cron.Schedule(&once{at: at}, cron.FuncJob(func() {
		s.fire(taskID, &entryID, payload)
	}))
	s.entries[taskID] = entryID

	s.log.Debug("reminder scheduled", "task_id", taskID, "at", at)
	return nil
}

// Cancel removes a pending reminder. No-op when none exists.
func (s *CronScheduler) Cancel(taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.entries[taskID]; ok {
		s.cron.Remove(id)
		delete(s.entries, taskID)
		s.log.Debug("reminder cancelled", "task_id", taskID)
	}
	return nil
}

// Pending returns the number of scheduled reminders
func (s *CronScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Scheduled reports whether taskID has a pending reminder and when
func (s *CronScheduler) Scheduled(taskID string) (time.Time, bool) {
	s.mu.Lock()
	id, ok := s.entries[taskID]
	s.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}
	e := s.cron.Entry(id)
	if !e.Valid() {
		return time.Time{}, false
	}
	if o, ok := e.Schedule.(*once); ok {
		return o.at, true
	}
	return e.Next, true
}

func (s *CronScheduler) fire(taskID string, idRef *cron.EntryID, payload Payload) {
	s.mu.Lock()
	entryID := *idRef
	// A replaced or cancelled entry can still be racing to run.
	current, ok := s.entries[taskID]
	if !ok || current != entryID {
		s.mu.Unlock()
		return
	}
	delete(s.entries, taskID)
	onFired := s.onFired
	s.mu.Unlock()

	s.cron.Remove(entryID)
	s.log.Info("reminder fired", "task_id", taskID)

	if onFired != nil {
		onFired(taskID, payload)
	}
}
