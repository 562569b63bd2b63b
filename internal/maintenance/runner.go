// Package maintenance triggers the lifecycle maintenance pass on app start,
// on foreground transitions and on a fixed interval.
package maintenance

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dori/simplr/internal/lifecycle"
	"github.com/dori/simplr/internal/model"
	"github.com/robfig/cron/v3"
)

// Maintainer runs one maintenance pass. store.Store implements it.
type Maintainer interface {
	PerformMaintenance(now time.Time) (lifecycle.Report, error)
}

// Options configure a Runner
type Options struct {
	Clock  func() time.Time
	Logger *slog.Logger
	// OnOverdue is called once for each task that becomes overdue
	OnOverdue func(t model.Task, now time.Time)
	// OnReport is called after every pass that did something
	OnReport func(r lifecycle.Report)
}

// Runner invokes maintenance. Ticks never overlap.
type Runner struct {
	target Maintainer
	opts   Options
	log    *slog.Logger
	cron   *cron.Cron

	mu       sync.Mutex
	notified map[string]bool
	ticks    int
}

func New(target Maintainer, opts Options) *Runner {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Runner{
		target:   target,
		opts:     opts,
		log:      log,
		cron:     cron.New(cron.WithSeconds()),
		notified: make(map[string]bool),
	}
}

// OnMaintenanceTick runs one maintenance pass now. A scheduler failure
// during eviction still delivers the report, then returns an error wrapping
// lifecycle.ErrReminder.
func (r *Runner) OnMaintenanceTick() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ticks++
	now := r.opts.Clock()
	report, err := r.target.PerformMaintenance(now)
	if err != nil && !errors.Is(err, lifecycle.ErrReminder) {
		r.log.Error("maintenance failed", "error", err)
		return fmt.Errorf("maintenance: %w", err)
	}
	if err != nil {
		r.log.Warn("maintenance pass left reminders behind", "error", err)
	}

	r.handleOverdue(report.Overdue, now)

	if len(report.Migrated) > 0 || len(report.Evicted) > 0 {
		r.log.Info("maintenance pass",
			"migrated", len(report.Migrated),
			"evicted", len(report.Evicted),
			"overdue", len(report.Overdue),
			"took", report.Took)
		if r.opts.OnReport != nil {
			r.opts.OnReport(report)
		}
	} else {
		r.log.Debug("maintenance pass: nothing to do", "overdue", len(report.Overdue))
	}
	if err != nil {
		return fmt.Errorf("maintenance: %w", err)
	}
	return nil
}

// Ticks returns how many passes have run
func (r *Runner) Ticks() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ticks
}

// Start runs maintenance every interval until Stop
func (r *Runner) Start(interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}
	seconds := int(interval.Seconds())
	if seconds <= 0 {
		seconds = 1
	}
	_, err := r.cron.AddFunc(fmt.Sprintf("@every %ds", seconds), func() {
		_ = r.OnMaintenanceTick()
	})
	if err != nil {
		return fmt.Errorf("schedule maintenance: %w", err)
	}
	r.cron.Start()
	return nil
}

// Stop halts periodic maintenance and waits for a running pass
func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
}

func (r *Runner) handleOverdue(overdue []model.Task, now time.Time) {
	current := make(map[string]bool, len(overdue))
	for _, t := range overdue {
		current[t.ID] = true
		if r.notified[t.ID] {
			continue
		}
		r.notified[t.ID] = true
		if r.opts.OnOverdue != nil {
			r.opts.OnOverdue(t, now)
		}
	}
	// Forget tasks that are no longer overdue so a new due date can notify again.
	for id := range r.notified {
		if !current[id] {
			delete(r.notified, id)
		}
	}
}
