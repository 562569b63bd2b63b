// Package app wires storage, reminders, maintenance and notifications
// into one running instance.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dori/simplr/internal/config"
	"github.com/dori/simplr/internal/db"
	"github.com/dori/simplr/internal/lifecycle"
	"github.com/dori/simplr/internal/logging"
	"github.com/dori/simplr/internal/maintenance"
	"github.com/dori/simplr/internal/model"
	"github.com/dori/simplr/internal/notify"
	"github.com/dori/simplr/internal/reminder"
	"github.com/dori/simplr/internal/store"
	"github.com/gofrs/flock"
)

// EventKind identifies background events delivered to the UI
type EventKind int

const (
	EventReminder EventKind = iota
	EventOverdue
	EventMaintenance
)

// Event is something that happened outside a user action
type Event struct {
	Kind   EventKind
	TaskID string
	Title  string
	Body   string
	Report lifecycle.Report
}

const eventBuffer = 64

// App holds the application state and dependencies
type App struct {
	Config      *config.Config
	DB          *db.DB
	Store       *store.Store
	Scheduler   *reminder.CronScheduler
	Maintenance *maintenance.Runner
	Notifier    *notify.Notifier
	Log         *slog.Logger
	DataDir     string

	// LoadErr is set when persisted state was unreadable and the store
	// started from a fallback state
	LoadErr error

	events    chan Event
	started   bool
	lockFile  *flock.Flock
	logCloser io.Closer
}

// New creates a new application instance: it takes the instance lock,
// opens the database and loads the store. Background work starts with Start.
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	// Ensure data directory exists
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	log, closer, err := logging.Open(cfg.DataDir, cfg.Debug)
	if err != nil {
		return nil, err
	}

	notifier := notify.NewNotifier()
	notifier.SetEnabled(cfg.Notifications)

	app := &App{
		Config:    cfg,
		DataDir:   cfg.DataDir,
		Notifier:  notifier,
		Log:       log,
		events:    make(chan Event, eventBuffer),
		logCloser: closer,
	}

	// Acquire lock to ensure single instance
	if err := app.acquireLock(); err != nil {
		closer.Close()
		return nil, err
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		app.releaseLock()
		closer.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	app.DB = database

	app.Scheduler = reminder.NewCronScheduler(time.Local, app.onReminderFired, log.With("component", "reminders"))
	app.Store = store.New(store.Options{
		Tasks:      database,
		Categories: database,
		Scheduler:  app.Scheduler,
		Logger:     log,
	})
	app.Maintenance = maintenance.New(app.Store, maintenance.Options{
		Logger:    log.With("component", "maintenance"),
		OnOverdue: app.onOverdue,
		OnReport:  app.onReport,
	})

	if err := app.Store.Load(context.Background()); err != nil {
		// Corrupt state degrades to a fallback; anything else is fatal.
		if !errors.Is(err, store.ErrCorruptState) && !errors.Is(err, lifecycle.ErrReminder) {
			app.Close()
			return nil, fmt.Errorf("failed to load tasks: %w", err)
		}
		log.Warn("store loaded with errors", "error", err)
		app.LoadErr = err
	}

	return app, nil
}

// Start begins firing reminders, runs the cold-start maintenance pass and
// schedules periodic maintenance
func (a *App) Start() error {
	if a.started {
		return nil
	}
	a.started = true

	a.Scheduler.Start()
	if err := a.Maintenance.OnMaintenanceTick(); err != nil {
		a.Log.Error("cold start maintenance failed", "error", err)
	}
	return a.Maintenance.Start(a.Config.MaintenanceInterval)
}

// Foreground runs maintenance when the user returns to the app
func (a *App) Foreground() error {
	return a.Maintenance.OnMaintenanceTick()
}

// Events delivers reminder, overdue and maintenance events
func (a *App) Events() <-chan Event {
	return a.events
}

// onReminderFired delivers a fired reminder. Task state is untouched.
func (a *App) onReminderFired(taskID string, payload reminder.Payload) {
	if err := a.Notifier.SendReminder(payload.Title, payload.Body); err != nil {
		a.Log.Warn("reminder notification failed", "task_id", taskID, "error", err)
	}
	a.emit(Event{Kind: EventReminder, TaskID: taskID, Title: payload.Title, Body: payload.Body})
}

func (a *App) onOverdue(t model.Task, now time.Time) {
	var overdueBy time.Duration
	if t.DueDate != nil {
		overdueBy = now.Sub(*t.DueDate)
	}
	if err := a.Notifier.SendOverdue(t.Title, overdueBy); err != nil {
		a.Log.Warn("overdue notification failed", "task_id", t.ID, "error", err)
	}
	a.emit(Event{Kind: EventOverdue, TaskID: t.ID, Title: t.Title})
}

func (a *App) onReport(r lifecycle.Report) {
	a.emit(Event{Kind: EventMaintenance, Report: r})
}

func (a *App) emit(e Event) {
	select {
	case a.events <- e:
	default:
		a.Log.Debug("event dropped, ui not draining", "kind", e.Kind)
	}
}

// acquireLock acquires an exclusive file lock to prevent multiple instances
func (a *App) acquireLock() error {
	lockPath := filepath.Join(a.DataDir, "simplr.lock")
	a.lockFile = flock.New(lockPath)

	locked, err := a.lockFile.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}

	if !locked {
		return fmt.Errorf("another instance of simplr is already running")
	}

	return nil
}

// releaseLock releases the file lock
func (a *App) releaseLock() {
	if a.lockFile != nil {
		a.lockFile.Unlock()
	}
}

// Close stops background work, drains pending writes and releases
// resources
func (a *App) Close() error {
	var errs []error

	if a.Maintenance != nil {
		a.Maintenance.Stop()
	}
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	if a.Store != nil {
		a.Store.Close()
	}

	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
		a.DB = nil
	}

	a.releaseLock()

	if a.logCloser != nil {
		a.logCloser.Close()
		a.logCloser = nil
	}

	return errors.Join(errs...)
}
