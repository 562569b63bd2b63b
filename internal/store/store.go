// Package store owns the in-memory task collection. Every mutation runs
// under one lock, so readers never observe a half-applied change.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dori/simplr/internal/category"
	"github.com/dori/simplr/internal/lifecycle"
	"github.com/dori/simplr/internal/model"
	"github.com/dori/simplr/internal/reminder"
	"github.com/dori/simplr/internal/search"
	"github.com/google/uuid"
)

var (
	ErrTaskNotFound    = errors.New("task not found")
	ErrInvalidTitle    = errors.New("task title is required")
	ErrUnknownCategory = errors.New("unknown category")
	// ErrCorruptState is returned by Load when persisted state could not be
	// read. The store is still usable with a safe fallback state.
	ErrCorruptState = errors.New("persisted state is unreadable")
)

// Repository is the task persistence used at load time
type Repository interface {
	TaskWriter
	LoadTasks(ctx context.Context) ([]model.Task, error)
}

// Options configure a Store. Tasks, Categories and Scheduler are required.
type Options struct {
	Tasks      Repository
	Categories category.Repository
	Scheduler  reminder.Scheduler
	Clock      func() time.Time
	Logger     *slog.Logger
	QueueSize  int
}

// Draft holds the fields of a new task
type Draft struct {
	Title        string
	Description  string
	DueDate      *time.Time
	ReminderDate *time.Time
	CategoryID   *string
}

// Edit describes changes to a task. Nil fields are left alone; the Clear
// flags remove a value.
type Edit struct {
	Title         *string
	Description   *string
	DueDate       *time.Time
	ClearDueDate  bool
	ReminderDate  *time.Time
	ClearReminder bool
	CategoryID    *string
	ClearCategory bool
}

// Stats summarises the task collection
type Stats struct {
	Pending        int
	Completed      int
	Overdue        int
	CompletedToday int
}

// Store is the task store
type Store struct {
	mu    sync.RWMutex
	tasks map[string]model.Task

	repo       Repository
	categories *category.Store
	engine     *lifecycle.Engine
	writer     *Writer
	index      *search.Index
	clock      func() time.Time
	log        *slog.Logger

	// ids stamped by Load, reported by the next maintenance pass
	loadMigrated []string
}

// New creates an empty store. Call Load before use.
func New(opts Options) *Store {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	index := search.NewIndex()
	writer := NewWriter(opts.Tasks, opts.QueueSize, log.With("component", "writer"))

	return &Store{
		tasks:      make(map[string]model.Task),
		repo:       opts.Tasks,
		categories: category.NewStore(opts.Categories, log.With("component", "categories")),
		engine: lifecycle.NewEngine(lifecycle.Config{
			Scheduler: opts.Scheduler,
			Index:     index,
			Persister: writer,
			Clock:     clock,
			Logger:    log.With("component", "lifecycle"),
		}),
		writer: writer,
		index:  index,
		clock:  clock,
		log:    log,
	}
}

// Load reads persisted categories and tasks, migrates legacy records and
// registers pending reminders. Unreadable state falls back to no tasks and
// the built-in categories; the returned error wraps ErrCorruptState.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error

	catRes, catErr := s.categories.LoadAll(ctx)
	if catErr != nil {
		errs = append(errs, fmt.Errorf("%w: %v", ErrCorruptState, catErr))
	}

	tasks, err := s.repo.LoadTasks(ctx)
	if err != nil {
		s.log.Error("load tasks failed, starting empty", "error", err)
		errs = append(errs, fmt.Errorf("%w: load tasks: %v", ErrCorruptState, err))
		tasks = nil
	} else if catErr == nil {
		tasks, err = s.migrateCategories(ctx, tasks, catRes)
		if err != nil {
			errs = append(errs, err)
		}
	}

	now := s.clock()
	tasks, migrated := s.engine.MigrateCompletionTimestamps(tasks, now)
	if len(migrated) > 0 {
		s.writer.SaveTasks(pickTasks(tasks, migrated))
	}
	s.loadMigrated = migrated

	s.tasks = make(map[string]model.Task, len(tasks))
	for _, t := range tasks {
		s.tasks[t.ID] = t
		s.indexLocked(t)
		if _, ok := t.ActiveReminder(now); ok {
			if err := s.engine.SyncReminder(t, now); err != nil {
				errs = append(errs, err)
			}
		}
	}

	s.log.Info("store loaded", "tasks", len(s.tasks), "categories", len(s.categories.All()),
		"legacy_categories", len(catRes.Legacy), "migrated_completions", len(migrated))

	return errors.Join(errs...)
}

// migrateCategories rewrites legacy built-in references and then persists
// the canonical category set. Categories are only rewritten once the task
// references are safely stored, so an interrupted run retries next time.
func (s *Store) migrateCategories(ctx context.Context, tasks []model.Task, res category.LoadResult) ([]model.Task, error) {
	if len(res.Legacy) == 0 && len(res.Dropped) == 0 {
		return tasks, nil
	}

	migrated, changed := category.MigrateLegacyBuiltins(tasks, res.Legacy)
	if len(changed) > 0 {
		if err := s.repo.UpsertTasks(ctx, pickTasks(migrated, changed)); err != nil {
			s.log.Error("persist category migration failed", "error", err)
			return migrated, fmt.Errorf("migrate legacy categories: %w", err)
		}
		s.log.Info("migrated legacy category references", "tasks", len(changed))
	}

	if err := s.categories.Save(ctx, s.categories.All()); err != nil {
		return migrated, err
	}
	return migrated, nil
}

// Tasks returns a snapshot of all tasks: pending first, then by due date
func (s *Store) Tasks() []model.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t.Clone())
	}
	sortTasks(out)
	return out
}

// Task returns a single task by ID
func (s *Store) Task(id string) (model.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return model.Task{}, false
	}
	return t.Clone(), true
}

// FindTask resolves a full id or a unique id prefix
func (s *Store) FindTask(ref string) (model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if t, ok := s.tasks[ref]; ok {
		return t.Clone(), nil
	}
	var match *model.Task
	for _, t := range s.tasks {
		if ref != "" && strings.HasPrefix(t.ID, ref) {
			if match != nil {
				return model.Task{}, fmt.Errorf("ambiguous task id %q", ref)
			}
			c := t.Clone()
			match = &c
		}
	}
	if match == nil {
		return model.Task{}, ErrTaskNotFound
	}
	return *match, nil
}

// Categories returns the live category set
func (s *Store) Categories() []model.Category {
	return s.categories.All()
}

// CategoryOf resolves a task's category, falling back to uncategorized
func (s *Store) CategoryOf(t model.Task) model.Category {
	return s.categories.Resolve(t.CategoryID)
}

// FindCategory looks up a category by name
func (s *Store) FindCategory(name string) (model.Category, bool) {
	return s.categories.FindByName(name)
}

// CreateTask adds a pending task. A returned error wrapping
// lifecycle.ErrReminder means the task was created but its reminder was not.
func (s *Store) CreateTask(d Draft) (model.Task, error) {
	title := strings.TrimSpace(d.Title)
	if title == "" {
		return model.Task{}, ErrInvalidTitle
	}
	if d.CategoryID != nil {
		if _, ok := s.categories.Get(*d.CategoryID); !ok {
			return model.Task{}, ErrUnknownCategory
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	t := model.Task{
		ID:          uuid.New().String(),
		Title:       title,
		Description: strings.TrimSpace(d.Description),
		DueDate:     d.DueDate,
		CategoryID:  d.CategoryID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if d.ReminderDate != nil {
		t.HasReminder = true
		t.ReminderDate = d.ReminderDate
	}
	t = t.Clone()

	s.tasks[t.ID] = t
	s.indexLocked(t)
	s.writer.SaveTasks([]model.Task{t})

	err := s.engine.SyncReminder(t, now)
	return t.Clone(), err
}

// UpdateTask applies an edit. Any edit clears a category reference that no
// longer resolves.
func (s *Store) UpdateTask(id string, e Edit) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.tasks[id]
	if !ok {
		return model.Task{}, ErrTaskNotFound
	}

	next := cur.Clone()
	if e.Title != nil {
		title := strings.TrimSpace(*e.Title)
		if title == "" {
			return model.Task{}, ErrInvalidTitle
		}
		next.Title = title
	}
	if e.Description != nil {
		next.Description = strings.TrimSpace(*e.Description)
	}
	switch {
	case e.ClearDueDate:
		next.DueDate = nil
	case e.DueDate != nil:
		d := *e.DueDate
		next.DueDate = &d
	}
	switch {
	case e.ClearReminder:
		next.HasReminder = false
		next.ReminderDate = nil
	case e.ReminderDate != nil:
		r := *e.ReminderDate
		next.HasReminder = true
		next.ReminderDate = &r
	}
	switch {
	case e.ClearCategory:
		next.CategoryID = nil
	case e.CategoryID != nil:
		if _, ok := s.categories.Get(*e.CategoryID); !ok {
			return model.Task{}, ErrUnknownCategory
		}
		c := *e.CategoryID
		next.CategoryID = &c
	case next.CategoryID != nil:
		if _, ok := s.categories.Get(*next.CategoryID); !ok {
			next.CategoryID = nil
		}
	}

	now := s.clock()
	next.UpdatedAt = now

	s.tasks[id] = next
	s.indexLocked(next)
	s.writer.SaveTasks([]model.Task{next})

	err := s.engine.SyncReminder(next, now)
	return next.Clone(), err
}

// DeleteTask removes a task, its reminder and its index entry
func (s *Store) DeleteTask(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return ErrTaskNotFound
	}

	delete(s.tasks, id)
	s.index.Remove(id)
	s.writer.DeleteTasks([]string{id})

	return s.engine.CancelReminder(id)
}

// ToggleCompletion flips a task between pending and completed
func (s *Store) ToggleCompletion(id string) (model.Task, lifecycle.Transition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.tasks[id]
	if !ok {
		return model.Task{}, 0, ErrTaskNotFound
	}

	next, tr, err := s.engine.ToggleCompletion(cur)
	s.tasks[id] = next
	s.writer.SaveTasks([]model.Task{next})

	return next.Clone(), tr, err
}

// CreateCategory adds a custom category
func (s *Store) CreateCategory(ctx context.Context, name, colorKey string) (model.Category, error) {
	return s.categories.Create(ctx, name, colorKey)
}

// DeleteCategory removes a custom category. Tasks keep the dangling
// reference, which resolves as uncategorized until they are edited.
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	if err := s.categories.Delete(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		if t.CategoryID != nil && *t.CategoryID == id {
			s.indexLocked(t)
		}
	}
	return nil
}

// PerformMaintenance runs the lifecycle maintenance pass on the collection.
// Completion timestamps stamped during Load are reported by the first pass.
// A returned error wraps lifecycle.ErrReminder; the report is still valid.
func (s *Store) PerformMaintenance(now time.Time) (lifecycle.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := make([]model.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		snapshot = append(snapshot, t)
	}
	sortTasks(snapshot)

	kept, report := s.engine.PerformMaintenance(snapshot, now)
	changed := len(report.Migrated) > 0 || len(report.Evicted) > 0
	if len(s.loadMigrated) > 0 {
		report.Migrated = append(s.loadMigrated, report.Migrated...)
		s.loadMigrated = nil
	}
	if changed {
		next := make(map[string]model.Task, len(kept))
		for _, t := range kept {
			next[t.ID] = t
		}
		s.tasks = next
	}

	return report, report.ReminderErr
}

// Search returns tasks matching the query
func (s *Store) Search(query string) []model.Task {
	ids := s.index.Search(query)

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Task, 0, len(ids))
	for _, id := range ids {
		if t, ok := s.tasks[id]; ok {
			out = append(out, t.Clone())
		}
	}
	sortTasks(out)
	return out
}

// Stats computes counts over the collection
func (s *Store) Stats(now time.Time) Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var st Stats
	y, m, d := now.Date()
	for _, t := range s.tasks {
		if t.IsCompleted {
			st.Completed++
			if t.CompletedAt != nil {
				cy, cm, cd := t.CompletedAt.In(now.Location()).Date()
				if cy == y && cm == m && cd == d {
					st.CompletedToday++
				}
			}
			continue
		}
		st.Pending++
		if t.IsOverdue(now) {
			st.Overdue++
		}
	}
	return st
}

// Flush waits for queued persistence writes
func (s *Store) Flush(ctx context.Context) error {
	return s.writer.Flush(ctx)
}

// Close drains pending writes
func (s *Store) Close() {
	s.writer.Close()
}

func (s *Store) indexLocked(t model.Task) {
	s.index.Update(t.ID, search.Fields{
		Title:       t.Title,
		Description: t.Description,
		Category:    s.categories.Resolve(t.CategoryID).Name,
	})
}

// sortTasks orders pending before completed, then by due date (undated
// last), then newest first
func sortTasks(tasks []model.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if a.IsCompleted != b.IsCompleted {
			return !a.IsCompleted
		}
		switch {
		case a.DueDate != nil && b.DueDate == nil:
			return true
		case a.DueDate == nil && b.DueDate != nil:
			return false
		case a.DueDate != nil && b.DueDate != nil && !a.DueDate.Equal(*b.DueDate):
			return a.DueDate.Before(*b.DueDate)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

func pickTasks(tasks []model.Task, ids []string) []model.Task {
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
