package store

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dori/simplr/internal/db"
	"github.com/dori/simplr/internal/lifecycle"
	"github.com/dori/simplr/internal/model"
	"github.com/dori/simplr/internal/reminder/remindertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memRepo is an in-memory Repository and category.Repository
type memRepo struct {
	mu         sync.Mutex
	tasks      map[string]model.Task
	categories []model.Category
	loadErr    error
	upsertErr  error
}

func newMemRepo() *memRepo {
	return &memRepo{tasks: make(map[string]model.Task)}
}

func (r *memRepo) LoadTasks(ctx context.Context) ([]model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	var out []model.Task
	for _, t := range r.tasks {
		out = append(out, t.Clone())
	}
	return out, nil
}

func (r *memRepo) UpsertTasks(ctx context.Context, tasks []model.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.upsertErr != nil {
		return r.upsertErr
	}
	for _, t := range tasks {
		r.tasks[t.ID] = t.Clone()
	}
	return nil
}

func (r *memRepo) DeleteTasks(ctx context.Context, ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		delete(r.tasks, id)
	}
	return nil
}

func (r *memRepo) LoadCategories(ctx context.Context) ([]model.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Category, len(r.categories))
	copy(out, r.categories)
	return out, nil
}

func (r *memRepo) ReplaceCategories(ctx context.Context, cats []model.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.categories = make([]model.Category, len(cats))
	copy(r.categories, cats)
	return nil
}

func (r *memRepo) stored(id string) (model.Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	return t, ok
}

type harness struct {
	store *Store
	repo  *memRepo
	sched *remindertest.Scheduler
	now   time.Time
}

func newHarness(t *testing.T, repo *memRepo) *harness {
	t.Helper()
	h := &harness{
		repo:  repo,
		sched: remindertest.New(),
		now:   time.Date(2024, 1, 8, 12, 0, 0, 0, time.UTC),
	}
	h.store = New(Options{
		Tasks:      repo,
		Categories: repo,
		Scheduler:  h.sched,
		Clock:      func() time.Time { return h.now },
	})
	t.Cleanup(h.store.Close)
	return h
}

func (h *harness) flush(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, h.store.Flush(ctx))
}

func TestCreateTask(t *testing.T) {
	h := newHarness(t, newMemRepo())
	require.NoError(t, h.store.Load(context.Background()))

	remind := h.now.Add(time.Hour)
	work, _ := model.BuiltinByName("Work")
	task, err := h.store.CreateTask(Draft{Title: "  Ship it ", ReminderDate: &remind, CategoryID: &work.ID})
	require.NoError(t, err)

	assert.Equal(t, "Ship it", task.Title)
	assert.False(t, task.IsCompleted)
	assert.Nil(t, task.CompletedAt)
	assert.Equal(t, h.now, task.CreatedAt)
	assert.True(t, task.HasReminder)
	assert.Equal(t, 1, h.sched.Pending())
	assert.Equal(t, work, h.store.CategoryOf(task))

	h.flush(t)
	_, ok := h.repo.stored(task.ID)
	assert.True(t, ok)

	assert.Len(t, h.store.Search("ship"), 1)
}

func TestCreateTaskValidation(t *testing.T) {
	h := newHarness(t, newMemRepo())
	require.NoError(t, h.store.Load(context.Background()))

	_, err := h.store.CreateTask(Draft{Title: " "})
	assert.ErrorIs(t, err, ErrInvalidTitle)

	missing := "nope"
	_, err = h.store.CreateTask(Draft{Title: "x", CategoryID: &missing})
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestToggleRoundTrip(t *testing.T) {
	h := newHarness(t, newMemRepo())
	require.NoError(t, h.store.Load(context.Background()))

	remind := h.now.Add(3 * time.Hour)
	task, err := h.store.CreateTask(Draft{Title: "Dentist", ReminderDate: &remind})
	require.NoError(t, err)

	done, tr, err := h.store.ToggleCompletion(task.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.TransitionCompleted, tr)
	assert.True(t, done.IsCompleted)
	assert.Equal(t, 0, h.sched.Pending())

	reopened, tr, err := h.store.ToggleCompletion(task.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.TransitionReopened, tr)
	assert.Nil(t, reopened.CompletedAt)
	assert.Equal(t, 1, h.sched.Pending())

	for _, tk := range h.store.Tasks() {
		assert.True(t, tk.CompletionConsistent())
	}

	_, _, err = h.store.ToggleCompletion("missing")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestSchedulerFailureKeepsEdit(t *testing.T) {
	h := newHarness(t, newMemRepo())
	require.NoError(t, h.store.Load(context.Background()))
	h.sched.ScheduleErr = errors.New("notifications not permitted")

	remind := h.now.Add(time.Hour)
	task, err := h.store.CreateTask(Draft{Title: "Water plants", ReminderDate: &remind})
	assert.ErrorIs(t, err, lifecycle.ErrReminder)

	got, ok := h.store.Task(task.ID)
	require.True(t, ok)
	assert.True(t, got.HasReminder)
	assert.Equal(t, remind, *got.ReminderDate)
}

func TestUpdateTask(t *testing.T) {
	h := newHarness(t, newMemRepo())
	require.NoError(t, h.store.Load(context.Background()))

	task, err := h.store.CreateTask(Draft{Title: "Draft"})
	require.NoError(t, err)

	title := "Final"
	remind := h.now.Add(time.Hour)
	updated, err := h.store.UpdateTask(task.ID, Edit{Title: &title, ReminderDate: &remind})
	require.NoError(t, err)
	assert.Equal(t, "Final", updated.Title)
	assert.Equal(t, 1, h.sched.Pending())

	updated, err = h.store.UpdateTask(task.ID, Edit{ClearReminder: true})
	require.NoError(t, err)
	assert.False(t, updated.HasReminder)
	assert.Equal(t, 0, h.sched.Pending())

	empty := ""
	_, err = h.store.UpdateTask(task.ID, Edit{Title: &empty})
	assert.ErrorIs(t, err, ErrInvalidTitle)

	_, err = h.store.UpdateTask("missing", Edit{})
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestDeletedCategoryResolvesUncategorized(t *testing.T) {
	h := newHarness(t, newMemRepo())
	ctx := context.Background()
	require.NoError(t, h.store.Load(ctx))

	garden, err := h.store.CreateCategory(ctx, "Garden", "green")
	require.NoError(t, err)
	task, err := h.store.CreateTask(Draft{Title: "Prune roses", CategoryID: &garden.ID})
	require.NoError(t, err)

	require.NoError(t, h.store.DeleteCategory(ctx, garden.ID))

	// Reads don't rewrite the reference.
	got, _ := h.store.Task(task.ID)
	require.NotNil(t, got.CategoryID)
	assert.Equal(t, garden.ID, *got.CategoryID)
	assert.Equal(t, model.Uncategorized, h.store.CategoryOf(got))

	// Any explicit edit clears it.
	desc := "before spring"
	edited, err := h.store.UpdateTask(task.ID, Edit{Description: &desc})
	require.NoError(t, err)
	assert.Nil(t, edited.CategoryID)
}

func TestDeleteTask(t *testing.T) {
	h := newHarness(t, newMemRepo())
	require.NoError(t, h.store.Load(context.Background()))

	remind := h.now.Add(time.Hour)
	task, err := h.store.CreateTask(Draft{Title: "Temp", ReminderDate: &remind})
	require.NoError(t, err)

	require.NoError(t, h.store.DeleteTask(task.ID))
	assert.Equal(t, 0, h.sched.Pending())
	assert.Empty(t, h.store.Search("temp"))
	assert.ErrorIs(t, h.store.DeleteTask(task.ID), ErrTaskNotFound)

	h.flush(t)
	_, ok := h.repo.stored(task.ID)
	assert.False(t, ok)
}

func TestLoadFallsBackOnUnreadableTasks(t *testing.T) {
	repo := newMemRepo()
	repo.loadErr = errors.New("malformed")
	h := newHarness(t, repo)

	err := h.store.Load(context.Background())
	assert.ErrorIs(t, err, ErrCorruptState)
	assert.Empty(t, h.store.Tasks())
	assert.Equal(t, model.Builtins(), h.store.Categories())

	// The store is still usable.
	_, err = h.store.CreateTask(Draft{Title: "after failure"})
	assert.NoError(t, err)
}

func TestLoadMigratesAndReschedules(t *testing.T) {
	repo := newMemRepo()
	now := time.Date(2024, 1, 8, 12, 0, 0, 0, time.UTC)
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)
	repo.tasks["legacy"] = model.Task{ID: "legacy", Title: "old", IsCompleted: true, UpdatedAt: now.Add(-30 * 24 * time.Hour)}
	repo.tasks["soon"] = model.Task{ID: "soon", Title: "soon", HasReminder: true, ReminderDate: &future}
	repo.tasks["stale"] = model.Task{ID: "stale", Title: "stale", HasReminder: true, ReminderDate: &past}

	h := newHarness(t, repo)
	require.NoError(t, h.store.Load(context.Background()))

	legacy, ok := h.store.Task("legacy")
	require.True(t, ok)
	require.NotNil(t, legacy.CompletedAt)
	assert.Equal(t, now, *legacy.CompletedAt)

	_, scheduled := h.sched.Active("soon")
	assert.True(t, scheduled)
	_, scheduled = h.sched.Active("stale")
	assert.False(t, scheduled)

	// Maintenance right after must not evict the migrated task.
	report, err := h.store.PerformMaintenance(now)
	require.NoError(t, err)
	assert.Empty(t, report.Evicted)
	assert.Equal(t, []string{"legacy"}, report.Migrated)
	_, ok = h.store.Task("legacy")
	assert.True(t, ok)

	report, err = h.store.PerformMaintenance(now)
	require.NoError(t, err)
	assert.Empty(t, report.Migrated, "load-time migration is reported once")

	h.flush(t)
	stored, _ := repo.stored("legacy")
	assert.NotNil(t, stored.CompletedAt)
}

func TestPerformMaintenanceEvicts(t *testing.T) {
	h := newHarness(t, newMemRepo())
	require.NoError(t, h.store.Load(context.Background()))

	task, err := h.store.CreateTask(Draft{Title: "Done long ago"})
	require.NoError(t, err)
	_, _, err = h.store.ToggleCompletion(task.ID)
	require.NoError(t, err)

	report, err := h.store.PerformMaintenance(h.now.Add(6 * 24 * time.Hour))
	require.NoError(t, err)
	assert.Empty(t, report.Evicted)

	later := h.now.Add(model.RetentionWindow)
	report, err = h.store.PerformMaintenance(later)
	require.NoError(t, err)
	require.Len(t, report.Evicted, 1)
	_, ok := h.store.Task(task.ID)
	assert.False(t, ok)

	report, err = h.store.PerformMaintenance(later)
	require.NoError(t, err)
	assert.Empty(t, report.Evicted)

	h.flush(t)
	_, ok = h.repo.stored(task.ID)
	assert.False(t, ok)
}

func TestPerformMaintenanceCancelFailure(t *testing.T) {
	h := newHarness(t, newMemRepo())
	require.NoError(t, h.store.Load(context.Background()))

	task, err := h.store.CreateTask(Draft{Title: "Done long ago"})
	require.NoError(t, err)
	_, _, err = h.store.ToggleCompletion(task.ID)
	require.NoError(t, err)

	h.sched.CancelErr = errors.New("scheduler stopped")
	report, err := h.store.PerformMaintenance(h.now.Add(10 * 24 * time.Hour))
	assert.ErrorIs(t, err, lifecycle.ErrReminder)
	assert.ErrorIs(t, report.ReminderErr, lifecycle.ErrReminder)
	require.Len(t, report.Evicted, 1)
	_, ok := h.store.Task(task.ID)
	assert.False(t, ok)
}

func TestStats(t *testing.T) {
	h := newHarness(t, newMemRepo())
	require.NoError(t, h.store.Load(context.Background()))

	due := h.now.Add(-time.Hour)
	_, err := h.store.CreateTask(Draft{Title: "late", DueDate: &due})
	require.NoError(t, err)
	done, err := h.store.CreateTask(Draft{Title: "done"})
	require.NoError(t, err)
	_, _, err = h.store.ToggleCompletion(done.ID)
	require.NoError(t, err)

	st := h.store.Stats(h.now)
	assert.Equal(t, Stats{Pending: 1, Completed: 1, Overdue: 1, CompletedToday: 1}, st)
}

func TestFindTaskByPrefix(t *testing.T) {
	h := newHarness(t, newMemRepo())
	require.NoError(t, h.store.Load(context.Background()))

	task, err := h.store.CreateTask(Draft{Title: "prefix"})
	require.NoError(t, err)

	got, err := h.store.FindTask(task.ID[:8])
	require.NoError(t, err)
	assert.Equal(t, task.ID, got.ID)

	_, err = h.store.FindTask("zzzz")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestLegacyBuiltinMigrationWithSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "simplr.db")
	database, err := db.Open(path)
	require.NoError(t, err)
	defer database.Close()

	work, _ := model.BuiltinByName("Work")
	legacyID := "0b5c5f0e-legacy-work"
	require.NoError(t, database.ReplaceCategories(ctx, []model.Category{{ID: legacyID, Name: "Work", ColorKey: "blue"}}))

	now := time.Date(2024, 1, 8, 12, 0, 0, 0, time.UTC)
	require.NoError(t, database.UpsertTasks(ctx, []model.Task{
		{ID: "t1", Title: "Report", CategoryID: &legacyID, CreatedAt: now, UpdatedAt: now},
	}))

	open := func() *Store {
		s := New(Options{Tasks: database, Categories: database, Scheduler: remindertest.New(), Clock: func() time.Time { return now }})
		require.NoError(t, s.Load(ctx))
		return s
	}

	s := open()
	task, ok := s.Task("t1")
	require.True(t, ok)
	require.NotNil(t, task.CategoryID)
	assert.Equal(t, work.ID, *task.CategoryID)
	s.Close()

	persisted, err := database.LoadCategories(ctx)
	require.NoError(t, err)
	for _, c := range persisted {
		assert.NotEqual(t, legacyID, c.ID)
	}

	// A second load is a no-op.
	s = open()
	task, _ = s.Task("t1")
	assert.Equal(t, work.ID, *task.CategoryID)
	assert.Equal(t, model.Builtins(), s.Categories())
	s.Close()
}

func TestWriterFlushAndClose(t *testing.T) {
	repo := newMemRepo()
	w := NewWriter(repo, 1, nil)

	for i := 0; i < 10; i++ {
		w.SaveTasks([]model.Task{{ID: string(rune('a' + i)), Title: "t"}})
	}
	require.NoError(t, w.Flush(context.Background()))
	assert.Len(t, repo.tasks, 10)

	w.Close()
	w.Close()
	// Writes after close are dropped without panicking.
	w.SaveTasks([]model.Task{{ID: "late"}})
	assert.NoError(t, w.Flush(context.Background()))
}
