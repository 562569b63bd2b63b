package views

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dori/simplr/internal/db"
	"github.com/dori/simplr/internal/model"
	"github.com/dori/simplr/internal/reminder/remindertest"
	"github.com/dori/simplr/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	s := store.New(store.Options{
		Tasks:      database,
		Categories: database,
		Scheduler:  remindertest.New(),
		Clock:      clock,
	})
	require.NoError(t, s.Load(context.Background()))
	t.Cleanup(s.Close)
	return s
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// drive runs cmd and feeds results back until the view settles. Only
// commands returned by the view's own actions are run.
func drive(t *testing.T, v ListView, cmd tea.Cmd) ListView {
	t.Helper()
	for i := 0; cmd != nil && i < 5; i++ {
		msg := cmd()
		switch msg.(type) {
		case tasksLoadedMsg, taskChangedMsg:
		default:
			return v
		}
		var m tea.Model
		m, cmd = v.Update(msg)
		v = m.(ListView)
	}
	return v
}

func press(t *testing.T, v ListView, msg tea.KeyMsg) (ListView, tea.Cmd) {
	t.Helper()
	m, cmd := v.Update(msg)
	return m.(ListView), cmd
}

func loaded(t *testing.T, s *store.Store) ListView {
	t.Helper()
	v := NewListView(s, clock).SetSize(100, 40)
	return drive(t, v, v.Init())
}

func addTask(t *testing.T, v ListView, text string) ListView {
	t.Helper()
	v, _ = press(t, v, keyRunes("a"))
	require.Equal(t, ListModeAdd, v.Mode())
	v, _ = press(t, v, keyRunes(text))
	v, cmd := press(t, v, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, ListModeNormal, v.Mode())
	return drive(t, v, cmd)
}

func TestAddTaskWithQuickAddSyntax(t *testing.T) {
	s := newTestStore(t)
	v := loaded(t, s)

	v = addTask(t, v, "Review PR @work due:tomorrow")

	require.Len(t, v.Tasks(), 1)
	task := v.Tasks()[0]
	assert.Equal(t, "Review PR", task.Title)
	assert.Equal(t, "Work", s.CategoryOf(task).Name)
	require.NotNil(t, task.DueDate)
	assert.Equal(t, 12, task.DueDate.Day())
	assert.Contains(t, v.Status(), "Created")
}

func TestAddUnknownCategoryFails(t *testing.T) {
	s := newTestStore(t)
	v := loaded(t, s)

	v = addTask(t, v, "Something @nope")

	assert.Empty(t, v.Tasks())
	assert.Contains(t, v.Status(), "unknown category")
}

func TestToggleCompletesAndReopens(t *testing.T) {
	s := newTestStore(t)
	v := loaded(t, s)
	v = addTask(t, v, "Write report")

	v, cmd := press(t, v, tea.KeyMsg{Type: tea.KeyTab})
	v = drive(t, v, cmd)
	require.True(t, v.Tasks()[0].IsCompleted)
	require.NotNil(t, v.Tasks()[0].CompletedAt)
	assert.Contains(t, v.Status(), "Completed")

	v, cmd = press(t, v, tea.KeyMsg{Type: tea.KeyTab})
	v = drive(t, v, cmd)
	assert.False(t, v.Tasks()[0].IsCompleted)
	assert.Nil(t, v.Tasks()[0].CompletedAt)
}

func TestHideDone(t *testing.T) {
	s := newTestStore(t)
	v := loaded(t, s)
	v = addTask(t, v, "first")
	v = addTask(t, v, "second")

	v, cmd := press(t, v, tea.KeyMsg{Type: tea.KeyTab})
	v = drive(t, v, cmd)

	v, _ = press(t, v, keyRunes("h"))
	require.Len(t, v.Tasks(), 1)
	assert.False(t, v.Tasks()[0].IsCompleted)

	v, _ = press(t, v, keyRunes("h"))
	assert.Len(t, v.Tasks(), 2)
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	s := newTestStore(t)
	v := loaded(t, s)
	v = addTask(t, v, "Temporary")

	v, _ = press(t, v, keyRunes("d"))
	v, cmd := press(t, v, keyRunes("n"))
	assert.Nil(t, cmd)
	assert.Len(t, v.Tasks(), 1)

	v, _ = press(t, v, keyRunes("d"))
	require.Equal(t, ListModeConfirmDelete, v.Mode())
	v, cmd = press(t, v, keyRunes("y"))
	v = drive(t, v, cmd)
	assert.Empty(t, v.Tasks())
	assert.Empty(t, s.Tasks())
}

func TestCategoryPicker(t *testing.T) {
	s := newTestStore(t)
	v := loaded(t, s)
	v = addTask(t, v, "Gym @health")

	// Row 0 is Uncategorized, rows follow the category order.
	v, _ = press(t, v, keyRunes("c"))
	require.Equal(t, ListModePickCategory, v.Mode())
	for v.selectorCursor > 0 {
		v, _ = press(t, v, keyRunes("k"))
	}
	v, cmd := press(t, v, tea.KeyMsg{Type: tea.KeyEnter})
	v = drive(t, v, cmd)

	task := v.Tasks()[0]
	assert.Nil(t, task.CategoryID)
	assert.Equal(t, model.Uncategorized.Name, s.CategoryOf(task).Name)

	v, _ = press(t, v, keyRunes("c"))
	v, _ = press(t, v, keyRunes("j"))
	v, cmd = press(t, v, tea.KeyMsg{Type: tea.KeyEnter})
	v = drive(t, v, cmd)
	assert.Equal(t, "Urgent", s.CategoryOf(v.Tasks()[0]).Name)
}

func TestEditKeepsTitleWhenOnlyModifiers(t *testing.T) {
	s := newTestStore(t)
	v := loaded(t, s)
	v = addTask(t, v, "Call dentist")

	v, _ = press(t, v, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, ListModeEdit, v.Mode())
	v.input.SetValue("remind:17:00")
	v, cmd := press(t, v, tea.KeyMsg{Type: tea.KeyEnter})
	v = drive(t, v, cmd)

	task := v.Tasks()[0]
	assert.Equal(t, "Call dentist", task.Title)
	require.True(t, task.HasReminder)
	assert.Equal(t, 17, task.ReminderDate.Hour())
}

func TestSearchFilters(t *testing.T) {
	s := newTestStore(t)
	v := loaded(t, s)
	v = addTask(t, v, "Buy milk @shopping")
	v = addTask(t, v, "Book flights @travel")

	v, _ = press(t, v, keyRunes("/"))
	require.Equal(t, ListModeSearch, v.Mode())
	v, _ = press(t, v, keyRunes("fli"))
	v, _ = press(t, v, tea.KeyMsg{Type: tea.KeyEnter})

	m, cmd := v.Update(ReloadMsg{})
	v = drive(t, m.(ListView), cmd)
	require.Len(t, v.Tasks(), 1)
	assert.Equal(t, "Book flights", v.Tasks()[0].Title)

	// Category names are searchable too
	v.searchFilter = "shop"
	m, cmd = v.Update(ReloadMsg{})
	v = drive(t, m.(ListView), cmd)
	require.Len(t, v.Tasks(), 1)
	assert.Equal(t, "Buy milk", v.Tasks()[0].Title)

	v, cmd = press(t, v, tea.KeyMsg{Type: tea.KeyEsc})
	v = drive(t, v, cmd)
	assert.Len(t, v.Tasks(), 2)
}

func TestViewRenders(t *testing.T) {
	s := newTestStore(t)
	v := loaded(t, s)
	assert.Contains(t, v.View(), "No tasks")

	v = addTask(t, v, "Pay rent @personal due:today remind:15:00")
	out := v.View()
	assert.Contains(t, out, "Pay rent")
	assert.Contains(t, out, "Personal")
	assert.Contains(t, out, "due today")
}

func TestStatsView(t *testing.T) {
	s := newTestStore(t)
	_, err := s.CreateTask(store.Draft{Title: "a"})
	require.NoError(t, err)
	done, err := s.CreateTask(store.Draft{Title: "b"})
	require.NoError(t, err)
	_, _, err = s.ToggleCompletion(done.ID)
	require.NoError(t, err)

	v := NewStatsView(s, clock).SetSize(100, 40)
	m, _ := v.Update(v.Init()())
	v = m.(StatsView)

	assert.Equal(t, 1, v.Stats().Pending)
	assert.Equal(t, 1, v.Stats().CompletedToday)
	assert.Equal(t, 1, v.dailyCompletions[len(v.dailyCompletions)-1])
	assert.Contains(t, v.View(), "Uncategorized")
}
