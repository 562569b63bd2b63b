package views

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dori/simplr/internal/lifecycle"
	"github.com/dori/simplr/internal/model"
	"github.com/dori/simplr/internal/quickadd"
	"github.com/dori/simplr/internal/store"
	"github.com/dori/simplr/internal/ui/theme"
)

// TaskStore is the task collection the views operate on
type TaskStore interface {
	Tasks() []model.Task
	Categories() []model.Category
	CategoryOf(t model.Task) model.Category
	FindCategory(name string) (model.Category, bool)
	CreateTask(d store.Draft) (model.Task, error)
	UpdateTask(id string, e store.Edit) (model.Task, error)
	DeleteTask(id string) error
	ToggleCompletion(id string) (model.Task, lifecycle.Transition, error)
	Search(query string) []model.Task
	Stats(now time.Time) store.Stats
}

// ListMode represents the current input mode of the list view
type ListMode int

const (
	ListModeNormal ListMode = iota
	ListModeAdd
	ListModeEdit
	ListModeSearch
	ListModeConfirmDelete
	ListModePickCategory
)

// Local message types for the list view
type tasksLoadedMsg struct {
	tasks      []model.Task
	categories []model.Category
}

type taskChangedMsg struct {
	taskID string
	status string
	err    error
}

// ReloadMsg asks the list to re-read the store
type ReloadMsg struct{}

// ListView displays tasks in a list format
type ListView struct {
	store  TaskStore
	clock  func() time.Time
	width  int
	height int

	allTasks     []model.Task
	tasks        []model.Task // after hide-done filter
	categories   []model.Category
	cursor       int
	scrollOffset int
	hideDone     bool

	mode           ListMode
	input          textinput.Model
	editingID      string
	deleteID       string
	searchFilter   string
	selectorCursor int

	statusMsg string
	statusErr bool

	focusAfterLoadTaskID string
}

// NewListView creates a new list view
func NewListView(s TaskStore, clock func() time.Time) ListView {
	if clock == nil {
		clock = time.Now
	}
	ti := textinput.New()
	ti.Placeholder = "New task... (@category due:friday remind:17:00)"
	ti.CharLimit = 256

	return ListView{
		store: s,
		clock: clock,
		input: ti,
	}
}

// Init initializes the list view
func (v ListView) Init() tea.Cmd {
	return v.loadTasks
}

// IsInputMode returns true when the view is capturing keys
func (v ListView) IsInputMode() bool {
	return v.mode != ListModeNormal
}

// SetSize updates the view dimensions
func (v ListView) SetSize(width, height int) ListView {
	v.width = width
	v.height = height
	v.input.Width = width - 4
	return v
}

// Tasks returns the currently displayed tasks
func (v ListView) Tasks() []model.Task {
	return v.tasks
}

// Cursor returns the selected row
func (v ListView) Cursor() int {
	return v.cursor
}

// Mode returns the current input mode
func (v ListView) Mode() ListMode {
	return v.mode
}

// Status returns the last status line
func (v ListView) Status() string {
	return v.statusMsg
}

func (v ListView) loadTasks() tea.Msg {
	var tasks []model.Task
	if v.searchFilter != "" {
		tasks = v.store.Search(v.searchFilter)
	} else {
		tasks = v.store.Tasks()
	}
	return tasksLoadedMsg{tasks: tasks, categories: v.store.Categories()}
}

// visibleTaskCount returns how many tasks can fit in the viewport
func (v ListView) visibleTaskCount() int {
	available := v.height - 4
	if available < 1 {
		available = 1
	}
	return available
}

// ensureCursorVisible adjusts scrollOffset to keep cursor in view
func (v *ListView) ensureCursorVisible() {
	visible := v.visibleTaskCount()

	if v.cursor < v.scrollOffset {
		v.scrollOffset = v.cursor
	}
	if v.cursor >= v.scrollOffset+visible {
		v.scrollOffset = v.cursor - visible + 1
	}

	maxOffset := len(v.tasks) - visible
	if maxOffset < 0 {
		maxOffset = 0
	}
	if v.scrollOffset > maxOffset {
		v.scrollOffset = maxOffset
	}
	if v.scrollOffset < 0 {
		v.scrollOffset = 0
	}
}

// Update handles messages for the list view
func (v ListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tasksLoadedMsg:
		v.allTasks = msg.tasks
		v.categories = msg.categories
		v.applyFilter()

		if v.focusAfterLoadTaskID != "" {
			for i, t := range v.tasks {
				if t.ID == v.focusAfterLoadTaskID {
					v.cursor = i
					break
				}
			}
			v.focusAfterLoadTaskID = ""
		} else if v.cursor >= len(v.tasks) {
			v.cursor = max(0, len(v.tasks)-1)
		}
		v.ensureCursorVisible()
		return v, nil

	case taskChangedMsg:
		v.statusMsg = msg.status
		v.statusErr = false
		if msg.err != nil {
			// The change itself may have applied; a reminder failure is a warning.
			if errors.Is(msg.err, lifecycle.ErrReminder) {
				v.statusMsg = fmt.Sprintf("%s (reminder not updated)", msg.status)
			} else {
				v.statusMsg = msg.err.Error()
			}
			v.statusErr = true
		}
		if msg.taskID != "" {
			v.focusAfterLoadTaskID = msg.taskID
		}
		return v, v.loadTasks

	case ReloadMsg:
		return v, v.loadTasks

	case tea.KeyMsg:
		switch v.mode {
		case ListModeAdd, ListModeEdit:
			return v.handleInputMode(msg)
		case ListModeSearch:
			return v.handleSearchMode(msg)
		case ListModeConfirmDelete:
			return v.handleDeleteConfirm(msg)
		case ListModePickCategory:
			return v.handleCategorySelector(msg)
		default:
			return v.handleNormalMode(msg)
		}
	}

	if v.mode == ListModeAdd || v.mode == ListModeEdit || v.mode == ListModeSearch {
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	return v, nil
}

// handleNormalMode handles keypresses in normal mode
func (v ListView) handleNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	v.statusMsg = ""
	v.statusErr = false

	switch msg.String() {
	// Navigation
	case "up", "k":
		if v.cursor > 0 {
			v.cursor--
		}
	case "down", "j":
		if v.cursor < len(v.tasks)-1 {
			v.cursor++
		}
	case "g":
		v.cursor = 0
	case "G":
		v.cursor = max(0, len(v.tasks)-1)

	// Actions
	case "a":
		v.mode = ListModeAdd
		v.input.Reset()
		v.input.Placeholder = "New task... (@category due:friday remind:17:00)"
		v.input.Focus()
		return v, textinput.Blink

	case "enter":
		if task, ok := v.current(); ok {
			v.mode = ListModeEdit
			v.editingID = task.ID
			v.input.SetValue(task.Title)
			v.input.CursorEnd()
			v.input.Focus()
			return v, textinput.Blink
		}

	case "tab", " ":
		if task, ok := v.current(); ok {
			return v, v.toggleTask(task.ID)
		}

	case "d":
		if task, ok := v.current(); ok {
			v.mode = ListModeConfirmDelete
			v.deleteID = task.ID
		}

	case "c":
		if task, ok := v.current(); ok {
			v.mode = ListModePickCategory
			v.selectorCursor = 0
			cat := v.store.CategoryOf(task)
			for i, c := range v.categories {
				if c.ID == cat.ID {
					v.selectorCursor = i + 1
				}
			}
		}

	case "h":
		v.hideDone = !v.hideDone
		v.applyFilter()
		if v.hideDone {
			v.statusMsg = "Hiding completed tasks"
		} else {
			v.statusMsg = "Showing all tasks"
		}

	case "/":
		v.mode = ListModeSearch
		v.input.SetValue(v.searchFilter)
		v.input.Placeholder = "Search..."
		v.input.CursorEnd()
		v.input.Focus()
		return v, textinput.Blink

	case "esc":
		if v.searchFilter != "" {
			v.searchFilter = ""
			return v, v.loadTasks
		}
	}

	v.ensureCursorVisible()
	return v, nil
}

// handleInputMode handles add and edit input
func (v ListView) handleInputMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		v.mode = ListModeNormal
		v.editingID = ""
		v.input.Blur()
		return v, nil

	case "enter":
		text := strings.TrimSpace(v.input.Value())
		mode, id := v.mode, v.editingID
		v.mode = ListModeNormal
		v.editingID = ""
		v.input.Blur()
		v.input.Reset()
		if text == "" {
			return v, nil
		}
		if mode == ListModeEdit {
			return v, v.editTask(id, text)
		}
		return v, v.createTask(text)
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// handleSearchMode filters as the user types
func (v ListView) handleSearchMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		v.mode = ListModeNormal
		v.searchFilter = ""
		v.input.Blur()
		v.input.Reset()
		return v, v.loadTasks
	case "enter":
		v.mode = ListModeNormal
		v.input.Blur()
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	v.searchFilter = strings.TrimSpace(v.input.Value())
	v.cursor = 0
	return v, tea.Batch(cmd, v.loadTasks)
}

// handleDeleteConfirm handles the y/n prompt
func (v ListView) handleDeleteConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	id := v.deleteID
	v.mode = ListModeNormal
	v.deleteID = ""

	switch msg.String() {
	case "y", "Y":
		return v, v.deleteTask(id)
	}
	v.statusMsg = "Delete cancelled"
	return v, nil
}

// handleCategorySelector picks a category; row 0 clears it
func (v ListView) handleCategorySelector(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	rows := len(v.categories) + 1

	switch msg.String() {
	case "up", "k":
		if v.selectorCursor > 0 {
			v.selectorCursor--
		}
	case "down", "j":
		if v.selectorCursor < rows-1 {
			v.selectorCursor++
		}
	case "esc":
		v.mode = ListModeNormal
	case "enter":
		v.mode = ListModeNormal
		task, ok := v.current()
		if !ok {
			return v, nil
		}
		edit := store.Edit{ClearCategory: true}
		name := model.Uncategorized.Name
		if v.selectorCursor > 0 {
			cat := v.categories[v.selectorCursor-1]
			edit = store.Edit{CategoryID: &cat.ID}
			name = cat.Name
		}
		return v, v.updateTask(task.ID, edit, fmt.Sprintf("Category: %s", name))
	}
	return v, nil
}

func (v ListView) current() (model.Task, bool) {
	if v.cursor < 0 || v.cursor >= len(v.tasks) {
		return model.Task{}, false
	}
	return v.tasks[v.cursor], true
}

func (v *ListView) applyFilter() {
	if !v.hideDone {
		v.tasks = v.allTasks
	} else {
		v.tasks = make([]model.Task, 0, len(v.allTasks))
		for _, t := range v.allTasks {
			if !t.IsCompleted {
				v.tasks = append(v.tasks, t)
			}
		}
	}
	if v.cursor >= len(v.tasks) {
		v.cursor = max(0, len(v.tasks)-1)
	}
}

// Commands

func (v ListView) createTask(text string) tea.Cmd {
	s, now := v.store, v.clock()
	return func() tea.Msg {
		parsed := quickadd.Parse(text, now)
		draft := store.Draft{
			Title:        parsed.Title,
			DueDate:      parsed.DueDate,
			ReminderDate: parsed.ReminderDate,
		}
		if parsed.Category != "" {
			cat, ok := s.FindCategory(parsed.Category)
			if !ok {
				return taskChangedMsg{err: fmt.Errorf("unknown category @%s", parsed.Category)}
			}
			draft.CategoryID = &cat.ID
		}
		task, err := s.CreateTask(draft)
		return taskChangedMsg{taskID: task.ID, status: fmt.Sprintf("Created: %s", task.Title), err: err}
	}
}

func (v ListView) editTask(id, text string) tea.Cmd {
	s, now := v.store, v.clock()
	return func() tea.Msg {
		parsed := quickadd.Parse(text, now)
		edit := store.Edit{
			DueDate:      parsed.DueDate,
			ReminderDate: parsed.ReminderDate,
		}
		if parsed.Title != "" {
			edit.Title = &parsed.Title
		}
		if parsed.Category != "" {
			cat, ok := s.FindCategory(parsed.Category)
			if !ok {
				return taskChangedMsg{err: fmt.Errorf("unknown category @%s", parsed.Category)}
			}
			edit.CategoryID = &cat.ID
		}
		task, err := s.UpdateTask(id, edit)
		return taskChangedMsg{taskID: task.ID, status: fmt.Sprintf("Updated: %s", task.Title), err: err}
	}
}

func (v ListView) updateTask(id string, edit store.Edit, status string) tea.Cmd {
	s := v.store
	return func() tea.Msg {
		task, err := s.UpdateTask(id, edit)
		return taskChangedMsg{taskID: task.ID, status: status, err: err}
	}
}

func (v ListView) toggleTask(id string) tea.Cmd {
	s := v.store
	return func() tea.Msg {
		task, tr, err := s.ToggleCompletion(id)
		status := fmt.Sprintf("%s: %s", capitalize(tr.String()), task.Title)
		return taskChangedMsg{taskID: task.ID, status: status, err: err}
	}
}

func (v ListView) deleteTask(id string) tea.Cmd {
	s := v.store
	return func() tea.Msg {
		err := s.DeleteTask(id)
		return taskChangedMsg{status: "Task deleted", err: err}
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// View renders the list view
func (v ListView) View() string {
	styles := theme.Current.Styles
	t := theme.Current.Theme

	var b strings.Builder

	switch v.mode {
	case ListModeAdd, ListModeEdit:
		b.WriteString(styles.InputFocused.Render(v.input.View()))
		b.WriteString("\n\n")
	case ListModeSearch:
		searchStyle := lipgloss.NewStyle().Foreground(t.Primary).Bold(true)
		b.WriteString(searchStyle.Render("/"))
		b.WriteString(v.input.View())
		b.WriteString("\n\n")
	case ListModeConfirmDelete:
		confirmStyle := lipgloss.NewStyle().Foreground(t.Warning).Bold(true)
		b.WriteString(confirmStyle.Render("Delete task? (y/n)"))
		b.WriteString("\n\n")
	case ListModePickCategory:
		b.WriteString(v.renderCategorySelector())
		return b.String()
	}

	if v.mode != ListModeSearch && v.searchFilter != "" {
		filterStyle := lipgloss.NewStyle().Foreground(t.Info).Italic(true)
		hint := lipgloss.NewStyle().Foreground(t.Subtle)
		b.WriteString(filterStyle.Render(fmt.Sprintf("Search: %s", v.searchFilter)))
		b.WriteString(hint.Render(" (esc to clear)"))
		b.WriteString("\n\n")
	}

	if v.statusMsg != "" {
		statusStyle := lipgloss.NewStyle().Foreground(t.Info).Italic(true)
		if v.statusErr {
			statusStyle = lipgloss.NewStyle().Foreground(t.Error)
		}
		b.WriteString(statusStyle.Render(v.statusMsg))
		b.WriteString("\n\n")
	}

	if len(v.tasks) == 0 {
		emptyStyle := lipgloss.NewStyle().Foreground(t.Subtle).Italic(true).Padding(2, 0)
		if v.searchFilter != "" {
			b.WriteString(emptyStyle.Render("No tasks match the search."))
		} else {
			b.WriteString(emptyStyle.Render("No tasks. Press 'a' to add one."))
		}
		return b.String()
	}

	visible := v.visibleTaskCount()
	endIdx := min(v.scrollOffset+visible, len(v.tasks))

	if v.scrollOffset > 0 {
		scrollStyle := lipgloss.NewStyle().Foreground(t.Subtle)
		b.WriteString(scrollStyle.Render(fmt.Sprintf("  ↑ %d more above", v.scrollOffset)))
		b.WriteString("\n")
	}

	now := v.clock()
	for i := v.scrollOffset; i < endIdx; i++ {
		b.WriteString(v.renderTask(v.tasks[i], i == v.cursor, now))
		b.WriteString("\n")
	}

	if remaining := len(v.tasks) - endIdx; remaining > 0 {
		scrollStyle := lipgloss.NewStyle().Foreground(t.Subtle)
		b.WriteString(scrollStyle.Render(fmt.Sprintf("  ↓ %d more below", remaining)))
		b.WriteString("\n")
	}

	return b.String()
}

// renderTask renders one task row
func (v ListView) renderTask(task model.Task, focused bool, now time.Time) string {
	styles := theme.Current.Styles
	t := theme.Current.Theme

	check := "[ ]"
	titleStyle := styles.TaskNormal
	switch {
	case task.IsCompleted:
		check = "[x]"
		titleStyle = styles.TaskDone
	case task.IsOverdue(now):
		titleStyle = styles.TaskOverdue
	}
	if focused {
		titleStyle = titleStyle.Background(t.Highlight).Bold(true)
	}

	cursor := "  "
	if focused {
		cursor = lipgloss.NewStyle().Foreground(t.Primary).Render("> ")
	}

	var parts []string
	parts = append(parts, cursor+check+titleStyle.Render(task.Title))

	cat := v.store.CategoryOf(task)
	if task.CategoryID != nil {
		parts = append(parts, styles.Category.Foreground(t.CategoryColor(cat.ColorKey)).Render(cat.Name))
	}

	if task.DueDate != nil && !task.IsCompleted {
		due := styles.DueDate
		if task.IsOverdue(now) {
			due = due.Foreground(t.Error)
		}
		parts = append(parts, due.Render("due "+quickadd.FormatDue(*task.DueDate, now)))
	}

	if at, ok := task.ActiveReminder(now); ok {
		parts = append(parts, styles.Reminder.Render("⏰ "+at.Format("Jan 2 15:04")))
	}

	return strings.Join(parts, " ")
}

// renderCategorySelector renders the category selection popup
func (v ListView) renderCategorySelector() string {
	t := theme.Current.Theme

	titleStyle := lipgloss.NewStyle().Foreground(t.Primary).Bold(true)

	var b strings.Builder
	b.WriteString(titleStyle.Render("Set category:"))
	b.WriteString("\n")

	rows := append([]model.Category{model.Uncategorized}, v.categories...)
	for i, cat := range rows {
		cursor := "  "
		if i == v.selectorCursor {
			cursor = "> "
		}
		style := lipgloss.NewStyle().Foreground(t.CategoryColor(cat.ColorKey))
		if i == v.selectorCursor {
			style = style.Bold(true)
		}
		b.WriteString(cursor)
		b.WriteString(style.Render(cat.Name))
		if cat.IsCustom {
			b.WriteString(lipgloss.NewStyle().Foreground(t.Subtle).Render(" (custom)"))
		}
		b.WriteString("\n")
	}

	hintStyle := lipgloss.NewStyle().Foreground(t.Subtle).Italic(true)
	b.WriteString(hintStyle.Render("(Enter to select, Esc to cancel)"))

	return b.String()
}
