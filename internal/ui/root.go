// Package ui is the bubbletea front end.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dori/simplr/internal/app"
	"github.com/dori/simplr/internal/store"
	"github.com/dori/simplr/internal/ui/theme"
	"github.com/dori/simplr/internal/ui/views"
)

// Backend is what the root model needs from the running app
type Backend interface {
	views.TaskStore
	// Foreground runs a maintenance pass
	Foreground() error
	Events() <-chan app.Event
}

type appBackend struct {
	*store.Store
	app *app.App
}

func (b appBackend) Foreground() error        { return b.app.Foreground() }
func (b appBackend) Events() <-chan app.Event { return b.app.Events() }

// RootModel is the main application model that manages views
type RootModel struct {
	backend Backend
	keys    KeyMap
	help    help.Model
	width   int
	height  int

	currentView View
	listView    views.ListView
	statsView   views.StatsView
	helpVisible bool

	// Status message
	statusMsg string
	errorMsg  string
}

// NewRootModel creates a new root model for a running app
func NewRootModel(application *app.App) RootModel {
	m := newRootModel(appBackend{Store: application.Store, app: application}, time.Now)
	if application.LoadErr != nil {
		m.errorMsg = "Some saved data could not be read; started with what was recoverable"
	}
	return m
}

func newRootModel(b Backend, clock func() time.Time) RootModel {
	h := help.New()
	h.ShowAll = false

	return RootModel{
		backend:     b,
		keys:        DefaultKeyMap(),
		help:        h,
		currentView: ViewList,
		listView:    views.NewListView(b, clock),
		statsView:   views.NewStatsView(b, clock),
	}
}

// Init initializes the model
func (m RootModel) Init() tea.Cmd {
	return tea.Batch(m.listView.Init(), m.waitForEvent())
}

// waitForEvent blocks on the next background event
func (m RootModel) waitForEvent() tea.Cmd {
	events := m.backend.Events()
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return AppEventMsg{Event: ev}
	}
}

// foreground runs maintenance when the terminal regains focus
func (m RootModel) foreground() tea.Cmd {
	b := m.backend
	return func() tea.Msg {
		return MaintenanceDoneMsg{Err: b.Foreground()}
	}
}

func reload() tea.Msg {
	return views.ReloadMsg{}
}

// Update handles messages
func (m RootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

		// Reserve space for header (2 lines) and footer (2 lines)
		contentHeight := m.height - 4
		m.listView = m.listView.SetSize(m.width, contentHeight)
		m.statsView = m.statsView.SetSize(m.width, contentHeight)

	case tea.FocusMsg:
		return m, m.foreground()

	case MaintenanceDoneMsg:
		if msg.Err != nil {
			m.errorMsg = msg.Err.Error()
		}
		return m.refresh()

	case AppEventMsg:
		switch msg.Event.Kind {
		case app.EventReminder:
			m.statusMsg = fmt.Sprintf("Reminder: %s", msg.Event.Title)
		case app.EventOverdue:
			m.statusMsg = fmt.Sprintf("Overdue: %s", msg.Event.Title)
		case app.EventMaintenance:
			if n := len(msg.Event.Report.Evicted); n > 0 {
				m.statusMsg = fmt.Sprintf("Cleared %d completed task(s) older than a week", n)
			}
			if msg.Event.Report.ReminderErr != nil {
				m.errorMsg = "Some reminders could not be cancelled"
			}
		}
		next, cmd := m.refresh()
		return next, tea.Batch(cmd, m.waitForEvent())

	case tea.KeyMsg:
		// Clear status/error on any keypress
		m.statusMsg = ""
		m.errorMsg = ""

		isInputMode := false
		if m.currentView == ViewList {
			isInputMode = m.listView.IsInputMode()
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			// ctrl+c always quits, but 'q' only quits when not in input mode
			if msg.String() == "ctrl+c" || !isInputMode {
				return m, tea.Quit
			}

		case key.Matches(msg, m.keys.ThemeCycle):
			m.cycleTheme()
			return m, nil
		}

		if isInputMode {
			break
		}

		switch {
		case key.Matches(msg, m.keys.Help):
			m.helpVisible = !m.helpVisible
			m.help.ShowAll = m.helpVisible
			return m, nil

		case m.helpVisible && key.Matches(msg, m.keys.Back):
			m.helpVisible = false
			m.help.ShowAll = false
			return m, nil

		case key.Matches(msg, m.keys.ListView):
			m.currentView = ViewList
			return m, m.listView.Init()
		case key.Matches(msg, m.keys.StatsView):
			m.currentView = ViewStats
			return m, m.statsView.Init()
		}

	case ErrorMsg:
		m.errorMsg = msg.Err.Error()
		return m, nil

	case StatusMsg:
		m.statusMsg = msg.Message
		return m, nil

	case ThemeChangedMsg:
		m.statusMsg = fmt.Sprintf("Theme: %s", msg.ThemeName)
		return m, nil
	}

	// Delegate to current view
	switch m.currentView {
	case ViewList:
		newListView, cmd := m.listView.Update(msg)
		m.listView = newListView.(views.ListView)
		cmds = append(cmds, cmd)
	case ViewStats:
		newStatsView, cmd := m.statsView.Update(msg)
		m.statsView = newStatsView.(views.StatsView)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// refresh reloads both views
func (m RootModel) refresh() (RootModel, tea.Cmd) {
	var cmds []tea.Cmd
	newListView, cmd := m.listView.Update(views.ReloadMsg{})
	m.listView = newListView.(views.ListView)
	cmds = append(cmds, cmd)

	newStatsView, cmd := m.statsView.Update(views.ReloadMsg{})
	m.statsView = newStatsView.(views.StatsView)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// View renders the UI
func (m RootModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var sections []string

	sections = append(sections, m.renderHeader())

	// Reserve: 1 line for header + 3 lines for footer (status + 2 hint lines)
	contentHeight := m.height - 4
	if m.errorMsg != "" || m.statusMsg != "" {
		contentHeight--
	}

	var content string
	if m.helpVisible {
		content = m.renderHelp()
	} else {
		switch m.currentView {
		case ViewList:
			content = m.listView.View()
		case ViewStats:
			content = m.statsView.View()
		}
	}

	// Ensure content fills available space
	contentLines := strings.Count(content, "\n") + 1
	if contentLines < contentHeight {
		content += strings.Repeat("\n", contentHeight-contentLines)
	}
	sections = append(sections, content)

	sections = append(sections, m.renderFooter())

	return strings.Join(sections, "\n")
}

// renderHeader renders the header bar
func (m RootModel) renderHeader() string {
	styles := theme.Current.Styles
	t := theme.Current.Theme

	title := styles.Header.Render("simplr")

	viewStyle := lipgloss.NewStyle().
		Foreground(t.Subtle).
		Padding(0, 1)
	viewIndicator := viewStyle.Render(fmt.Sprintf("[%s]", m.currentView.String()))
	themeIndicator := viewStyle.Render(fmt.Sprintf("theme: %s", t.Name))

	leftSide := lipgloss.JoinHorizontal(lipgloss.Center, title, viewIndicator)
	rightSide := themeIndicator

	gap := m.width - lipgloss.Width(leftSide) - lipgloss.Width(rightSide)
	if gap < 0 {
		gap = 0
	}

	return leftSide + strings.Repeat(" ", gap) + rightSide
}

// renderFooter renders the footer/status bar
func (m RootModel) renderFooter() string {
	styles := theme.Current.Styles
	t := theme.Current.Theme

	key := func(k, desc string) string {
		return styles.HelpKey.Render(k) + styles.HelpDesc.Render(" "+desc)
	}
	sep := styles.HelpSeparator.Render(" │ ")

	var statusLine string
	if m.errorMsg != "" {
		statusLine = lipgloss.NewStyle().Foreground(t.Error).Render(m.errorMsg)
	} else if m.statusMsg != "" {
		statusLine = lipgloss.NewStyle().Foreground(t.Info).Render(m.statusMsg)
	}

	var line1, line2 string
	switch m.currentView {
	case ViewList:
		if m.listView.IsInputMode() {
			line1 = key("enter", "confirm") + sep + key("esc", "cancel")
		} else {
			line1 = key("a", "add") + sep +
				key("enter", "edit") + sep +
				key("tab", "done") + sep +
				key("d", "del") + sep +
				key("c", "category") + sep +
				key("/", "search")
			line2 = key("h", "hide done") + sep +
				key("1-2", "views") + sep +
				key("ctrl+t", "theme") + sep +
				key("?", "help")
		}
	case ViewStats:
		line1 = key("r", "refresh")
		line2 = key("1-2", "views") + sep +
			key("ctrl+t", "theme") + sep +
			key("?", "help")
	}

	var lines []string
	if statusLine != "" {
		lines = append(lines, statusLine)
	}
	if line1 != "" {
		lines = append(lines, line1)
	}
	if line2 != "" {
		lines = append(lines, line2)
	}

	return strings.Join(lines, "\n")
}

// renderHelp renders the help overlay
func (m RootModel) renderHelp() string {
	t := theme.Current.Theme

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(t.Primary).
		MarginBottom(1)

	sectionStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(t.Secondary).
		MarginTop(1)

	keyStyle := lipgloss.NewStyle().
		Foreground(t.Foreground).
		Bold(true).
		Width(20)

	descStyle := lipgloss.NewStyle().
		Foreground(t.Subtle)

	var b strings.Builder

	b.WriteString(titleStyle.Render("simplr Help"))
	b.WriteString("\n\n")

	section := func(name string, rows [][]string) {
		b.WriteString(sectionStyle.Render(name))
		b.WriteString("\n")
		for _, kv := range rows {
			b.WriteString(keyStyle.Render(kv[0]))
			b.WriteString(descStyle.Render(kv[1]))
			b.WriteString("\n")
		}
	}

	section("Navigation", [][]string{
		{"↑/k ↓/j", "Navigate up/down"},
		{"g / G", "Go to top/bottom"},
	})
	section("Task Actions", [][]string{
		{"a", "Add new task"},
		{"enter", "Edit task"},
		{"tab / space", "Toggle done/pending"},
		{"d", "Delete task"},
		{"c", "Set category"},
		{"h", "Hide/show completed"},
		{"/", "Search"},
	})
	section("Quick Add", [][]string{
		{"@work", "Category (underscores for spaces)"},
		{"due:friday", "Due date (today, tom, 2026-01-15)"},
		{"remind:17:30", "Reminder (45m, 17:30, fri@9:00)"},
	})
	section("System", [][]string{
		{"1 / 2", "List / Stats"},
		{"ctrl+t", "Cycle theme"},
		{"q / ctrl+c", "Quit"},
	})

	b.WriteString("\n")
	b.WriteString(descStyle.Render("Completed tasks are cleared after 7 days. Press ? or esc to close"))

	return b.String()
}

// cycleTheme cycles through available themes
func (m *RootModel) cycleTheme() {
	themes := theme.Available()
	current := theme.Current.Theme.Name

	for i, t := range themes {
		if t.Name == current {
			next := themes[(i+1)%len(themes)]
			theme.SetTheme(next)
			m.statusMsg = fmt.Sprintf("Theme: %s", next.Name)
			return
		}
	}
}
