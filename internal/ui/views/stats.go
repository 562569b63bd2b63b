package views

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dori/simplr/internal/model"
	"github.com/dori/simplr/internal/store"
	"github.com/dori/simplr/internal/ui/theme"
)

// chartDays matches the completed-task retention window
const chartDays = int(model.RetentionWindow / (24 * time.Hour))

type categoryCount struct {
	category model.Category
	pending  int
}

type statsLoadedMsg struct {
	now              time.Time
	stats            store.Stats
	dailyCompletions []int
	byCategory       []categoryCount
}

// StatsView summarises the task collection
type StatsView struct {
	store  TaskStore
	clock  func() time.Time
	width  int
	height int

	loaded           bool
	now              time.Time
	stats            store.Stats
	dailyCompletions []int
	byCategory       []categoryCount
}

// NewStatsView creates a new stats view
func NewStatsView(s TaskStore, clock func() time.Time) StatsView {
	if clock == nil {
		clock = time.Now
	}
	return StatsView{store: s, clock: clock}
}

// Init initializes the stats view
func (v StatsView) Init() tea.Cmd {
	return v.loadStats()
}

// SetSize sets the view dimensions
func (v StatsView) SetSize(width, height int) StatsView {
	v.width = width
	v.height = height
	return v
}

// Stats returns the last computed counts
func (v StatsView) Stats() store.Stats {
	return v.stats
}

// loadStats computes statistics from the store
func (v StatsView) loadStats() tea.Cmd {
	s, now := v.store, v.clock()
	return func() tea.Msg {
		tasks := s.Tasks()

		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		daily := make([]int, chartDays)
		pending := make(map[string]*categoryCount)

		for _, t := range tasks {
			if t.IsCompleted {
				if t.CompletedAt == nil {
					continue
				}
				c := t.CompletedAt.In(now.Location())
				day := time.Date(c.Year(), c.Month(), c.Day(), 0, 0, 0, 0, now.Location())
				ago := int(today.Sub(day).Hours() / 24)
				if ago >= 0 && ago < chartDays {
					daily[chartDays-1-ago]++
				}
				continue
			}

			cat := s.CategoryOf(t)
			cc, ok := pending[cat.Name]
			if !ok {
				cc = &categoryCount{category: cat}
				pending[cat.Name] = cc
			}
			cc.pending++
		}

		byCategory := make([]categoryCount, 0, len(pending))
		for _, cc := range pending {
			byCategory = append(byCategory, *cc)
		}
		sort.Slice(byCategory, func(i, j int) bool {
			if byCategory[i].pending != byCategory[j].pending {
				return byCategory[i].pending > byCategory[j].pending
			}
			return byCategory[i].category.Name < byCategory[j].category.Name
		})

		return statsLoadedMsg{
			now:              now,
			stats:            s.Stats(now),
			dailyCompletions: daily,
			byCategory:       byCategory,
		}
	}
}

// Update handles messages
func (v StatsView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case statsLoadedMsg:
		v.loaded = true
		v.now = msg.now
		v.stats = msg.stats
		v.dailyCompletions = msg.dailyCompletions
		v.byCategory = msg.byCategory
		return v, nil

	case ReloadMsg:
		return v, v.loadStats()

	case tea.KeyMsg:
		if msg.String() == "r" {
			return v, v.loadStats()
		}
	}

	return v, nil
}

// View renders the stats view
func (v StatsView) View() string {
	if !v.loaded {
		return "Loading..."
	}

	t := theme.Current.Theme

	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(t.Primary)
	sections = append(sections, titleStyle.Render("Statistics"))
	sections = append(sections, "")

	cardStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		Padding(0, 2).
		Width(18)

	valueStyle := lipgloss.NewStyle().Bold(true).Foreground(t.Primary)
	labelStyle := lipgloss.NewStyle().Foreground(t.Subtle)

	card := func(value int, label string, color lipgloss.Color) string {
		return cardStyle.Render(
			valueStyle.Foreground(color).Render(fmt.Sprintf("%d", value)) + "\n" +
				labelStyle.Render(label),
		)
	}

	cardRow := lipgloss.JoinHorizontal(lipgloss.Top,
		card(v.stats.Pending, "Pending", t.Primary),
		card(v.stats.Overdue, "Overdue", t.Error),
		card(v.stats.CompletedToday, "Done Today", t.Success),
		card(v.stats.Completed, "Done (7 days)", t.Secondary),
	)
	sections = append(sections, cardRow)
	sections = append(sections, "")

	sections = append(sections, v.renderActivityChart())
	sections = append(sections, "")

	if len(v.byCategory) > 0 {
		sections = append(sections, v.renderCategories())
		sections = append(sections, "")
	}

	hints := lipgloss.NewStyle().Foreground(t.Subtle).Render("r: refresh")
	sections = append(sections, hints)

	return strings.Join(sections, "\n")
}

// renderActivityChart renders completions per day over the retention window
func (v StatsView) renderActivityChart() string {
	t := theme.Current.Theme

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(t.Secondary)

	var lines []string
	lines = append(lines, headerStyle.Render(fmt.Sprintf("Completed (Last %d Days)", chartDays)))

	maxCount := 1
	for _, count := range v.dailyCompletions {
		if count > maxCount {
			maxCount = count
		}
	}

	chartHeight := 5
	barWidth := 4

	for row := chartHeight; row >= 1; row-- {
		var rowStr strings.Builder
		threshold := float64(row) / float64(chartHeight)

		for i, count := range v.dailyCompletions {
			ratio := float64(count) / float64(maxCount)

			var block string
			if ratio >= threshold {
				block = lipgloss.NewStyle().Foreground(t.Success).Render(strings.Repeat("█", barWidth))
			} else if ratio >= threshold-0.2 && ratio > 0 {
				block = lipgloss.NewStyle().Foreground(t.Info).Render(strings.Repeat("▄", barWidth))
			} else {
				block = strings.Repeat(" ", barWidth)
			}

			rowStr.WriteString(block)
			if i < len(v.dailyCompletions)-1 {
				rowStr.WriteString(" ")
			}
		}
		lines = append(lines, rowStr.String())
	}

	cell := lipgloss.NewStyle().Width(barWidth).Align(lipgloss.Center)
	var labelStr, countStr strings.Builder
	for i, count := range v.dailyCompletions {
		day := v.now.AddDate(0, 0, i-(len(v.dailyCompletions)-1))
		labelStr.WriteString(cell.Foreground(t.Subtle).Render(day.Format("Mon")))
		countStr.WriteString(cell.Foreground(t.Foreground).Render(fmt.Sprintf("%d", count)))
		if i < len(v.dailyCompletions)-1 {
			labelStr.WriteString(" ")
			countStr.WriteString(" ")
		}
	}
	lines = append(lines, labelStr.String(), countStr.String())

	return strings.Join(lines, "\n")
}

// renderCategories renders pending tasks per category
func (v StatsView) renderCategories() string {
	t := theme.Current.Theme

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(t.Secondary)

	var lines []string
	lines = append(lines, headerStyle.Render("Pending by Category"))

	maxCount := 1
	for _, cc := range v.byCategory {
		if cc.pending > maxCount {
			maxCount = cc.pending
		}
	}

	barMaxWidth := 30
	for _, cc := range v.byCategory {
		barWidth := max(1, cc.pending*barMaxWidth/maxCount)
		color := t.CategoryColor(cc.category.ColorKey)
		bar := lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", barWidth))
		lines = append(lines, fmt.Sprintf("%-15s %s %d", cc.category.Name, bar, cc.pending))
	}

	return strings.Join(lines, "\n")
}

// IsInputMode returns whether the view is in input mode
func (v StatsView) IsInputMode() bool {
	return false
}
