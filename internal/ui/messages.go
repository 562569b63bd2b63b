package ui

import (
	"github.com/dori/simplr/internal/app"
)

// View represents the current active view
type View int

const (
	ViewList View = iota
	ViewStats
	ViewHelp
)

// String returns the display name for a view
func (v View) String() string {
	switch v {
	case ViewList:
		return "List"
	case ViewStats:
		return "Stats"
	case ViewHelp:
		return "Help"
	default:
		return "Unknown"
	}
}

// Messages for inter-component communication

// AppEventMsg carries a background event (reminder, overdue, cleanup)
type AppEventMsg struct {
	Event app.Event
}

// MaintenanceDoneMsg is sent after a foreground maintenance pass
type MaintenanceDoneMsg struct {
	Err error
}

// ErrorMsg contains an error to display
type ErrorMsg struct {
	Err error
}

// StatusMsg contains a status message to display
type StatusMsg struct {
	Message string
}

// ThemeChangedMsg indicates the theme was changed
type ThemeChangedMsg struct {
	ThemeName string
}
