package notify

import (
	"fmt"
	"os/exec"
	"strconv"
	"time"
)

// Urgency levels for notifications
type Urgency int

const (
	UrgencyLow Urgency = iota
	UrgencyNormal
	UrgencyCritical
)

// Notification represents a desktop notification
type Notification struct {
	Title   string
	Body    string
	Urgency Urgency
	Timeout time.Duration
	Icon    string // Optional icon name
}

// Runner executes a command; swapped out in tests
type Runner func(name string, args ...string) error

func execRunner(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

// Notifier handles sending desktop notifications
type Notifier struct {
	enabled bool
	run     Runner
}

// NewNotifier creates a new notifier
func NewNotifier() *Notifier {
	return &Notifier{
		enabled: true,
		run:     execRunner,
	}
}

// WithRunner returns a notifier that executes commands through run
func WithRunner(run Runner) *Notifier {
	return &Notifier{enabled: true, run: run}
}

// SetEnabled enables or disables notifications
func (n *Notifier) SetEnabled(enabled bool) {
	n.enabled = enabled
}

// IsEnabled returns whether notifications are enabled
func (n *Notifier) IsEnabled() bool {
	return n.enabled
}

// Send sends a desktop notification using notify-send
func (n *Notifier) Send(notification Notification) error {
	if !n.enabled {
		return nil
	}
	return n.run("notify-send", buildArgs(notification)...)
}

func buildArgs(notification Notification) []string {
	args := []string{}

	switch notification.Urgency {
	case UrgencyLow:
		args = append(args, "-u", "low")
	case UrgencyCritical:
		args = append(args, "-u", "critical")
	default:
		args = append(args, "-u", "normal")
	}

	// Timeout in milliseconds
	if notification.Timeout > 0 {
		args = append(args, "-t", strconv.Itoa(int(notification.Timeout.Milliseconds())))
	}

	if notification.Icon != "" {
		args = append(args, "-i", notification.Icon)
	}

	args = append(args, "-a", "simplr")

	args = append(args, notification.Title)
	if notification.Body != "" {
		args = append(args, notification.Body)
	}
	return args
}

// SendReminder sends a fired task reminder
func (n *Notifier) SendReminder(taskTitle, body string) error {
	if body == "" {
		body = "Reminder"
	}
	return n.Send(Notification{
		Title:   taskTitle,
		Body:    body,
		Urgency: UrgencyNormal,
		Timeout: 15 * time.Second,
		Icon:    "appointment-soon-symbolic",
	})
}

// SendOverdue sends a notification for a task past its due date
func (n *Notifier) SendOverdue(taskTitle string, overdueBy time.Duration) error {
	body := "Task is now overdue!"
	if overdueBy >= 24*time.Hour {
		body = fmt.Sprintf("Overdue by %d days", int(overdueBy.Hours()/24))
	}
	return n.Send(Notification{
		Title:   taskTitle,
		Body:    body,
		Urgency: UrgencyCritical,
		Timeout: 15 * time.Second,
		Icon:    "emblem-important-symbolic",
	})
}
