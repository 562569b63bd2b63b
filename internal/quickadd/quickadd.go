// Package quickadd parses one-line task entry such as
//
//	Pay rent @personal due:friday remind:friday@9:00
package quickadd

import (
	"strconv"
	"strings"
	"time"
)

// DefaultReminderHour is used when a reminder names a day without a time
const DefaultReminderHour = 9

// Result is a parsed quick-add line. Category is the raw name after '@'
// with underscores turned into spaces; resolving it is up to the caller.
type Result struct {
	Title        string
	Category     string
	DueDate      *time.Time
	ReminderDate *time.Time
}

// Parse splits text into a title and modifiers. Tokens that look like
// modifiers but don't parse stay in the title.
func Parse(text string, now time.Time) Result {
	var res Result
	var titleParts []string

	for _, word := range strings.Fields(text) {
		lower := strings.ToLower(word)
		switch {
		// Category (@work, @deep_work)
		case strings.HasPrefix(word, "@") && len(word) > 1:
			res.Category = strings.ReplaceAll(word[1:], "_", " ")

		// Due date (due:tomorrow, due:friday, due:2024-01-15)
		case strings.HasPrefix(lower, "due:"):
			if parsed := ParseDate(strings.TrimPrefix(lower, "due:"), now); parsed != nil {
				res.DueDate = parsed
			} else {
				titleParts = append(titleParts, word)
			}

		// Reminder (remind:30m, remind:17:00, remind:tomorrow@9:30)
		case strings.HasPrefix(lower, "remind:"):
			if parsed := ParseReminder(strings.TrimPrefix(lower, "remind:"), now); parsed != nil {
				res.ReminderDate = parsed
			} else {
				titleParts = append(titleParts, word)
			}

		default:
			titleParts = append(titleParts, word)
		}
	}

	res.Title = strings.Join(titleParts, " ")
	return res
}

// ParseDate resolves natural day names and dates to the end of that day
func ParseDate(s string, now time.Time) *time.Time {
	day := dayOf(s, now)
	if day == nil {
		return nil
	}
	t := time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 59, 0, now.Location())
	return &t
}

// ParseReminder resolves a reminder instant: a relative duration ("45m",
// "2h"), a clock time today or tomorrow ("17:30"), a day at the default
// hour ("friday") or a day with a time ("friday@8:15").
func ParseReminder(s string, now time.Time) *time.Time {
	if s == "" {
		return nil
	}

	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		t := now.Add(d)
		return &t
	}

	if hour, min, ok := parseClock(s); ok {
		t := time.Date(now.Year(), now.Month(), now.Day(), hour, min, 0, 0, now.Location())
		if !t.After(now) {
			t = t.AddDate(0, 0, 1)
		}
		return &t
	}

	dayPart, clockPart, hasClock := strings.Cut(s, "@")
	day := dayOf(dayPart, now)
	if day == nil {
		return nil
	}
	hour, min := DefaultReminderHour, 0
	if hasClock {
		var ok bool
		if hour, min, ok = parseClock(clockPart); !ok {
			return nil
		}
	}
	t := time.Date(day.Year(), day.Month(), day.Day(), hour, min, 0, 0, now.Location())
	return &t
}

func dayOf(s string, now time.Time) *time.Time {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch strings.ToLower(s) {
	case "today":
		return &today
	case "tomorrow", "tom":
		t := today.AddDate(0, 0, 1)
		return &t
	case "nextweek":
		t := today.AddDate(0, 0, 7)
		return &t
	}

	if wd, ok := weekdays[strings.ToLower(s)]; ok {
		return nextWeekday(today, wd)
	}

	formats := []string{
		"2006-01-02",
		"01/02/2006",
		"01-02-2006",
	}
	for _, format := range formats {
		if t, err := time.ParseInLocation(format, s, now.Location()); err == nil {
			return &t
		}
	}

	return nil
}

var weekdays = map[string]time.Weekday{
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
	"sunday": time.Sunday, "sun": time.Sunday,
}

// nextWeekday returns the next occurrence of day strictly after today
func nextWeekday(today time.Time, day time.Weekday) *time.Time {
	daysUntil := int(day - today.Weekday())
	if daysUntil <= 0 {
		daysUntil += 7
	}
	t := today.AddDate(0, 0, daysUntil)
	return &t
}

func parseClock(s string) (hour, min int, ok bool) {
	h, m, found := strings.Cut(s, ":")
	if !found {
		return 0, 0, false
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, false
	}
	min, err = strconv.Atoi(m)
	if err != nil || min < 0 || min > 59 || len(m) != 2 {
		return 0, 0, false
	}
	return hour, min, true
}

// FormatDue renders a due date relative to now
func FormatDue(t, now time.Time) string {
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return "today"
	}

	tomorrow := now.AddDate(0, 0, 1)
	if t.Year() == tomorrow.Year() && t.YearDay() == tomorrow.YearDay() {
		return "tomorrow"
	}

	if t.Year() == now.Year() {
		return t.Format("Mon, Jan 2")
	}

	return t.Format("Jan 2, 2006")
}
