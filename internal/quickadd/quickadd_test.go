package quickadd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Wednesday
var now = time.Date(2026, 3, 11, 14, 30, 0, 0, time.UTC)

func TestParsePlainTitle(t *testing.T) {
	res := Parse("  Buy   groceries ", now)
	assert.Equal(t, "Buy groceries", res.Title)
	assert.Empty(t, res.Category)
	assert.Nil(t, res.DueDate)
	assert.Nil(t, res.ReminderDate)
}

func TestParseModifiers(t *testing.T) {
	res := Parse("Review PR @deep_work due:tomorrow remind:2h", now)
	assert.Equal(t, "Review PR", res.Title)
	assert.Equal(t, "deep work", res.Category)

	require.NotNil(t, res.DueDate)
	assert.Equal(t, time.Date(2026, 3, 12, 23, 59, 59, 0, time.UTC), *res.DueDate)

	require.NotNil(t, res.ReminderDate)
	assert.Equal(t, now.Add(2*time.Hour), *res.ReminderDate)
}

func TestUnparsedModifiersStayInTitle(t *testing.T) {
	res := Parse("Meet due:someday remind:never", now)
	assert.Equal(t, "Meet due:someday remind:never", res.Title)
	assert.Nil(t, res.DueDate)
	assert.Nil(t, res.ReminderDate)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"today", time.Date(2026, 3, 11, 23, 59, 59, 0, time.UTC)},
		{"tom", time.Date(2026, 3, 12, 23, 59, 59, 0, time.UTC)},
		{"friday", time.Date(2026, 3, 13, 23, 59, 59, 0, time.UTC)},
		// same weekday means next week
		{"wed", time.Date(2026, 3, 18, 23, 59, 59, 0, time.UTC)},
		{"2026-04-01", time.Date(2026, 4, 1, 23, 59, 59, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseDate(tt.in, now)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
	assert.Nil(t, ParseDate("whenever", now))
}

func TestParseReminder(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"45m", now.Add(45 * time.Minute)},
		{"17:00", time.Date(2026, 3, 11, 17, 0, 0, 0, time.UTC)},
		// already past today
		{"9:15", time.Date(2026, 3, 12, 9, 15, 0, 0, time.UTC)},
		{"friday", time.Date(2026, 3, 13, DefaultReminderHour, 0, 0, 0, time.UTC)},
		{"tomorrow@8:05", time.Date(2026, 3, 12, 8, 5, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseReminder(tt.in, now)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}

	for _, bad := range []string{"", "-5m", "25:00", "tomorrow@noon", "9:5"} {
		assert.Nil(t, ParseReminder(bad, now), bad)
	}
}

func TestFormatDue(t *testing.T) {
	assert.Equal(t, "today", FormatDue(now.Add(time.Hour), now))
	assert.Equal(t, "tomorrow", FormatDue(now.AddDate(0, 0, 1), now))
	assert.Equal(t, "Fri, Mar 20", FormatDue(time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC), now))
	assert.Equal(t, "Jan 2, 2027", FormatDue(time.Date(2027, 1, 2, 0, 0, 0, 0, time.UTC), now))
}
