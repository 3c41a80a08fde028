// Package reminder selects bills near their due date, turns them into
// reminders and fans them out to the notification channels.
package reminder

import (
	"math"
	"time"
)

// WindowDays is how far before and after today a bill is still reminded.
const WindowDays = 5

// DateOf truncates t to its calendar date, expressed as UTC midnight so
// that day arithmetic is free of DST shifts.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the calendar date of now as observed in loc.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return DateOf(now.In(loc))
}

type Window struct {
	From time.Time
	To   time.Time
}

// WindowAround returns [today-WindowDays, today+WindowDays].
func WindowAround(today time.Time) Window {
	d := DateOf(today)
	return Window{
		From: d.AddDate(0, 0, -WindowDays),
		To:   d.AddDate(0, 0, WindowDays),
	}
}

// Contains reports whether day falls inside the window, bounds included.
func (w Window) Contains(day time.Time) bool {
	d := DateOf(day)
	return !d.Before(w.From) && !d.After(w.To)
}

// DaysUntil counts calendar days from today to due. Negative means overdue.
func DaysUntil(today, due time.Time) int {
	diff := DateOf(due).Sub(DateOf(today))
	return int(math.Round(diff.Hours() / 24))
}
