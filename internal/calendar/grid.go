// Package calendar builds the month grid and per-day event index used by the
// month view.
package calendar

import (
	"time"

	"hackwave/internal/model"
)

// Grid dimensions. The grid never shrinks for months that fit in 4 or 5 rows.
const (
	Weeks       = 6
	DaysPerWeek = 7
	Cells       = Weeks * DaysPerWeek
)

// Matrix is a Sunday-first 6×7 grid of calendar dates.
type Matrix [Weeks][DaysPerWeek]time.Time

// MonthMatrix returns the grid for the given year and zero-based month index.
// Out-of-range months normalise through date overflow, so month 12 is January
// of the next year and -1 is December of the previous one.
//
// All cells are midnight in UTC; callers compare them with SameDay.
func MonthMatrix(year, monthIndex int) Matrix {
	first := time.Date(year, time.Month(monthIndex+1), 1, 0, 0, 0, 0, time.UTC)
	start := first.AddDate(0, 0, -int(first.Weekday())) // Sunday == 0

	var m Matrix
	for row := 0; row < Weeks; row++ {
		for col := 0; col < DaysPerWeek; col++ {
			m[row][col] = start.AddDate(0, 0, row*DaysPerWeek+col)
		}
	}
	return m
}

// Flat returns the grid cells in row-major order.
func (m Matrix) Flat() []time.Time {
	out := make([]time.Time, 0, Cells)
	for _, row := range m {
		out = append(out, row[:]...)
	}
	return out
}

// SameDay reports whether a and b fall on the same calendar day, each in its
// own location.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// SameMonth reports whether a and b share year and month.
func SameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// FormatDate renders the YYYY-MM-DD key used by events.
func FormatDate(t time.Time) string {
	return t.Format(model.DateLayout)
}

// ParseDate parses a YYYY-MM-DD key as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(model.DateLayout, s)
}

// FirstOfMonth returns midnight on the first day of t's month, in t's location.
func FirstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// AddMonths moves to the first day of the month n months away.
func AddMonths(t time.Time, n int) time.Time {
	return FirstOfMonth(t).AddDate(0, n, 0)
}

// Today truncates now to a calendar date in loc and re-anchors it at UTC
// midnight, the representation used by the grid.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := now.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
