package calendar

import (
	"time"

	"hackwave/internal/model"
)

// DefaultChipLimit is how many event chips a day cell shows before collapsing
// the rest into an overflow count.
const DefaultChipLimit = 3

// DayCell is one rendered cell of the month view.
type DayCell struct {
	Date       string        `json:"date"`
	Day        int           `json:"day"`
	InMonth    bool          `json:"in_month"`
	IsToday    bool          `json:"is_today"`
	IsSelected bool          `json:"is_selected"`
	Events     []model.Event `json:"events"`
	Overflow   int           `json:"overflow"`
}

// MonthView is the month page model: the selected month's grid with capped
// chips per day.
type MonthView struct {
	Year       int         `json:"year"`
	Month      int         `json:"month"` // zero-based
	Title      string      `json:"title"`
	Selected   string      `json:"selected"`
	Today      string      `json:"today"`
	Weekdays   []string    `json:"weekdays"`
	Weeks      [][]DayCell `json:"weeks"`
	EventCount int         `json:"event_count"`
}

// WeekdayLabels are the Sunday-first column headers.
var WeekdayLabels = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// ViewOptions configures BuildMonthView.
type ViewOptions struct {
	Year       int
	MonthIndex int
	Today      time.Time
	Selected   time.Time
	ChipLimit  int
}

// BuildMonthView combines the grid and the index into a renderable month.
func BuildMonthView(events []model.Event, opts ViewOptions) MonthView {
	limit := opts.ChipLimit
	if limit <= 0 {
		limit = DefaultChipLimit
	}

	matrix := MonthMatrix(opts.Year, opts.MonthIndex)
	idx := IndexByDate(events)
	// The matrix centre row always lies inside the requested month, which also
	// resolves normalised month indexes.
	anchor := matrix[2][0]

	view := MonthView{
		Year:     anchor.Year(),
		Month:    int(anchor.Month()) - 1,
		Title:    anchor.Format("January 2006"),
		Selected: FormatDate(opts.Selected),
		Today:    FormatDate(opts.Today),
		Weekdays: WeekdayLabels,
		Weeks:    make([][]DayCell, 0, Weeks),
	}

	for _, row := range matrix {
		week := make([]DayCell, 0, DaysPerWeek)
		for _, d := range row {
			key := FormatDate(d)
			dayEvents := idx.On(key)

			cell := DayCell{
				Date:       key,
				Day:        d.Day(),
				InMonth:    SameMonth(d, anchor),
				IsToday:    SameDay(d, opts.Today),
				IsSelected: SameDay(d, opts.Selected),
				Events:     []model.Event{},
			}
			if len(dayEvents) > limit {
				cell.Events = append(cell.Events, dayEvents[:limit]...)
				cell.Overflow = len(dayEvents) - limit
			} else {
				cell.Events = append(cell.Events, dayEvents...)
			}
			if cell.InMonth {
				view.EventCount += len(dayEvents)
			}
			week = append(week, cell)
		}
		view.Weeks = append(view.Weeks, week)
	}

	return view
}
