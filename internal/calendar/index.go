package calendar

import "hackwave/internal/model"

// Index maps a YYYY-MM-DD key to the events on that day.
type Index map[string][]model.Event

// IndexByDate groups events by date. Input order is kept within each day; no
// sorting and no cap is applied.
func IndexByDate(events []model.Event) Index {
	idx := make(Index)
	for _, e := range events {
		idx[e.Date] = append(idx[e.Date], e)
	}
	return idx
}

// On returns the events for the given day key, or nil.
func (idx Index) On(date string) []model.Event {
	return idx[date]
}
