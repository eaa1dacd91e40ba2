// Package agenda derives the sidebar lists from the event collection: the
// upcoming agenda and the recommendation list.
package agenda

import (
	"sort"
	"strings"
	"time"

	"hackwave/internal/model"
)

// DefaultUpcomingLimit is the number of agenda entries shown in the sidebar.
const DefaultUpcomingLimit = 8

// Upcoming returns events dated today or later, ordered by date then time,
// truncated to limit (DefaultUpcomingLimit when limit <= 0). Events sharing
// the same date and time keep their input order. today is supplied by the
// caller; only its calendar date is used.
func Upcoming(events []model.Event, today time.Time, limit int) []model.Event {
	if limit <= 0 {
		limit = DefaultUpcomingLimit
	}
	todayKey := today.Format(model.DateLayout)

	out := make([]model.Event, 0, len(events))
	for _, e := range events {
		if e.Date >= todayKey {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SortKey() < out[j].SortKey()
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Recommended returns recommendations in their original order, dropping any
// that the user already adopted (same title on the same date). limit <= 0
// means no limit.
func Recommended(recommended, events []model.Event, limit int) []model.Event {
	adopted := make(map[string]struct{}, len(events))
	for _, e := range events {
		adopted[adoptKey(e)] = struct{}{}
	}

	out := make([]model.Event, 0, len(recommended))
	for _, r := range recommended {
		if _, ok := adopted[adoptKey(r)]; ok {
			continue
		}
		out = append(out, r)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// Adopt turns a recommendation into a create payload.
func Adopt(rec model.Event) model.Fields {
	return rec.Fields().WithDefaults()
}

func adoptKey(e model.Event) string {
	return strings.ToLower(strings.TrimSpace(e.Title)) + "\x00" + e.Date
}
