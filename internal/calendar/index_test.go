package calendar

import (
	"testing"
	"time"

	"hackwave/internal/model"
)

func sampleEvents() []model.Event {
	return []model.Event{
		{ID: "1", Title: "Standup", Date: "2024-06-03", Time: "09:30"},
		{ID: "2", Title: "Demo", Date: "2024-06-04", Time: "14:00"},
		{ID: "3", Title: "Late", Date: "2024-06-03", Time: "18:00"},
		{ID: "4", Title: "Early", Date: "2024-06-03", Time: "07:00"},
		{ID: "5", Title: "Judging", Date: "2024-06-03", Time: "12:00"},
	}
}

func TestIndexByDateKeepsEverythingInInputOrder(t *testing.T) {
	events := sampleEvents()
	idx := IndexByDate(events)

	total := 0
	seen := map[string]bool{}
	for date, list := range idx {
		for _, e := range list {
			if e.Date != date {
				t.Errorf("event %s filed under %s", e.ID, date)
			}
			if seen[e.ID] {
				t.Errorf("event %s duplicated", e.ID)
			}
			seen[e.ID] = true
			total++
		}
	}
	if total != len(events) {
		t.Fatalf("index holds %d events, want %d", total, len(events))
	}

	var ids []string
	for _, e := range idx.On("2024-06-03") {
		ids = append(ids, e.ID)
	}
	want := []string{"1", "3", "4", "5"}
	if len(ids) != len(want) {
		t.Fatalf("got %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("got %v, want %v (input order must be kept)", ids, want)
		}
	}
}

func TestIndexByDateEmpty(t *testing.T) {
	idx := IndexByDate(nil)
	if len(idx) != 0 {
		t.Errorf("expected empty index, got %v", idx)
	}
	if got := idx.On("2024-06-03"); got != nil {
		t.Errorf("expected nil for missing day, got %v", got)
	}
}

func TestBuildMonthViewCapsChips(t *testing.T) {
	today := time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC)
	view := BuildMonthView(sampleEvents(), ViewOptions{
		Year:       2024,
		MonthIndex: 5,
		Today:      today,
		Selected:   today,
	})

	if view.Title != "June 2024" || view.Year != 2024 || view.Month != 5 {
		t.Errorf("unexpected header %q %d/%d", view.Title, view.Year, view.Month)
	}
	if len(view.Weeks) != Weeks {
		t.Fatalf("got %d weeks", len(view.Weeks))
	}
	if view.EventCount != 5 {
		t.Errorf("EventCount = %d, want 5", view.EventCount)
	}

	var busy, selected DayCell
	for _, week := range view.Weeks {
		if len(week) != DaysPerWeek {
			t.Fatalf("week has %d days", len(week))
		}
		for _, c := range week {
			switch c.Date {
			case "2024-06-03":
				busy = c
			case "2024-06-04":
				selected = c
			}
		}
	}

	if len(busy.Events) != DefaultChipLimit || busy.Overflow != 1 {
		t.Errorf("busy day: %d chips, overflow %d", len(busy.Events), busy.Overflow)
	}
	if busy.Events[0].ID != "1" || busy.Events[2].ID != "4" {
		t.Errorf("chips not in input order: %+v", busy.Events)
	}
	if !selected.IsToday || !selected.IsSelected || selected.Overflow != 0 {
		t.Errorf("unexpected selected cell %+v", selected)
	}
	if first := view.Weeks[0][0]; first.InMonth || first.Date != "2024-05-26" {
		t.Errorf("leading cell should be muted May 26, got %+v", first)
	}
}

func TestBuildMonthViewNormalizedMonth(t *testing.T) {
	view := BuildMonthView(nil, ViewOptions{Year: 2024, MonthIndex: 12})
	if view.Year != 2025 || view.Month != 0 {
		t.Errorf("got %d/%d, want 2025/0", view.Year, view.Month)
	}
}
