package provider

import (
	"fmt"
	"strings"
	"time"

	"hackwave/internal/agenda"
	"hackwave/internal/calendar"
	"hackwave/internal/model"
)

// Subscribe registers fn to receive a snapshot after every state change.
// Snapshots arrive one at a time and in update order; a snapshot overtaken
// by a newer one before dispatch is dropped, so the last one delivered is
// always the current state. Callbacks run outside the state lock and may read
// the provider, but must not call its mutating methods. The returned func
// unsubscribes.
func (p *Provider) Subscribe(fn func(State)) func() {
	p.subMu.Lock()
	id := p.nextID
	p.nextID++
	p.subs[id] = fn
	p.subMu.Unlock()

	return func() {
		p.subMu.Lock()
		delete(p.subs, id)
		p.subMu.Unlock()
	}
}

func (p *Provider) notify(seq uint64, s State) {
	p.notifyMu.Lock()
	defer p.notifyMu.Unlock()
	if seq <= p.delivered {
		return
	}
	p.delivered = seq

	p.subMu.Lock()
	fns := make([]func(State), 0, len(p.subs))
	for _, fn := range p.subs {
		fns = append(fns, fn)
	}
	p.subMu.Unlock()

	for _, fn := range fns {
		fn(s.clone())
	}
}

// SelectedDate returns the view cursor as a UTC midnight date.
func (p *Provider) SelectedDate() time.Time {
	p.mu.RLock()
	key := p.state.SelectedDate
	p.mu.RUnlock()

	t, err := calendar.ParseDate(key)
	if err != nil {
		return p.Today()
	}
	return t
}

// SelectDate moves the view cursor. date must be YYYY-MM-DD.
func (p *Provider) SelectDate(date string) error {
	date = strings.TrimSpace(date)
	t, err := calendar.ParseDate(date)
	if err != nil {
		return fmt.Errorf("select date %q: %w", date, err)
	}
	p.setSelected(t)
	return nil
}

// PrevMonth moves the cursor to the first day of the previous month.
func (p *Provider) PrevMonth() time.Time {
	t := calendar.AddMonths(p.SelectedDate(), -1)
	p.setSelected(t)
	return t
}

// NextMonth moves the cursor to the first day of the next month.
func (p *Provider) NextMonth() time.Time {
	t := calendar.AddMonths(p.SelectedDate(), 1)
	p.setSelected(t)
	return t
}

// GoToday moves the cursor back to today.
func (p *Provider) GoToday() time.Time {
	t := p.Today()
	p.setSelected(t)
	return t
}

func (p *Provider) setSelected(t time.Time) {
	key := calendar.FormatDate(t)
	p.update(func(s *State) { s.SelectedDate = key })
}

// SetTheme switches the colour mode.
func (p *Provider) SetTheme(t Theme) {
	p.update(func(s *State) { s.Theme = t })
}

// ToggleTheme flips between light and dark and returns the new mode.
func (p *Provider) ToggleTheme() Theme {
	var next Theme
	p.update(func(s *State) {
		if s.Theme == ThemeDark {
			s.Theme = ThemeLight
		} else {
			s.Theme = ThemeDark
		}
		next = s.Theme
	})
	return next
}

// Agenda is the sidebar model.
type Agenda struct {
	Today              string        `json:"today"`
	Upcoming           []model.Event `json:"upcoming"`
	Recommended        []model.Event `json:"recommended"`
	LoadingRecommended bool          `json:"loading_recommended"`
}

// Agenda computes the upcoming list relative to today and the recommendation
// list minus already adopted items.
func (p *Provider) Agenda(today time.Time, limit int) Agenda {
	s := p.Snapshot()
	return Agenda{
		Today:              calendar.FormatDate(today),
		Upcoming:           agenda.Upcoming(s.Events, today, limit),
		Recommended:        agenda.Recommended(s.Recommended, s.Events, 0),
		LoadingRecommended: s.LoadingRecommended,
	}
}

// MonthView renders the given month (zero-based index) from the cache.
func (p *Provider) MonthView(year, monthIndex, chipLimit int) calendar.MonthView {
	s := p.Snapshot()
	selected, err := calendar.ParseDate(s.SelectedDate)
	if err != nil {
		selected = p.Today()
	}
	return calendar.BuildMonthView(s.Events, calendar.ViewOptions{
		Year:       year,
		MonthIndex: monthIndex,
		Today:      p.Today(),
		Selected:   selected,
		ChipLimit:  chipLimit,
	})
}

// SelectedMonthView renders the month containing the selected date.
func (p *Provider) SelectedMonthView(chipLimit int) calendar.MonthView {
	sel := p.SelectedDate()
	return p.MonthView(sel.Year(), int(sel.Month())-1, chipLimit)
}
