// Package provider owns the in-process view of the event collection: the
// cached events and recommendations, their loading flags, the user-visible
// load error and the shared UI cursor (selected date, theme). Presentation
// code reads snapshots and mutates only through the Provider's methods.
package provider

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"hackwave/internal/agenda"
	"hackwave/internal/calendar"
	appLog "hackwave/internal/log"
	"hackwave/internal/model"
	"hackwave/internal/store"
)

// LoadError is the message shown when the primary event list can't be loaded.
const LoadError = "failed to load events"

// Theme is the UI colour mode.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme validates a theme name.
func ParseTheme(s string) (Theme, error) {
	switch Theme(s) {
	case ThemeLight, ThemeDark:
		return Theme(s), nil
	default:
		return "", fmt.Errorf("unknown theme %q", s)
	}
}

// State is a point-in-time copy of everything the provider exposes.
type State struct {
	Events             []model.Event `json:"events"`
	Recommended        []model.Event `json:"recommended"`
	Loading            bool          `json:"loading"`
	LoadingRecommended bool          `json:"loading_recommended"`
	Error              string        `json:"error,omitempty"`
	SelectedDate       string        `json:"selected_date"`
	Theme              Theme         `json:"theme"`
}

func (s State) clone() State {
	s.Events = model.CloneEvents(s.Events)
	s.Recommended = model.CloneEvents(s.Recommended)
	return s
}

// Provider orchestrates loading, caching and mutation dispatch. It is safe for
// concurrent use.
type Provider struct {
	store store.Store
	now   func() time.Time
	loc   *time.Location

	mu    sync.RWMutex
	state State
	seq   uint64 // bumped on every update, under mu

	subMu  sync.Mutex
	nextID int
	subs   map[int]func(State)

	// notifyMu serialises dispatch; delivered is the newest seq sent.
	notifyMu  sync.Mutex
	delivered uint64
}

// Option configures a Provider.
type Option func(*Provider)

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) { p.now = now }
}

// WithLocation sets the zone used to decide what "today" is.
func WithLocation(loc *time.Location) Option {
	return func(p *Provider) {
		if loc != nil {
			p.loc = loc
		}
	}
}

// WithTheme sets the initial theme.
func WithTheme(t Theme) Option {
	return func(p *Provider) { p.state.Theme = t }
}

// New builds a Provider over st. Both loading flags start true until Init (or
// the individual loads) complete.
func New(st store.Store, opts ...Option) *Provider {
	p := &Provider{
		store: st,
		now:   time.Now,
		loc:   time.Local,
		subs:  make(map[int]func(State)),
		state: State{
			Events:             []model.Event{},
			Recommended:        []model.Event{},
			Loading:            true,
			LoadingRecommended: true,
			Theme:              ThemeLight,
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	p.state.SelectedDate = calendar.FormatDate(p.Today())
	return p
}

// Today is the current calendar date in the provider's zone.
func (p *Provider) Today() time.Time {
	return calendar.Today(p.now(), p.loc)
}

// Init loads events and recommendations concurrently. Each load updates its
// own flag as soon as it finishes, so a slow recommendation fetch never holds
// back the event list. Only a primary load failure is returned.
func (p *Provider) Init(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error {
		return p.Load(ctx)
	})
	g.Go(func() error {
		p.LoadRecommended(ctx)
		return nil
	})
	return g.Wait()
}

// Load (re)fetches the event list. On failure the error flag is set and the
// cache keeps its last known contents.
func (p *Provider) Load(ctx context.Context) error {
	p.update(func(s *State) { s.Loading = true })

	events, err := p.store.List(ctx)
	if err != nil {
		appLog.Error("provider: event load failed", err)
		p.update(func(s *State) {
			s.Loading = false
			s.Error = LoadError
		})
		return fmt.Errorf("load events: %w", err)
	}

	p.update(func(s *State) {
		s.Events = model.CloneEvents(events)
		s.Loading = false
		s.Error = ""
	})
	appLog.Debug("provider: events loaded", "count", len(events))
	return nil
}

// LoadRecommended (re)fetches recommendations. Failures are logged and
// otherwise ignored; the previous list stays in place.
func (p *Provider) LoadRecommended(ctx context.Context) {
	p.update(func(s *State) { s.LoadingRecommended = true })

	rec, err := p.store.ListRecommended(ctx)
	if err != nil {
		appLog.Debug("provider: recommendation load failed", "err", err)
		p.update(func(s *State) { s.LoadingRecommended = false })
		return
	}

	p.update(func(s *State) {
		s.Recommended = model.CloneEvents(rec)
		s.LoadingRecommended = false
	})
}

// AddEvent validates fields, creates the event and appends it to the cache.
// Validation failures return a *model.ValidationError without touching the
// store.
func (p *Provider) AddEvent(ctx context.Context, fields model.Fields) (model.Event, error) {
	fields.Normalize()
	fields = fields.WithDefaults()
	if err := fields.Validate(); err != nil {
		return model.Event{}, err
	}

	created, err := p.store.Create(ctx, fields)
	if err != nil {
		return model.Event{}, fmt.Errorf("create event: %w", err)
	}

	p.update(func(s *State) {
		s.Events = append(s.Events, created)
	})
	appLog.Info("event created", "id", created.ID, "title", created.Title, "date", created.Date)
	return created, nil
}

// AdoptRecommendation creates an event from a recommendation's fields.
func (p *Provider) AdoptRecommendation(ctx context.Context, id string) (model.Event, error) {
	p.mu.RLock()
	var (
		rec   model.Event
		found bool
	)
	for _, r := range p.state.Recommended {
		if r.ID == id {
			rec, found = r, true
			break
		}
	}
	p.mu.RUnlock()

	if !found {
		return model.Event{}, ErrUnknownRecommendation
	}
	return p.AddEvent(ctx, agenda.Adopt(rec))
}

// ErrEmptyPatch is returned by EditEvent for a patch that sets no field.
var ErrEmptyPatch = errors.New("patch sets no field")

// ErrUnknownRecommendation is returned when adopting an id that isn't in the
// cached recommendation list.
var ErrUnknownRecommendation = errors.New("unknown recommendation")

// EditEvent applies patch through the store and replaces the cached copy.
// Present fields are trimmed before validation, as in AddEvent. ok is false
// when the store has no such event; the cache is left alone.
func (p *Provider) EditEvent(ctx context.Context, id string, patch model.Patch) (model.Event, bool, error) {
	patch = patch.Clone()
	patch.Normalize()
	if patch.IsEmpty() {
		return model.Event{}, false, ErrEmptyPatch
	}
	if err := patch.Validate(); err != nil {
		return model.Event{}, false, err
	}

	updated, ok, err := p.store.Update(ctx, id, patch)
	if err != nil {
		return model.Event{}, false, fmt.Errorf("update event %s: %w", id, err)
	}
	if !ok {
		appLog.Debug("provider: edit of unknown event", "id", id)
		return model.Event{}, false, nil
	}

	p.update(func(s *State) {
		for i := range s.Events {
			if s.Events[i].ID == id {
				s.Events[i] = updated
			}
		}
	})
	appLog.Info("event updated", "id", id)
	return updated, true, nil
}

// RemoveEvent deletes through the store and filters the cache.
func (p *Provider) RemoveEvent(ctx context.Context, id string) error {
	if err := p.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete event %s: %w", id, err)
	}

	p.update(func(s *State) {
		kept := make([]model.Event, 0, len(s.Events))
		for _, e := range s.Events {
			if e.ID != id {
				kept = append(kept, e)
			}
		}
		s.Events = kept
	})
	appLog.Info("event deleted", "id", id)
	return nil
}

// Snapshot returns a deep copy of the current state.
func (p *Provider) Snapshot() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state.clone()
}

// update mutates state under the lock and notifies subscribers with the
// resulting snapshot.
func (p *Provider) update(fn func(*State)) {
	p.mu.Lock()
	fn(&p.state)
	p.seq++
	seq := p.seq
	snap := p.state.clone()
	p.mu.Unlock()

	p.notify(seq, snap)
}
