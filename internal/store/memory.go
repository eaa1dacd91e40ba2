package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	appLog "hackwave/internal/log"
	"hackwave/internal/model"
)

// Latency is the artificial delay applied per operation to stand in for a
// network round trip.
type Latency struct {
	List        time.Duration `yaml:"list" json:"list"`
	Recommended time.Duration `yaml:"recommended" json:"recommended"`
	Create      time.Duration `yaml:"create" json:"create"`
	Update      time.Duration `yaml:"update" json:"update"`
	Delete      time.Duration `yaml:"delete" json:"delete"`
}

// DefaultLatency returns the delays used when no latency is configured.
func DefaultLatency() Latency {
	return Latency{
		List:        350 * time.Millisecond,
		Recommended: 300 * time.Millisecond,
		Create:      250 * time.Millisecond,
		Update:      250 * time.Millisecond,
		Delete:      200 * time.Millisecond,
	}
}

// Memory is an in-process Store. It is safe for concurrent use.
type Memory struct {
	latency Latency
	newID   func() string

	mu          sync.RWMutex
	events      []model.Event
	recommended []model.Event
}

// Option configures a Memory store.
type Option func(*Memory)

// WithLatency sets the per-operation delay. The zero Latency disables it.
func WithLatency(l Latency) Option {
	return func(m *Memory) { m.latency = l }
}

// WithEvents seeds the event collection.
func WithEvents(events []model.Event) Option {
	return func(m *Memory) { m.events = model.CloneEvents(events) }
}

// WithRecommended seeds the recommendation collection.
func WithRecommended(events []model.Event) Option {
	return func(m *Memory) { m.recommended = model.CloneEvents(events) }
}

// WithIDGenerator overrides identifier generation (UUIDv4 by default).
func WithIDGenerator(fn func() string) Option {
	return func(m *Memory) { m.newID = fn }
}

// NewMemory returns an empty in-memory store with no latency unless
// configured otherwise.
func NewMemory(opts ...Option) *Memory {
	m := &Memory{
		newID:       uuid.NewString,
		events:      []model.Event{},
		recommended: []model.Event{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

var _ Store = (*Memory)(nil)

func (m *Memory) List(ctx context.Context) ([]model.Event, error) {
	if err := sleep(ctx, m.latency.List); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return model.CloneEvents(m.events), nil
}

func (m *Memory) ListRecommended(ctx context.Context) ([]model.Event, error) {
	if err := sleep(ctx, m.latency.Recommended); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return model.CloneEvents(m.recommended), nil
}

func (m *Memory) Create(ctx context.Context, fields model.Fields) (model.Event, error) {
	if err := sleep(ctx, m.latency.Create); err != nil {
		return model.Event{}, err
	}
	ev := fields.WithID(m.newID())

	m.mu.Lock()
	m.events = append(m.events, ev)
	m.mu.Unlock()

	appLog.Debug("store create", "id", ev.ID, "date", ev.Date, "time", ev.Time)
	return ev, nil
}

func (m *Memory) Update(ctx context.Context, id string, patch model.Patch) (model.Event, bool, error) {
	if err := sleep(ctx, m.latency.Update); err != nil {
		return model.Event{}, false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.events {
		if m.events[i].ID != id {
			continue
		}
		m.events[i] = patch.Apply(m.events[i])
		appLog.Debug("store update", "id", id)
		return m.events[i], true, nil
	}
	appLog.Debug("store update: not found", "id", id)
	return model.Event{}, false, nil
}

func (m *Memory) Delete(ctx context.Context, id string) error {
	if err := sleep(ctx, m.latency.Delete); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.events[:0]
	for _, e := range m.events {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	// Clear the tail so dropped events aren't retained by the backing array.
	for i := len(kept); i < len(m.events); i++ {
		m.events[i] = model.Event{}
	}
	m.events = kept
	return nil
}

// SetRecommended replaces the recommendation collection. Feed refreshes use
// it; it is not part of the Store contract.
func (m *Memory) SetRecommended(events []model.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recommended = model.CloneEvents(events)
}

// sleep waits d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
