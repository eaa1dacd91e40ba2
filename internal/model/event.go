package model

import (
	"strings"
	"time"
)

// Date and time layouts used for the event wire format.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Known categories. Category is an open string; these are the values the
// planner offers by default.
const (
	CategoryHackathon  = "Hackathon"
	CategoryWorkshop   = "Workshop"
	CategorySprint     = "Sprint"
	CategoryMentorship = "Mentorship"
	CategoryJudging    = "Judging"
	CategoryAI         = "AI"
)

// Categories lists the built-in categories in display order.
var Categories = []string{
	CategoryHackathon,
	CategoryWorkshop,
	CategorySprint,
	CategoryMentorship,
	CategoryJudging,
	CategoryAI,
}

// Event is a single scheduled item. ID is assigned by the store and never
// changes afterwards.
type Event struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"` // YYYY-MM-DD
	Time        string `json:"time"` // HH:MM, 24-hour
	Location    string `json:"location"`
	Category    string `json:"category"`
}

// SortKey is date+time; lexicographic order over it is chronological order.
func (e Event) SortKey() string {
	return e.Date + e.Time
}

// Fields returns the event without its identifier.
func (e Event) Fields() Fields {
	return Fields{
		Title:       e.Title,
		Description: e.Description,
		Date:        e.Date,
		Time:        e.Time,
		Location:    e.Location,
		Category:    e.Category,
	}
}

// Fields is the create payload: an Event minus its identifier.
type Fields struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Location    string `json:"location"`
	Category    string `json:"category"`
}

// WithID builds the stored Event for these fields.
func (f Fields) WithID(id string) Event {
	return Event{
		ID:          id,
		Title:       f.Title,
		Description: f.Description,
		Date:        f.Date,
		Time:        f.Time,
		Location:    f.Location,
		Category:    f.Category,
	}
}

// Normalize trims surrounding whitespace from every field.
func (f *Fields) Normalize() {
	f.Title = strings.TrimSpace(f.Title)
	f.Description = strings.TrimSpace(f.Description)
	f.Date = strings.TrimSpace(f.Date)
	f.Time = strings.TrimSpace(f.Time)
	f.Location = strings.TrimSpace(f.Location)
	f.Category = strings.TrimSpace(f.Category)
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Date        *string `json:"date,omitempty"`
	Time        *string `json:"time,omitempty"`
	Location    *string `json:"location,omitempty"`
	Category    *string `json:"category,omitempty"`
}

// Normalize trims surrounding whitespace from every field the patch sets.
func (p *Patch) Normalize() {
	for _, f := range []*string{p.Title, p.Description, p.Date, p.Time, p.Location, p.Category} {
		if f != nil {
			*f = strings.TrimSpace(*f)
		}
	}
}

// IsEmpty reports whether the patch carries no field at all.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Date == nil &&
		p.Time == nil && p.Location == nil && p.Category == nil
}

// Apply merges the patch into e and returns the result. e.ID is preserved.
func (p Patch) Apply(e Event) Event {
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.Time != nil {
		e.Time = *p.Time
	}
	if p.Location != nil {
		e.Location = *p.Location
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
	return e
}

// Clone returns a deep copy of the patch.
func (p Patch) Clone() Patch {
	cp := func(s *string) *string {
		if s == nil {
			return nil
		}
		v := *s
		return &v
	}
	return Patch{
		Title:       cp(p.Title),
		Description: cp(p.Description),
		Date:        cp(p.Date),
		Time:        cp(p.Time),
		Location:    cp(p.Location),
		Category:    cp(p.Category),
	}
}

// CloneEvents copies a slice of events. The result is never nil.
func CloneEvents(in []Event) []Event {
	out := make([]Event, len(in))
	copy(out, in)
	return out
}

// Default form values for a new event.
const (
	DefaultTime     = "09:00"
	DefaultCategory = CategoryHackathon
)

// DefaultFields is what a blank create form starts with: today's date, 09:00
// and the Hackathon category.
func DefaultFields(today time.Time) Fields {
	return Fields{
		Date:     today.Format(DateLayout),
		Time:     DefaultTime,
		Category: DefaultCategory,
	}
}

// WithDefaults fills empty optional fields from DefaultFields. Required fields
// (title, date, time) are left alone so validation still sees them missing.
func (f Fields) WithDefaults() Fields {
	if f.Category == "" {
		f.Category = DefaultCategory
	}
	return f
}
