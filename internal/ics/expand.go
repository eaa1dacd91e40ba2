package ics

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	appLog "hackwave/internal/log"
	"hackwave/internal/model"
)

const defaultMaxOccurrencesPerEvent = 500

// ExpandConfig controls recurrence expansion.
type ExpandConfig struct {
	// DisplayLocation is the zone occurrences are converted to before their
	// date and time are taken. Nil means time.Local.
	DisplayLocation *time.Location

	// RangeStart / RangeEnd bound the occurrences, inclusive.
	RangeStart time.Time
	RangeEnd   time.Time

	// MaxOccurrencesPerEvent caps a single recurring event. Zero means
	// defaultMaxOccurrencesPerEvent.
	MaxOccurrencesPerEvent int
}

// Occurrence is one concrete instance of a feed event in the display zone.
type Occurrence struct {
	Event FeedEvent
	Start time.Time
	End   time.Time
}

// ExpandResult holds the occurrences and the UIDs that hit the cap.
type ExpandResult struct {
	Occurrences     []Occurrence
	TruncatedEvents []string
}

// Expand turns feed events into occurrences inside the configured window,
// applying RRULE, EXDATE and RECURRENCE-ID overrides. Occurrences come back
// ordered by start time.
func Expand(events []FeedEvent, cfg ExpandConfig) (ExpandResult, error) {
	var result ExpandResult

	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return result, errors.New("expand: RangeEnd is before RangeStart")
	}
	if cfg.DisplayLocation == nil {
		cfg.DisplayLocation = time.Local
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	// Overrides are keyed by source as well: two feeds may reuse a UID.
	type key struct{ source, uid string }
	var order []key
	base := make(map[key][]FeedEvent)
	overrides := make(map[key][]FeedEvent)
	for _, ev := range events {
		k := key{ev.Source.ID, ev.UID}
		if ev.IsOverride() {
			overrides[k] = append(overrides[k], ev)
			continue
		}
		if _, seen := base[k]; !seen {
			order = append(order, k)
		}
		base[k] = append(base[k], ev)
	}

	for _, k := range order {
		truncated := false
		for _, ev := range base[k] {
			occ, hitCap := expandEvent(ev, overrides[k], cfg)
			truncated = truncated || hitCap
			result.Occurrences = append(result.Occurrences, occ...)
		}
		if truncated {
			result.TruncatedEvents = append(result.TruncatedEvents, k.uid)
			appLog.Warn("expand: occurrences truncated", "uid", k.uid, "cap", cfg.MaxOccurrencesPerEvent)
		}
	}

	sort.SliceStable(result.Occurrences, func(i, j int) bool {
		return result.Occurrences[i].Start.Before(result.Occurrences[j].Start)
	})
	return result, nil
}

func expandEvent(ev FeedEvent, overrides []FeedEvent, cfg ExpandConfig) ([]Occurrence, bool) {
	if ev.RawRRule == "" {
		if !overlaps(ev.Start, ev.End, cfg.RangeStart, cfg.RangeEnd) {
			return nil, false
		}
		return []Occurrence{makeOccurrence(ev, overrides, ev.Start, ev.End, cfg.DisplayLocation)}, false
	}
	return expandRecurring(ev, overrides, cfg)
}

func expandRecurring(ev FeedEvent, overrides []FeedEvent, cfg ExpandConfig) ([]Occurrence, bool) {
	opt, err := rrule.StrToROptionInLocation(ev.RawRRule, ev.Start.Location())
	if err != nil {
		appLog.Error("expand: failed to parse RRULE", err, "uid", ev.UID, "rrule", ev.RawRRule)
		return nil, false
	}
	opt.Dtstart = ev.Start

	r, err := rrule.NewRRule(*opt)
	if err != nil {
		appLog.Error("expand: invalid RRULE", err, "uid", ev.UID, "rrule", ev.RawRRule)
		return nil, false
	}

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	starts := set.Between(cfg.RangeStart.In(ev.Start.Location()), cfg.RangeEnd.In(ev.Start.Location()), true)

	hitCap := false
	if len(starts) > cfg.MaxOccurrencesPerEvent {
		starts = starts[:cfg.MaxOccurrencesPerEvent]
		hitCap = true
	}

	dur := ev.End.Sub(ev.Start)
	out := make([]Occurrence, 0, len(starts))
	for _, s := range starts {
		out = append(out, makeOccurrence(ev, overrides, s, s.Add(dur), cfg.DisplayLocation))
	}
	return out, hitCap
}

// makeOccurrence applies a matching RECURRENCE-ID override, if any, and
// converts to the display zone.
func makeOccurrence(ev FeedEvent, overrides []FeedEvent, start, end time.Time, loc *time.Location) Occurrence {
	for _, ov := range overrides {
		if ov.Recurrence != nil && ov.Recurrence.Equal(start) {
			ev, start, end = ov, ov.Start, ov.End
			break
		}
	}
	if ev.AllDay {
		// All-day dates are calendar dates; don't shift them across zones.
		return Occurrence{Event: ev, Start: start, End: end}
	}
	return Occurrence{Event: ev, Start: start.In(loc), End: end.In(loc)}
}

func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aEnd.Before(bStart) && !bEnd.Before(aStart)
}

// ToEvents converts occurrences into recommendation events. Ids are stable
// across refreshes: they derive from feed, UID and instance start.
func ToEvents(occs []Occurrence) []model.Event {
	out := make([]model.Event, 0, len(occs))
	for _, o := range occs {
		ev := o.Event

		category := ev.Source.Category
		if len(ev.Categories) > 0 {
			category = ev.Categories[0]
		}

		clock := o.Start.Format(model.TimeLayout)
		if ev.AllDay {
			clock = model.DefaultTime
		}

		out = append(out, model.Event{
			ID:          occurrenceID(ev.Source.ID, ev.UID, o.Start),
			Title:       ev.Summary,
			Description: ev.Description,
			Date:        o.Start.Format(model.DateLayout),
			Time:        clock,
			Location:    ev.Location,
			Category:    category,
		})
	}
	return out
}

func occurrenceID(sourceID, uid string, start time.Time) string {
	sum := sha256.Sum256([]byte(uid + "\x00" + start.UTC().Format(time.RFC3339)))
	return sourceID + "-" + hex.EncodeToString(sum[:6])
}
