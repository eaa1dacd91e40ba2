package ics

import (
	"io"
	"time"

	ical "github.com/arran4/golang-ical"

	"hackwave/internal/model"
)

// ProductID identifies exported calendars.
const ProductID = "-//HackWave//Event Planner//EN"

// DefaultEventDuration is used for DTEND; events only carry a start time.
const DefaultEventDuration = time.Hour

// Export writes events as an iCalendar document. Date and time are
// interpreted in loc. Events with an unparseable date or time are skipped.
func Export(w io.Writer, events []model.Event, loc *time.Location, stamp time.Time) error {
	if loc == nil {
		loc = time.Local
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(ProductID)
	cal.SetXWRCalName("HackWave")
	cal.SetXWRTimezone(loc.String())

	for _, e := range events {
		start, err := time.ParseInLocation(model.DateLayout+" "+model.TimeLayout, e.Date+" "+e.Time, loc)
		if err != nil {
			continue
		}

		ve := cal.AddEvent(e.ID + "@hackwave")
		ve.SetDtStampTime(stamp.UTC())
		ve.SetStartAt(start)
		ve.SetEndAt(start.Add(DefaultEventDuration))
		ve.SetSummary(e.Title)
		if e.Description != "" {
			ve.SetDescription(e.Description)
		}
		if e.Location != "" {
			ve.SetLocation(e.Location)
		}
		if e.Category != "" {
			ve.SetProperty(ical.ComponentPropertyCategories, e.Category)
		}
	}

	_, err := io.WriteString(w, cal.Serialize())
	return err
}
