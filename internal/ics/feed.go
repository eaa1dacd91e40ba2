package ics

import (
	"context"
	"errors"
	"fmt"
	"time"

	appLog "hackwave/internal/log"
	"hackwave/internal/model"
)

// Recommender turns a set of ICS subscriptions into recommendation events.
type Recommender struct {
	fetcher *Fetcher
	sources []Source
	horizon time.Duration
	loc     *time.Location
	now     func() time.Time
}

// NewRecommender builds a Recommender over sources. Occurrences between now
// and now+horizon are kept and rendered in loc.
func NewRecommender(fetcher *Fetcher, sources []Source, horizon time.Duration, loc *time.Location) *Recommender {
	if loc == nil {
		loc = time.Local
	}
	if horizon <= 0 {
		horizon = 30 * 24 * time.Hour
	}
	return &Recommender{
		fetcher: fetcher,
		sources: sources,
		horizon: horizon,
		loc:     loc,
		now:     time.Now,
	}
}

// Load fetches, parses and expands every feed. Individual feed failures are
// logged and skipped; an error is returned only when feeds were configured
// and none of them produced events.
func (r *Recommender) Load(ctx context.Context) ([]model.Event, error) {
	if len(r.sources) == 0 {
		return []model.Event{}, nil
	}

	results, fetchErrs := r.fetcher.FetchAll(ctx, r.sources)
	if len(results) == 0 {
		return nil, fmt.Errorf("all %d recommendation feeds failed: %w", len(r.sources), errors.Join(fetchErrs...))
	}

	var parsed []FeedEvent
	for _, res := range results {
		events, err := ParseFeed(res.Source, res.Body)
		if err != nil {
			appLog.Error("feed parse failed", err, "id", res.Source.ID)
			continue
		}
		parsed = append(parsed, events...)
	}

	now := r.now().In(r.loc)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, r.loc)
	expanded, err := Expand(parsed, ExpandConfig{
		DisplayLocation: r.loc,
		RangeStart:      dayStart,
		RangeEnd:        dayStart.Add(r.horizon),
	})
	if err != nil {
		return nil, err
	}

	events := ToEvents(expanded.Occurrences)
	appLog.Info("recommendation feeds loaded",
		"feeds", len(r.sources),
		"failed", len(fetchErrs),
		"events", len(events),
	)
	return events, nil
}
