package ics

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"hackwave/internal/model"
)

const sampleFeed = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//Test//Feed//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:meetup@example.com\r\n" +
	"DTSTAMP:20240501T000000Z\r\n" +
	"DTSTART:20240604T090000Z\r\n" +
	"DTEND:20240604T100000Z\r\n" +
	"SUMMARY:Local Tech Meetup\r\n" +
	"LOCATION:Community Hall\r\n" +
	"CATEGORIES:Networking\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:weekly@example.com\r\n" +
	"DTSTAMP:20240501T000000Z\r\n" +
	"DTSTART:20240603T170000Z\r\n" +
	"DTEND:20240603T180000Z\r\n" +
	"RRULE:FREQ=WEEKLY;COUNT=4\r\n" +
	"EXDATE:20240610T170000Z\r\n" +
	"SUMMARY:AI Study Group\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:weekly@example.com\r\n" +
	"DTSTAMP:20240501T000000Z\r\n" +
	"RECURRENCE-ID:20240617T170000Z\r\n" +
	"DTSTART:20240617T190000Z\r\n" +
	"DTEND:20240617T200000Z\r\n" +
	"SUMMARY:AI Study Group (moved)\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:broken@example.com\r\n" +
	"DTSTAMP:20240501T000000Z\r\n" +
	"DTSTART:20240605T090000Z\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

var testSource = Source{ID: "feed", URL: "https://example.com/cal.ics", Category: "Hackathon"}

func TestParseFeed(t *testing.T) {
	events, err := ParseFeed(testSource, []byte(sampleFeed))
	if err != nil {
		t.Fatalf("ParseFeed: %v", err)
	}
	// The VEVENT without SUMMARY is skipped.
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}

	meetup := events[0]
	if meetup.Summary != "Local Tech Meetup" || meetup.Location != "Community Hall" {
		t.Errorf("unexpected meetup %+v", meetup)
	}
	if len(meetup.Categories) != 1 || meetup.Categories[0] != "Networking" {
		t.Errorf("categories = %v", meetup.Categories)
	}
	if events[1].RawRRule == "" || len(events[1].ExDates) != 1 {
		t.Errorf("recurrence not captured: %+v", events[1])
	}
	if !events[2].IsOverride() {
		t.Error("RECURRENCE-ID event should be an override")
	}

	if _, err := ParseFeed(testSource, nil); err == nil {
		t.Error("expected error for empty body")
	}
}

func TestExpandAndConvert(t *testing.T) {
	events, err := ParseFeed(testSource, []byte(sampleFeed))
	if err != nil {
		t.Fatalf("ParseFeed: %v", err)
	}

	res, err := Expand(events, ExpandConfig{
		DisplayLocation: time.UTC,
		RangeStart:      time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		RangeEnd:        time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}

	recs := ToEvents(res.Occurrences)
	var got []string
	for _, r := range recs {
		got = append(got, r.Date+" "+r.Time+" "+r.Title)
	}
	want := []string{
		"2024-06-03 17:00 AI Study Group",
		"2024-06-04 09:00 Local Tech Meetup",
		"2024-06-17 19:00 AI Study Group (moved)",
		"2024-06-24 17:00 AI Study Group",
	}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("occurrences:\n got %v\nwant %v", got, want)
	}

	if recs[0].Category != "Hackathon" || recs[1].Category != "Networking" {
		t.Errorf("categories = %q, %q", recs[0].Category, recs[1].Category)
	}

	seen := map[string]bool{}
	for _, r := range recs {
		if !strings.HasPrefix(r.ID, "feed-") || seen[r.ID] {
			t.Errorf("bad or duplicate id %q", r.ID)
		}
		seen[r.ID] = true
	}

	again := ToEvents(res.Occurrences)
	if again[0].ID != recs[0].ID {
		t.Error("ids must be stable across conversions")
	}
}

func TestExpandRejectsInvertedRange(t *testing.T) {
	now := time.Now()
	if _, err := Expand(nil, ExpandConfig{RangeStart: now, RangeEnd: now.Add(-time.Hour)}); err == nil {
		t.Error("expected error")
	}
}

func TestRecommenderLoad(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		w.Header().Set("Content-Type", "text/calendar")
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	src := Source{ID: "feed", URL: srv.URL + "/cal.ics"}
	rec := NewRecommender(NewFetcher(t.TempDir()), []Source{src}, 30*24*time.Hour, time.UTC)
	rec.now = func() time.Time { return time.Date(2024, 6, 4, 12, 0, 0, 0, time.UTC) }

	first, err := rec.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	// The meetup at 09:00 on the 4th is inside today's window; the study
	// group on the 3rd is not.
	if len(first) != 3 || first[0].Title != "Local Tech Meetup" {
		t.Fatalf("unexpected recommendations %+v", first)
	}

	second, err := rec.Load(context.Background())
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if len(second) != len(first) {
		t.Errorf("cached reload returned %d events, want %d", len(second), len(first))
	}
	if hits.Load() != 2 {
		t.Errorf("server hits = %d, want 2", hits.Load())
	}
}

func TestFetchRejectsNonCalendarBody(t *testing.T) {
	var htmlPage atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if htmlPage.Load() {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html><body>Please sign in</body></html>"))
			return
		}
		_, _ = w.Write([]byte("\xef\xbb\xbf" + sampleFeed))
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir())
	src := Source{ID: "feed", URL: srv.URL + "/cal.ics"}
	ctx := context.Background()

	first, err := f.FetchOne(ctx, src)
	if err != nil || first.FromCache {
		t.Fatalf("first fetch: cache=%v err=%v", first.FromCache, err)
	}

	htmlPage.Store(true)
	second, err := f.FetchOne(ctx, src)
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if !second.FromCache || !bytes.Equal(second.Body, first.Body) {
		t.Error("HTML body should fall back to the cached calendar")
	}

	fresh := NewFetcher(t.TempDir())
	if _, err := fresh.FetchOne(ctx, src); !errors.Is(err, errNotCalendar) {
		t.Errorf("uncached HTML body: err = %v", err)
	}
}

func TestFetchAllKeepsSourceOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/down.ics" {
			http.Error(w, "down", http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	var sources []Source
	for _, id := range []string{"a", "b", "down", "c", "d", "e"} {
		sources = append(sources, Source{ID: id, URL: srv.URL + "/" + id + ".ics"})
	}
	results, errs := NewFetcher(t.TempDir()).FetchAll(context.Background(), sources)
	if len(errs) != 1 || len(results) != 5 {
		t.Fatalf("results=%d errs=%v", len(results), errs)
	}
	for i, want := range []string{"a", "b", "c", "d", "e"} {
		if results[i].Source.ID != want {
			t.Errorf("results[%d] = %s, want %s", i, results[i].Source.ID, want)
		}
	}
}

func TestRecommenderAllFeedsFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	rec := NewRecommender(NewFetcher(t.TempDir()), []Source{{ID: "x", URL: srv.URL}}, 0, time.UTC)
	if _, err := rec.Load(context.Background()); err == nil {
		t.Error("expected error when every feed fails")
	}

	empty := NewRecommender(NewFetcher(t.TempDir()), nil, 0, time.UTC)
	events, err := empty.Load(context.Background())
	if err != nil || len(events) != 0 {
		t.Errorf("no feeds: events=%v err=%v", events, err)
	}
}

func TestExportRoundTrip(t *testing.T) {
	events := []model.Event{
		{ID: "abc", Title: "Kickoff", Description: "Opening talk", Date: "2024-06-10", Time: "09:30", Location: "Hall", Category: "Hackathon"},
		{ID: "bad", Title: "Broken", Date: "someday", Time: "09:30"},
	}

	var buf bytes.Buffer
	stamp := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	if err := Export(&buf, events, time.UTC, stamp); err != nil {
		t.Fatalf("Export: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"BEGIN:VCALENDAR", ProductID, "UID:abc@hackwave", "SUMMARY:Kickoff", "END:VCALENDAR"} {
		if !strings.Contains(out, want) {
			t.Errorf("export missing %q", want)
		}
	}
	if strings.Contains(out, "Broken") {
		t.Error("event with bad date should be skipped")
	}

	parsed, err := ParseFeed(Source{ID: "self"}, buf.Bytes())
	if err != nil {
		t.Fatalf("re-parse: %v", err)
	}
	if len(parsed) != 1 {
		t.Fatalf("re-parsed %d events", len(parsed))
	}
	got := parsed[0]
	if !got.Start.Equal(time.Date(2024, 6, 10, 9, 30, 0, 0, time.UTC)) || got.Location != "Hall" {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestRedactURL(t *testing.T) {
	got := redactURL("https://calendar.example.com/private/abc.ics?token=secret")
	if got != "https://calendar.example.com/...(redacted)" {
		t.Errorf("redactURL = %q", got)
	}
	if got := redactURL("not a url"); got != "feed://...(redacted)" {
		t.Errorf("redactURL(garbage) = %q", got)
	}
}
