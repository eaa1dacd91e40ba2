package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"hackwave/internal/calendar"
	"hackwave/internal/config"
	"hackwave/internal/model"
	"hackwave/internal/provider"
	"hackwave/internal/store"
)

var fixedNow = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, mutate func(*config.Config)) (*httptest.Server, *provider.Provider) {
	t.Helper()

	today := calendar.Today(fixedNow, time.UTC)
	mem := store.NewMemory(
		store.WithEvents(store.DemoEvents(today)),
		store.WithRecommended(store.DemoRecommended(today)),
	)
	p := provider.New(mem,
		provider.WithClock(func() time.Time { return fixedNow }),
		provider.WithLocation(time.UTC),
	)
	if err := p.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.Timezone = "UTC"
	if mutate != nil {
		mutate(cfg)
	}
	srv := httptest.NewServer(NewServer(cfg, p).Handler())
	t.Cleanup(srv.Close)
	return srv, p
}

func doJSON(t *testing.T, method, url, body string, out any) int {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, rd)
	if err != nil {
		t.Fatal(err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, url, err)
		}
	}
	return resp.StatusCode
}

func TestEventLifecycle(t *testing.T) {
	srv, p := newTestServer(t, nil)

	var created model.Event
	code := doJSON(t, http.MethodPost, srv.URL+"/api/events",
		`{"title":"Kickoff","date":"2024-06-10","time":"09:30"}`, &created)
	if code != http.StatusCreated {
		t.Fatalf("create status = %d", code)
	}
	if created.ID == "" || created.Category != model.DefaultCategory {
		t.Errorf("unexpected created event %+v", created)
	}

	var list []model.Event
	if code := doJSON(t, http.MethodGet, srv.URL+"/api/events", "", &list); code != http.StatusOK {
		t.Fatalf("list status = %d", code)
	}
	if len(list) != 4 || list[3].ID != created.ID {
		t.Fatalf("list = %+v", list)
	}

	var updated model.Event
	code = doJSON(t, http.MethodPatch, srv.URL+"/api/events/"+created.ID, `{"title":"Kickoff v2"}`, &updated)
	if code != http.StatusOK || updated.Title != "Kickoff v2" || updated.Time != "09:30" {
		t.Errorf("patch: status=%d event=%+v", code, updated)
	}

	if code := doJSON(t, http.MethodPatch, srv.URL+"/api/events/nope", `{"title":"x"}`, nil); code != http.StatusNotFound {
		t.Errorf("patch missing status = %d", code)
	}

	for i := 0; i < 2; i++ {
		var res successResponse
		if code := doJSON(t, http.MethodDelete, srv.URL+"/api/events/"+created.ID, "", &res); code != http.StatusOK || !res.Success {
			t.Errorf("delete #%d: status=%d res=%+v", i+1, code, res)
		}
	}
	if n := len(p.Snapshot().Events); n != 3 {
		t.Errorf("provider cache holds %d events after delete", n)
	}
}

func TestCreateValidation(t *testing.T) {
	srv, p := newTestServer(t, nil)

	var res validationResponse
	code := doJSON(t, http.MethodPost, srv.URL+"/api/events", `{"title":"  ","date":"","time":"9:30"}`, &res)
	if code != http.StatusBadRequest {
		t.Fatalf("status = %d", code)
	}
	for _, f := range []string{"title", "date", "time"} {
		if res.Fields[f] == "" {
			t.Errorf("missing field error for %s: %+v", f, res.Fields)
		}
	}
	if n := len(p.Snapshot().Events); n != 3 {
		t.Errorf("invalid create changed the cache: %d events", n)
	}

	if code := doJSON(t, http.MethodPost, srv.URL+"/api/events", `{not json`, nil); code != http.StatusBadRequest {
		t.Errorf("bad json status = %d", code)
	}
	if code := doJSON(t, http.MethodPatch, srv.URL+"/api/events/1", `{"date":"tomorrow"}`, nil); code != http.StatusBadRequest {
		t.Errorf("bad patch status = %d", code)
	}
}

func TestPatchTrimsFields(t *testing.T) {
	srv, p := newTestServer(t, nil)

	var created model.Event
	if code := doJSON(t, http.MethodPost, srv.URL+"/api/events",
		`{"title":"Kickoff","date":"2024-06-10","time":"09:30"}`, &created); code != http.StatusCreated {
		t.Fatalf("create status = %d", code)
	}

	var updated model.Event
	code := doJSON(t, http.MethodPatch, srv.URL+"/api/events/"+created.ID, `{"date":" 2024-06-12 "}`, &updated)
	if code != http.StatusOK || updated.Date != "2024-06-12" {
		t.Fatalf("patch: status=%d event=%+v", code, updated)
	}

	var view calendar.MonthView
	doJSON(t, http.MethodGet, srv.URL+"/api/calendar?year=2024&month=5", "", &view)
	found := false
	for _, week := range view.Weeks {
		for _, c := range week {
			for _, e := range c.Events {
				if e.ID == created.ID && c.Date == "2024-06-12" {
					found = true
				}
			}
		}
	}
	if !found {
		t.Errorf("patched event missing from 2024-06-12 cell")
	}

	var ag provider.Agenda
	doJSON(t, http.MethodGet, srv.URL+"/api/agenda", "", &ag)
	listed := false
	for _, e := range ag.Upcoming {
		listed = listed || e.ID == created.ID
	}
	if !listed {
		t.Errorf("patched event missing from agenda: %+v", ag.Upcoming)
	}

	if code := doJSON(t, http.MethodPatch, srv.URL+"/api/events/"+created.ID, `{}`, nil); code != http.StatusBadRequest {
		t.Errorf("empty patch status = %d", code)
	}
	if got := len(p.Snapshot().Events); got != 4 {
		t.Errorf("cache holds %d events", got)
	}
}

func TestEventDefaults(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	var d formDefaults
	if code := doJSON(t, http.MethodGet, srv.URL+"/api/events/defaults", "", &d); code != http.StatusOK {
		t.Fatalf("defaults status = %d", code)
	}
	if d.Date != "2024-06-01" || d.Time != model.DefaultTime || d.Category != model.CategoryHackathon {
		t.Errorf("defaults = %+v", d.Fields)
	}
	if len(d.Categories) != len(model.Categories) || d.Categories[0] != model.CategoryHackathon {
		t.Errorf("categories = %v", d.Categories)
	}
}

func TestRecommendationsAndAdopt(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	var recs []model.Event
	if code := doJSON(t, http.MethodGet, srv.URL+"/api/events/recommended", "", &recs); code != http.StatusOK || len(recs) != 2 {
		t.Fatalf("recommended: status=%d recs=%+v", code, recs)
	}

	var adopted model.Event
	if code := doJSON(t, http.MethodPost, srv.URL+"/api/events/recommended/r1/adopt", "", &adopted); code != http.StatusCreated {
		t.Fatalf("adopt status = %d", code)
	}
	if adopted.Title != recs[0].Title || adopted.ID == "r1" {
		t.Errorf("adopted = %+v", adopted)
	}

	var ag provider.Agenda
	doJSON(t, http.MethodGet, srv.URL+"/api/agenda", "", &ag)
	if len(ag.Recommended) != 1 || ag.Recommended[0].ID != "r2" {
		t.Errorf("adopted recommendation still listed: %+v", ag.Recommended)
	}
	if ag.Today != "2024-06-01" {
		t.Errorf("agenda today = %q", ag.Today)
	}

	if code := doJSON(t, http.MethodPost, srv.URL+"/api/events/recommended/zzz/adopt", "", nil); code != http.StatusNotFound {
		t.Errorf("unknown adopt status = %d", code)
	}
	if code := doJSON(t, http.MethodGet, srv.URL+"/api/agenda?today=junk", "", nil); code != http.StatusBadRequest {
		t.Errorf("bad today status = %d", code)
	}
}

func TestCalendarAndState(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	var view calendar.MonthView
	if code := doJSON(t, http.MethodGet, srv.URL+"/api/calendar?year=2024&month=5", "", &view); code != http.StatusOK {
		t.Fatalf("calendar status = %d", code)
	}
	if view.Title != "June 2024" || len(view.Weeks) != 6 || len(view.Weeks[0]) != 7 {
		t.Errorf("unexpected view %q weeks=%d", view.Title, len(view.Weeks))
	}
	if view.EventCount != 3 {
		t.Errorf("event count = %d", view.EventCount)
	}
	if code := doJSON(t, http.MethodGet, srv.URL+"/api/calendar?month=x", "", nil); code != http.StatusBadRequest {
		t.Errorf("bad month status = %d", code)
	}

	var st stateResponse
	doJSON(t, http.MethodPost, srv.URL+"/api/state/next", "", &st)
	if st.SelectedDate != "2024-07-01" {
		t.Errorf("after next: %q", st.SelectedDate)
	}
	doJSON(t, http.MethodPost, srv.URL+"/api/state/today", "", &st)
	if st.SelectedDate != "2024-06-01" {
		t.Errorf("after today: %q", st.SelectedDate)
	}

	code := doJSON(t, http.MethodPut, srv.URL+"/api/state", `{"selected_date":"2024-12-25","theme":"dark"}`, &st)
	if code != http.StatusOK || st.SelectedDate != "2024-12-25" || st.Theme != provider.ThemeDark {
		t.Errorf("put state: status=%d state=%+v", code, st)
	}
	if code := doJSON(t, http.MethodPut, srv.URL+"/api/state", `{"theme":"neon"}`, nil); code != http.StatusBadRequest {
		t.Errorf("bad theme status = %d", code)
	}
	if code := doJSON(t, http.MethodPost, srv.URL+"/api/state/sideways", "", nil); code != http.StatusNotFound {
		t.Errorf("unknown action status = %d", code)
	}

	// The calendar defaults to the selected month.
	doJSON(t, http.MethodGet, srv.URL+"/api/calendar", "", &view)
	if view.Title != "December 2024" {
		t.Errorf("default month = %q", view.Title)
	}
}

func TestPagesAndExport(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/calendar?year=2024&month=5")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	page := string(body)
	for _, want := range []string{`data-ready="true"`, "June 2024", "Team Standup", "Local Tech Meetup"} {
		if !strings.Contains(page, want) {
			t.Errorf("page missing %q", want)
		}
	}

	resp, err = http.Get(srv.URL + "/events.ics")
	if err != nil {
		t.Fatal(err)
	}
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/calendar") {
		t.Errorf("content type = %q", resp.Header.Get("Content-Type"))
	}
	if !strings.Contains(string(body), "SUMMARY:Team Standup") {
		t.Error("export missing demo event")
	}
}

func TestBasicAuth(t *testing.T) {
	srv, _ := newTestServer(t, func(c *config.Config) {
		c.BasicAuth = &config.BasicAuthConfig{Username: "admin", Password: "s3cret"}
	})

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health status = %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/api/events")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("unauthenticated status = %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/events", nil)
	req.SetBasicAuth("admin", "s3cret")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("authenticated status = %d", resp.StatusCode)
	}
}

func TestListEventsAfterFailedLoad(t *testing.T) {
	p := provider.New(failingStore{store.NewMemory()},
		provider.WithClock(func() time.Time { return fixedNow }),
		provider.WithLocation(time.UTC),
	)
	_ = p.Init(context.Background())

	cfg := config.DefaultConfig()
	srv := httptest.NewServer(NewServer(cfg, p).Handler())
	defer srv.Close()

	var res struct {
		Error string `json:"error"`
	}
	if code := doJSON(t, http.MethodGet, srv.URL+"/api/events", "", &res); code != http.StatusServiceUnavailable {
		t.Errorf("status = %d", code)
	}
	if res.Error != provider.LoadError {
		t.Errorf("error = %q", res.Error)
	}
}

type failingStore struct{ *store.Memory }

func (failingStore) List(context.Context) ([]model.Event, error) {
	return nil, io.ErrUnexpectedEOF
}
