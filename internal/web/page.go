package web

import (
	"bytes"
	"html/template"
	"net/http"
	"strings"
	"time"

	"hackwave/internal/calendar"
	"hackwave/internal/ics"
	appLog "hackwave/internal/log"
	"hackwave/internal/provider"
)

func (s *Server) handleExport(w http.ResponseWriter, _ *http.Request) {
	var buf bytes.Buffer
	if err := ics.Export(&buf, s.provider.Snapshot().Events, s.loc, time.Now()); err != nil {
		appLog.Error("ics export failed", err)
		writeError(w, http.StatusInternalServerError, "failed to export events")
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="hackwave.ics"`)
	_, _ = w.Write(buf.Bytes())
}

type pageData struct {
	Theme   provider.Theme
	Month   calendar.MonthView
	Agenda  provider.Agenda
	Loading bool
	Error   string
}

// handleCalendarPage renders the month page. It takes the same year/month
// query as /api/calendar. The root element carries data-ready="true" once the
// event list has loaded, which the snapshot command waits for.
func (s *Server) handleCalendarPage(w http.ResponseWriter, r *http.Request) {
	view, err := s.monthView(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	st := s.provider.Snapshot()
	data := pageData{
		Theme:   st.Theme,
		Month:   view,
		Agenda:  s.provider.Agenda(s.provider.Today(), s.cfg.AgendaLimit),
		Loading: st.Loading,
		Error:   st.Error,
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		appLog.Error("calendar page render failed", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

var pageTemplate = template.Must(template.New("calendar").Funcs(template.FuncMap{
	"catClass": func(c string) string {
		return "cat-" + strings.ToLower(strings.ReplaceAll(strings.TrimSpace(c), " ", "-"))
	},
}).Parse(pageHTML))

const pageHTML = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>HackWave · {{.Month.Title}}</title>
<style>
body { font-family: system-ui, sans-serif; margin: 0; }
.dark { background: #111827; color: #f3f4f6; }
.layout { display: flex; gap: 1.5rem; padding: 1.5rem; }
table { border-collapse: collapse; flex: 1; table-layout: fixed; }
th { padding: .25rem; font-weight: 600; }
td { border: 1px solid #d1d5db; height: 6rem; vertical-align: top; padding: .25rem; }
td.out { opacity: .4; }
td.today { outline: 2px solid #2563eb; }
td.selected { background: rgba(37, 99, 235, .08); }
.chip { display: block; font-size: .75rem; border-radius: .25rem; padding: 0 .25rem; margin-top: .125rem; background: #e5e7eb; color: #111827; overflow: hidden; white-space: nowrap; }
.cat-hackathon { background: #dbeafe; }
.cat-workshop { background: #dcfce7; }
.cat-sprint { background: #fef3c7; }
.cat-mentorship { background: #fce7f3; }
.cat-judging { background: #fee2e2; }
.cat-ai { background: #ede9fe; }
.more { font-size: .7rem; opacity: .7; }
aside { width: 18rem; }
.error { color: #b91c1c; }
</style>
</head>
<body class="{{.Theme}}">
<main id="app" data-ready="{{if .Loading}}false{{else}}true{{end}}" data-theme="{{.Theme}}">
<h1>{{.Month.Title}}</h1>
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
<div class="layout">
<table>
<thead><tr>{{range .Month.Weekdays}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{range .Month.Weeks}}<tr>
{{range .}}<td class="{{if not .InMonth}}out {{end}}{{if .IsToday}}today {{end}}{{if .IsSelected}}selected{{end}}" data-date="{{.Date}}">
<div>{{.Day}}</div>
{{range .Events}}<span class="chip {{catClass .Category}}" title="{{.Title}}">{{.Time}} {{.Title}}</span>{{end}}
{{if .Overflow}}<span class="more">+{{.Overflow}} more</span>{{end}}
</td>{{end}}
</tr>{{end}}
</tbody>
</table>
<aside>
<h2>Upcoming</h2>
{{if .Agenda.Upcoming}}<ul>
{{range .Agenda.Upcoming}}<li><strong>{{.Title}}</strong><br>{{.Date}} {{.Time}}{{if .Location}} · {{.Location}}{{end}}</li>
{{end}}</ul>{{else}}<p>No upcoming events.</p>{{end}}
<h2>Recommended</h2>
{{if .Agenda.LoadingRecommended}}<p>Loading…</p>
{{else if .Agenda.Recommended}}<ul>
{{range .Agenda.Recommended}}<li>{{.Title}}<br>{{.Date}} {{.Time}}</li>
{{end}}</ul>{{else}}<p>No recommendations.</p>{{end}}
</aside>
</div>
</main>
</body>
</html>
`
