// Package term renders the agenda and the month grid for the terminal.
package term

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"hackwave/internal/calendar"
	"hackwave/internal/model"
	"hackwave/internal/provider"
)

const cellWidth = 14

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	headerStyle   = lipgloss.NewStyle().Bold(true).Width(cellWidth).Align(lipgloss.Center)
	cellStyle     = lipgloss.NewStyle().Width(cellWidth).Height(4).Padding(0, 1)
	outStyle      = cellStyle.Copy().Faint(true)
	todayStyle    = cellStyle.Copy().Bold(true).Foreground(lipgloss.Color("12"))
	selectedStyle = cellStyle.Copy().Reverse(true)
	chipStyle     = lipgloss.NewStyle().MaxWidth(cellWidth - 2)
)

// WriteAgenda prints the upcoming and recommended lists as tables.
func WriteAgenda(w io.Writer, a provider.Agenda) {
	bold := color.New(color.Bold)
	faint := color.New(color.Faint)

	_, _ = fmt.Fprintln(w, bold.Sprintf("Upcoming (from %s)", a.Today))
	if len(a.Upcoming) == 0 {
		_, _ = fmt.Fprintln(w, faint.Sprint("  No upcoming events."))
	} else {
		_, _ = fmt.Fprintln(w, eventTable(a.Upcoming))
	}
	_, _ = fmt.Fprintln(w, "")

	_, _ = fmt.Fprintln(w, bold.Sprint("Recommended"))
	switch {
	case a.LoadingRecommended:
		_, _ = fmt.Fprintln(w, faint.Sprint("  Loading..."))
	case len(a.Recommended) == 0:
		_, _ = fmt.Fprintln(w, faint.Sprint("  No recommendations."))
	default:
		_, _ = fmt.Fprintln(w, eventTable(a.Recommended))
	}
}

func eventTable(events []model.Event) *uitable.Table {
	head := color.New(color.Bold, color.Underline)

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 40
	tbl.AddRow(head.Sprint("DATE"), head.Sprint("TIME"), head.Sprint("TITLE"), head.Sprint("CATEGORY"), head.Sprint("LOCATION"))
	for _, e := range events {
		tbl.AddRow(e.Date, e.Time, e.Title, categoryColor(e.Category).Sprint(e.Category), e.Location)
	}
	return tbl
}

func categoryColor(c string) *color.Color {
	switch c {
	case model.CategoryHackathon:
		return color.New(color.FgBlue)
	case model.CategoryWorkshop:
		return color.New(color.FgGreen)
	case model.CategorySprint:
		return color.New(color.FgYellow)
	case model.CategoryMentorship:
		return color.New(color.FgMagenta)
	case model.CategoryJudging:
		return color.New(color.FgRed)
	case model.CategoryAI:
		return color.New(color.FgCyan)
	default:
		return color.New(color.Reset)
	}
}

// MonthGrid renders a month view as a 7-column grid with event chips.
func MonthGrid(v calendar.MonthView) string {
	headers := make([]string, 0, len(v.Weekdays))
	for _, d := range v.Weekdays {
		headers = append(headers, headerStyle.Render(d))
	}

	rows := []string{
		titleStyle.Render(fmt.Sprintf("%s  (%d events)", v.Title, v.EventCount)),
		lipgloss.JoinHorizontal(lipgloss.Top, headers...),
	}
	for _, week := range v.Weeks {
		cells := make([]string, 0, len(week))
		for _, c := range week {
			cells = append(cells, renderCell(c))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func renderCell(c calendar.DayCell) string {
	lines := []string{fmt.Sprintf("%2d", c.Day)}
	for _, e := range c.Events {
		lines = append(lines, chipStyle.Render(e.Time+" "+e.Title))
	}
	if c.Overflow > 0 {
		lines = append(lines, fmt.Sprintf("+%d more", c.Overflow))
	}
	body := strings.Join(lines, "\n")

	switch {
	case c.IsSelected:
		return selectedStyle.Render(body)
	case c.IsToday:
		return todayStyle.Render(body)
	case !c.InMonth:
		return outStyle.Render(body)
	default:
		return cellStyle.Render(body)
	}
}
