// Package report renders query results for terminals.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/hydavinci/formula-1-schedule/internal/chain"
	"github.com/hydavinci/formula-1-schedule/internal/f1"
)

// Race markers relative to today.
const (
	MarkCompleted = "[Completed]"
	MarkToday     = "[Today]"
	MarkUpcoming  = "[Upcoming]"
)

const maxDriverRows = 10

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

// Calendar writes the season header and one row per race. now decides both
// the completion markers and whether a fallback is for the current season.
func Calendar(w io.Writer, res chain.Result, now time.Time) {
	switch res.Status {
	case f1.StatusError:
		fmt.Fprintf(w, "No race information found for %d or earlier years.\n", res.RequestedYear)
		return
	case f1.StatusFallback:
		if res.RequestedYear == now.Year() {
			fmt.Fprintf(w, "NOTE: The %d F1 calendar is not yet published.\n", res.RequestedYear)
		} else {
			fmt.Fprintf(w, "NOTE: No F1 calendar found for %d.\n", res.RequestedYear)
		}
		fmt.Fprintf(w, "Showing the %d Formula 1 Calendar instead:\n", res.YearUsed)
	case f1.StatusAltAPI:
		fmt.Fprintf(w, "Formula 1 %d Season Calendar (retrieved from alternative source):\n", res.YearUsed)
	default:
		fmt.Fprintf(w, "Formula 1 %d Season Calendar:\n", res.YearUsed)
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"Round", "Date", "Time", "Race", "Circuit", "Location", "Weekend", ""})
	for _, race := range res.Races {
		t.AppendRow(table.Row{
			race.Round,
			race.Date,
			startTime(race.Time),
			race.RaceName,
			race.Circuit.CircuitName,
			location(race.Circuit.Location),
			weekend(race),
			Marker(race.Date, now),
		})
	}
	t.Render()
}

// Marker classifies an ISO date against today. Unparsable dates get none.
func Marker(date string, now time.Time) string {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return ""
	}
	today := now.Format("2006-01-02")
	switch day := d.Format("2006-01-02"); {
	case day < today:
		return MarkCompleted
	case day == today:
		return MarkToday
	default:
		return MarkUpcoming
	}
}

func startTime(raw string) string {
	if raw == "" || raw == f1.UnknownTime {
		return "TBD"
	}
	if t, err := time.Parse("15:04:05Z", raw); err == nil {
		return t.Format("15:04") + " UTC"
	}
	return raw
}

func location(loc f1.Location) string {
	city := loc.Locality
	if city == "" {
		city = loc.Country
	}
	if city == loc.Country {
		return loc.Country
	}
	return city + ", " + loc.Country
}

func weekend(race f1.Race) string {
	if race.FirstPractice == nil || race.FirstPractice.Date == "" {
		return ""
	}
	return race.FirstPractice.Date + " - " + race.Date
}

// Podium writes the top three of the first race.
func Podium(w io.Writer, races []f1.Race) {
	if len(races) == 0 {
		fmt.Fprintln(w, "No race results data available")
		return
	}
	race := races[0]
	name := orDefault(race.RaceName, "Unknown Race")
	circuit := orDefault(race.Circuit.CircuitName, "Unknown Circuit")
	podium := race.Podium()
	if len(podium) == 0 {
		fmt.Fprintf(w, "%s (at %s): No race results data available\n", name, circuit)
		return
	}
	fmt.Fprintf(w, "%s (at %s) Podium:\n", name, circuit)
	t := newTable(w)
	t.AppendHeader(table.Row{"Pos", "Driver", "Team", "Points"})
	for i, r := range podium {
		t.AppendRow(table.Row{i + 1, r.Driver.FullName(), orDefault(r.Constructor.Name, "Unknown Team"), orDefault(r.Points, "0")})
	}
	t.Render()
}

// DriverStandings writes the top ten of the first standings list.
func DriverStandings(w io.Writer, lists []f1.StandingsList) {
	if len(lists) == 0 {
		fmt.Fprintln(w, "No driver standings data available")
		return
	}
	list := lists[0]
	if len(list.DriverStandings) == 0 {
		fmt.Fprintf(w, "%s: No driver standings data available\n", heading(list))
		return
	}
	fmt.Fprintf(w, "%s - Driver Championship Standings:\n", heading(list))
	t := newTable(w)
	t.AppendHeader(table.Row{"Pos", "Driver", "Points", "Team"})
	rows := list.DriverStandings
	if len(rows) > maxDriverRows {
		rows = rows[:maxDriverRows]
	}
	for _, s := range rows {
		t.AppendRow(table.Row{s.Position, s.Driver.FullName(), orDefault(s.Points, "0"), orDefault(s.Team(), "Unknown Team")})
	}
	t.Render()
}

// ConstructorStandings writes every row of the first standings list.
func ConstructorStandings(w io.Writer, lists []f1.StandingsList) {
	if len(lists) == 0 {
		fmt.Fprintln(w, "No constructor standings data available")
		return
	}
	list := lists[0]
	if len(list.ConstructorStandings) == 0 {
		fmt.Fprintf(w, "%s: No constructor standings data available\n", heading(list))
		return
	}
	fmt.Fprintf(w, "%s - Constructor Championship Standings:\n", heading(list))
	t := newTable(w)
	t.AppendHeader(table.Row{"Pos", "Team", "Points"})
	for _, s := range list.ConstructorStandings {
		t.AppendRow(table.Row{s.Position, orDefault(s.Constructor.Name, "Unknown Team"), orDefault(s.Points, "0")})
	}
	t.Render()
}

func heading(list f1.StandingsList) string {
	return fmt.Sprintf("%s Season Round %s", orDefault(list.Season, "Unknown Season"), orDefault(list.Round, "Unknown Round"))
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
