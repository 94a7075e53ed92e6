package report

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hydavinci/formula-1-schedule/internal/chain"
	"github.com/hydavinci/formula-1-schedule/internal/f1"
)

var today = time.Date(2024, 3, 24, 9, 0, 0, 0, time.UTC)

func race(round, name, date, start, circuit, country, locality string) f1.Race {
	return f1.Race{
		Round:    round,
		RaceName: name,
		Date:     date,
		Time:     start,
		Circuit: f1.Circuit{
			CircuitName: circuit,
			Location:    f1.Location{Country: country, Locality: locality},
		},
	}
}

func season() []f1.Race {
	bahrain := race("1", "Bahrain Grand Prix", "2024-03-02", "15:00:00Z", "Bahrain International Circuit", "Bahrain", "Sakhir")
	bahrain.FirstPractice = &f1.Session{Date: "2024-02-29"}
	return []f1.Race{
		bahrain,
		race("3", "Australian Grand Prix", "2024-03-24", "04:00:00Z", "Albert Park Grand Prix Circuit", "Australia", "Melbourne"),
		race("4", "Japanese Grand Prix", "2024-04-07", f1.UnknownTime, "Suzuka Circuit", "Japan", "Japan"),
	}
}

func TestCalendarCurrent(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	Calendar(&buf, chain.Result{Races: season(), YearUsed: 2024, RequestedYear: 2024, Status: f1.StatusCurrent}, today)
	out := buf.String()

	assert.Contains(t, out, "Formula 1 2024 Season Calendar:")
	assert.Contains(t, out, "Sakhir, Bahrain")
	assert.Contains(t, out, "2024-02-29 - 2024-03-02")
	assert.Contains(t, out, "15:00 UTC")
	assert.Contains(t, out, "TBD")
	assert.Equal(t, 1, strings.Count(out, MarkCompleted))
	assert.Equal(t, 1, strings.Count(out, MarkToday))
	assert.Equal(t, 1, strings.Count(out, MarkUpcoming))
}

func TestCalendarHeaders(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		res  chain.Result
		want []string
	}{
		{
			name: "fallback for current season",
			res:  chain.Result{Races: season(), YearUsed: 2023, RequestedYear: 2024, Status: f1.StatusFallback},
			want: []string{"The 2024 F1 calendar is not yet published", "Showing the 2023 Formula 1 Calendar instead"},
		},
		{
			name: "fallback for another season",
			res:  chain.Result{Races: season(), YearUsed: 2029, RequestedYear: 2030, Status: f1.StatusFallback},
			want: []string{"No F1 calendar found for 2030", "Showing the 2029"},
		},
		{
			name: "alternate source",
			res:  chain.Result{Races: season(), YearUsed: 2024, RequestedYear: 2024, Status: f1.StatusAltAPI},
			want: []string{"(retrieved from alternative source)"},
		},
		{
			name: "exhausted",
			res:  chain.Result{YearUsed: 2027, RequestedYear: 2030, Status: f1.StatusError},
			want: []string{"No race information found for 2030 or earlier years."},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			Calendar(&buf, tt.res, today)
			for _, want := range tt.want {
				assert.Contains(t, buf.String(), want)
			}
		})
	}
}

func TestMarker(t *testing.T) {
	t.Parallel()

	assert.Equal(t, MarkCompleted, Marker("2024-03-23", today))
	assert.Equal(t, MarkToday, Marker("2024-03-24", today))
	assert.Equal(t, MarkUpcoming, Marker("2024-03-25", today))
	assert.Empty(t, Marker("", today))
	assert.Empty(t, Marker("March 24", today))
}

func TestPodium(t *testing.T) {
	t.Parallel()

	bahrain := season()[0]
	bahrain.Results = []f1.ResultEntry{
		{Position: "1", Driver: f1.Driver{GivenName: "Max", FamilyName: "Verstappen"}, Constructor: f1.Constructor{Name: "Red Bull"}, Points: "26"},
		{Position: "2", Driver: f1.Driver{GivenName: "Sergio", FamilyName: "Perez"}, Constructor: f1.Constructor{Name: "Red Bull"}, Points: "18"},
		{Position: "3", Driver: f1.Driver{GivenName: "Carlos", FamilyName: "Sainz"}, Points: "15"},
		{Position: "4", Driver: f1.Driver{GivenName: "Charles", FamilyName: "Leclerc"}, Points: "12"},
	}

	var buf bytes.Buffer
	Podium(&buf, []f1.Race{bahrain})
	out := buf.String()
	assert.Contains(t, out, "Bahrain Grand Prix (at Bahrain International Circuit) Podium:")
	assert.Contains(t, out, "Max Verstappen")
	assert.Contains(t, out, "Unknown Team")
	assert.NotContains(t, out, "Leclerc")

	buf.Reset()
	Podium(&buf, nil)
	assert.Equal(t, "No race results data available\n", buf.String())

	buf.Reset()
	Podium(&buf, []f1.Race{{RaceName: "Monaco Grand Prix"}})
	assert.Equal(t, "Monaco Grand Prix (at Unknown Circuit): No race results data available\n", buf.String())
}

func TestDriverStandingsTopTen(t *testing.T) {
	t.Parallel()

	list := f1.StandingsList{Season: "2024", Round: "latest"}
	for i := 1; i <= 12; i++ {
		list.DriverStandings = append(list.DriverStandings, f1.DriverStanding{
			Position:     fmt.Sprint(i),
			Points:       fmt.Sprint(300 - i*10),
			Driver:       f1.Driver{GivenName: "Driver", FamilyName: fmt.Sprintf("Number%02d", i)},
			Constructors: []f1.Constructor{{Name: "Team"}},
		})
	}

	var buf bytes.Buffer
	DriverStandings(&buf, []f1.StandingsList{list})
	out := buf.String()
	assert.Contains(t, out, "2024 Season Round latest - Driver Championship Standings:")
	assert.Contains(t, out, "Number10")
	assert.NotContains(t, out, "Number11")

	buf.Reset()
	DriverStandings(&buf, []f1.StandingsList{{Season: "2024", Round: "3"}})
	assert.Contains(t, buf.String(), "2024 Season Round 3: No driver standings data available")
}

func TestConstructorStandings(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ConstructorStandings(&buf, []f1.StandingsList{{
		Season: "2024",
		Round:  "latest",
		ConstructorStandings: []f1.ConstructorStanding{
			{Position: "1", Points: "666", Constructor: f1.Constructor{Name: "McLaren"}},
			{Position: "2", Constructor: f1.Constructor{}},
		},
	}})
	out := buf.String()
	assert.Contains(t, out, "Constructor Championship Standings:")
	assert.Contains(t, out, "McLaren")
	assert.Contains(t, out, "Unknown Team")

	buf.Reset()
	ConstructorStandings(&buf, nil)
	assert.Equal(t, "No constructor standings data available\n", buf.String())
}
