package f1

import "time"

// Status tags where a calendar result came from.
type Status string

// Status values returned by the source chain.
const (
	StatusCurrent  Status = "current"
	StatusAltAPI   Status = "alt_api"
	StatusFallback Status = "fallback"
	StatusError    Status = "error"
)

// Outcome classifies a single source attempt.
type Outcome string

// Outcome values consumed by the fallback policy and metrics.
const (
	OutcomeNonEmpty Outcome = "nonempty"
	OutcomeEmpty    Outcome = "empty"
	OutcomeError    Outcome = "error"
)

// Source tags. They double as cache key prefixes.
const (
	SourceErgast               = "ergast"
	SourceFormula1             = "formula1_com"
	SourceSportRadar           = "sportradar"
	SourceRapidAPI             = "rapidapi"
	SourceResults              = "results"
	SourceDriverStandings      = "driver_standings"
	SourceConstructorStandings = "constructor_standings"
	SourceF1Results            = "f1com_results"
	SourceF1Drivers            = "f1com_drivers"
	SourceF1Teams              = "f1com_teams"
)

// DefaultStartTime is used when a source does not publish a start time.
const DefaultStartTime = "14:00:00Z"

// UnknownTime marks a race whose start time is not known at all.
const UnknownTime = "unknown"

// TestingRound is the round marker given to pre-season testing entries.
const TestingRound = "T"

// Location is where a circuit sits. Locality falls back to the country when
// no finer-grained place name is published.
type Location struct {
	Country  string `json:"country"`
	Locality string `json:"locality"`
}

// Circuit names the track a race is held at.
type Circuit struct {
	CircuitName string   `json:"circuitName"`
	Location    Location `json:"Location"`
}

// Session is a dated sub-event of a race weekend.
type Session struct {
	Date string `json:"date"`
	Time string `json:"time,omitempty"`
}

// Driver identifies a driver in results and standings.
type Driver struct {
	GivenName   string `json:"givenName"`
	FamilyName  string `json:"familyName"`
	Code        string `json:"code,omitempty"`
	Name        string `json:"name,omitempty"`
	Nationality string `json:"nationality,omitempty"`
}

// FullName joins given and family names.
func (d Driver) FullName() string {
	if d.GivenName == "" && d.FamilyName == "" {
		return d.Name
	}
	if d.GivenName == "" {
		return d.FamilyName
	}
	if d.FamilyName == "" {
		return d.GivenName
	}
	return d.GivenName + " " + d.FamilyName
}

// Constructor identifies a team.
type Constructor struct {
	Name        string `json:"name"`
	Nationality string `json:"nationality,omitempty"`
}

// FinishTime is the elapsed race time of a classified finisher.
type FinishTime struct {
	Time string `json:"time"`
}

// ResultEntry is one finisher in a race result.
type ResultEntry struct {
	Position    string      `json:"position"`
	Driver      Driver      `json:"Driver"`
	Constructor Constructor `json:"Constructor"`
	Points      string      `json:"points"`
	Time        *FinishTime `json:"Time,omitempty"`
}

// Race is one event of a season. Results is only populated for result queries.
type Race struct {
	Round         string        `json:"round"`
	RaceName      string        `json:"raceName"`
	Circuit       Circuit       `json:"Circuit"`
	Date          string        `json:"date"`
	Time          string        `json:"time"`
	URL           string        `json:"url"`
	FirstPractice *Session      `json:"FirstPractice,omitempty"`
	Results       []ResultEntry `json:"Results,omitempty"`
}

// Podium returns the top three finishers.
func (r Race) Podium() []ResultEntry {
	if len(r.Results) <= 3 {
		return r.Results
	}
	return r.Results[:3]
}

// DriverStanding is a driver's championship position.
type DriverStanding struct {
	Position     string        `json:"position"`
	Points       string        `json:"points"`
	Driver       Driver        `json:"Driver"`
	Constructors []Constructor `json:"Constructors"`
}

// Team returns the first constructor listed for the driver.
func (d DriverStanding) Team() string {
	if len(d.Constructors) == 0 {
		return ""
	}
	return d.Constructors[0].Name
}

// ConstructorStanding is a team's championship position.
type ConstructorStanding struct {
	Position    string      `json:"position"`
	Points      string      `json:"points"`
	Constructor Constructor `json:"Constructor"`
}

// StandingsList is a ranked table as of a given round. Exactly one of the two
// slices is populated.
type StandingsList struct {
	Season               string                `json:"season"`
	Round                string                `json:"round"`
	DriverStandings      []DriverStanding      `json:"DriverStandings,omitempty"`
	ConstructorStandings []ConstructorStanding `json:"ConstructorStandings,omitempty"`
}

// StandingsKind selects driver or constructor standings.
type StandingsKind string

// Standings kinds.
const (
	StandingsDrivers      StandingsKind = "drivers"
	StandingsConstructors StandingsKind = "constructors"
)

// FetchRequest is a single page fetch. Headers and Timeout are owned by the
// caller for that call only.
type FetchRequest struct {
	URL     string
	Headers map[string]string
	Timeout time.Duration
}

// FetchResponse is the body plus metadata of a fetched page.
type FetchResponse struct {
	URL        string
	StatusCode int
	Headers    map[string][]string
	Body       []byte
	Duration   time.Duration
}

// AcquisitionEvent is published after a calendar query resolves.
type AcquisitionEvent struct {
	Kind          string    `json:"kind"`
	RequestedYear int       `json:"requested_year"`
	YearUsed      int       `json:"year_used"`
	Status        Status    `json:"status"`
	Source        string    `json:"source,omitempty"`
	Races         int       `json:"races"`
	At            time.Time `json:"at"`
}
