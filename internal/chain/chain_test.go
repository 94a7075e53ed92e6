package chain

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hydavinci/formula-1-schedule/internal/clock/system"
	"github.com/hydavinci/formula-1-schedule/internal/f1"
)

type stubSource struct {
	name  string
	years map[int][]f1.Race
	fail  map[int]error

	mu    sync.Mutex
	calls []int
}

func newStub(name string) *stubSource {
	return &stubSource{name: name, years: map[int][]f1.Race{}, fail: map[int]error{}}
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Races(_ context.Context, year int) ([]f1.Race, error) {
	s.mu.Lock()
	s.calls = append(s.calls, year)
	s.mu.Unlock()
	if err := s.fail[year]; err != nil {
		return nil, err
	}
	return s.years[year], nil
}

func races(n int) []f1.Race {
	out := make([]f1.Race, n)
	for i := range out {
		out[i] = f1.Race{Round: fmt.Sprint(i + 1), RaceName: fmt.Sprintf("Race %d", i+1)}
	}
	return out
}

var clock2025 = system.Fixed{T: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)}

func newChain(t *testing.T, primary f1.RaceSource, alts ...f1.RaceSource) *Chain {
	t.Helper()
	c, err := New(primary, alts, clock2025, zap.NewNop())
	require.NoError(t, err)
	return c
}

func TestPlanOrder(t *testing.T) {
	t.Parallel()

	primary, alt1, alt2 := newStub("ergast"), newStub("formula1_com"), newStub("sportradar")

	plan := Policy{MaxFallbacks: 2}.Plan(2025, 2025, []f1.RaceSource{alt1, alt2}, primary)
	got := make([]string, 0, len(plan))
	for _, a := range plan {
		got = append(got, fmt.Sprintf("%s/%d/%s", a.Source.Name(), a.Year, a.Status))
	}
	assert.Equal(t, []string{
		"ergast/2025/current",
		"formula1_com/2025/alt_api",
		"sportradar/2025/alt_api",
		"ergast/2024/fallback",
		"ergast/2023/fallback",
	}, got)

	past := Policy{MaxFallbacks: 1}.Plan(2020, 2025, []f1.RaceSource{alt1}, primary)
	require.Len(t, past, 2)
	assert.Equal(t, f1.StatusCurrent, past[0].Status)
	assert.Equal(t, 2019, past[1].Year)
}

func TestPlanNeverRepeatsPairs(t *testing.T) {
	t.Parallel()

	primary, alt := newStub("ergast"), newStub("formula1_com")
	for _, requested := range []int{2023, 2024, 2025, 2026} {
		seen := map[string]bool{}
		for _, a := range (Policy{MaxFallbacks: 5}).Plan(requested, 2025, []f1.RaceSource{alt, nil}, primary) {
			key := fmt.Sprintf("%s/%d", a.Source.Name(), a.Year)
			require.False(t, seen[key], "duplicate attempt %s", key)
			seen[key] = true
		}
	}
}

func TestFetchCurrentYearHit(t *testing.T) {
	t.Parallel()

	primary := newStub("ergast")
	primary.years[2024] = races(24)
	alt := newStub("formula1_com")

	res := newChain(t, primary, alt).Fetch(context.Background(), Query{Year: 2024, MaxFallbacks: 3})
	assert.Equal(t, f1.StatusCurrent, res.Status)
	assert.Equal(t, 2024, res.YearUsed)
	assert.Equal(t, 2024, res.RequestedYear)
	assert.Equal(t, "ergast", res.Source)
	assert.Len(t, res.Races, 24)
	assert.Empty(t, alt.calls)
}

func TestFetchAltSourceForCurrentSeason(t *testing.T) {
	t.Parallel()

	primary := newStub("ergast")
	primary.fail[2025] = errors.New("connection refused")
	primary.years[2024] = races(24)
	scrape := newStub("formula1_com")
	scrape.years[2025] = races(3)
	paid := newStub("sportradar")

	res := newChain(t, primary, scrape, paid).Fetch(context.Background(), Query{MaxFallbacks: 3})
	assert.Equal(t, f1.StatusAltAPI, res.Status)
	assert.Equal(t, 2025, res.YearUsed)
	assert.Equal(t, "formula1_com", res.Source)
	assert.Len(t, res.Races, 3)
	assert.Empty(t, paid.calls)
	assert.Equal(t, []int{2025}, primary.calls)
}

func TestFetchFallsBackToEarlierYear(t *testing.T) {
	t.Parallel()

	primary := newStub("ergast")
	primary.years[2023] = races(22)
	scrape := newStub("formula1_com")

	res := newChain(t, primary, scrape).Fetch(context.Background(), Query{Year: 2025, MaxFallbacks: 3})
	assert.Equal(t, f1.StatusFallback, res.Status)
	assert.Equal(t, 2023, res.YearUsed)
	assert.Equal(t, 2025, res.RequestedYear)
	assert.Len(t, res.Races, 22)
	assert.Equal(t, []int{2025, 2024, 2023}, primary.calls)
	assert.Equal(t, []int{2025}, scrape.calls)
}

func TestFetchPastYearSkipsAlternates(t *testing.T) {
	t.Parallel()

	primary := newStub("ergast")
	scrape := newStub("formula1_com")
	scrape.years[2020] = races(17)

	res := newChain(t, primary, scrape).Fetch(context.Background(), Query{Year: 2020, MaxFallbacks: 1})
	assert.Equal(t, f1.StatusError, res.Status)
	assert.Empty(t, scrape.calls)
}

func TestFetchExhausted(t *testing.T) {
	t.Parallel()

	primary := newStub("ergast")
	res := newChain(t, primary).Fetch(context.Background(), Query{Year: 2030, MaxFallbacks: 3})
	assert.Equal(t, f1.StatusError, res.Status)
	assert.Empty(t, res.Races)
	assert.Equal(t, 2027, res.YearUsed)
	assert.Empty(t, res.Source)
	assert.Equal(t, []int{2030, 2029, 2028, 2027}, primary.calls)
}

func TestFetchZeroFallbacks(t *testing.T) {
	t.Parallel()

	primary := newStub("ergast")
	primary.years[2023] = races(1)
	res := newChain(t, primary).Fetch(context.Background(), Query{Year: 2024, MaxFallbacks: 0})
	assert.Equal(t, f1.StatusError, res.Status)
	assert.Equal(t, 2024, res.YearUsed)
	assert.Equal(t, []int{2024}, primary.calls)
}

func TestFetchNegativeFallbacksUsesDefault(t *testing.T) {
	t.Parallel()

	primary := newStub("ergast")
	res := newChain(t, primary).Fetch(context.Background(), Query{Year: 2010, MaxFallbacks: -1})
	assert.Equal(t, 2010-DefaultMaxFallbacks, res.YearUsed)
	assert.Len(t, primary.calls, 1+DefaultMaxFallbacks)
}

func TestFetchStopsWhenCancelled(t *testing.T) {
	t.Parallel()

	primary := newStub("ergast")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := newChain(t, primary).Fetch(ctx, Query{Year: 2024, MaxFallbacks: 3})
	assert.Equal(t, f1.StatusError, res.Status)
	assert.Empty(t, primary.calls)
}

func TestNewValidates(t *testing.T) {
	t.Parallel()

	_, err := New(nil, nil, clock2025, nil)
	assert.Error(t, err)
	_, err = New(newStub("ergast"), nil, nil, nil)
	assert.Error(t, err)
}
