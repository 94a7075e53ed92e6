package formula1

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/hydavinci/formula-1-schedule/internal/cache"
	"github.com/hydavinci/formula-1-schedule/internal/dispatcher"
	"github.com/hydavinci/formula-1-schedule/internal/extract"
	"github.com/hydavinci/formula-1-schedule/internal/f1"
)

const (
	testingSlug = "pre-season-testing"
	undatedSort = "0000-00-00"
)

// placed is an enriched race plus its position on the index page.
type placed struct {
	order int
	race  f1.Race
}

// Races scrapes the season index and enriches every round from its detail
// page. Failures yield an empty list.
func (s *Source) Races(ctx context.Context, year int) ([]f1.Race, error) {
	key := cache.NewKey(f1.SourceFormula1, year)
	var races []f1.Race
	if s.cache.Load(ctx, key, &races) {
		s.logger.Info("calendar loaded from cache", zap.Int("year", year), zap.Int("races", len(races)))
		return races, nil
	}

	indexURL := fmt.Sprintf("%s/en/racing/%d.html", s.cfg.BaseURL, year)
	doc, err := s.page(ctx, indexURL)
	if err != nil {
		s.logger.Warn("index page unavailable", zap.Int("year", year), zap.Error(err))
		return nil, nil
	}

	candidates := Candidates(doc, year, s.absolute)
	if len(candidates) == 0 {
		s.logger.Warn("no race links on index page", zap.Int("year", year))
		return nil, nil
	}

	tasks := make([]dispatcher.Task[placed], 0, len(candidates))
	for order, cand := range candidates {
		tasks = append(tasks, dispatcher.Task[placed]{
			Label: "round " + cand.Round(),
			Run: func(ctx context.Context) (placed, error) {
				race, err := s.detail(ctx, cand, year)
				return placed{order: order, race: race}, err
			},
		})
	}
	batch := dispatcher.Collect(ctx, s.pool, tasks)
	races = arrange(batch.Values)
	if len(races) == 0 {
		s.logger.Warn("every race detail page failed", zap.Int("year", year), zap.Int("dropped", batch.Dropped))
		return nil, nil
	}

	s.logger.Info("scraped calendar",
		zap.Int("year", year),
		zap.Int("races", len(races)),
		zap.Int("dropped", batch.Dropped),
	)
	s.cache.Save(ctx, key, races)
	return races, nil
}

func (s *Source) detail(ctx context.Context, cand extract.Candidate, year int) (f1.Race, error) {
	doc, err := s.page(ctx, cand.URL)
	if err != nil {
		return f1.Race{}, err
	}
	race, rules, err := extract.ExtractRace(doc, cand, year)
	if err != nil {
		return f1.Race{}, err
	}
	s.logger.Debug("race detail resolved",
		zap.String("round", cand.Round()),
		zap.Any("rules", map[string]string(rules)),
	)
	return race, nil
}

// Candidates lists the race links on a season index page in document order.
// Links must sit under /en/racing/{year}/ and carry a "ROUND n" label; the
// pre-season testing link is kept as a marker whatever its label.
func Candidates(doc *goquery.Document, year int, absolute func(string) string) []extract.Candidate {
	prefix := fmt.Sprintf("/en/racing/%d/", year)
	seen := make(map[string]struct{})
	var out []extract.Candidate
	index := 0

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		path := href
		if i := strings.Index(path, "/en/racing/"); i > 0 {
			path = path[i:]
		}
		if !strings.HasPrefix(path, prefix) {
			return
		}
		label := strings.ToUpper(strings.Join(strings.Fields(a.Text()), " "))
		testing := strings.Contains(extract.Slug(path), testingSlug)
		if !testing && !strings.HasPrefix(label, "ROUND ") {
			return
		}
		if _, dup := seen[path]; dup {
			return
		}
		seen[path] = struct{}{}

		cand := extract.Candidate{URL: absolute(path), Href: path, Testing: testing}
		if !testing {
			index++
			cand.Index = index
		}
		out = append(out, cand)
	})
	return out
}

// arrange sorts races by date (undated first), breaking ties by index page
// order, then renumbers the rounds 1..n. Testing markers keep their sentinel.
func arrange(values []placed) []f1.Race {
	sort.SliceStable(values, func(i, j int) bool {
		di, dj := sortDate(values[i].race), sortDate(values[j].race)
		if di != dj {
			return di < dj
		}
		return values[i].order < values[j].order
	})
	races := make([]f1.Race, 0, len(values))
	round := 0
	for _, v := range values {
		race := v.race
		if race.Round != f1.TestingRound {
			round++
			race.Round = strconv.Itoa(round)
		}
		races = append(races, race)
	}
	return races
}

func sortDate(r f1.Race) string {
	if r.Date == "" {
		return undatedSort
	}
	return r.Date
}
