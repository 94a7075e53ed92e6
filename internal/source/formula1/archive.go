package formula1

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/hydavinci/formula-1-schedule/internal/cache"
	"github.com/hydavinci/formula-1-schedule/internal/f1"
)

// maxResultRows caps a scraped classification.
const maxResultRows = 20

const (
	latestRound        = "latest"
	unknownNationality = "Unknown"
	unknownTeam        = "Unknown Team"
)

// Results scrapes the classification of one race. For the "last" round it
// follows the first race link on the season results page.
func (s *Source) Results(ctx context.Context, year int, round f1.Round) ([]f1.Race, error) {
	round = round.ForResults()
	key := cache.NewKey(f1.SourceF1Results, year).WithDiscriminator(round.String())
	var races []f1.Race
	if s.cache.Load(ctx, key, &races) {
		return races, nil
	}

	url := fmt.Sprintf("%s/en/results/%d/races/%d.html", s.cfg.BaseURL, year, round.Number())
	if round.IsLast() {
		url = fmt.Sprintf("%s/en/results/%d/races.html", s.cfg.BaseURL, year)
	}
	doc, err := s.page(ctx, url)
	if err != nil {
		s.logger.Warn("results page unavailable", zap.Int("year", year), zap.Stringer("round", round), zap.Error(err))
		return nil, nil
	}
	if round.IsLast() {
		href, ok := doc.Find("a.resultsarchive-filter-item-link").First().Attr("href")
		if ok && href != "" {
			url = s.absolute(href)
			if doc, err = s.page(ctx, url); err != nil {
				s.logger.Warn("latest race page unavailable", zap.Int("year", year), zap.Error(err))
				return nil, nil
			}
		}
	}

	race := s.parseResults(doc, year, round, url)
	if len(race.Results) == 0 {
		s.logger.Warn("no results table", zap.Int("year", year), zap.Stringer("round", round))
		return nil, nil
	}
	races = []f1.Race{race}
	s.cache.Save(ctx, key, races)
	return races, nil
}

func (s *Source) parseResults(doc *goquery.Document, year int, round f1.Round, url string) f1.Race {
	race := f1.Race{
		RaceName: text(doc.Find("h1.ResultsArchiveTitle").First()),
		Date:     fullDate(text(doc.Find("span.full-date").First()), year),
		Time:     f1.UnknownTime,
		URL:      url,
	}
	if n := round.Number(); n > 0 {
		race.Round = strconv.Itoa(n)
	}
	if circuit := text(doc.Find("p.circuit-info").First()); circuit != "" {
		place := strings.TrimSpace(strings.SplitN(race.RaceName, " Grand Prix", 2)[0])
		race.Circuit = f1.Circuit{
			CircuitName: circuit,
			Location:    f1.Location{Country: place, Locality: place},
		}
	}

	race.Results = scrapeRows(doc, s.logger, func(cols *goquery.Selection) (f1.ResultEntry, bool) {
		if cols.Length() < 5 {
			return f1.ResultEntry{}, false
		}
		driver := driverCell(cols.Eq(3))
		team := text(cols.Eq(4))
		if team == "" {
			team = unknownTeam
		}
		points := "0"
		if cols.Length() > 5 {
			points = text(cols.Last())
		}
		return f1.ResultEntry{
			Position:    text(cols.Eq(1)),
			Driver:      driver,
			Constructor: f1.Constructor{Name: team},
			Points:      points,
		}, true
	})
	if len(race.Results) > maxResultRows {
		race.Results = race.Results[:maxResultRows]
	}
	return race
}

// DriverStandings scrapes the season's driver table.
func (s *Source) DriverStandings(ctx context.Context, year int) ([]f1.StandingsList, error) {
	return s.standings(ctx, f1.SourceF1Drivers, fmt.Sprintf("%s/en/results/%d/drivers.html", s.cfg.BaseURL, year), year,
		func(doc *goquery.Document) f1.StandingsList {
			list := f1.StandingsList{Season: strconv.Itoa(year), Round: latestRound}
			list.DriverStandings = scrapeRows(doc, s.logger, func(cols *goquery.Selection) (f1.DriverStanding, bool) {
				if cols.Length() < 5 {
					return f1.DriverStanding{}, false
				}
				driver := driverCell(cols.Eq(2))
				driver.Name = ""
				driver.Nationality = text(cols.Eq(3))
				points := "0"
				if cols.Length() > 5 {
					points = text(cols.Eq(5))
				}
				return f1.DriverStanding{
					Position:     text(cols.Eq(1)),
					Points:       points,
					Driver:       driver,
					Constructors: []f1.Constructor{{Name: text(cols.Eq(4))}},
				}, true
			})
			return list
		})
}

// ConstructorStandings scrapes the season's team table.
func (s *Source) ConstructorStandings(ctx context.Context, year int) ([]f1.StandingsList, error) {
	return s.standings(ctx, f1.SourceF1Teams, fmt.Sprintf("%s/en/results/%d/team.html", s.cfg.BaseURL, year), year,
		func(doc *goquery.Document) f1.StandingsList {
			list := f1.StandingsList{Season: strconv.Itoa(year), Round: latestRound}
			list.ConstructorStandings = scrapeRows(doc, s.logger, func(cols *goquery.Selection) (f1.ConstructorStanding, bool) {
				if cols.Length() < 3 {
					return f1.ConstructorStanding{}, false
				}
				points := "0"
				if cols.Length() > 3 {
					points = text(cols.Eq(3))
				}
				return f1.ConstructorStanding{
					Position:    text(cols.Eq(1)),
					Points:      points,
					Constructor: f1.Constructor{Name: text(cols.Eq(2)), Nationality: unknownNationality},
				}, true
			})
			return list
		})
}

func (s *Source) standings(
	ctx context.Context,
	tag string,
	url string,
	year int,
	parse func(*goquery.Document) f1.StandingsList,
) ([]f1.StandingsList, error) {
	key := cache.NewKey(tag, year)
	var lists []f1.StandingsList
	if s.cache.Load(ctx, key, &lists) {
		return lists, nil
	}
	doc, err := s.page(ctx, url)
	if err != nil {
		s.logger.Warn("standings page unavailable", zap.String("source", tag), zap.Int("year", year), zap.Error(err))
		return nil, nil
	}
	list := parse(doc)
	if len(list.DriverStandings) == 0 && len(list.ConstructorStandings) == 0 {
		s.logger.Warn("no standings table", zap.String("source", tag), zap.Int("year", year))
		return nil, nil
	}
	lists = []f1.StandingsList{list}
	s.cache.Save(ctx, key, lists)
	return lists, nil
}

// scrapeRows applies parse to every body row of the archive table. A row
// that is too short or panics is skipped without affecting the others.
func scrapeRows[T any](doc *goquery.Document, logger *zap.Logger, parse func(cols *goquery.Selection) (T, bool)) []T {
	var out []T
	doc.Find("table.resultsarchive-table").First().Find("tbody tr").Each(func(i int, row *goquery.Selection) {
		value, ok := parseRow(row, parse)
		if !ok {
			logger.Debug("skipping table row", zap.Int("row", i))
			return
		}
		out = append(out, value)
	})
	return out
}

func parseRow[T any](row *goquery.Selection, parse func(cols *goquery.Selection) (T, bool)) (value T, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			value, ok = zero, false
		}
	}()
	return parse(row.Find("td"))
}

func driverCell(cell *goquery.Selection) f1.Driver {
	given := text(cell.Find("span.hide-for-tablet").First())
	family := text(cell.Find("span.hide-for-mobile").First())
	d := f1.Driver{
		GivenName:  given,
		FamilyName: family,
		Code:       text(cell.Find("span.hide-for-desktop").First()),
	}
	if given != "" && family != "" {
		d.Name = given + " " + family
	}
	return d
}

func text(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}

// fullDate converts "24 Mar 2024" to ISO, falling back to {year}-01-01.
func fullDate(raw string, year int) string {
	for _, layout := range []string{"02 Jan 2006", "2 Jan 2006", "02 January 2006", "2 January 2006"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return fmt.Sprintf("%04d-01-01", year)
}
