package extract

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/hydavinci/formula-1-schedule/internal/dates"
	"github.com/hydavinci/formula-1-schedule/internal/f1"
)

// Rule names for race detail pages.
const (
	RuleHeadingGrandPrix = "heading-grand-prix"
	RuleSlugTitle        = "slug-title"
	RuleFirstH1          = "first-h1"
	RuleCircuitText      = "circuit-text"
	RuleParagraphCircuit = "paragraph-circuit"
	RuleDateRangeText    = "date-range-text"
)

// Candidate is a race link found on the season index page.
type Candidate struct {
	// Index is the 1-based position of the link on the index page.
	Index   int
	URL     string
	Href    string
	Testing bool
}

// Round is the provisional round label before final renumbering.
func (c Candidate) Round() string {
	if c.Testing {
		return f1.TestingRound
	}
	return strconv.Itoa(c.Index)
}

// Resolution records which rule produced each field, keyed by field name.
type Resolution map[string]string

// ExtractRace builds a Race from a detail page. Any panic raised while
// walking the document is returned as an error so one bad page cannot take
// down its siblings.
func ExtractRace(doc *goquery.Document, cand Candidate, year int) (race f1.Race, res Resolution, err error) {
	defer func() {
		if r := recover(); r != nil {
			race = f1.Race{}
			res = nil
			err = fmt.Errorf("extract round %s: %v", cand.Round(), r)
		}
	}()
	if doc == nil {
		return f1.Race{}, nil, fmt.Errorf("extract round %s: nil document", cand.Round())
	}

	res = Resolution{}
	country, rule := CountryField(cand).Resolve(doc)
	res["country"] = rule

	name, rule := NameField(cand, country).Resolve(doc)
	res["name"] = rule

	circuit, rule := CircuitField(country).Resolve(doc)
	res["circuit"] = rule

	date, rule := DateField(year).Resolve(doc)
	res["date"] = rule

	race = f1.Race{
		Round:    cand.Round(),
		RaceName: name,
		Circuit: f1.Circuit{
			CircuitName: circuit,
			Location: f1.Location{
				Country: country,
				// No finer-grained place is published, so locality mirrors country.
				Locality: country,
			},
		},
		Date: date,
		Time: f1.DefaultStartTime,
		URL:  cand.URL,
	}
	return race, res, nil
}

// CountryField reads the first top-level heading.
func CountryField(cand Candidate) Field {
	return Field{
		Name: "country",
		Rules: []Rule{
			{Name: RuleFirstH1, Extract: func(doc *goquery.Document) (string, bool) {
				text := collapse(doc.Find("h1").First().Text())
				return text, text != ""
			}},
		},
		Fallback: func() string {
			return "Race " + cand.Round()
		},
	}
}

// NameField prefers a heading naming the Grand Prix, then the link slug.
// Testing entries are always named from their slug.
func NameField(cand Candidate, country string) Field {
	slug := Rule{Name: RuleSlugTitle, Extract: func(*goquery.Document) (string, bool) {
		title := SlugTitle(cand.Href)
		return title, title != ""
	}}
	rules := []Rule{
		{Name: RuleHeadingGrandPrix, Extract: func(doc *goquery.Document) (string, bool) {
			var found string
			doc.Find("h2, h3").EachWithBreak(func(_ int, s *goquery.Selection) bool {
				text := collapse(s.Text())
				if strings.Contains(strings.ToUpper(text), "GRAND PRIX") {
					found = text
					return false
				}
				return true
			})
			return found, found != ""
		}},
		slug,
	}
	if cand.Testing {
		rules = []Rule{slug}
	}
	return Field{
		Name:  "name",
		Rules: rules,
		Fallback: func() string {
			return country + " Grand Prix"
		},
	}
}

// CircuitField looks for an explicit circuit label, then a paragraph that
// mentions the circuit or track.
func CircuitField(country string) Field {
	return Field{
		Name: "circuit",
		Rules: []Rule{
			{Name: RuleCircuitText, Extract: func(doc *goquery.Document) (string, bool) {
				return firstText(doc, func(s string) bool {
					return strings.Contains(strings.ToUpper(s), "CIRCUIT")
				})
			}},
			{Name: RuleParagraphCircuit, Extract: func(doc *goquery.Document) (string, bool) {
				var found string
				doc.Find("p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
					text := collapse(s.Text())
					lower := strings.ToLower(text)
					if !strings.Contains(lower, "circuit") && !strings.Contains(lower, "track") {
						return true
					}
					found = CircuitFromSentence(text)
					return found == ""
				})
				return found, found != ""
			}},
		},
		Fallback: func() string {
			return country + " Circuit"
		},
	}
}

// CircuitFromSentence takes the words after the last " at " and before the
// following " in ", e.g. "Held at Albert Park in Melbourne" gives "Albert Park".
func CircuitFromSentence(text string) string {
	words := strings.Fields(text)
	for i := len(words) - 2; i > 0; i-- {
		if strings.EqualFold(words[i], "at") {
			words = words[i+1:]
			break
		}
	}
	for i := 1; i < len(words)-1; i++ {
		if strings.EqualFold(words[i], "in") {
			words = words[:i]
			break
		}
	}
	return strings.TrimRight(strings.Join(words, " "), ".,;:")
}

// DateField finds the first short date range and normalizes it.
func DateField(year int) Field {
	return Field{
		Name: "date",
		Rules: []Rule{
			{Name: RuleDateRangeText, Extract: func(doc *goquery.Document) (string, bool) {
				text, ok := firstText(doc, dates.IsDateRange)
				if !ok {
					return "", false
				}
				date := dates.Normalize(text, year)
				return date, date != ""
			}},
		},
		Fallback: func() string {
			return fmt.Sprintf("%04d-01-01", year)
		},
	}
}
