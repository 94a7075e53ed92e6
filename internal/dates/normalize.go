// Package dates turns the free-text date ranges printed on race pages into
// ISO dates.
package dates

import (
	"fmt"
	"strconv"
	"strings"
)

var months = map[string]string{
	"JAN": "01",
	"FEB": "02",
	"MAR": "03",
	"APR": "04",
	"MAY": "05",
	"JUN": "06",
	"JUL": "07",
	"AUG": "08",
	"SEP": "09",
	"OCT": "10",
	"NOV": "11",
	"DEC": "12",
}

// Month maps a month token to its two-digit number using the first three
// letters, case-insensitively.
func Month(token string) (string, bool) {
	token = strings.ToUpper(strings.TrimSpace(token))
	if len(token) < 3 {
		return "", false
	}
	m, ok := months[token[:3]]
	return m, ok
}

// Normalize converts a range such as "14 - 16 MAR" into the date of its last
// day, e.g. "2024-03-16". An unknown month defaults to January. Anything it
// cannot parse yields "".
func Normalize(text string, year int) string {
	tokens := strings.Fields(text)
	if len(tokens) < 2 {
		return ""
	}

	dayRange := tokens[len(tokens)-2]
	if strings.Contains(tokens[0], "-") {
		dayRange = tokens[0]
	}

	parts := strings.Split(dayRange, "-")
	day, err := strconv.Atoi(strings.TrimSpace(parts[len(parts)-1]))
	if err != nil || day < 1 || day > 31 {
		return ""
	}

	month, ok := Month(tokens[len(tokens)-1])
	if !ok {
		month = "01"
	}
	return fmt.Sprintf("%04d-%s-%02d", year, month, day)
}

// IsDateRange reports whether text looks like a short date range: under 15
// characters, containing a hyphen and a month abbreviation.
func IsDateRange(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" || len(text) >= 15 || !strings.Contains(text, "-") {
		return false
	}
	upper := strings.ToUpper(text)
	for abbr := range months {
		if strings.Contains(upper, abbr) {
			return true
		}
	}
	return false
}
