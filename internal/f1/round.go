package f1

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidRound is returned for round values that are neither a positive
// integer nor a known sentinel.
var ErrInvalidRound = errors.New("invalid round")

// Round sentinels accepted by queries.
const (
	RoundLast    = "last"
	RoundCurrent = "current"
)

// Round is a query round: a positive number or one of the sentinels.
type Round struct {
	number   int
	sentinel string
}

// NumberedRound builds a numeric round.
func NumberedRound(n int) Round {
	return Round{number: n}
}

// LastRound is the most recently completed race.
func LastRound() Round {
	return Round{sentinel: RoundLast}
}

// CurrentRound is the latest standings snapshot.
func CurrentRound() Round {
	return Round{sentinel: RoundCurrent}
}

// ParseRound accepts "last", "current" or a positive integer. Empty input
// means "current".
func ParseRound(raw string) (Round, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	switch raw {
	case "", RoundCurrent:
		return CurrentRound(), nil
	case RoundLast:
		return LastRound(), nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return Round{}, fmt.Errorf("%w: %q", ErrInvalidRound, raw)
	}
	return NumberedRound(n), nil
}

// IsCurrent reports whether the round is the "current" sentinel.
func (r Round) IsCurrent() bool {
	return r.sentinel == RoundCurrent
}

// IsLast reports whether the round is the "last" sentinel.
func (r Round) IsLast() bool {
	return r.sentinel == RoundLast
}

// Number returns the numeric round, or 0 for sentinels.
func (r Round) Number() int {
	return r.number
}

// ForResults maps "current" to "last"; race results have no "current".
func (r Round) ForResults() Round {
	if r.IsCurrent() {
		return LastRound()
	}
	return r
}

// String renders the round the way upstream URLs and cache keys expect.
func (r Round) String() string {
	if r.sentinel != "" {
		return r.sentinel
	}
	if r.number <= 0 {
		return RoundCurrent
	}
	return strconv.Itoa(r.number)
}
