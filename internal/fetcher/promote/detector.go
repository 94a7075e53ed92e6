// Package promote re-fetches pages with a headless browser when the static
// HTML looks like an empty client-rendered shell.
package promote

import (
	"bytes"
	"strings"

	"github.com/hydavinci/formula-1-schedule/internal/f1"
)

// DefaultThreshold is the body size below which script-heavy pages are promoted.
const DefaultThreshold = 2048

// Heuristic decides from a static response whether rendering is needed.
type Heuristic struct {
	BodyLengthThreshold int
	// Want lists fragments of which at least one must be present for the
	// static page to be usable. Empty disables the check.
	Want []string
}

// NewHeuristic creates a detector. A zero threshold uses DefaultThreshold.
func NewHeuristic(threshold int, want ...string) *Heuristic {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Heuristic{BodyLengthThreshold: threshold, Want: want}
}

var spaMarkers = [][]byte{
	[]byte("__next"),
	[]byte(`id="root"`),
	[]byte(`id="app"`),
	[]byte("data-reactroot"),
}

// ShouldPromote reports whether resp needs a headless fetch. Only 200
// responses are considered.
func (h *Heuristic) ShouldPromote(resp f1.FetchResponse) bool {
	if resp.StatusCode != 200 {
		return false
	}
	body := resp.Body
	if len(body) == 0 {
		return true
	}
	if h.hasWanted(body) {
		return false
	}
	if len(h.Want) > 0 {
		return true
	}
	if len(body) < h.BodyLengthThreshold && scriptDensityHigh(body) {
		return true
	}
	for _, marker := range spaMarkers {
		if bytes.Contains(body, marker) {
			return true
		}
	}
	return false
}

func (h *Heuristic) hasWanted(body []byte) bool {
	for _, w := range h.Want {
		if w != "" && bytes.Contains(body, []byte(w)) {
			return true
		}
	}
	return false
}

// scriptDensityHigh reports whether script elements cover a quarter of the body.
func scriptDensityHigh(body []byte) bool {
	lower := strings.ToLower(string(body))
	total := len(lower)
	const (
		openTag  = "<script"
		closeTag = "</script>"
	)
	covered := 0
	pos := 0
	for {
		rel := strings.Index(lower[pos:], openTag)
		if rel == -1 {
			break
		}
		start := pos + rel
		tagEnd := strings.IndexByte(lower[start:], '>')
		if tagEnd == -1 {
			// Unterminated tag: the rest of the document counts.
			covered += total - start
			break
		}
		contentStart := start + tagEnd + 1
		next := total
		if end := strings.Index(lower[contentStart:], closeTag); end != -1 {
			next = contentStart + end + len(closeTag)
		}
		covered += next - start
		pos = next
	}
	return total > 0 && covered*100/total >= 25
}
