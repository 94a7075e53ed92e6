// Package extract pulls named fields out of loosely structured race pages.
// Each field has an ordered list of rules; the first rule that finds a value
// wins, and a fallback fills the gap when none do. Rule order is part of the
// output contract.
package extract

import (
	"github.com/PuerkitoBio/goquery"
)

// FallbackRule is the rule name reported when no rule matched.
const FallbackRule = "fallback"

// Rule looks for one field in a document.
type Rule struct {
	Name    string
	Extract func(doc *goquery.Document) (string, bool)
}

// Field is a named value with its rules in priority order.
type Field struct {
	Name     string
	Rules    []Rule
	Fallback func() string
}

// Resolve runs the rules in order and returns the first present value along
// with the name of the rule that produced it.
func (f Field) Resolve(doc *goquery.Document) (string, string) {
	if doc != nil {
		for _, rule := range f.Rules {
			if rule.Extract == nil {
				continue
			}
			if value, ok := rule.Extract(doc); ok {
				return value, rule.Name
			}
		}
	}
	if f.Fallback == nil {
		return "", FallbackRule
	}
	return f.Fallback(), FallbackRule
}
