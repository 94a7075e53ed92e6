package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// textNodes returns every non-blank text node in document order, skipping
// script and style content.
func textNodes(doc *goquery.Document) []string {
	var out []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			if s := strings.TrimSpace(n.Data); s != "" {
				out = append(out, s)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range doc.Nodes {
		walk(n)
	}
	return out
}

// firstText returns the first text node matching pred.
func firstText(doc *goquery.Document, pred func(string) bool) (string, bool) {
	for _, s := range textNodes(doc) {
		if pred(s) {
			return s, true
		}
	}
	return "", false
}

// collapse trims and squeezes internal whitespace.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// SlugTitle turns "/en/racing/2024/saudi-arabia.html" into "Saudi Arabia".
func SlugTitle(href string) string {
	slug := Slug(href)
	if slug == "" {
		return ""
	}
	words := strings.Split(slug, "-")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return collapse(strings.Join(words, " "))
}

// Slug returns the last path segment of href without query or extension.
func Slug(href string) string {
	if i := strings.IndexAny(href, "?#"); i >= 0 {
		href = href[:i]
	}
	href = strings.TrimRight(href, "/")
	if i := strings.LastIndex(href, "/"); i >= 0 {
		href = href[i+1:]
	}
	return strings.TrimSuffix(href, ".html")
}
