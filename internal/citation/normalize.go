// Package citation cleans up source references in generated answers so each
// cited URL appears once and bare "visit" URLs become markdown links.
package citation

import (
	"regexp"
	"strings"
)

const (
	// maxPasses bounds the fixed-point loop in Normalize.
	maxPasses = 16

	visitPrefix      = "For more information, visit: "
	urlBoundaryChars = `[\s.,;:!?)\]}]`
)

var (
	// Brackets end a URL so "[u](u)" yields two URLs; one balanced
	// parenthetical is allowed inside a path.
	urlPattern    = regexp.MustCompile(`https?://[^\s()\[\]"'<>]+(?:\([^\s()]*\)[^\s()\[\]"'<>]*)*`)
	trailingPunct = regexp.MustCompile(`[.,;:)\]}]+$`)
	visitPattern  = regexp.MustCompile(`For more information, visit:\s*(https?://[^\s]+)`)
)

// Normalize deduplicates and formats source links in text. It never fails;
// text without URLs is returned unchanged. Normalize(Normalize(x)) equals
// Normalize(x).
func Normalize(text string) string {
	for i := 0; i < maxPasses; i++ {
		next := normalizeOnce(text)
		if next == text {
			return text
		}
		text = next
	}
	return text
}

func normalizeOnce(text string) string {
	for _, u := range duplicates(text) {
		text = collapseDuplicate(text, u)
	}
	return linkVisitURLs(text)
}

// Canonical strips trailing sentence punctuation from a URL.
func Canonical(url string) string {
	return trailingPunct.ReplaceAllString(url, "")
}

// ExtractURLs returns every URL-like substring in text, in order.
func ExtractURLs(text string) []string {
	return urlPattern.FindAllString(text, -1)
}

// duplicates returns canonical URLs that occur more than once, in first-seen order.
func duplicates(text string) []string {
	counts := make(map[string]int)
	var order []string
	for _, raw := range ExtractURLs(text) {
		u := Canonical(raw)
		if u == "" {
			continue
		}
		if counts[u] == 0 {
			order = append(order, u)
		}
		counts[u]++
	}

	var dups []string
	for _, u := range order {
		if counts[u] > 1 {
			dups = append(dups, u)
		}
	}
	return dups
}

// collapseDuplicate removes repetitions of u that directly follow a markdown
// link to u: "](u) (u)" and "](u) u" both become "](u)".
func collapseDuplicate(text, u string) string {
	q := regexp.QuoteMeta(u)
	link := "](" + u + ")"

	parenRepeat := regexp.MustCompile(`\]\(` + q + `\)\s*\(\s*` + q + `[.,;:]*\s*\)`)
	bareRepeat := regexp.MustCompile(`\]\(` + q + `\)\s*` + q + `(` + urlBoundaryChars + `|$)`)

	for {
		next := parenRepeat.ReplaceAllLiteralString(text, link)
		next = bareRepeat.ReplaceAllStringFunc(next, func(m string) string {
			sub := bareRepeat.FindStringSubmatch(m)
			return link + sub[1]
		})
		if next == text {
			return text
		}
		text = next
	}
}

// linkVisitURLs turns "For more information, visit: URL" into a markdown link,
// keeping trailing punctuation outside the link.
func linkVisitURLs(text string) string {
	return visitPattern.ReplaceAllStringFunc(text, func(m string) string {
		raw := visitPattern.FindStringSubmatch(m)[1]
		u := Canonical(raw)
		if u == "" || !strings.Contains(u, "://") {
			return m
		}
		return visitPrefix + "[" + u + "](" + u + ")" + raw[len(u):]
	})
}
