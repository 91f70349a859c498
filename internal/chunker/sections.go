package chunker

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	// Letters, marks, digits, underscore, whitespace and basic punctuation survive.
	disallowedRun = regexp.MustCompile(`[^\p{L}\p{M}\p{N}_\s.,!?;:()\-'"]+`)
	// Blank lines, sentence punctuation before a capital, newline before a capital.
	sectionBreak = regexp.MustCompile(`\n{2,}|[.!?]\s+\p{Lu}|(?:\r?\n|\r)\p{Lu}`)
)

func normalize(text string) string {
	text = norm.NFKC.String(text)
	text = whitespaceRun.ReplaceAllString(text, " ")
	text = disallowedRun.ReplaceAllString(text, " ")
	text = whitespaceRun.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// splitSections cuts text at semantic boundaries. Sentence punctuation stays
// with the section it ends; the capital letter starts the next one.
func splitSections(text string) []string {
	var sections []string
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			sections = append(sections, s)
		}
	}

	start := 0
	for _, loc := range sectionBreak.FindAllStringIndex(text, -1) {
		end, next := loc[0], loc[1]
		switch text[loc[0]] {
		case '.', '!', '?':
			end = loc[0] + 1
			next = capitalStart(text, loc[1])
		default:
			if !isNewlineOnly(text[loc[0]:loc[1]]) {
				next = capitalStart(text, loc[1])
			}
		}
		add(text[start:end])
		start = next
	}
	add(text[start:])
	return sections
}

func isNewlineOnly(s string) bool {
	return strings.Trim(s, "\r\n") == ""
}

// capitalStart returns the byte offset of the rune ending at end.
func capitalStart(text string, end int) int {
	_, size := utf8.DecodeLastRuneInString(text[:end])
	return end - size
}

// mergeSections greedily joins neighbours with single spaces while the joined
// length stays within max.
func mergeSections(sections []string, max int) []string {
	var (
		merged   []string
		group    []string
		groupLen int
	)
	for _, s := range sections {
		n := utf8.RuneCountInString(s)
		joined := n
		if len(group) > 0 {
			joined = groupLen + 1 + n
		}
		if len(group) > 0 && joined > max {
			merged = append(merged, strings.Join(group, " "))
			group = nil
			joined = n
		}
		group = append(group, s)
		groupLen = joined
	}
	if len(group) > 0 {
		merged = append(merged, strings.Join(group, " "))
	}
	return merged
}
