package grounding

import (
	"fmt"
	"strings"

	"github.com/Yates-Labs/beacon/internal/document"
)

const untitledSource = "Document"

// Bundle is the deduplicated context for one request. SourceURLs,
// SourceTitles and Sources are parallel and in first-seen order.
type Bundle struct {
	Content      string
	SourceInfo   []string
	SourceURLs   []string
	SourceTitles []string
	Sources      []string
}

// SourceInfoText joins the citation lines for prompt construction.
func (b Bundle) SourceInfoText() string {
	return strings.Join(b.SourceInfo, "\n")
}

// Assemble builds a Bundle from matches in input order. Every body is kept;
// only the first match for a given URL contributes a citation.
func Assemble(matches []document.Match) Bundle {
	var (
		b      Bundle
		bodies []string
		seen   = make(map[string]struct{})
	)

	for _, m := range matches {
		header, body, _ := document.ParseHeader(m.Content)
		if body = strings.TrimSpace(body); body != "" {
			bodies = append(bodies, body)
		}

		url := header.SourceURL
		if url == "" {
			url = strings.TrimSpace(m.Metadata.SourceURL)
		}
		if url == "" {
			continue
		}
		if _, dup := seen[url]; dup {
			continue
		}
		seen[url] = struct{}{}

		title := header.Title
		if title == "" {
			title = strings.TrimSpace(m.Metadata.Title)
		}
		if title == "" {
			title = untitledSource
		}

		b.SourceInfo = append(b.SourceInfo, fmt.Sprintf("Source: %s - %s", title, url))
		b.SourceURLs = append(b.SourceURLs, url)
		b.SourceTitles = append(b.SourceTitles, title)
		b.Sources = append(b.Sources, m.Metadata.Source)
	}

	b.Content = strings.Join(bodies, "\n\n")
	return b
}
