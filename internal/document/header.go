package document

import "strings"

const (
	titlePrefix     = "Title:"
	sourceURLPrefix = "Source URL:"
	retrievedPrefix = "Retrieved:"
	contentMarker   = "Content:"
)

// Header is the optional block at the top of a corpus file:
//
//	Title: Assistive technology in the classroom
//	Source URL: https://example.org/at
//	Retrieved: 2024-05-01
//
//	Content:
//	...
type Header struct {
	Title     string
	SourceURL string
}

// SplitHeader separates a leading header block from the text after its
// Content: marker. Only blank lines and Title:, Source URL: and Retrieved:
// lines may precede the marker. Anything else means the text has no header:
// the zero Header and the unchanged text are returned. The remainder keeps
// its original layout.
func SplitHeader(text string) (Header, string, bool) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	var h Header
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
		case trimmed == contentMarker:
			return h, strings.Join(lines[i+1:], "\n"), true
		case strings.HasPrefix(trimmed, titlePrefix):
			if h.Title == "" {
				h.Title = strings.TrimSpace(strings.TrimPrefix(trimmed, titlePrefix))
			}
		case strings.HasPrefix(trimmed, sourceURLPrefix):
			if h.SourceURL == "" {
				h.SourceURL = strings.TrimSpace(strings.TrimPrefix(trimmed, sourceURLPrefix))
			}
		case strings.HasPrefix(trimmed, retrievedPrefix):
		default:
			return Header{}, text, false
		}
	}
	return Header{}, text, false
}

// ParseHeader is SplitHeader with blank lines dropped from the body.
func ParseHeader(text string) (Header, string, bool) {
	h, rest, found := SplitHeader(text)
	if !found {
		return h, rest, false
	}

	lines := strings.Split(rest, "\n")
	body := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		body = append(body, line)
	}
	return h, strings.Join(body, "\n"), true
}
