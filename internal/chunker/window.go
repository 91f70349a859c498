package chunker

import "unicode"

// slide cuts an oversize section into windows. Each window after the first
// begins with the last OverlapSize characters of the one before it.
func (c *Chunker) slide(section []rune) []string {
	var (
		out    []string
		cursor int
		window = c.cfg.MaxChunkSize + c.cfg.LookAhead
	)
	for cursor < len(section) {
		if len(section)-cursor < window {
			out = append(out, string(section[cursor:]))
			break
		}

		cut := c.cut(section, cursor)
		out = append(out, string(section[cursor:cut]))

		next := cut - c.cfg.OverlapSize
		if next <= cursor {
			next = cut
		}
		cursor = next
	}
	return out
}

// cut picks the end of the window starting at cursor. A boundary is only
// taken if the chunk it produces is longer than the overlap, which keeps the
// cursor moving forward.
func (c *Chunker) cut(section []rune, cursor int) int {
	minCut := cursor + c.cfg.OverlapSize + 1

	limit := cursor + c.cfg.MaxChunkSize + c.cfg.LookAhead
	if limit > len(section) {
		limit = len(section)
	}
	if end := lastSentenceEnd(section, cursor, limit); end >= minCut {
		return end
	}

	hard := cursor + c.cfg.MaxChunkSize
	if ws := lastWhitespaceStart(section, cursor, hard); ws >= minCut {
		return ws
	}
	return hard
}

// lastSentenceEnd returns the end of the last "[.!?] + whitespace" run inside
// text[from:to], or -1.
func lastSentenceEnd(text []rune, from, to int) int {
	for i := to - 2; i >= from; i-- {
		if !isSentencePunct(text[i]) || !unicode.IsSpace(text[i+1]) {
			continue
		}
		end := i + 1
		for end < to && unicode.IsSpace(text[end]) {
			end++
		}
		return end
	}
	return -1
}

// lastWhitespaceStart returns where the last whitespace run inside
// text[from:to] begins, or -1.
func lastWhitespaceStart(text []rune, from, to int) int {
	for i := to - 1; i >= from; i-- {
		if !unicode.IsSpace(text[i]) {
			continue
		}
		for i > from && unicode.IsSpace(text[i-1]) {
			i--
		}
		return i
	}
	return -1
}

func isSentencePunct(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
