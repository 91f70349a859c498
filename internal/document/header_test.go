package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseHeader(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantTitle string
		wantURL   string
		wantBody  string
		wantFound bool
	}{
		{
			name:      "full header",
			text:      "Title: Screen readers\nSource URL: https://example.org/sr\nRetrieved: 2024-05-01\n\nContent:\nFirst line.\n\nSecond line.",
			wantTitle: "Screen readers",
			wantURL:   "https://example.org/sr",
			wantBody:  "First line.\nSecond line.",
			wantFound: true,
		},
		{
			name:      "no header",
			text:      "Just a body of text.",
			wantBody:  "Just a body of text.",
			wantFound: false,
		},
		{
			name:      "url without title",
			text:      "Source URL: https://example.org/x\nContent:\nBody",
			wantURL:   "https://example.org/x",
			wantBody:  "Body",
			wantFound: true,
		},
		{
			name:      "crlf line endings",
			text:      "Title: T\r\nSource URL: https://example.org/t\r\nContent:\r\nBody",
			wantTitle: "T",
			wantURL:   "https://example.org/t",
			wantBody:  "Body",
			wantFound: true,
		},
		{
			name:      "content line inside the body is not a marker",
			text:      "Intro paragraph that matters a lot.\n\nContent:\nThe rest of the document.",
			wantBody:  "Intro paragraph that matters a lot.\n\nContent:\nThe rest of the document.",
			wantFound: false,
		},
		{
			name:      "source url inside the body is ignored",
			text:      "Plain text about captions.\nSource URL: https://other.example/x\nMore body.",
			wantBody:  "Plain text about captions.\nSource URL: https://other.example/x\nMore body.",
			wantFound: false,
		},
		{
			name:      "header lines without a marker",
			text:      "Title: Orphan\nSource URL: https://example.org/o\nBody without marker.",
			wantBody:  "Title: Orphan\nSource URL: https://example.org/o\nBody without marker.",
			wantFound: false,
		},
		{
			name:      "leading blank lines before the header",
			text:      "\n\nTitle: T\nContent:\nBody",
			wantTitle: "T",
			wantBody:  "Body",
			wantFound: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, body, found := ParseHeader(tt.text)
			assert.Equal(t, tt.wantTitle, h.Title)
			assert.Equal(t, tt.wantURL, h.SourceURL)
			assert.Equal(t, tt.wantBody, body)
			assert.Equal(t, tt.wantFound, found)
		})
	}
}

func TestSplitHeader_KeepsLayout(t *testing.T) {
	h, rest, found := SplitHeader("Title: T\nContent:\nFirst.\n\nSecond.")
	assert.True(t, found)
	assert.Equal(t, "T", h.Title)
	assert.Equal(t, "First.\n\nSecond.", rest)
}

func TestNewChunk_SizeCountsCharacters(t *testing.T) {
	c := NewChunk("café", Metadata{})
	assert.Equal(t, 4, c.Size)
}
