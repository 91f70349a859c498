// Package corpus reads the curated document tree that feeds the index.
// Documents live one directory below the corpus root, the directory name
// being the category:
//
//	data/categories/
//	  assistive-tech/screen-readers.txt
//	  learning-disabilities/dyslexia.md
//	  policy/ada-overview.html
package corpus

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/Yates-Labs/beacon/internal/document"
)

var (
	ErrEmptyDocument = errors.New("document has no content")
	ErrUnsupported   = errors.New("unsupported file type")
)

// UncategorizedCategory is assigned to files placed directly in the root.
const UncategorizedCategory = "uncategorized"

// Document is one corpus file with its header parsed and its body reduced
// to plain text.
type Document struct {
	Path      string `json:"path"`
	Source    string `json:"source"` // slash-separated path relative to the root
	Category  string `json:"category"`
	Filename  string `json:"filename"`
	Title     string `json:"title,omitempty"`
	SourceURL string `json:"source_url,omitempty"`
	Body      string `json:"body"`
}

// Metadata returns the chunk metadata shared by every chunk of d.
func (d Document) Metadata() document.Metadata {
	return document.Metadata{
		Category:  d.Category,
		Filename:  d.Filename,
		Source:    d.Source,
		Title:     d.Title,
		SourceURL: d.SourceURL,
	}
}

// IngestionError records a file that could not be turned into a Document.
// Walking continues past it.
type IngestionError struct {
	Path string
	Err  error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("ingest %s: %v", filepath.ToSlash(e.Path), e.Err)
}

func (e *IngestionError) Unwrap() error { return e.Err }
