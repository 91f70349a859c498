package corpus

import (
	"context"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Yates-Labs/beacon/internal/document"
)

// Walk reads every supported file below root in lexical order. Files that
// cannot be read, or that have no body once the header is removed, are
// reported as IngestionErrors and skipped. Hidden files and directories and
// unsupported extensions are ignored.
func Walk(ctx context.Context, root string) ([]Document, []*IngestionError) {
	var (
		docs []Document
		errs []*IngestionError
	)

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			errs = append(errs, &IngestionError{Path: path, Err: err})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path != root && hidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !Supported(path) {
			log.Debug().Str("component", "corpus").Str("path", path).Msg("skipping unsupported file")
			return nil
		}

		doc, err := ReadFile(root, path)
		if err != nil {
			errs = append(errs, &IngestionError{Path: path, Err: err})
			return nil
		}
		docs = append(docs, doc)
		return nil
	})
	if walkErr != nil {
		errs = append(errs, &IngestionError{Path: root, Err: walkErr})
	}

	log.Info().
		Str("component", "corpus").
		Str("root", root).
		Int("documents", len(docs)).
		Int("errors", len(errs)).
		Msg("corpus walked")
	return docs, errs
}

// ReadFile loads a single corpus file. root determines the category and the
// relative source path.
func ReadFile(root, file string) (Document, error) {
	raw, err := os.ReadFile(file)
	if err != nil {
		return Document{}, err
	}
	doc, err := Parse(SourceOf(root, file), raw)
	if err != nil {
		return Document{}, err
	}
	doc.Path = file
	return doc, nil
}

// SourceOf returns the slash-separated path of file below root, or its base
// name when file is not below root.
func SourceOf(root, file string) string {
	rel, err := filepath.Rel(root, file)
	if err != nil {
		rel = filepath.Base(file)
	}
	return filepath.ToSlash(rel)
}

// Parse builds a Document from file content. source is the slash-separated
// path below the corpus root; its extension selects the reader.
func Parse(source string, raw []byte) (Document, error) {
	read, err := readerFor(source)
	if err != nil {
		return Document{}, err
	}

	header, rest, found := splitHeader(string(raw))
	body, markupTitle, err := read([]byte(rest))
	if err != nil {
		return Document{}, err
	}
	if !found {
		// Header lines may sit inside markup, e.g. in an HTML body.
		var inner document.Header
		inner, body, _ = splitHeader(body)
		header = merge(header, inner)
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return Document{}, ErrEmptyDocument
	}

	title := header.Title
	if title == "" {
		title = markupTitle
	}
	return Document{
		Path:      source,
		Source:    source,
		Category:  category(source),
		Filename:  path.Base(source),
		Title:     title,
		SourceURL: header.SourceURL,
		Body:      body,
	}, nil
}

// splitHeader separates the leading Title/Source URL header from the text
// that follows the Content: marker. The remainder keeps its original layout.
func splitHeader(text string) (document.Header, string, bool) {
	return document.SplitHeader(text)
}

func merge(a, b document.Header) document.Header {
	if a.Title == "" {
		a.Title = b.Title
	}
	if a.SourceURL == "" {
		a.SourceURL = b.SourceURL
	}
	return a
}

// category is the first segment of a slash-separated source path.
func category(source string) string {
	parts := strings.Split(source, "/")
	if len(parts) < 2 {
		return UncategorizedCategory
	}
	return parts[0]
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}
