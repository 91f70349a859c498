// Package grounding decides whether retrieved material is good enough to
// answer from and turns it into a deduplicated, citable context bundle.
package grounding

import "github.com/Yates-Labs/beacon/internal/document"

// Result is what a retrieval produced: either NoMatches or Matches.
type Result interface {
	isResult()
}

// NoMatches means the index returned nothing for the query.
type NoMatches struct{}

// Matches holds retrieved chunks ordered by descending score.
type Matches struct {
	Items []document.Match
}

func (NoMatches) isResult() {}
func (Matches) isResult()   {}

// FromMatches wraps a search response, mapping an empty slice to NoMatches.
func FromMatches(items []document.Match) Result {
	if len(items) == 0 {
		return NoMatches{}
	}
	return Matches{Items: items}
}
