package mcpserver

import (
	"context"
	"errors"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"github.com/Yates-Labs/beacon/internal/dialogue"
	"github.com/Yates-Labs/beacon/internal/narrative"
)

const defaultSearchLimit = 5

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string              `json:"question" jsonschema:"a question about accessibility in education"`
	History  []narrative.Message `json:"history,omitempty" jsonschema:"earlier turns, oldest first"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer        string   `json:"answer"`
	SourceURLs    []string `json:"source_urls,omitempty"`
	SourceTitles  []string `json:"source_titles,omitempty"`
	IsGeneralChat bool     `json:"is_general_chat"`
}

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query    string `json:"query" jsonschema:"text to search the accessibility corpus for"`
	Limit    int    `json:"limit,omitempty" jsonschema:"maximum number of results (default 5)"`
	Category string `json:"category,omitempty" jsonschema:"restrict results to one corpus category"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResult `json:"results"`
	Count   int            `json:"count"`
}

// SearchResult is one indexed chunk.
type SearchResult struct {
	Title     string  `json:"title,omitempty"`
	SourceURL string  `json:"source_url,omitempty"`
	Category  string  `json:"category"`
	Source    string  `json:"source"`
	Score     float64 `json:"score"`
	Content   string  `json:"content"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question about accessibility in education from the curated corpus, with source links",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Search the accessibility corpus and return the closest passages",
	}, s.handleSearch)
}

func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	if strings.TrimSpace(input.Question) == "" {
		return nil, AskOutput{}, errors.New("question is required")
	}

	// Chat still returns a displayable apology when generation fails.
	resp, err := s.svc.Chat(ctx, dialogue.Request{Message: input.Question, History: input.History})
	if err != nil {
		if ctx.Err() != nil {
			return nil, AskOutput{}, ctx.Err()
		}
		log.Warn().Err(err).Str("component", "mcp").Msg("ask failed")
	}
	return nil, AskOutput{
		Answer:        resp.Response,
		SourceURLs:    resp.SourceURLs,
		SourceTitles:  resp.SourceTitles,
		IsGeneralChat: resp.IsGeneralChat,
	}, nil
}

func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	matches, err := s.svc.Search(ctx, input.Query, limit, input.Category)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	out := SearchOutput{Results: make([]SearchResult, len(matches)), Count: len(matches)}
	for i, m := range matches {
		out.Results[i] = SearchResult{
			Title:     m.Metadata.Title,
			SourceURL: m.Metadata.SourceURL,
			Category:  m.Metadata.Category,
			Source:    m.Metadata.Source,
			Score:     float64(m.Score),
			Content:   m.Content,
		}
	}
	return nil, out, nil
}
