// Package dialogue routes a chat message to a canned reply, a decline, or a
// grounded answer built from retrieved sources.
package dialogue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Yates-Labs/beacon/internal/citation"
	"github.com/Yates-Labs/beacon/internal/grounding"
	"github.com/Yates-Labs/beacon/internal/narrative"
)

// Retriever finds indexed material for a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string) (grounding.Result, error)
}

// Generator produces an answer from assembled messages.
type Generator interface {
	Generate(ctx context.Context, messages []narrative.Message) (*narrative.Completion, error)
}

// Option customizes a Router.
type Option func(*Router)

// WithHistoryTurns sets how many prior turns reach the model.
func WithHistoryTurns(n int) Option {
	return func(r *Router) { r.historyTurns = n }
}

// Router is the per-request state machine. It holds no per-request state
// and is safe for concurrent use.
type Router struct {
	retriever    Retriever
	gate         *grounding.Gate
	generator    Generator
	historyTurns int
}

// NewRouter wires the collaborators of the answer path.
func NewRouter(retriever Retriever, gate *grounding.Gate, generator Generator, opts ...Option) *Router {
	r := &Router{
		retriever:    retriever,
		gate:         gate,
		generator:    generator,
		historyTurns: narrative.DefaultHistoryTurns,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Route runs one request to a terminal state. The only error it returns is a
// *narrative.GenerationError (or the caller's context error); callers show
// ApologyMessage in that case.
func (r *Router) Route(ctx context.Context, req Request) (Outcome, error) {
	start := time.Now()
	logger := log.With().Str("component", "router").Logger()

	if kg, ok := classify(req.Message); ok {
		logger.Debug().
			Str("state", string(StateGeneralChat)).
			Str("group", string(kg.group)).
			Msg("general chat")
		return GeneralChat{Text: kg.reply, Group: kg.group}, nil
	}

	logger.Debug().Str("state", string(StateRetrieve)).Msg("retrieving")

	result, err := r.retriever.Retrieve(ctx, req.Message)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Warn().Err(err).Msg("retrieval failed, treating as no matches")
		return OutOfScope{Text: DeclineMessage, Reason: ReasonRetrievalFailed}, nil
	}

	matches, ok := result.(grounding.Matches)
	if !ok || len(matches.Items) == 0 {
		logger.Debug().Str("state", string(StateOutOfScope)).Msg("no matches")
		return OutOfScope{Text: DeclineMessage, Reason: ReasonNoMatches}, nil
	}

	if !r.gate.Admit(matches.Items) {
		logger.Debug().
			Str("state", string(StateOutOfScope)).
			Int("matches", len(matches.Items)).
			Float32("top_score", matches.Items[0].Score).
			Msg("relevance gate closed")
		return OutOfScope{Text: DeclineMessage, Reason: ReasonGateClosed}, nil
	}

	bundle := grounding.Assemble(matches.Items)
	messages := narrative.BuildMessages(req.Message, bundle, req.History, r.historyTurns)

	completion, err := r.generator.Generate(ctx, messages)
	if err != nil {
		var genErr *narrative.GenerationError
		if !errors.As(err, &genErr) {
			genErr = &narrative.GenerationError{Err: err}
		}
		logger.Error().Err(genErr).Msg("generation failed")
		return nil, genErr
	}
	if completion == nil {
		return nil, &narrative.GenerationError{Err: fmt.Errorf("nil completion")}
	}

	logger.Debug().
		Str("state", string(StateAnswer)).
		Int("sources", len(bundle.SourceURLs)).
		Dur("elapsed", time.Since(start)).
		Msg("answered")

	return Grounded{
		Text:         citation.Normalize(completion.Text),
		Sources:      bundle.Sources,
		SourceURLs:   bundle.SourceURLs,
		SourceTitles: bundle.SourceTitles,
		Model:        completion.Model,
	}, nil
}
