package narrative

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// ThrottledLLM spaces out calls to the wrapped LLM with a token bucket.
type ThrottledLLM struct {
	next    LLM
	limiter *rate.Limiter
}

// NewThrottledLLM wraps next. A non-positive rate returns next unchanged.
func NewThrottledLLM(next LLM, perSecond float64) LLM {
	if perSecond <= 0 {
		return next
	}
	return &ThrottledLLM{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
	}
}

// Generate waits for a token, then delegates.
func (t *ThrottledLLM) Generate(ctx context.Context, messages []Message, opts Options) (string, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: rate limiter: %w", ErrLLMFailed, err)
	}
	return t.next.Generate(ctx, messages, opts)
}
