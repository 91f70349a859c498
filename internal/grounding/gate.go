package grounding

import (
	"errors"
	"fmt"

	"github.com/Yates-Labs/beacon/internal/document"
)

// Policy selects how strict the relevance gate is.
type Policy string

const (
	// PolicyPermissive admits when any match scores above the threshold.
	PolicyPermissive Policy = "permissive"
	// PolicyCorroborated also requires that match to touch MinBuckets topic buckets.
	PolicyCorroborated Policy = "corroborated"
)

const (
	DefaultThreshold  = 0.6
	DefaultMinBuckets = 2
)

var ErrInvalidGate = errors.New("invalid relevance gate configuration")

// GateConfig configures a Gate.
type GateConfig struct {
	Policy     Policy       `yaml:"policy"`
	Threshold  float32      `yaml:"threshold"`
	MinBuckets int          `yaml:"min_buckets"`
	Topics     TopicBuckets `yaml:"topics"`
}

// DefaultGateConfig returns a permissive gate at 0.6 with the built-in topics.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		Policy:     PolicyPermissive,
		Threshold:  DefaultThreshold,
		MinBuckets: DefaultMinBuckets,
		Topics:     DefaultTopicBuckets(),
	}
}

// Validate rejects unknown policies and bucket counts outside 1..3.
func (c GateConfig) Validate() error {
	switch c.Policy {
	case PolicyPermissive, PolicyCorroborated:
	default:
		return fmt.Errorf("%w: unknown policy %q", ErrInvalidGate, c.Policy)
	}
	if c.Policy == PolicyCorroborated && (c.MinBuckets < 1 || c.MinBuckets > 3) {
		return fmt.Errorf("%w: min_buckets must be between 1 and 3, got %d", ErrInvalidGate, c.MinBuckets)
	}
	return nil
}

// Gate decides whether retrieved matches are sufficient grounding.
// A closed gate is an outcome, not an error.
type Gate struct {
	cfg     GateConfig
	matcher *topicMatcher
}

// NewGate compiles the topic vocabulary. Empty topics fall back to the defaults.
func NewGate(cfg GateConfig) (*Gate, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Topics.empty() {
		cfg.Topics = DefaultTopicBuckets()
	}
	m, err := newTopicMatcher(cfg.Topics)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGate, err)
	}
	return &Gate{cfg: cfg, matcher: m}, nil
}

// Threshold returns the configured score threshold.
func (g *Gate) Threshold() float32 { return g.cfg.Threshold }

// Admit applies the gate with the configured threshold.
func (g *Gate) Admit(matches []document.Match) bool {
	return g.AdmitWithThreshold(matches, g.cfg.Threshold)
}

// AdmitWithThreshold applies the gate with an explicit threshold.
func (g *Gate) AdmitWithThreshold(matches []document.Match, threshold float32) bool {
	for _, m := range matches {
		if m.Score <= threshold {
			continue
		}
		if g.cfg.Policy == PolicyPermissive {
			return true
		}
		if g.matcher.hits(m.Content) >= g.cfg.MinBuckets {
			return true
		}
	}
	return false
}
