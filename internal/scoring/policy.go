// Package scoring combines every verification signal into the final trust score.
package scoring

import (
	"fmt"
	"math"
)

// Weights are the per-signal weights of the default weighted path.
type Weights struct {
	SourceVerification float64 `json:"sourceVerification"`
	SourceCredibility  float64 `json:"sourceCredibility"`
	FactCheck          float64 `json:"factCheck"`
	Sentiment          float64 `json:"sentiment"`
	Classification     float64 `json:"classification"`
}

// Sum returns the total weight.
func (w Weights) Sum() float64 {
	return w.SourceVerification + w.SourceCredibility + w.FactCheck + w.Sentiment + w.Classification
}

// Policy holds every threshold and weight the calculator uses.
type Policy struct {
	// SanityCap is the ceiling applied when a sanity violation is present
	SanityCap int `json:"sanityCap"`

	// NewsThreshold is the credibility a news domain must exceed to take the established-news path
	NewsThreshold int `json:"newsThreshold"`
	// NewsFloor is the minimum baseline on the established-news path
	NewsFloor int `json:"newsFloor"`

	PositiveSentiment int     `json:"positiveSentiment"`
	NegativeSentiment int     `json:"negativeSentiment"`
	PositiveFactor    float64 `json:"positiveFactor"`
	NegativeFactor    float64 `json:"negativeFactor"`
	VerifiedFactor    float64 `json:"verifiedFactor"`
	ConflictFactor    float64 `json:"conflictFactor"`

	// NoSourcesCap and NoSourcesDefault bound factual content nobody corroborated
	NoSourcesCap     int `json:"noSourcesCap"`
	NoSourcesDefault int `json:"noSourcesDefault"`

	MinScore int `json:"minScore"`
	MaxScore int `json:"maxScore"`

	FactualWeights Weights `json:"factualWeights"`
	DefaultWeights Weights `json:"defaultWeights"`
}

// DefaultPolicy returns the stock scoring policy.
func DefaultPolicy() Policy {
	return Policy{
		SanityCap:         10,
		NewsThreshold:     60,
		NewsFloor:         60,
		PositiveSentiment: 70,
		NegativeSentiment: 30,
		PositiveFactor:    1.1,
		NegativeFactor:    0.9,
		VerifiedFactor:    1.1,
		ConflictFactor:    0.8,
		NoSourcesCap:      30,
		NoSourcesDefault:  15,
		MinScore:          5,
		MaxScore:          95,
		FactualWeights: Weights{
			SourceVerification: 0.35,
			SourceCredibility:  0.25,
			FactCheck:          0.20,
			Sentiment:          0.10,
			Classification:     0.10,
		},
		DefaultWeights: Weights{
			SourceVerification: 0.20,
			SourceCredibility:  0.15,
			FactCheck:          0.35,
			Sentiment:          0.15,
			Classification:     0.15,
		},
	}
}

// Validate checks that bounds are ordered and each weight set sums to 1.
func (p Policy) Validate() error {
	if p.MinScore < 0 || p.MaxScore > 100 || p.MinScore > p.MaxScore {
		return fmt.Errorf("scoring policy: score bounds [%d,%d] invalid", p.MinScore, p.MaxScore)
	}
	if p.SanityCap < 0 || p.SanityCap > 100 {
		return fmt.Errorf("scoring policy: sanity cap %d out of range [0,100]", p.SanityCap)
	}
	if p.NegativeSentiment > p.PositiveSentiment {
		return fmt.Errorf("scoring policy: negative sentiment threshold %d above positive %d", p.NegativeSentiment, p.PositiveSentiment)
	}
	for name, w := range map[string]Weights{"factual": p.FactualWeights, "default": p.DefaultWeights} {
		if math.Abs(w.Sum()-1) > 0.001 {
			return fmt.Errorf("scoring policy: %s weights sum to %.3f, want 1", name, w.Sum())
		}
	}
	return nil
}
