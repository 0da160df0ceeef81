// Package analysis runs the independent content analyses that feed the trust
// score alongside source verification: sentiment and toxicity, third-party
// fact-checks, and factual/opinion classification.
//
// Every analysis degrades to an insufficient-data result with confidence 0
// rather than inventing a value.
package analysis

import (
	"errors"
	"fmt"

	"github.com/jonathan/trustcheck/internal/types"
)

// ErrUnavailable is returned when an analysis has no backing provider.
var ErrUnavailable = errors.New("analysis provider not configured")

// ProviderError is returned when an external analysis provider fails.
type ProviderError struct {
	Analysis string
	Message  string
	Cause    error
}

func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s analysis: %s: %v", e.Analysis, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s analysis: %s", e.Analysis, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// InsufficientSentiment is the sentiment result used when analysis failed.
func InsufficientSentiment() types.SentimentResult {
	return types.SentimentResult{
		Score:      50,
		Label:      types.SentimentNeutral,
		Confidence: 0,
		Toxicity:   types.ToxicityUnavailable,
	}
}

// InsufficientFactCheck is the fact-check result used when no fact-check was possible.
func InsufficientFactCheck() types.FactCheckResult {
	return types.FactCheckResult{
		Score:      50,
		Claims:     []types.FactCheckedClaim{},
		Sources:    []string{},
		Summary:    "Insufficient data: no independent fact-checks available",
		Confidence: 0,
		Verified:   false,
	}
}

// InsufficientClassification is the classification used when analysis failed.
func InsufficientClassification() types.ContentClassification {
	return types.ContentClassification{
		Type:       types.ClassificationMixed,
		Confidence: 0,
		Language:   "unknown",
	}
}
