// Package evidence adapts search-capable LLM providers into claim evidence
// lookups for the source verifier.
package evidence

import (
	"context"
	"fmt"

	"github.com/jonathan/trustcheck/internal/types"
)

// Filters narrow an evidence search.
type Filters struct {
	Region      types.Region
	SourceTypes []types.SourceType
	// Domains is the search allowlist, see credibility.Assessor.DomainFilters
	Domains []string
}

// Citation is a source the provider attached to its answer.
type Citation struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
	Text  string `json:"text,omitempty"`
}

// Response is a provider's answer to a single claim. RawText is the
// provider's free-text body, which may or may not hold structured JSON.
type Response struct {
	Citations []Citation `json:"citations"`
	RawText   string     `json:"rawText"`
}

// HasCitations reports whether the response carries at least one usable source.
func (r *Response) HasCitations() bool {
	if r == nil {
		return false
	}
	for _, c := range r.Citations {
		if c.URL != "" {
			return true
		}
	}
	return false
}

// Provider looks up evidence for one claim.
type Provider interface {
	Verify(ctx context.Context, claim string, filters Filters) (*Response, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, claim string, filters Filters) (*Response, error)

// Verify implements Provider.
func (f ProviderFunc) Verify(ctx context.Context, claim string, filters Filters) (*Response, error) {
	return f(ctx, claim, filters)
}

// ProviderError is returned when an evidence provider call fails.
type ProviderError struct {
	Provider string
	Message  string
	Cause    error
}

func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("evidence provider %s: %s: %v", e.Provider, e.Message, e.Cause)
	}
	return fmt.Sprintf("evidence provider %s: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}
