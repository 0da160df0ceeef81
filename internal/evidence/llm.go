package evidence

import (
	"context"

	"github.com/jonathan/trustcheck/internal/llm"
	"github.com/jonathan/trustcheck/internal/prompts"
	"github.com/jonathan/trustcheck/internal/types"
)

// LLMProvider answers claims with a search-grounded LLM.
type LLMProvider struct {
	client llm.Client
	tier   llm.ModelTier
	name   string
}

// NewLLMProvider wraps client. name identifies the provider in errors and logs.
func NewLLMProvider(client llm.Client, name string) *LLMProvider {
	return &LLMProvider{client: client, tier: llm.TierStandard, name: name}
}

// WithTier returns a copy of the provider that searches with tier.
func (p *LLMProvider) WithTier(tier llm.ModelTier) *LLMProvider {
	cp := *p
	cp.tier = tier
	return &cp
}

// Verify implements Provider.
func (p *LLMProvider) Verify(ctx context.Context, claim string, filters Filters) (*Response, error) {
	req, err := BuildSearchRequest(claim, filters)
	if err != nil {
		return nil, &ProviderError{Provider: p.name, Message: "failed to build prompt", Cause: err}
	}
	req.Tier = p.tier

	result, err := p.client.Search(ctx, req)
	if err != nil {
		return nil, &ProviderError{Provider: p.name, Message: "search failed", Cause: err}
	}

	resp := &Response{RawText: result.Text}
	for _, c := range result.Citations {
		resp.Citations = append(resp.Citations, Citation{URL: c.URL, Title: c.Title, Text: c.Text})
	}
	return resp, nil
}

// BuildSearchRequest renders the verification prompts for one claim.
func BuildSearchRequest(claim string, filters Filters) (llm.SearchRequest, error) {
	system, err := prompts.Get(prompts.VerificationFile, "system")
	if err != nil {
		return llm.SearchRequest{}, err
	}

	focusKey := "region-global"
	if filters.Region == types.RegionNigeria {
		focusKey = "region-nigeria"
	}
	focus, err := prompts.Get(prompts.VerificationFile, focusKey)
	if err != nil {
		return llm.SearchRequest{}, err
	}

	prompt, err := prompts.Render(prompts.VerificationFile, "claim", map[string]string{
		"Claim":       claim,
		"RegionFocus": focus,
	})
	if err != nil {
		return llm.SearchRequest{}, err
	}

	return llm.SearchRequest{System: system, Prompt: prompt, Domains: filters.Domains}, nil
}
