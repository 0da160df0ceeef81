package analysis

import (
	"context"
	"fmt"

	"google.golang.org/api/commentanalyzer/v1alpha1"
	"google.golang.org/api/option"
)

const toxicityAttribute = "TOXICITY"

// PerspectiveScorer rates toxicity with the Perspective comment analyzer.
type PerspectiveScorer struct {
	service *commentanalyzer.Service
}

// NewPerspectiveScorer creates a scorer authenticated with apiKey. Extra
// options are appended, which lets tests point it at a local endpoint.
func NewPerspectiveScorer(ctx context.Context, apiKey string, opts ...option.ClientOption) (*PerspectiveScorer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("perspective API key is required")
	}
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := commentanalyzer.NewService(ctx, opts...)
	if err != nil {
		return nil, &ProviderError{Analysis: "toxicity", Message: "failed to create perspective client", Cause: err}
	}
	return &PerspectiveScorer{service: svc}, nil
}

// Toxicity returns the summary TOXICITY probability.
func (p *PerspectiveScorer) Toxicity(ctx context.Context, text string) (float64, error) {
	req := &commentanalyzer.AnalyzeCommentRequest{
		Comment: &commentanalyzer.TextEntry{Text: text},
		RequestedAttributes: map[string]commentanalyzer.AttributeParameters{
			toxicityAttribute: {},
		},
		DoNotStore: true,
	}
	resp, err := p.service.Comments.Analyze(req).Context(ctx).Do()
	if err != nil {
		return 0, &ProviderError{Analysis: "toxicity", Message: "analyze request failed", Cause: err}
	}
	attr, ok := resp.AttributeScores[toxicityAttribute]
	if !ok || attr.SummaryScore == nil {
		return 0, &ProviderError{Analysis: "toxicity", Message: "response carried no toxicity score"}
	}
	return attr.SummaryScore.Value, nil
}
