package analysis

import (
	"context"
	"html"
	"log/slog"
	"math"
	"regexp"
	"strings"

	"github.com/jonreiter/govader"
	"github.com/microcosm-cc/bluemonday"
	"github.com/russross/blackfriday/v2"

	"github.com/jonathan/trustcheck/internal/types"
)

// LabelThreshold is the VADER compound magnitude at which text stops being neutral.
const LabelThreshold = 0.20

var (
	markdownLinkPattern = regexp.MustCompile(`\[(.*?)\]\((https?:\/\/[^\s\)]+)\)`)
	bareURLPattern      = regexp.MustCompile(`https?://\S+|www\.\S+`)
)

// ToxicityScorer rates text toxicity between 0 and 1.
type ToxicityScorer interface {
	Toxicity(ctx context.Context, text string) (float64, error)
}

// SentimentAnalyzer scores polarity with VADER and optionally toxicity with
// an external scorer.
type SentimentAnalyzer struct {
	vader    *govader.SentimentIntensityAnalyzer
	toxicity ToxicityScorer
	strip    *bluemonday.Policy
	logger   *slog.Logger
}

// NewSentimentAnalyzer creates an analyzer. toxicity may be nil.
func NewSentimentAnalyzer(toxicity ToxicityScorer) *SentimentAnalyzer {
	return &SentimentAnalyzer{
		vader:    govader.NewSentimentIntensityAnalyzer(),
		toxicity: toxicity,
		strip:    bluemonday.StrictPolicy(),
		logger:   slog.With(slog.String("component", "sentiment")),
	}
}

// Analyze maps the VADER compound score onto 0-100 with 50 as neutral.
// A toxicity failure only leaves Toxicity unavailable.
func (a *SentimentAnalyzer) Analyze(ctx context.Context, text string) (types.SentimentResult, error) {
	if err := ctx.Err(); err != nil {
		return InsufficientSentiment(), err
	}

	plain := PlainText(text, a.strip)
	if plain == "" {
		return InsufficientSentiment(), &ProviderError{Analysis: "sentiment", Message: "no text to analyze"}
	}

	scores := a.vader.PolarityScores(plain)
	compound := scores.Compound

	label := types.SentimentNeutral
	confidence := scores.Neutral
	switch {
	case compound >= LabelThreshold:
		label = types.SentimentPositive
		confidence = math.Abs(compound)
	case compound <= -LabelThreshold:
		label = types.SentimentNegative
		confidence = math.Abs(compound)
	}

	result := types.SentimentResult{
		Score:      types.ClampScore(int(math.Round((compound + 1) * 50))),
		Label:      label,
		Confidence: math.Round(confidence*100) / 100,
		Toxicity:   types.ToxicityUnavailable,
	}

	if a.toxicity != nil {
		tox, err := a.toxicity.Toxicity(ctx, plain)
		if err != nil {
			a.logger.Warn("[Sentiment] toxicity scoring failed", slog.String("error", err.Error()))
		} else {
			result.Toxicity = types.ClampScore(int(math.Round(tox * 100)))
		}
	}
	return result, nil
}

// PlainText renders markdown, strips the resulting markup and removes links
// so that URLs do not skew lexical scores.
func PlainText(input string, policy *bluemonday.Policy) string {
	rendered := blackfriday.Run([]byte(input), blackfriday.WithNoExtensions())
	text := html.UnescapeString(policy.Sanitize(string(rendered)))
	text = markdownLinkPattern.ReplaceAllString(text, "$1")
	text = bareURLPattern.ReplaceAllString(text, "")
	return strings.Join(strings.Fields(text), " ")
}
