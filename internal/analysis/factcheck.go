package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"google.golang.org/api/factchecktools/v1alpha1"
	"google.golang.org/api/option"

	"github.com/jonathan/trustcheck/internal/types"
)

// Review is a published fact-check of a claim.
type Review struct {
	ClaimText string
	Publisher string
	Rating    string
	URL       string
}

// ClaimSearcher looks up published fact-checks matching a claim.
type ClaimSearcher interface {
	SearchClaims(ctx context.Context, query string) ([]Review, error)
}

// GoogleFactCheck searches the Google Fact Check Tools claim index.
type GoogleFactCheck struct {
	service  *factchecktools.Service
	language string
	pageSize int64
}

// NewGoogleFactCheck creates a searcher authenticated with apiKey.
func NewGoogleFactCheck(ctx context.Context, apiKey string, opts ...option.ClientOption) (*GoogleFactCheck, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("fact check API key is required")
	}
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := factchecktools.NewService(ctx, opts...)
	if err != nil {
		return nil, &ProviderError{Analysis: "factcheck", Message: "failed to create fact check client", Cause: err}
	}
	return &GoogleFactCheck{service: svc, language: "en", pageSize: 5}, nil
}

// SearchClaims returns the first review of each matching claim.
func (g *GoogleFactCheck) SearchClaims(ctx context.Context, query string) ([]Review, error) {
	resp, err := g.service.Claims.Search().
		Query(query).
		LanguageCode(g.language).
		PageSize(g.pageSize).
		Context(ctx).
		Do()
	if err != nil {
		return nil, &ProviderError{Analysis: "factcheck", Message: "claim search failed", Cause: err}
	}

	reviews := make([]Review, 0, len(resp.Claims))
	for _, c := range resp.Claims {
		if c == nil || len(c.ClaimReview) == 0 || c.ClaimReview[0] == nil {
			continue
		}
		r := c.ClaimReview[0]
		review := Review{ClaimText: c.Text, Rating: r.TextualRating, URL: r.Url}
		if r.Publisher != nil {
			review.Publisher = r.Publisher.Name
		}
		reviews = append(reviews, review)
	}
	return reviews, nil
}

// verdictScores maps a fact-check verdict onto the 0-100 fact-check score.
var verdictScores = map[types.Verdict]int{
	types.VerdictVerified:      90,
	types.VerdictPartiallyTrue: 55,
	types.VerdictOpinion:       50,
	types.VerdictUnverified:    50,
	types.VerdictFalse:         10,
}

// ratingPatterns is matched in order on whole words. Negated ratings come
// first so "unverified" or "not accurate" never read as a positive rating,
// and partial ratings precede plain true so "mostly true" stays partial.
var ratingPatterns = []struct {
	verdict types.Verdict
	pattern *regexp.Regexp
}{
	{types.VerdictUnverified, ratingPattern(`unverified`, `unconfirmed`, `unproven`, `unsubstantiated`, `not verified`, `not confirmed`, `not proven`, `no evidence`)},
	{types.VerdictFalse, ratingPattern(`inaccurate`, `incorrect`, `not accurate`, `not correct`, `not true`, `untrue`)},
	{types.VerdictPartiallyTrue, ratingPattern(`partly`, `partially`, `half`, `mixture`, `mixed`, `misleading`, `mostly true`, `mostly accurate`, `mostly correct`, `exaggerat\w*`, `out of context`, `lacks context`)},
	{types.VerdictFalse, ratingPattern(`false`, `fake`, `pants on fire`, `wrong`, `fabricated`, `hoax`, `baseless`, `debunked`)},
	{types.VerdictOpinion, ratingPattern(`satire`, `satirical`, `opinion`)},
	{types.VerdictVerified, ratingPattern(`true`, `correct`, `accurate`, `verified`, `confirmed`)},
}

func ratingPattern(words ...string) *regexp.Regexp {
	return regexp.MustCompile(`\b(?:` + strings.Join(words, `|`) + `)\b`)
}

// RatingVerdict maps a publisher's free-text rating onto a Verdict.
func RatingVerdict(rating string) types.Verdict {
	lower := strings.Join(strings.Fields(strings.ToLower(rating)), " ")
	if lower == "" {
		return types.VerdictUnverified
	}
	for _, rp := range ratingPatterns {
		if rp.pattern.MatchString(lower) {
			return rp.verdict
		}
	}
	return types.VerdictUnverified
}

// FactChecker rates claims against published fact-checks.
type FactChecker struct {
	searcher  ClaimSearcher
	maxClaims int
	logger    *slog.Logger
}

// NewFactChecker creates a FactChecker that looks up at most maxClaims claims.
func NewFactChecker(searcher ClaimSearcher, maxClaims int) *FactChecker {
	if maxClaims <= 0 {
		maxClaims = 3
	}
	return &FactChecker{
		searcher:  searcher,
		maxClaims: maxClaims,
		logger:    slog.With(slog.String("component", "factcheck")),
	}
}

// Check looks up each claim. Claims without a published review are skipped;
// when none has one the insufficient-data result is returned.
func (f *FactChecker) Check(ctx context.Context, claims []string) (types.FactCheckResult, error) {
	if f == nil || f.searcher == nil {
		return InsufficientFactCheck(), ErrUnavailable
	}

	if len(claims) > f.maxClaims {
		claims = claims[:f.maxClaims]
	}

	var (
		checked []types.FactCheckedClaim
		sources []string
		seen    = make(map[string]bool)
		lastErr error
	)
	for _, claim := range claims {
		if err := ctx.Err(); err != nil {
			return InsufficientFactCheck(), err
		}
		reviews, err := f.searcher.SearchClaims(ctx, claim)
		if err != nil {
			f.logger.Warn("[FactCheck] claim search failed", slog.String("error", err.Error()))
			lastErr = err
			continue
		}
		if len(reviews) == 0 {
			continue
		}

		review := reviews[0]
		verdict := RatingVerdict(review.Rating)
		refs := make([]string, 0, len(reviews))
		for _, r := range reviews {
			if r.URL == "" {
				continue
			}
			refs = append(refs, r.URL)
			if !seen[r.URL] {
				seen[r.URL] = true
				sources = append(sources, r.URL)
			}
		}

		explanation := review.Rating
		if review.Publisher != "" {
			explanation = fmt.Sprintf("%s rated this %q", review.Publisher, review.Rating)
		}
		checked = append(checked, types.FactCheckedClaim{
			Text:        claim,
			Verdict:     verdict,
			Confidence:  reviewConfidence(len(reviews)),
			Sources:     refs,
			Explanation: explanation,
		})
	}

	if len(checked) == 0 {
		result := InsufficientFactCheck()
		if lastErr != nil {
			return result, lastErr
		}
		return result, nil
	}

	total := 0
	verified, refuted := false, false
	for _, c := range checked {
		total += verdictScores[c.Verdict]
		switch c.Verdict {
		case types.VerdictVerified:
			verified = true
		case types.VerdictFalse:
			refuted = true
		}
	}
	score := (total + len(checked)/2) / len(checked)

	return types.FactCheckResult{
		Score:      score,
		Claims:     checked,
		Sources:    nonNilStrings(sources),
		Summary:    fmt.Sprintf("%d of %d claims matched published fact-checks", len(checked), len(claims)),
		Confidence: types.ClampScore(len(checked) * 100 / len(claims)),
		Verified:   verified && !refuted,
	}, nil
}

// reviewConfidence grows with the number of independent reviews found.
func reviewConfidence(reviews int) int {
	return min(95, 50+15*reviews)
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
