package scoring

import (
	"fmt"
	"math"

	"github.com/jonathan/trustcheck/internal/sanity"
	"github.com/jonathan/trustcheck/internal/types"
)

// Path names the policy branch that produced a score.
type Path string

const (
	PathSanityCap        Path = "sanity_cap"
	PathEstablishedNews  Path = "established_news"
	PathNoSourcesFactual Path = "no_sources_factual"
	PathWeighted         Path = "weighted"
)

// Decision is a trust score and the branch that produced it.
type Decision struct {
	Score  int    `json:"score"`
	Path   Path   `json:"path"`
	Reason string `json:"reason"`
}

// Calculate scores inputs with DefaultPolicy.
func Calculate(in types.TrustScoreInputs) Decision {
	return DefaultPolicy().Calculate(in)
}

// Calculate evaluates the policy branches in order: sanity cap, established
// news, uncorroborated factual content, then the weighted sum.
func (p Policy) Calculate(in types.TrustScoreInputs) Decision {
	if hasSanityViolation(in) {
		score := max(0, min(p.SanityCap, in.SourceVerification.Credibility))
		return Decision{Score: score, Path: PathSanityCap, Reason: "content failed sanity checks"}
	}

	news := p.hasEstablishedNews(in.SourceCredibility)
	if news {
		return p.establishedNews(in)
	}

	if len(in.SourceVerification.Sources) == 0 && in.Classification.Type == types.ClassificationFactual {
		base := p.NoSourcesDefault
		if len(in.SourceCredibility.Domains) > 0 {
			base = in.SourceCredibility.Score
		}
		score := max(p.MinScore, min(p.NoSourcesCap, base))
		return Decision{Score: score, Path: PathNoSourcesFactual, Reason: "factual content without corroborating sources"}
	}

	return p.weighted(in)
}

func (p Policy) establishedNews(in types.TrustScoreInputs) Decision {
	score := float64(max(in.SourceCredibility.Score, p.NewsFloor))
	switch {
	case in.Sentiment.Score > p.PositiveSentiment:
		score *= p.PositiveFactor
	case in.Sentiment.Score < p.NegativeSentiment:
		score *= p.NegativeFactor
	}
	if in.FactCheck.Verified {
		score *= p.VerifiedFactor
	}
	if len(in.SourceVerification.Conflicts) > 0 {
		score *= p.ConflictFactor
	}
	return Decision{
		Score:  p.clamp(score),
		Path:   PathEstablishedNews,
		Reason: "content is tied to an established news source",
	}
}

func (p Policy) weighted(in types.TrustScoreInputs) Decision {
	w := p.DefaultWeights
	if in.Classification.Type == types.ClassificationFactual {
		w = p.FactualWeights
	}
	sum := float64(in.SourceVerification.Credibility)*w.SourceVerification +
		float64(in.SourceCredibility.Score)*w.SourceCredibility +
		float64(in.FactCheck.Score)*w.FactCheck +
		float64(in.Sentiment.Score)*w.Sentiment +
		float64(in.Classification.Confidence)*w.Classification

	return Decision{
		Score:  p.clamp(sum),
		Path:   PathWeighted,
		Reason: fmt.Sprintf("weighted %s signals", classificationName(in.Classification.Type)),
	}
}

// hasEstablishedNews reports whether any assessed domain is a news outlet
// above the threshold.
func (p Policy) hasEstablishedNews(sc types.SourceCredibilityResult) bool {
	for _, d := range sc.Domains {
		if d.Type == types.SourceKindNews && d.Credibility > p.NewsThreshold {
			return true
		}
	}
	return false
}

func (p Policy) clamp(v float64) int {
	score := int(math.Round(v))
	return max(p.MinScore, min(p.MaxScore, score))
}

// hasSanityViolation reports a sanity failure either through the report
// itself or through a conflict record carrying a sanity category.
func hasSanityViolation(in types.TrustScoreInputs) bool {
	if len(in.Sanity.Issues) > 0 {
		return true
	}
	for _, c := range in.SourceVerification.Conflicts {
		if sanity.IsViolation(c.Topic) {
			return true
		}
		for _, s := range c.ConflictingStatements {
			if sanity.IsViolation(s) {
				return true
			}
		}
	}
	return false
}

func classificationName(t types.ClassificationType) string {
	if t == types.ClassificationFactual {
		return "factual"
	}
	return "non-factual"
}
