// Package verifier gathers external evidence for extracted claims and turns
// provider answers into a SourceVerificationResult. It always produces a
// result: structured answers are preferred, citation-only answers come next,
// and a sanity-derived result is used when no evidence is found.
package verifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jonathan/trustcheck/internal/credibility"
	"github.com/jonathan/trustcheck/internal/evidence"
	"github.com/jonathan/trustcheck/internal/types"
)

// Options tunes the verifier. Start from DefaultOptions: only ClaimQuota,
// ProviderTimeout and Now are filled in when unset, so zero is a valid value
// for every credibility setting.
type Options struct {
	// ClaimQuota is the maximum number of claims sent to the provider
	ClaimQuota int
	// ProviderTimeout bounds each provider call
	ProviderTimeout time.Duration
	// SanityPenalty is subtracted from structured credibility when sanity fails
	SanityPenalty int
	// DefaultCredibility applies when a structured answer omits overallCredibility
	DefaultCredibility int

	HighCredibilityThreshold int
	HighCredibilityFloor     int
	EmptyCitationCredibility int

	// FallbackCleanCredibility and FallbackUncleanCredibility score the
	// sanity-derived result
	FallbackCleanCredibility   int
	FallbackUncleanCredibility int

	Now func() time.Time
}

// DefaultOptions returns the stock verifier settings.
func DefaultOptions() Options {
	return Options{
		ClaimQuota:                 3,
		ProviderTimeout:            30 * time.Second,
		SanityPenalty:              50,
		DefaultCredibility:         50,
		HighCredibilityThreshold:   80,
		HighCredibilityFloor:       60,
		EmptyCitationCredibility:   30,
		FallbackCleanCredibility:   30,
		FallbackUncleanCredibility: 5,
		Now:                        time.Now,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.ClaimQuota <= 0 {
		o.ClaimQuota = def.ClaimQuota
	}
	if o.ProviderTimeout <= 0 {
		o.ProviderTimeout = def.ProviderTimeout
	}
	if o.Now == nil {
		o.Now = def.Now
	}
	return o
}

// Input is everything the verifier needs for one request.
type Input struct {
	Claims []string
	Sanity types.SanityReport
	Region types.Region
	// SourceTypes and Domains are passed to the provider as search filters
	SourceTypes []types.SourceType
	Domains     []string
}

// Tier names the rung of the evidence ladder a result came from.
type Tier string

const (
	TierStructured Tier = "structured"
	TierCitations  Tier = "citations"
	TierSanity     Tier = "sanity"
)

// Outcome is a verification result plus how it was obtained.
type Outcome struct {
	Result types.SourceVerificationResult
	Tier   Tier
	// Claim is the claim whose evidence was used; empty for the sanity tier
	Claim string
	// Attempts counts provider calls made
	Attempts int
}

// Verifier queries an evidence provider claim by claim.
type Verifier struct {
	provider   evidence.Provider
	aggregator *Aggregator
	opts       Options
	logger     *slog.Logger
}

// New creates a Verifier. A nil provider always yields the sanity-derived result.
func New(provider evidence.Provider, assessor *credibility.Assessor, opts Options) *Verifier {
	opts = opts.withDefaults()
	return &Verifier{
		provider:   provider,
		aggregator: NewAggregator(assessor, opts.Now),
		opts:       opts,
		logger:     slog.With(slog.String("component", "verifier")),
	}
}

// Verify walks up to ClaimQuota claims, stopping at the first provider
// response with a usable citation. Provider errors are logged and skipped.
func (v *Verifier) Verify(ctx context.Context, in Input) Outcome {
	if v.provider == nil {
		v.logger.Warn("[Verifier] no evidence provider configured, using sanity fallback")
		return Outcome{Result: v.sanityFallback(in), Tier: TierSanity}
	}

	filters := evidence.Filters{Region: in.Region, SourceTypes: in.SourceTypes, Domains: in.Domains}
	attempts := 0
	for _, claim := range quota(in.Claims, v.opts.ClaimQuota) {
		if ctx.Err() != nil {
			v.logger.Warn("[Verifier] request cancelled, stopping evidence search")
			break
		}
		attempts++

		resp, err := v.lookup(ctx, claim, filters)
		if err != nil {
			v.logger.Warn("[Verifier] evidence lookup failed",
				slog.String("claim", truncateRunes(claim, 80)),
				slog.String("error", err.Error()))
			continue
		}
		if !resp.HasCitations() {
			v.logger.Info("[Verifier] no citations for claim", slog.String("claim", truncateRunes(claim, 80)))
			continue
		}

		result, tier := v.interpret(resp, in)
		v.logger.Info("[Verifier] evidence found",
			slog.String("tier", string(tier)),
			slog.Int("sources", len(result.Sources)),
			slog.Int("credibility", result.Credibility))
		return Outcome{Result: result, Tier: tier, Claim: claim, Attempts: attempts}
	}

	v.logger.Warn("[Verifier] all verification attempts failed, using sanity fallback", slog.Int("attempts", attempts))
	return Outcome{Result: v.sanityFallback(in), Tier: TierSanity, Attempts: attempts}
}

func (v *Verifier) lookup(ctx context.Context, claim string, filters evidence.Filters) (*evidence.Response, error) {
	callCtx, cancel := context.WithTimeout(ctx, v.opts.ProviderTimeout)
	defer cancel()

	resp, err := v.provider.Verify(callCtx, claim, filters)
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("provider timed out after %s: %w", v.opts.ProviderTimeout, err)
		}
		return nil, err
	}
	return resp, nil
}

// interpret converts a cited provider response, trying the structured payload first.
func (v *Verifier) interpret(resp *evidence.Response, in Input) (types.SourceVerificationResult, Tier) {
	p, err := parsePayload(resp.RawText)
	if err != nil {
		v.logger.Info("[Verifier] no structured payload, reconstructing from citations", slog.String("reason", err.Error()))
		return v.fromCitations(resp, in), TierCitations
	}
	return v.fromPayload(p, resp.Citations, in), TierStructured
}

func (v *Verifier) fromPayload(p *payload, citations []evidence.Citation, in Input) types.SourceVerificationResult {
	sources := v.aggregator.Merge(p.Sources, citations, in.Region)

	score := scoreOf(p.OverallCredibility, v.opts.DefaultCredibility)
	if !in.Sanity.IsClean {
		score = max(0, score-v.opts.SanityPenalty)
	}

	verdicts := make([]types.ClaimVerdict, 0, len(p.ClaimsVerified))
	for _, c := range p.ClaimsVerified {
		verdict := types.Verdict(normalizeVerdictText(c.VerificationStatus))
		if !verdict.Valid() {
			verdict = types.VerdictUnverified
		}
		verdicts = append(verdicts, types.ClaimVerdict{
			ClaimText:         c.Claim,
			Verdict:           verdict,
			Confidence:        scoreOf(c.Confidence, v.opts.DefaultCredibility),
			SupportingSources: nonNil(c.Sources),
			Evidence:          c.Evidence,
		})
	}

	conflicts := make([]types.ConflictRecord, 0, len(p.Conflicts))
	for _, c := range p.Conflicts {
		conflicts = append(conflicts, types.ConflictRecord{
			Topic:                 c.Claim,
			ConflictingStatements: nonNil(c.ConflictingClaims),
			Sources:               nonNil(c.Sources),
		})
	}
	conflicts = append(conflicts, sanityConflicts(in.Sanity)...)

	summary := strings.TrimSpace(p.Summary)
	if summary == "" {
		summary = fmt.Sprintf("Verification completed with %d sources found", len(sources))
	}

	confidence := 30
	if len(sources) > 0 {
		confidence = 80
	}
	confidence = scoreOf(p.Confidence, confidence)

	return types.SourceVerificationResult{
		Credibility: types.ClampScore(score),
		Verdicts:    verdicts,
		Sources:     sources,
		Conflicts:   conflicts,
		Summary:     summary,
		Confidence:  confidence,
	}
}

func (v *Verifier) fromCitations(resp *evidence.Response, in Input) types.SourceVerificationResult {
	sources := v.aggregator.Merge(nil, resp.Citations, in.Region)

	score := CitationCredibility(sources, v.opts)
	confidence := v.opts.EmptyCitationCredibility
	for _, s := range sources {
		if s.CredibilityScore >= v.opts.HighCredibilityThreshold {
			confidence = v.opts.HighCredibilityFloor
			break
		}
	}

	supporting := make([]string, 0, 3)
	for _, s := range sources {
		if len(supporting) == 3 {
			break
		}
		supporting = append(supporting, s.URL)
	}

	return types.SourceVerificationResult{
		Credibility: score,
		Verdicts: []types.ClaimVerdict{{
			ClaimText:         GeneralVerificationClaim,
			Verdict:           types.VerdictUnverified,
			Confidence:        50,
			SupportingSources: supporting,
			Evidence:          truncateRunes(resp.RawText, 200),
		}},
		Sources:    sources,
		Conflicts:  sanityConflicts(in.Sanity),
		Summary:    fmt.Sprintf("Basic verification completed with %d sources", len(sources)),
		Confidence: confidence,
	}
}

func quota(claims []string, n int) []string {
	if len(claims) > n {
		return claims[:n]
	}
	return claims
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
