// Package pipeline orchestrates a verification run: ingestion, claim
// extraction, the sanity battery, evidence lookup, the independent analyses
// and trust scoring.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/trustcheck/internal/analysis"
	"github.com/jonathan/trustcheck/internal/claims"
	"github.com/jonathan/trustcheck/internal/credibility"
	"github.com/jonathan/trustcheck/internal/history"
	"github.com/jonathan/trustcheck/internal/ingestion"
	"github.com/jonathan/trustcheck/internal/pipeline/steps"
	"github.com/jonathan/trustcheck/internal/sanity"
	"github.com/jonathan/trustcheck/internal/scoring"
	"github.com/jonathan/trustcheck/internal/types"
	"github.com/jonathan/trustcheck/internal/verifier"
)

// DefaultAnalysisTimeout bounds each independent analysis branch.
const DefaultAnalysisTimeout = 20 * time.Second

// DegenerateSummary explains a result for which no stage produced usable data.
const DegenerateSummary = "Verification could not be completed: no stage produced usable data. Treat this content as unverified."

// SentimentAnalyzer scores the polarity of text.
type SentimentAnalyzer interface {
	Analyze(ctx context.Context, text string) (types.SentimentResult, error)
}

// FactChecker rates claims against independent fact-checks.
type FactChecker interface {
	Check(ctx context.Context, claims []string) (types.FactCheckResult, error)
}

// Classifier labels content as factual, opinion or mixed.
type Classifier interface {
	Classify(ctx context.Context, text string) (types.ContentClassification, error)
}

// Deps are the components an Engine drives. Nil fields get offline defaults:
// the embedded authority table, a verifier without a provider, VADER-only
// sentiment, no fact-checks, the heuristic classifier and no history.
type Deps struct {
	Sanity      *sanity.Checker
	Assessor    *credibility.Assessor
	Verifier    *verifier.Verifier
	Sentiment   SentimentAnalyzer
	FactChecker FactChecker
	Classifier  Classifier
	Extractor   ingestion.Extractor
	History     history.Store
}

// Options tunes an Engine.
type Options struct {
	Policy          scoring.Policy
	AnalysisTimeout time.Duration
	Now             func() time.Time
	NewID           func() string
}

// Engine runs verifications. It is safe for concurrent use.
type Engine struct {
	deps   Deps
	opts   Options
	logger *slog.Logger
}

// NewEngine creates an Engine. A zero Options.Policy uses scoring.DefaultPolicy.
func NewEngine(deps Deps, opts Options) (*Engine, error) {
	if opts.Policy == (scoring.Policy{}) {
		opts.Policy = scoring.DefaultPolicy()
	}
	if err := opts.Policy.Validate(); err != nil {
		return nil, err
	}
	if opts.AnalysisTimeout <= 0 {
		opts.AnalysisTimeout = DefaultAnalysisTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}

	if deps.Sanity == nil {
		deps.Sanity = sanity.New(sanity.Options{Now: opts.Now})
	}
	if deps.Assessor == nil {
		deps.Assessor = credibility.NewAssessor(nil)
	}
	if deps.Verifier == nil {
		verifierOpts := verifier.DefaultOptions()
		verifierOpts.Now = opts.Now
		deps.Verifier = verifier.New(nil, deps.Assessor, verifierOpts)
	}
	if deps.Sentiment == nil {
		deps.Sentiment = analysis.NewSentimentAnalyzer(nil)
	}
	if deps.FactChecker == nil {
		deps.FactChecker = analysis.NewFactChecker(nil, 0)
	}
	if deps.Classifier == nil {
		deps.Classifier = analysis.NewClassifier(nil)
	}

	return &Engine{
		deps:   deps,
		opts:   opts,
		logger: slog.With(slog.String("component", "pipeline")),
	}, nil
}

// Verify runs a verification without progress reporting.
func (e *Engine) Verify(ctx context.Context, req types.VerificationRequest) (*types.VerificationResult, error) {
	return e.VerifyWithProgress(ctx, req, nil)
}

// VerifyWithProgress runs a verification, reporting each finished step to
// onProgress. Provider failures never surface as errors: they degrade the
// result. An error is returned only for an invalid request or a cancelled ctx.
func (e *Engine) VerifyWithProgress(ctx context.Context, req types.VerificationRequest, onProgress ProgressCallback) (*types.VerificationResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := e.opts.Now()
	id := e.opts.NewID()
	progress := newTracker(id, onProgress, e.logger)
	region := req.FocusRegion
	if region == "" {
		region = types.RegionGlobal
	}

	// Ingest
	text, extracted := e.ingest(ctx, req)
	progress.done(steps.Ingest, fmt.Sprintf("Ingested %d characters of %s content", len(text), req.ContentType), nil)

	// Claims and sanity
	claimList := claims.Extract(text)
	progress.done(steps.ExtractClaims, fmt.Sprintf("Extracted %d claim(s)", len(claimList)), claimList)

	report := e.deps.Sanity.Check(text)
	progress.done(steps.SanityCheck, sanityMessage(report), report)

	// Evidence
	outcome := e.deps.Verifier.Verify(ctx, verifier.Input{
		Claims:      claimList,
		Sanity:      report,
		Region:      region,
		SourceTypes: req.SourceTypes,
		Domains:     e.deps.Assessor.DomainFilters(region, req.SourceTypes),
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	progress.done(steps.Evidence, outcome.Result.Summary, outcome.Result)

	// Domain credibility
	credResult := e.deps.Assessor.Report(credibilityURLs(req, extracted, outcome.Result.Sources))
	progress.done(steps.Credibility, credResult.Summary, credResult)

	// Independent analyses
	branches := e.analyze(ctx, text, claimList, progress)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	inputs := types.TrustScoreInputs{
		Sanity:             report,
		SourceVerification: outcome.Result,
		Sentiment:          branches.sentiment,
		FactCheck:          branches.factCheck,
		SourceCredibility:  credResult,
		Classification:     branches.classification,
	}

	finished := e.opts.Now()
	result := &types.VerificationResult{
		ID:                    id,
		SanityCheck:           report,
		SourceVerification:    outcome.Result,
		SentimentAnalysis:     branches.sentiment,
		FactCheck:             branches.factCheck,
		SourceCredibility:     credResult,
		ContentClassification: branches.classification,
		ProcessingTime:        finished.Sub(start).Milliseconds(),
		Timestamp:             finished.UTC().Format(time.RFC3339),
		ContentPreview:        types.Preview(req.Content),
		ContentType:           req.ContentType,
	}

	if !extracted && outcome.Tier == verifier.TierSanity && branches.allFailed() {
		e.logger.Warn("[Pipeline] every stage failed, emitting degenerate result", slog.String("id", id))
		result.SourceVerification = degenerateVerification()
		result.TrustScore = 0
		progress.done(steps.Scoring, "No stage produced usable data", nil)
	} else {
		decision := e.opts.Policy.Calculate(inputs)
		result.TrustScore = decision.Score
		progress.done(steps.Scoring, fmt.Sprintf("Trust score %d via %s: %s", decision.Score, decision.Path, decision.Reason), decision)
	}
	result.TrustLevel = scoring.Label(result.TrustScore)

	result.Integrity = NewIntegrityRecord(req.Content, result.TrustScore, result.Timestamp)
	progress.done(steps.Integrity, "Computed integrity digest", result.Integrity)

	e.record(ctx, result, progress)

	e.logger.Info("[Pipeline] verification complete",
		slog.String("id", id),
		slog.Int("trust_score", result.TrustScore),
		slog.String("evidence_tier", string(outcome.Tier)),
		slog.Int64("processing_ms", result.ProcessingTime))
	return result, nil
}

// ingest returns the text to verify and whether it came from real content
// rather than an extraction placeholder.
func (e *Engine) ingest(ctx context.Context, req types.VerificationRequest) (string, bool) {
	if req.ContentType != types.ContentTypeURL {
		text := ingestion.SanitizeText(req.Content)
		if text == "" {
			text = strings.TrimSpace(req.Content)
		}
		return text, true
	}

	if e.deps.Extractor == nil {
		e.logger.Warn("[Pipeline] no content extractor configured", slog.String("url", req.Content))
		return ingestion.Placeholder(req.Content), false
	}
	text := e.deps.Extractor.Extract(ctx, req.Content)
	return text, text != ingestion.Placeholder(req.Content)
}

// analysisResults holds the outputs of the fan-out branches.
type analysisResults struct {
	sentiment      types.SentimentResult
	factCheck      types.FactCheckResult
	classification types.ContentClassification

	sentimentErr, factCheckErr, classificationErr error
}

func (r analysisResults) allFailed() bool {
	return r.sentimentErr != nil && r.factCheckErr != nil && r.classificationErr != nil
}

// analyze runs sentiment, fact-check and classification in parallel. Each
// branch has its own timeout and falls back to its insufficient-data result.
func (e *Engine) analyze(ctx context.Context, text string, claimList []string, progress *tracker) analysisResults {
	var out analysisResults
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		bctx, cancel := context.WithTimeout(gCtx, e.opts.AnalysisTimeout)
		defer cancel()
		out.sentiment, out.sentimentErr = e.deps.Sentiment.Analyze(bctx, text)
		if out.sentimentErr != nil {
			e.logBranchFailure("sentiment", out.sentimentErr)
			out.sentiment = analysis.InsufficientSentiment()
		}
		progress.finish(steps.Sentiment, out.sentimentErr,
			fmt.Sprintf("Sentiment %s (%d)", out.sentiment.Label, out.sentiment.Score), out.sentiment)
		return nil
	})

	g.Go(func() error {
		bctx, cancel := context.WithTimeout(gCtx, e.opts.AnalysisTimeout)
		defer cancel()
		out.factCheck, out.factCheckErr = e.deps.FactChecker.Check(bctx, claimList)
		if out.factCheckErr != nil {
			e.logBranchFailure("fact_check", out.factCheckErr)
			out.factCheck = analysis.InsufficientFactCheck()
		}
		progress.finish(steps.FactCheck, out.factCheckErr, out.factCheck.Summary, out.factCheck)
		return nil
	})

	g.Go(func() error {
		bctx, cancel := context.WithTimeout(gCtx, e.opts.AnalysisTimeout)
		defer cancel()
		out.classification, out.classificationErr = e.deps.Classifier.Classify(bctx, text)
		if out.classificationErr != nil {
			e.logBranchFailure("classification", out.classificationErr)
			out.classification = analysis.InsufficientClassification()
		}
		progress.finish(steps.Classification, out.classificationErr,
			fmt.Sprintf("Classified as %s (%d%% confidence)", out.classification.Type, out.classification.Confidence), out.classification)
		return nil
	})

	// branches never return errors
	_ = g.Wait()
	return out
}

func (e *Engine) logBranchFailure(branch string, err error) {
	e.logger.Warn("[Pipeline] analysis unavailable, using insufficient-data default",
		slog.String("branch", branch),
		slog.String("error", err.Error()))
}

// record appends the result to history. Failures are logged only.
func (e *Engine) record(ctx context.Context, result *types.VerificationResult, progress *tracker) {
	if e.deps.History == nil {
		progress.skip(steps.History, "No history store configured")
		return
	}
	if err := e.deps.History.Append(ctx, *result); err != nil {
		e.logger.Warn("[Pipeline] failed to record verification", slog.String("id", result.ID), slog.String("error", err.Error()))
		progress.finish(steps.History, err, "Failed to record verification", nil)
		return
	}
	progress.done(steps.History, "Recorded verification", nil)
}

// credibilityURLs lists the content URL, when its page was extracted,
// followed by the evidence source URLs.
func credibilityURLs(req types.VerificationRequest, extracted bool, sources []types.SourceRecord) []string {
	urls := make([]string, 0, len(sources)+1)
	if req.ContentType == types.ContentTypeURL && extracted {
		urls = append(urls, req.Content)
	}
	for _, s := range sources {
		urls = append(urls, s.URL)
	}
	return urls
}

func sanityMessage(report types.SanityReport) string {
	if report.IsClean {
		return "Content passed sanity checks"
	}
	return fmt.Sprintf("Sanity checks found %d issue(s)", len(report.Issues))
}

func degenerateVerification() types.SourceVerificationResult {
	return types.SourceVerificationResult{
		Credibility: 0,
		Verdicts:    []types.ClaimVerdict{},
		Sources:     []types.SourceRecord{},
		Conflicts:   []types.ConflictRecord{},
		Summary:     DegenerateSummary,
		Confidence:  0,
	}
}
