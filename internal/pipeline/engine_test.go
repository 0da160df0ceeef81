package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/trustcheck/internal/analysis"
	"github.com/jonathan/trustcheck/internal/evidence"
	"github.com/jonathan/trustcheck/internal/history"
	"github.com/jonathan/trustcheck/internal/ingestion"
	"github.com/jonathan/trustcheck/internal/pipeline/steps"
	"github.com/jonathan/trustcheck/internal/sanity"
	"github.com/jonathan/trustcheck/internal/scoring"
	"github.com/jonathan/trustcheck/internal/types"
	"github.com/jonathan/trustcheck/internal/verifier"
)

var testNow = time.Date(2026, 5, 20, 15, 0, 0, 0, time.UTC)

func clock() time.Time { return testNow }

type fakeExtractor struct {
	pages map[string]string
}

func (f *fakeExtractor) Extract(_ context.Context, url string) string {
	if text, ok := f.pages[url]; ok {
		return text
	}
	return ingestion.Placeholder(url)
}

type failingSentiment struct{}

func (failingSentiment) Analyze(context.Context, string) (types.SentimentResult, error) {
	return types.SentimentResult{Score: 99}, errors.New("sentiment backend down")
}

type failingClassifier struct{}

func (failingClassifier) Classify(context.Context, string) (types.ContentClassification, error) {
	return types.ContentClassification{Type: types.ClassificationFactual}, errors.New("classifier down")
}

type failingHistory struct{ history.MemoryStore }

func (*failingHistory) Append(context.Context, types.VerificationResult) error {
	return errors.New("history unavailable")
}

func newTestEngine(t *testing.T, provider evidence.Provider, deps Deps) *Engine {
	t.Helper()
	if deps.Sanity == nil {
		deps.Sanity = sanity.New(sanity.Options{Now: clock})
	}
	if deps.Verifier == nil {
		verifierOpts := verifier.DefaultOptions()
		verifierOpts.Now, verifierOpts.ProviderTimeout = clock, time.Second
		deps.Verifier = verifier.New(provider, deps.Assessor, verifierOpts)
	}
	engine, err := NewEngine(deps, Options{
		Now:   clock,
		NewID: func() string { return "5f1b7a36-6f57-4f55-9d36-1d9a6d7f1c11" },
	})
	require.NoError(t, err)
	return engine
}

func textRequest(content string) types.VerificationRequest {
	return types.VerificationRequest{Content: content, ContentType: types.ContentTypeText}
}

func TestEngine_ScenarioA_GeographicImpossibility(t *testing.T) {
	engine := newTestEngine(t, nil, Deps{})

	result, err := engine.Verify(context.Background(), textRequest("Nigeria experienced heavy snow this week"))
	require.NoError(t, err)

	assert.False(t, result.SanityCheck.IsClean)
	require.NotEmpty(t, result.SanityCheck.Issues)
	assert.Contains(t, result.SanityCheck.Issues[0], sanity.CategoryGeographic)
	assert.LessOrEqual(t, result.TrustScore, 10)
	assert.GreaterOrEqual(t, result.TrustScore, 0)
	assert.Equal(t, "Low Trust", result.TrustLevel)
	assert.NotEmpty(t, result.SourceVerification.Conflicts)
}

func TestEngine_ScenarioB_EstablishedNews(t *testing.T) {
	url := "https://www.reuters.com/world/africa/central-bank-holds-rate"
	extractor := &fakeExtractor{pages: map[string]string{
		url: "The central bank held its benchmark interest rate at 18.75 percent on Tuesday, officials said in Abuja.",
	}}
	engine := newTestEngine(t, nil, Deps{Extractor: extractor})

	result, err := engine.Verify(context.Background(), types.VerificationRequest{Content: url, ContentType: types.ContentTypeURL})
	require.NoError(t, err)

	assert.True(t, result.SanityCheck.IsClean)
	require.NotEmpty(t, result.SourceCredibility.Domains)
	assert.Equal(t, "reuters.com", result.SourceCredibility.Domains[0].Domain)
	assert.GreaterOrEqual(t, result.TrustScore, 60)
	assert.LessOrEqual(t, result.TrustScore, 95)
	assert.Equal(t, types.ContentTypeURL, result.ContentType)
	assert.Equal(t, url, result.ContentPreview)
}

func TestEngine_UnextractedURLIsNotEstablishedNews(t *testing.T) {
	url := "https://www.reuters.com/world/africa/removed-story"
	engine := newTestEngine(t, nil, Deps{Extractor: &fakeExtractor{}})

	var decision scoring.Decision
	result, err := engine.VerifyWithProgress(context.Background(),
		types.VerificationRequest{Content: url, ContentType: types.ContentTypeURL},
		func(ev ProgressEvent) {
			if d, ok := ev.Content.(scoring.Decision); ok {
				decision = d
			}
		})
	require.NoError(t, err)

	assert.Empty(t, result.SourceCredibility.Domains)
	assert.NotEqual(t, scoring.PathEstablishedNews, decision.Path)
	assert.NotEmpty(t, decision.Path)
}

func TestCredibilityURLs(t *testing.T) {
	url := "https://www.reuters.com/world/story"
	sources := []types.SourceRecord{{URL: "https://bbc.com/news/1"}}

	tests := []struct {
		name      string
		req       types.VerificationRequest
		extracted bool
		want      []string
	}{
		{
			name:      "extracted page leads",
			req:       types.VerificationRequest{Content: url, ContentType: types.ContentTypeURL},
			extracted: true,
			want:      []string{url, "https://bbc.com/news/1"},
		},
		{
			name: "failed extraction is dropped",
			req:  types.VerificationRequest{Content: url, ContentType: types.ContentTypeURL},
			want: []string{"https://bbc.com/news/1"},
		},
		{
			name:      "text content has no url",
			req:       textRequest("Reuters reported it"),
			extracted: true,
			want:      []string{"https://bbc.com/news/1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, credibilityURLs(tt.req, tt.extracted, sources))
		})
	}
}

func TestEngine_ScenarioC_NoSourcesFactual(t *testing.T) {
	var calls atomic.Int32
	empty := evidence.ProviderFunc(func(context.Context, string, evidence.Filters) (*evidence.Response, error) {
		calls.Add(1)
		return &evidence.Response{RawText: "I could not find anything on this."}, nil
	})
	engine := newTestEngine(t, empty, Deps{})

	result, err := engine.Verify(context.Background(),
		textRequest("The unemployment rate rose to 8.2% according to a 2021 report"))
	require.NoError(t, err)

	assert.Positive(t, calls.Load())
	assert.Empty(t, result.SourceVerification.Sources)
	assert.Equal(t, types.ClassificationFactual, result.ContentClassification.Type)
	assert.LessOrEqual(t, result.TrustScore, 30)
	assert.GreaterOrEqual(t, result.TrustScore, 5)
}

func TestEngine_ScenarioD_ProviderFailures(t *testing.T) {
	var calls atomic.Int32
	broken := evidence.ProviderFunc(func(context.Context, string, evidence.Filters) (*evidence.Response, error) {
		calls.Add(1)
		return nil, &evidence.ProviderError{Provider: "test", Message: "HTTP 503"}
	})
	engine := newTestEngine(t, broken, Deps{})

	content := "The minister announced a new budget on Monday. " +
		"Inflation in the country reached 22 percent last month. " +
		"According to the statistics bureau, exports grew. " +
		"The city council approved the plan."
	result, err := engine.Verify(context.Background(), textRequest(content))
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, int32(3), calls.Load(), "claim quota bounds provider calls")
	assert.Equal(t, 30, result.SourceVerification.Credibility, "clean sanity fallback")
	assert.NotEmpty(t, result.SourceVerification.Verdicts)
	for _, v := range result.SourceVerification.Verdicts {
		assert.Equal(t, types.VerdictUnverified, v.Verdict)
	}
	assert.GreaterOrEqual(t, result.TrustScore, 5)
	assert.LessOrEqual(t, result.TrustScore, 95)
}

func TestEngine_ScenarioE_FutureYear(t *testing.T) {
	engine := newTestEngine(t, nil, Deps{})

	result, err := engine.Verify(context.Background(),
		textRequest("Official figures published in 2031 show the economy grew by 4 percent."))
	require.NoError(t, err)

	assert.False(t, result.SanityCheck.IsClean)
	assert.LessOrEqual(t, result.SanityCheck.Confidence, 70)
	assert.LessOrEqual(t, result.TrustScore, 10)
}

func TestEngine_InvalidRequest(t *testing.T) {
	engine := newTestEngine(t, nil, Deps{})

	_, err := engine.Verify(context.Background(), types.VerificationRequest{Content: "  ", ContentType: types.ContentTypeText})
	assert.Error(t, err)

	_, err = engine.Verify(context.Background(), types.VerificationRequest{Content: "hello", ContentType: "pdf"})
	assert.Error(t, err)
}

func TestEngine_CancelledContext(t *testing.T) {
	engine := newTestEngine(t, nil, Deps{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Verify(ctx, textRequest("The minister announced a new budget on Monday."))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngine_ResultAssembly(t *testing.T) {
	store := history.NewMemoryStore()
	engine := newTestEngine(t, nil, Deps{History: store})
	content := "The minister announced a new budget on Monday."

	result, err := engine.Verify(context.Background(), textRequest(content))
	require.NoError(t, err)

	assert.Equal(t, "5f1b7a36-6f57-4f55-9d36-1d9a6d7f1c11", result.ID)
	assert.Equal(t, testNow.Format(time.RFC3339), result.Timestamp)
	assert.Equal(t, int64(0), result.ProcessingTime)
	assert.Equal(t, content, result.ContentPreview)
	assert.Equal(t, IntegrityAlgorithm, result.Integrity.Algorithm)
	assert.Equal(t, result.Timestamp, result.Integrity.Timestamp)
	assert.True(t, CheckIntegrity(*result, content))
	assert.False(t, CheckIntegrity(*result, content+" edited"))

	// fact-checks are not configured
	assert.Equal(t, analysis.InsufficientFactCheck(), result.FactCheck)

	stored, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, result.ID, stored[0].ID)
}

func TestEngine_HistoryFailureIsNotFatal(t *testing.T) {
	engine := newTestEngine(t, nil, Deps{History: &failingHistory{}})

	result, err := engine.Verify(context.Background(), textRequest("The minister announced a new budget on Monday."))
	require.NoError(t, err)
	assert.NotEmpty(t, result.ID)
}

func TestEngine_AnalysisFailuresUseDefaults(t *testing.T) {
	engine := newTestEngine(t, nil, Deps{Sentiment: failingSentiment{}, Classifier: failingClassifier{}})

	result, err := engine.Verify(context.Background(), textRequest("The minister announced a new budget on Monday."))
	require.NoError(t, err)

	assert.Equal(t, analysis.InsufficientSentiment(), result.SentimentAnalysis)
	assert.Equal(t, analysis.InsufficientClassification(), result.ContentClassification)
}

func TestEngine_DegenerateResult(t *testing.T) {
	engine := newTestEngine(t, nil, Deps{
		Extractor:  &fakeExtractor{},
		Sentiment:  failingSentiment{},
		Classifier: failingClassifier{},
	})
	url := "https://example.org/missing"

	result, err := engine.Verify(context.Background(), types.VerificationRequest{Content: url, ContentType: types.ContentTypeURL})
	require.NoError(t, err)

	assert.Equal(t, 0, result.TrustScore)
	assert.Equal(t, DegenerateSummary, result.SourceVerification.Summary)
	assert.Empty(t, result.SourceVerification.Sources)
	assert.Empty(t, result.SourceVerification.Verdicts)
	assert.True(t, CheckIntegrity(*result, url))
}

func TestEngine_ProgressEvents(t *testing.T) {
	var mu sync.Mutex
	var events []ProgressEvent
	engine := newTestEngine(t, nil, Deps{History: history.NewMemoryStore()})

	result, err := engine.VerifyWithProgress(context.Background(),
		textRequest("The minister announced a new budget on Monday."),
		func(ev ProgressEvent) {
			mu.Lock()
			defer mu.Unlock()
			events = append(events, ev)
		})
	require.NoError(t, err)

	require.Len(t, events, len(steps.StepRegistry))
	done := make(steps.Completed)
	for _, ev := range events {
		assert.NoError(t, steps.ValidateDependencies(done, ev.Step), "step %s emitted before its dependencies", ev.Step)
		done[ev.Step] = true
		assert.Equal(t, steps.StepRegistry[ev.Step].Category, ev.Category)
		assert.Equal(t, result.ID, ev.VerificationID)
	}
	assert.Equal(t, steps.Ingest, events[0].Step)
	assert.Equal(t, steps.History, events[len(events)-1].Step)

	statuses := make(map[string]string, len(events))
	for _, ev := range events {
		statuses[ev.Step] = ev.Status
	}
	assert.Equal(t, steps.StatusFailed, statuses[steps.FactCheck], "fact-checks are not configured")
	assert.Equal(t, steps.StatusCompleted, statuses[steps.Scoring])
}

func TestEngine_ProgressSkipsHistoryWithoutStore(t *testing.T) {
	var last ProgressEvent
	engine := newTestEngine(t, nil, Deps{})

	_, err := engine.VerifyWithProgress(context.Background(),
		textRequest("The minister announced a new budget on Monday."),
		func(ev ProgressEvent) { last = ev })
	require.NoError(t, err)
	assert.Equal(t, steps.History, last.Step)
	assert.Equal(t, steps.StatusSkipped, last.Status)
}

func TestNewEngine_RejectsInvalidPolicy(t *testing.T) {
	policy := scoring.DefaultPolicy()
	policy.FactualWeights.Sentiment = 0.5
	_, err := NewEngine(Deps{}, Options{Policy: policy})
	assert.Error(t, err)
}
