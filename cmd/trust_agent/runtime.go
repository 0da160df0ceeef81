package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jonathan/trustcheck/internal/analysis"
	"github.com/jonathan/trustcheck/internal/cache"
	"github.com/jonathan/trustcheck/internal/config"
	"github.com/jonathan/trustcheck/internal/credibility"
	"github.com/jonathan/trustcheck/internal/evidence"
	"github.com/jonathan/trustcheck/internal/fetch"
	"github.com/jonathan/trustcheck/internal/history"
	"github.com/jonathan/trustcheck/internal/ingestion"
	"github.com/jonathan/trustcheck/internal/llm"
	"github.com/jonathan/trustcheck/internal/pipeline"
	"github.com/jonathan/trustcheck/internal/verifier"
)

// runtime holds everything a command needs, built from one Config.
type runtime struct {
	cfg      config.Config
	engine   *pipeline.Engine
	history  history.Store
	assessor *credibility.Assessor
	closers  []func() error
}

// Close releases clients and connections in reverse order of creation.
func (r *runtime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// newRuntime wires providers, stores and the engine. Missing API keys leave
// the matching stage on its offline default.
func newRuntime(ctx context.Context, cfg config.Config) (rt *runtime, err error) {
	rt = &runtime{cfg: cfg}
	defer func() {
		if err != nil {
			_ = rt.Close()
		}
	}()

	policy, err := cfg.ScoringPolicy()
	if err != nil {
		return nil, err
	}

	if rt.assessor, err = newAssessor(cfg); err != nil {
		return nil, err
	}

	store, err := openCache(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if store != nil {
		rt.closers = append(rt.closers, store.Close)
	}

	backend, err := history.ParseBackend(cfg.HistoryBackend)
	if err != nil {
		return nil, err
	}
	rt.history, err = history.Open(ctx, history.Config{
		Backend:     backend,
		DatabaseURL: cfg.DatabaseURL,
		RedisURL:    cfg.RedisURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open history store: %w", err)
	}
	rt.closers = append(rt.closers, rt.history.Close)

	client, err := newLLMClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if client != nil {
		rt.closers = append(rt.closers, client.Close)
	}

	deps := pipeline.Deps{
		Assessor:  rt.assessor,
		History:   rt.history,
		Extractor: newExtractor(store, cfg.UseBrowser),
	}

	verifierOpts := verifier.DefaultOptions()
	if cfg.ClaimQuota > 0 {
		verifierOpts.ClaimQuota = cfg.ClaimQuota
	}
	if d := cfg.ProviderTimeoutDuration(); d > 0 {
		verifierOpts.ProviderTimeout = d
	}
	if client != nil {
		var provider evidence.Provider = evidence.NewLLMProvider(client, string(cfg.LLMProvider()))
		if store != nil {
			provider = evidence.NewCachedProvider(provider, store, 0)
		}
		deps.Verifier = verifier.New(provider, rt.assessor, verifierOpts)
	} else {
		slog.Warn("[Setup] no evidence provider API key, claims will not be checked against sources",
			slog.String("provider", string(cfg.LLMProvider())))
		deps.Verifier = verifier.New(nil, rt.assessor, verifierOpts)
	}

	if cfg.PerspectiveAPIKey != "" {
		scorer, err := analysis.NewPerspectiveScorer(ctx, cfg.PerspectiveAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create toxicity scorer: %w", err)
		}
		deps.Sentiment = analysis.NewSentimentAnalyzer(scorer)
	}

	if cfg.FactCheckAPIKey != "" {
		searcher, err := analysis.NewGoogleFactCheck(ctx, cfg.FactCheckAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create fact-check client: %w", err)
		}
		deps.FactChecker = analysis.NewFactChecker(searcher, verifierOpts.ClaimQuota)
	}

	if cfg.ClassifyWithLLM && client != nil {
		deps.Classifier = analysis.NewClassifier(client)
	}

	rt.engine, err = pipeline.NewEngine(deps, pipeline.Options{
		Policy:          policy,
		AnalysisTimeout: cfg.AnalysisTimeoutDuration(),
	})
	if err != nil {
		return nil, err
	}
	return rt, nil
}

// newAssessor uses the embedded authority table unless a file is configured.
func newAssessor(cfg config.Config) (*credibility.Assessor, error) {
	if cfg.AuthorityTable == "" {
		return credibility.NewAssessor(nil), nil
	}
	table, err := credibility.LoadTable(cfg.AuthorityTable)
	if err != nil {
		return nil, fmt.Errorf("failed to load authority table: %w", err)
	}
	return credibility.NewAssessor(table), nil
}

// openCache returns nil when caching is disabled.
func openCache(ctx context.Context, cfg config.Config) (cache.Store, error) {
	backend, err := cache.ParseBackend(cfg.CacheBackend)
	if err != nil {
		return nil, err
	}
	switch backend {
	case cache.BackendNone:
		return nil, nil
	case cache.BackendValkey:
		store, err := cache.NewValkeyStore(ctx, cache.ValkeyConfig{Address: cfg.ValkeyAddress})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to valkey: %w", err)
		}
		return store, nil
	default:
		return cache.NewMemoryStore(), nil
	}
}

// newLLMClient returns nil when the configured provider has no API key.
func newLLMClient(ctx context.Context, cfg config.Config) (llm.Client, error) {
	apiKey := cfg.LLMAPIKey()
	if apiKey == "" {
		return nil, nil
	}
	llmConfig := llm.ConfigFor(cfg.LLMProvider())
	if cfg.OpenAIBaseURL != "" && cfg.LLMProvider() == llm.ProviderOpenAI {
		llmConfig.BaseURL = cfg.OpenAIBaseURL
	}
	client, err := llm.NewClient(ctx, llmConfig, apiKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", cfg.LLMProvider(), err)
	}
	return client, nil
}

func newExtractor(store cache.Store, useBrowser bool) ingestion.Extractor {
	fetcher := fetch.NewCachedFetcher(store, nil)
	if useBrowser {
		return ingestion.NewPageExtractor(fetcher, fetch.ChromeRenderer{})
	}
	return ingestion.NewPageExtractor(fetcher, nil)
}
