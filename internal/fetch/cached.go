package fetch

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jonathan/trustcheck/internal/cache"
)

// DefaultPageCacheTTL is how long fetched pages are reused.
const DefaultPageCacheTTL = 24 * time.Hour

const pageKeyPrefix = "page"

// CachedFetcher wraps URL fetching with a key-value page cache.
type CachedFetcher struct {
	store     cache.Store
	options   *Options
	cacheTTL  time.Duration
	skipCache bool // For testing or forcing fresh fetches
	fetch     func(ctx context.Context, url string, opts *Options) (*Result, error)
}

// CachedFetcherConfig holds configuration for the cached fetcher.
type CachedFetcherConfig struct {
	CacheTTL  time.Duration
	SkipCache bool
	Options   *Options
}

// DefaultCachedFetcherConfig returns sensible defaults.
func DefaultCachedFetcherConfig() *CachedFetcherConfig {
	return &CachedFetcherConfig{
		CacheTTL:  DefaultPageCacheTTL,
		SkipCache: false,
		Options:   DefaultOptions(),
	}
}

// NewCachedFetcher creates a new cached fetcher. A nil store disables caching.
func NewCachedFetcher(store cache.Store, config *CachedFetcherConfig) *CachedFetcher {
	if config == nil {
		config = DefaultCachedFetcherConfig()
	}
	if config.Options == nil {
		config.Options = DefaultOptions()
	}
	if config.CacheTTL == 0 {
		config.CacheTTL = DefaultPageCacheTTL
	}
	return &CachedFetcher{
		store:     store,
		options:   config.Options,
		cacheTTL:  config.CacheTTL,
		skipCache: config.SkipCache,
		fetch:     URL,
	}
}

// CachedResult extends Result with cache metadata.
type CachedResult struct {
	*Result
	FromCache bool
}

// Fetch retrieves a URL, using the cache when a fresh copy exists. Cache
// failures are logged and never fail the fetch.
func (f *CachedFetcher) Fetch(ctx context.Context, urlStr string) (*CachedResult, error) {
	key := cache.Key(pageKeyPrefix, urlStr)
	useCache := !f.skipCache && f.store != nil

	if useCache {
		var cached Result
		err := cache.GetJSON(ctx, f.store, key, &cached)
		switch {
		case err == nil:
			return &CachedResult{Result: &cached, FromCache: true}, nil
		case !errors.Is(err, cache.ErrMiss):
			slog.Warn("[Fetch] page cache read failed", slog.String("url", urlStr), slog.String("error", err.Error()))
		}
	}

	result, err := f.fetch(ctx, urlStr, f.options)
	if err != nil {
		return nil, err
	}
	if result.Title == "" {
		result.Title = ExtractTitle(result.HTML)
	}

	if useCache {
		if err := cache.SetJSON(ctx, f.store, key, result, f.cacheTTL); err != nil {
			slog.Warn("[Fetch] page cache write failed", slog.String("url", urlStr), slog.String("error", err.Error()))
		}
	}

	return &CachedResult{Result: result, FromCache: false}, nil
}

// InvalidateCache drops a cached page, forcing a re-fetch on next request.
func (f *CachedFetcher) InvalidateCache(ctx context.Context, urlStr string) error {
	if f.store == nil {
		return nil
	}
	return f.store.Delete(ctx, cache.Key(pageKeyPrefix, urlStr))
}
