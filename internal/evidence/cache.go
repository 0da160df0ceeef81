package evidence

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/jonathan/trustcheck/internal/cache"
)

// DefaultCacheTTL is how long a cited response is reused.
const DefaultCacheTTL = 6 * time.Hour

// CachedProvider memoises responses that carry citations. Cache failures are
// logged and never fail the lookup.
type CachedProvider struct {
	next  Provider
	store cache.Store
	ttl   time.Duration
}

// NewCachedProvider wraps next with store. A zero ttl uses DefaultCacheTTL.
func NewCachedProvider(next Provider, store cache.Store, ttl time.Duration) *CachedProvider {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedProvider{next: next, store: store, ttl: ttl}
}

// Verify implements Provider.
func (p *CachedProvider) Verify(ctx context.Context, claim string, filters Filters) (*Response, error) {
	key := cacheKey(claim, filters)

	var cached Response
	err := cache.GetJSON(ctx, p.store, key, &cached)
	switch {
	case err == nil:
		slog.Debug("[Evidence] cache hit", slog.String("key", key))
		return &cached, nil
	case !errors.Is(err, cache.ErrMiss):
		slog.Warn("[Evidence] cache read failed", slog.String("error", err.Error()))
	}

	resp, err := p.next.Verify(ctx, claim, filters)
	if err != nil {
		return nil, err
	}
	if resp.HasCitations() {
		if err := cache.SetJSON(ctx, p.store, key, resp, p.ttl); err != nil {
			slog.Warn("[Evidence] cache write failed", slog.String("error", err.Error()))
		}
	}
	return resp, nil
}

func cacheKey(claim string, filters Filters) string {
	sourceTypes := make([]string, len(filters.SourceTypes))
	for i, st := range filters.SourceTypes {
		sourceTypes[i] = string(st)
	}
	sort.Strings(sourceTypes)
	return cache.Key("evidence",
		strings.ToLower(strings.TrimSpace(claim)),
		string(filters.Region),
		strings.Join(sourceTypes, ","),
		strings.Join(filters.Domains, ","),
	)
}
