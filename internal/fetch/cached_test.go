package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/trustcheck/internal/cache"
)

func newPageServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><title>Flood report</title></head><body><article>Rain fell.</article></body></html>`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDefaultCachedFetcherConfig(t *testing.T) {
	config := DefaultCachedFetcherConfig()
	assert.Equal(t, DefaultPageCacheTTL, config.CacheTTL)
	assert.False(t, config.SkipCache)
	assert.NotNil(t, config.Options)
}

func TestNewCachedFetcher_EmptyConfig(t *testing.T) {
	fetcher := NewCachedFetcher(nil, &CachedFetcherConfig{})
	require.NotNil(t, fetcher)
	assert.Equal(t, DefaultPageCacheTTL, fetcher.cacheTTL)
	assert.NotNil(t, fetcher.options)
}

func TestCachedFetcher_ServesFromCache(t *testing.T) {
	var hits atomic.Int32
	srv := newPageServer(t, &hits)
	store := cache.NewMemoryStore()
	fetcher := NewCachedFetcher(store, nil)
	ctx := context.Background()

	first, err := fetcher.Fetch(ctx, srv.URL)
	require.NoError(t, err)
	assert.False(t, first.FromCache)
	assert.Equal(t, "Flood report", first.Title)

	second, err := fetcher.Fetch(ctx, srv.URL)
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, first.HTML, second.HTML)
	assert.Equal(t, int32(1), hits.Load())

	require.NoError(t, fetcher.InvalidateCache(ctx, srv.URL))
	third, err := fetcher.Fetch(ctx, srv.URL)
	require.NoError(t, err)
	assert.False(t, third.FromCache)
	assert.Equal(t, int32(2), hits.Load())
}

func TestCachedFetcher_SkipCache(t *testing.T) {
	var hits atomic.Int32
	srv := newPageServer(t, &hits)
	fetcher := NewCachedFetcher(cache.NewMemoryStore(), &CachedFetcherConfig{SkipCache: true, CacheTTL: time.Minute})

	for range 2 {
		_, err := fetcher.Fetch(context.Background(), srv.URL)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), hits.Load())
}

func TestCachedFetcher_ErrorsAreNotCached(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	store := cache.NewMemoryStore()
	_, err := NewCachedFetcher(store, nil).Fetch(context.Background(), srv.URL)
	var fetchErr *Error
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, 0, store.Len())
}
