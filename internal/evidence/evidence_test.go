package evidence

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/trustcheck/internal/cache"
	"github.com/jonathan/trustcheck/internal/llm"
	"github.com/jonathan/trustcheck/internal/types"
)

type fakeLLM struct {
	result *llm.SearchResult
	err    error
	last   llm.SearchRequest
}

func (f *fakeLLM) GenerateContent(context.Context, string, llm.ModelTier) (string, error) {
	return "", nil
}

func (f *fakeLLM) GenerateJSON(context.Context, string, llm.ModelTier) (string, error) {
	return "{}", nil
}

func (f *fakeLLM) Search(_ context.Context, req llm.SearchRequest) (*llm.SearchResult, error) {
	f.last = req
	return f.result, f.err
}

func (f *fakeLLM) GetModel(llm.ModelTier) string { return "fake" }
func (f *fakeLLM) Close() error                  { return nil }

func TestLLMProvider_Verify(t *testing.T) {
	client := &fakeLLM{result: &llm.SearchResult{
		Text:      `{"overallCredibility": 70}`,
		Citations: []llm.Citation{{URL: "https://punchng.com/a", Title: "Punch"}},
	}}
	p := NewLLMProvider(client, "perplexity")

	resp, err := p.Verify(context.Background(), "Lagos hosts the summit", Filters{
		Region:  types.RegionNigeria,
		Domains: []string{"punchng.com"},
	})
	require.NoError(t, err)

	assert.True(t, resp.HasCitations())
	assert.Equal(t, "Punch", resp.Citations[0].Title)
	assert.Equal(t, `{"overallCredibility": 70}`, resp.RawText)

	assert.Equal(t, llm.TierStandard, client.last.Tier)
	assert.Equal(t, []string{"punchng.com"}, client.last.Domains)
	assert.Contains(t, client.last.Prompt, `"Lagos hosts the summit"`)
	assert.Contains(t, client.last.Prompt, "Nigerian sources")
	assert.Contains(t, client.last.System, "fact-checker")
}

func TestLLMProvider_AnswerURLsAreNotCitations(t *testing.T) {
	client := &fakeLLM{result: &llm.SearchResult{
		Text: `{"sources": [{"url": "https://reuters.com/x"}]} https://apnews.com/y`,
	}}

	resp, err := NewLLMProvider(client, "gemini").Verify(context.Background(), "claim", Filters{})
	require.NoError(t, err)
	assert.False(t, resp.HasCitations())
}

func TestLLMProvider_WithTier(t *testing.T) {
	client := &fakeLLM{result: &llm.SearchResult{}}
	_, err := NewLLMProvider(client, "gemini").WithTier(llm.TierLite).Verify(context.Background(), "claim", Filters{})
	require.NoError(t, err)
	assert.Equal(t, llm.TierLite, client.last.Tier)
	assert.Contains(t, client.last.Prompt, "international credible sources")
}

func TestLLMProvider_WrapsErrors(t *testing.T) {
	cause := errors.New("503")
	p := NewLLMProvider(&fakeLLM{err: cause}, "gemini")

	_, err := p.Verify(context.Background(), "claim", Filters{})

	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "gemini", perr.Provider)
	assert.ErrorIs(t, err, cause)
}

func TestResponse_HasCitations(t *testing.T) {
	var nilResp *Response
	assert.False(t, nilResp.HasCitations())
	assert.False(t, (&Response{Citations: []Citation{{URL: ""}}}).HasCitations())
	assert.True(t, (&Response{Citations: []Citation{{URL: "https://a.com"}}}).HasCitations())
}

func TestCachedProvider(t *testing.T) {
	calls := 0
	var next ProviderFunc = func(_ context.Context, claim string, _ Filters) (*Response, error) {
		calls++
		if claim == "uncited" {
			return &Response{RawText: "nothing"}, nil
		}
		if claim == "broken" {
			return nil, errors.New("down")
		}
		return &Response{Citations: []Citation{{URL: "https://reuters.com/x"}}, RawText: "ok"}, nil
	}
	p := NewCachedProvider(next, cache.NewMemoryStore(), 0)
	ctx := context.Background()
	filters := Filters{Region: types.RegionGlobal}

	first, err := p.Verify(ctx, "cited", filters)
	require.NoError(t, err)
	second, err := p.Verify(ctx, "  CITED ", filters)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls, "normalised claim served from cache")

	_, err = p.Verify(ctx, "cited", Filters{Region: types.RegionNigeria})
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "different filters miss the cache")

	_, _ = p.Verify(ctx, "uncited", filters)
	_, _ = p.Verify(ctx, "uncited", filters)
	assert.Equal(t, 4, calls, "responses without citations are not cached")

	_, err = p.Verify(ctx, "broken", filters)
	assert.Error(t, err)
}

func TestCacheKey_SourceTypeOrderIgnored(t *testing.T) {
	a := cacheKey("c", Filters{SourceTypes: []types.SourceType{types.SourceTypeNews, types.SourceTypeAcademic}})
	b := cacheKey("c", Filters{SourceTypes: []types.SourceType{types.SourceTypeAcademic, types.SourceTypeNews}})
	assert.Equal(t, a, b)
}
