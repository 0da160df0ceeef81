package analysis

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/jonathan/trustcheck/internal/types"
)

type fakeSearcher struct {
	reviews map[string][]Review
	err     error
	queries []string
}

func (f *fakeSearcher) SearchClaims(_ context.Context, query string) ([]Review, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	return f.reviews[query], nil
}

func TestRatingVerdict(t *testing.T) {
	tests := []struct {
		rating string
		want   types.Verdict
	}{
		{"True", types.VerdictVerified},
		{"Correct", types.VerdictVerified},
		{"False", types.VerdictFalse},
		{"Mostly False", types.VerdictFalse},
		{"Pants on Fire!", types.VerdictFalse},
		{"Not true", types.VerdictFalse},
		{"Half True", types.VerdictPartiallyTrue},
		{"Mostly true", types.VerdictPartiallyTrue},
		{"Misleading", types.VerdictPartiallyTrue},
		{"Satire", types.VerdictOpinion},
		{"", types.VerdictUnverified},
		{"Unproven", types.VerdictUnverified},
		{"Unverified", types.VerdictUnverified},
		{"Unconfirmed", types.VerdictUnverified},
		{"Not verified", types.VerdictUnverified},
		{"Inaccurate", types.VerdictFalse},
		{"Incorrect", types.VerdictFalse},
		{"Not correct", types.VerdictFalse},
		{"Not  accurate", types.VerdictFalse},
		{"Mostly accurate", types.VerdictPartiallyTrue},
		{"Exaggerated", types.VerdictPartiallyTrue},
		{"Accurate", types.VerdictVerified},
		{"Confirmed", types.VerdictVerified},
	}
	for _, tt := range tests {
		t.Run(tt.rating, func(t *testing.T) {
			assert.Equal(t, tt.want, RatingVerdict(tt.rating))
		})
	}
}

func TestFactChecker_Check(t *testing.T) {
	searcher := &fakeSearcher{reviews: map[string][]Review{
		"Lagos has 20 million people": {
			{Publisher: "Africa Check", Rating: "Mostly true", URL: "https://africacheck.org/a"},
			{Publisher: "Dubawa", Rating: "True", URL: "https://dubawa.org/b"},
		},
		"The bridge collapsed in 2021": {
			{Publisher: "AFP", Rating: "True", URL: "https://factcheck.afp.com/c"},
		},
	}}

	got, err := NewFactChecker(searcher, 3).Check(context.Background(), []string{
		"Lagos has 20 million people",
		"The bridge collapsed in 2021",
		"Nobody has reviewed this claim",
		"A fourth claim is never searched",
	})
	require.NoError(t, err)

	assert.Len(t, searcher.queries, 3)
	require.Len(t, got.Claims, 2)
	assert.Equal(t, types.VerdictPartiallyTrue, got.Claims[0].Verdict)
	assert.Equal(t, 80, got.Claims[0].Confidence)
	assert.Equal(t, `Africa Check rated this "Mostly true"`, got.Claims[0].Explanation)
	assert.Equal(t, types.VerdictVerified, got.Claims[1].Verdict)

	// (55 + 90) / 2 rounded
	assert.Equal(t, 73, got.Score)
	assert.Equal(t, 66, got.Confidence)
	assert.True(t, got.Verified)
	assert.Equal(t, []string{"https://africacheck.org/a", "https://dubawa.org/b", "https://factcheck.afp.com/c"}, got.Sources)
}

func TestFactChecker_RefutedClaimBlocksVerified(t *testing.T) {
	searcher := &fakeSearcher{reviews: map[string][]Review{
		"a": {{Rating: "True", URL: "https://x.org/1"}},
		"b": {{Rating: "False", URL: "https://x.org/2"}},
	}}
	got, err := NewFactChecker(searcher, 0).Check(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.False(t, got.Verified)
	assert.Equal(t, 50, got.Score)
}

func TestFactChecker_NegatedRatingsNeverVerify(t *testing.T) {
	tests := []struct {
		rating    string
		wantScore int
	}{
		{"Unverified", 50},
		{"Unconfirmed", 50},
		{"Inaccurate", 10},
		{"Not correct", 10},
		{"Not accurate", 10},
	}
	for _, tt := range tests {
		t.Run(tt.rating, func(t *testing.T) {
			searcher := &fakeSearcher{reviews: map[string][]Review{
				"claim": {{Publisher: "Dubawa", Rating: tt.rating, URL: "https://dubawa.org/r"}},
			}}
			got, err := NewFactChecker(searcher, 3).Check(context.Background(), []string{"claim"})
			require.NoError(t, err)
			assert.False(t, got.Verified)
			assert.Equal(t, tt.wantScore, got.Score)
		})
	}
}

func TestFactChecker_Degraded(t *testing.T) {
	t.Run("no reviews", func(t *testing.T) {
		got, err := NewFactChecker(&fakeSearcher{}, 3).Check(context.Background(), []string{"claim"})
		require.NoError(t, err)
		assert.Equal(t, InsufficientFactCheck(), got)
	})

	t.Run("search failures", func(t *testing.T) {
		cause := errors.New("503")
		got, err := NewFactChecker(&fakeSearcher{err: cause}, 3).Check(context.Background(), []string{"claim"})
		require.ErrorIs(t, err, cause)
		assert.Equal(t, 0, got.Confidence)
	})

	t.Run("no searcher", func(t *testing.T) {
		got, err := NewFactChecker(nil, 3).Check(context.Background(), []string{"claim"})
		require.ErrorIs(t, err, ErrUnavailable)
		assert.Equal(t, 50, got.Score)
	})
}

func TestGoogleFactCheck_SearchClaims(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1alpha1/claims:search", r.URL.Path)
		assert.Equal(t, "flat earth", r.URL.Query().Get("query"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"claims":[
			{"text":"The earth is flat","claimReview":[{"publisher":{"name":"AFP"},"textualRating":"False","url":"https://factcheck.afp.com/flat"}]},
			{"text":"no review"}
		]}`))
	}))
	defer srv.Close()

	g, err := NewGoogleFactCheck(context.Background(), "test-key", option.WithEndpoint(srv.URL+"/"))
	require.NoError(t, err)

	reviews, err := g.SearchClaims(context.Background(), "flat earth")
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, Review{
		ClaimText: "The earth is flat",
		Publisher: "AFP",
		Rating:    "False",
		URL:       "https://factcheck.afp.com/flat",
	}, reviews[0])
}

func TestGoogleFactCheck_RequiresKey(t *testing.T) {
	_, err := NewGoogleFactCheck(context.Background(), "")
	assert.Error(t, err)
}

func TestPerspectiveScorer_Toxicity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1alpha1/comments:analyze", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"attributeScores":{"TOXICITY":{"summaryScore":{"value":0.87}}}}`))
	}))
	defer srv.Close()

	p, err := NewPerspectiveScorer(context.Background(), "test-key", option.WithEndpoint(srv.URL+"/"))
	require.NoError(t, err)

	score, err := p.Toxicity(context.Background(), "some text")
	require.NoError(t, err)
	assert.InDelta(t, 0.87, score, 1e-9)
}
