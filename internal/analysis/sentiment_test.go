package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/microcosm-cc/bluemonday"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/trustcheck/internal/types"
)

type fakeToxicity struct {
	score float64
	err   error
	calls int
}

func (f *fakeToxicity) Toxicity(context.Context, string) (float64, error) {
	f.calls++
	return f.score, f.err
}

func TestSentimentAnalyzer_Polarity(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantLabel types.SentimentLabel
		check     func(t *testing.T, score int)
	}{
		{
			name:      "positive",
			text:      "This is a wonderful day. I love the new park, it is great!",
			wantLabel: types.SentimentPositive,
			check:     func(t *testing.T, score int) { assert.Greater(t, score, 60) },
		},
		{
			name:      "negative",
			text:      "This is a horrible disaster. I hate how terrible the response was.",
			wantLabel: types.SentimentNegative,
			check:     func(t *testing.T, score int) { assert.Less(t, score, 40) },
		},
		{
			name:      "neutral",
			text:      "The meeting is scheduled for Tuesday at the town hall.",
			wantLabel: types.SentimentNeutral,
			check:     func(t *testing.T, score int) { assert.InDelta(t, 50, score, 10) },
		},
	}

	a := NewSentimentAnalyzer(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := a.Analyze(context.Background(), tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.wantLabel, got.Label)
			assert.GreaterOrEqual(t, got.Confidence, 0.0)
			assert.LessOrEqual(t, got.Confidence, 1.0)
			assert.Equal(t, types.ToxicityUnavailable, got.Toxicity)
			tt.check(t, got.Score)
		})
	}
}

func TestSentimentAnalyzer_Toxicity(t *testing.T) {
	tox := &fakeToxicity{score: 0.42}
	got, err := NewSentimentAnalyzer(tox).Analyze(context.Background(), "You are a fool and nobody likes you.")
	require.NoError(t, err)
	assert.Equal(t, 42, got.Toxicity)
	assert.Equal(t, 1, tox.calls)
}

func TestSentimentAnalyzer_ToxicityFailureKeepsPolarity(t *testing.T) {
	tox := &fakeToxicity{err: errors.New("quota exceeded")}
	got, err := NewSentimentAnalyzer(tox).Analyze(context.Background(), "What a lovely morning.")
	require.NoError(t, err)
	assert.Equal(t, types.ToxicityUnavailable, got.Toxicity)
	assert.Equal(t, types.SentimentPositive, got.Label)
}

func TestSentimentAnalyzer_EmptyText(t *testing.T) {
	got, err := NewSentimentAnalyzer(nil).Analyze(context.Background(), "  https://example.com  ")
	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, InsufficientSentiment(), got)
}

func TestSentimentAnalyzer_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	got, err := NewSentimentAnalyzer(nil).Analyze(ctx, "Great news.")
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0.0, got.Confidence)
}

func TestPlainText(t *testing.T) {
	policy := bluemonday.StrictPolicy()
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"markdown link keeps text", "Read [the report](https://example.com/r) today", "Read the report today"},
		{"bare url removed", "See https://example.com/x for more", "See for more"},
		{"emphasis stripped", "This is **bold** and _quiet_", "This is bold and quiet"},
		{"html stripped", "<script>alert(1)</script><p>Hello</p>", "Hello"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PlainText(tt.input, policy))
		})
	}
}
