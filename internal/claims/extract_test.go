package claims

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_FactualSentences(t *testing.T) {
	content := "The unemployment rate rose to 8.2% according to a 2021 report. Wow! " +
		"The minister announced new funding for schools? I love sunny afternoons"

	got := Extract(content)

	assert.Equal(t, []string{
		"The unemployment rate rose to 8",
		"2% according to a 2021 report",
		"The minister announced new funding for schools",
	}, got)
}

func TestExtract_DropsShortFragments(t *testing.T) {
	got := Extract("It is. He was. The capital city of Nigeria is Abuja.")
	assert.Equal(t, []string{"The capital city of Nigeria is Abuja"}, got)
}

func TestExtract_FallbackToContentPrefix(t *testing.T) {
	content := strings.Repeat("lovely sunny weather ", 20)

	got := Extract(content)

	require.Len(t, got, 1)
	assert.LessOrEqual(t, len([]rune(got[0])), FallbackLength)
	assert.True(t, strings.HasPrefix(content, got[0]))
}

func TestExtract_NeverEmpty(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"!!!",
		"ok.",
		"a short one",
		"Nigeria experienced heavy snow this week",
		strings.Repeat("?", 500),
		"日本語のテキストだけ",
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			got := Extract(in)
			require.NotEmpty(t, got)
			for _, c := range got {
				assert.NotEmpty(t, strings.TrimSpace(c))
			}
		})
	}
}

func TestExtract_Deterministic(t *testing.T) {
	content := "Lagos is the largest city in Nigeria. The data shows growth of 3 percent."
	assert.Equal(t, Extract(content), Extract(content))
}

func TestIsFactual(t *testing.T) {
	tests := []struct {
		sentence string
		want     bool
	}{
		{"The sky was clear", true},
		{"Revenue grew 12 percent", true},
		{"A new study on sleep", true},
		{"The president spoke", true},
		{"Largest nation in Africa", true},
		{"Lovely sunny afternoon", false},
		{"Wonderful vibes only", false},
	}

	for _, tt := range tests {
		t.Run(tt.sentence, func(t *testing.T) {
			assert.Equal(t, tt.want, IsFactual(tt.sentence))
		})
	}
}
