package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strings"
	"unicode"

	"github.com/jonathan/trustcheck/internal/llm"
	"github.com/jonathan/trustcheck/internal/prompts"
	"github.com/jonathan/trustcheck/internal/types"
)

var (
	opinionMarkers = []string{
		"i think", "i believe", "i feel", "in my opinion", "in my view", "we need",
		"should", "must", "arguably", "clearly", "obviously", "best", "worst",
		"terrible", "amazing", "disgrace", "shameful", "outrageous",
	}
	factualMarkers = []string{
		"according to", "reported", "announced", "percent", "statistics",
		"study", "data", "official", "survey", "census", "confirmed",
	}
	digitPattern    = regexp.MustCompile(`\d`)
	sentencePattern = regexp.MustCompile(`[.!?]+`)
)

// Classifier labels content as factual, opinion or mixed. The lexical
// heuristic always runs; an LLM, when configured, refines the label.
type Classifier struct {
	client llm.Client
	tier   llm.ModelTier
	logger *slog.Logger
}

// NewClassifier creates a Classifier. client may be nil.
func NewClassifier(client llm.Client) *Classifier {
	return &Classifier{
		client: client,
		tier:   llm.TierLite,
		logger: slog.With(slog.String("component", "classifier")),
	}
}

// Classify returns the content classification. An LLM failure falls back to
// the heuristic; only an empty input or a cancelled context is an error.
func (c *Classifier) Classify(ctx context.Context, text string) (types.ContentClassification, error) {
	if err := ctx.Err(); err != nil {
		return InsufficientClassification(), err
	}
	if strings.TrimSpace(text) == "" {
		return InsufficientClassification(), &ProviderError{Analysis: "classification", Message: "no text to classify"}
	}

	result := HeuristicClassification(text)
	if c.client == nil {
		return result, nil
	}

	refined, err := c.classifyWithLLM(ctx, text)
	if err != nil {
		c.logger.Warn("[Classifier] LLM classification failed, using heuristic", slog.String("error", err.Error()))
		return result, nil
	}
	refined.Readability = result.Readability
	if refined.Language == "" {
		refined.Language = result.Language
	}
	return refined, nil
}

type llmClassification struct {
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
	Language   string  `json:"language"`
}

func (c *Classifier) classifyWithLLM(ctx context.Context, text string) (types.ContentClassification, error) {
	schemaPrompt := llm.BuildExtractionPrompt(llm.ContentClassificationSchema(), text)
	prompt, err := prompts.Render(prompts.ClassificationFile, "classify", map[string]string{"Schema": schemaPrompt})
	if err != nil {
		return types.ContentClassification{}, err
	}

	raw, err := c.client.GenerateJSON(ctx, prompt, c.tier)
	if err != nil {
		return types.ContentClassification{}, &ProviderError{Analysis: "classification", Message: "LLM request failed", Cause: err}
	}

	var out llmClassification
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return types.ContentClassification{}, &ProviderError{Analysis: "classification", Message: "invalid LLM response", Cause: err}
	}

	kind, ok := parseClassificationType(out.Type)
	if !ok {
		return types.ContentClassification{}, &ProviderError{Analysis: "classification", Message: fmt.Sprintf("unknown type %q", out.Type)}
	}

	confidence := out.Confidence
	if confidence > 0 && confidence <= 1 {
		confidence *= 100
	}
	return types.ContentClassification{
		Type:       kind,
		Confidence: types.ClampScore(int(math.Round(confidence))),
		Language:   strings.ToLower(strings.TrimSpace(out.Language)),
	}, nil
}

func parseClassificationType(s string) (types.ClassificationType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "factual", "fact", "news":
		return types.ClassificationFactual, true
	case "opinion", "satire", "editorial":
		return types.ClassificationOpinion, true
	case "mixed":
		return types.ClassificationMixed, true
	}
	return "", false
}

// HeuristicClassification labels text from opinion and factual marker counts.
func HeuristicClassification(text string) types.ContentClassification {
	lower := strings.ToLower(text)

	factual, opinion := 0, 0
	for _, sentence := range sentencePattern.Split(lower, -1) {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		isOpinion := containsAny(sentence, opinionMarkers)
		isFactual := digitPattern.MatchString(sentence) || containsAny(sentence, factualMarkers)
		switch {
		case isOpinion && !isFactual:
			opinion++
		case isFactual && !isOpinion:
			factual++
		}
	}

	result := types.ContentClassification{
		Type:        types.ClassificationMixed,
		Confidence:  30,
		Readability: Readability(text),
		Language:    detectLanguage(text),
	}

	total := factual + opinion
	if total == 0 {
		return result
	}

	ratio := float64(factual) / float64(total)
	switch {
	case ratio >= 0.7:
		result.Type = types.ClassificationFactual
	case ratio <= 0.3:
		result.Type = types.ClassificationOpinion
	}

	confidence := 50 + int(math.Round(math.Abs(ratio-0.5)*80))
	if total < 3 {
		confidence -= 15
	}
	result.Confidence = types.ClampScore(confidence)
	return result
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// detectLanguage reports English for predominantly Latin-script text, the
// only script the lexical analyses are tuned for.
func detectLanguage(text string) string {
	letters, latin := 0, 0
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if unicode.In(r, unicode.Latin) {
			latin++
		}
	}
	if letters > 0 && latin*10 >= letters*9 {
		return "en"
	}
	return "unknown"
}
