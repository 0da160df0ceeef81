package verifier

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/jonathan/trustcheck/internal/llm"
)

// Parse stages, in the order they are attempted.
const (
	StageStrict  = "strict"
	StageExtract = "extract"
)

// ParseError is returned when a provider body holds no usable structured payload.
type ParseError struct {
	Stage   string
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("parse %s: %s: %v", e.Stage, e.Message, e.Cause)
	}
	return fmt.Sprintf("parse %s: %s", e.Stage, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// payload is the structured verification document requested from providers.
// Numeric fields are pointers so a missing value can be told apart from zero.
type payload struct {
	OverallCredibility *score            `json:"overallCredibility"`
	ClaimsVerified     []payloadClaim    `json:"claimsVerified"`
	Sources            []declaredSource  `json:"sources"`
	Conflicts          []payloadConflict `json:"conflictingInformation"`
	Summary            string            `json:"summary"`
	Confidence         *score            `json:"confidence"`
}

type payloadClaim struct {
	Claim              string   `json:"claim"`
	VerificationStatus string   `json:"verificationStatus"`
	Confidence         *score   `json:"confidence"`
	Evidence           string   `json:"evidence"`
	Sources            []string `json:"sources"`
}

// declaredSource is a source as described by the provider itself.
type declaredSource struct {
	URL              string  `json:"url"`
	Title            string  `json:"title"`
	Domain           string  `json:"domain"`
	CredibilityScore *score  `json:"credibilityScore"`
	PublicationDate  *string `json:"publicationDate"`
	RelevantQuote    string  `json:"relevantQuote"`
	SourceType       string  `json:"sourceType"`
	IsRegionalSource *bool   `json:"isRegionalSource"`
	// older prompt revisions used a Nigeria-specific flag
	IsNigerianSource *bool `json:"isNigerianSource"`
}

type payloadConflict struct {
	Claim             string   `json:"claim"`
	ConflictingClaims []string `json:"conflictingClaims"`
	Sources           []string `json:"sources"`
}

// meaningful reports whether the document carries any verification content.
// A bare "{}" found in prose is not a structured answer.
func (p *payload) meaningful() bool {
	return p.OverallCredibility.valid() || len(p.ClaimsVerified) > 0 || len(p.Sources) > 0
}

var objectPattern = regexp.MustCompile(`(?s)\{.*\}`)

// parsePayload decodes a provider body: first the whole fence-stripped text,
// then the outermost {...} span, then the first balanced object.
func parsePayload(text string) (*payload, error) {
	stripped := llm.StripCodeFence(text)
	if stripped == "" {
		return nil, &ParseError{Stage: StageStrict, Message: "empty body"}
	}

	var p payload
	strictErr := json.Unmarshal([]byte(stripped), &p)
	if strictErr == nil && p.meaningful() {
		return &p, nil
	}

	candidates := []string{objectPattern.FindString(stripped), llm.ExtractJSONObject(stripped)}
	for _, candidate := range candidates {
		if candidate == "" || candidate == stripped {
			continue
		}
		var extracted payload
		if err := json.Unmarshal([]byte(candidate), &extracted); err == nil && extracted.meaningful() {
			return &extracted, nil
		}
	}

	if strictErr != nil {
		return nil, &ParseError{Stage: StageExtract, Message: "no structured payload found", Cause: strictErr}
	}
	return nil, &ParseError{Stage: StageStrict, Message: "payload has no verification content"}
}

// score is a 0-100 value as providers actually send it: a number, a numeric
// string such as "85" or "85%", or a fraction such as 0.85.
type score struct {
	value float64
	ok    bool
}

func (s *score) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(unquoted), "%"))
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		// unreadable scores count as absent rather than failing the payload
		*s = score{}
		return nil
	}
	*s = score{value: f, ok: true}
	return nil
}

func (s *score) valid() bool {
	return s != nil && s.ok
}

// scoreOf rounds v into [0,100], or returns def when v is absent. Values in
// (0,1] are fractions and are scaled by 100.
func scoreOf(v *score, def int) int {
	if !v.valid() {
		return def
	}
	f := v.value
	if f > 0 && f <= 1 {
		f *= 100
	}
	switch {
	case f < 0:
		return 0
	case f > 100:
		return 100
	}
	return int(f + 0.5)
}

func normalizeVerdictText(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(s)
}
