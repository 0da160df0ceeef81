// Package claims splits content into candidate factual statements.
package claims

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// MinSentenceLength is the trimmed length a fragment must exceed to be considered.
	MinSentenceLength = 10
	// FallbackLength is how much of the content becomes the single claim when no sentence qualifies.
	FallbackLength = 200
	// EmptyContentClaim is returned for blank content so callers always receive one claim.
	EmptyContentClaim = "(empty content)"
)

var sentenceTerminators = regexp.MustCompile(`[.!?]+`)

// factualPatterns flag a sentence as checkable: auxiliary verbs, numerals,
// attribution phrases, institutional nouns and political-entity nouns.
var factualPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(is|are|was|were|has|have|will|did|does)\b`),
	regexp.MustCompile(`\b\d+`),
	regexp.MustCompile(`(?i)\b(according to|study|research|report|data)\b`),
	regexp.MustCompile(`(?i)\b(president|minister|government|official)\b`),
	regexp.MustCompile(`(?i)\b(country|city|state|nation)\b`),
}

// Extract returns the candidate claims found in content, in order of appearance.
// The result is never empty: when no sentence looks factual, the leading
// FallbackLength characters of content become the only claim.
func Extract(content string) []string {
	var found []string
	for _, fragment := range sentenceTerminators.Split(content, -1) {
		sentence := strings.TrimSpace(fragment)
		if utf8.RuneCountInString(sentence) <= MinSentenceLength {
			continue
		}
		if IsFactual(sentence) {
			found = append(found, sentence)
		}
	}
	if len(found) > 0 {
		return found
	}

	fallback := strings.TrimSpace(truncate(content, FallbackLength))
	if fallback == "" {
		return []string{EmptyContentClaim}
	}
	return []string{fallback}
}

// IsFactual reports whether sentence matches at least one factual pattern.
func IsFactual(sentence string) bool {
	for _, pattern := range factualPatterns {
		if pattern.MatchString(sentence) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
