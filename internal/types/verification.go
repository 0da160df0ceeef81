package types

// SanityReport is the outcome of the lexical sanity battery.
type SanityReport struct {
	IsClean    bool     `json:"isClean"`
	Issues     []string `json:"issues"`
	Confidence int      `json:"confidence"`
}

// SourceKind classifies a cited domain.
type SourceKind string

const (
	SourceKindNews       SourceKind = "news"
	SourceKindGovernment SourceKind = "government"
	SourceKindAcademic   SourceKind = "academic"
	SourceKindSocial     SourceKind = "social"
	SourceKindBlog       SourceKind = "blog"
	SourceKindUnknown    SourceKind = "unknown"
)

// SourceRecord is one piece of cited evidence. URL is the deduplication key.
type SourceRecord struct {
	URL              string     `json:"url"`
	Title            string     `json:"title"`
	Domain           string     `json:"domain"`
	CredibilityScore int        `json:"credibilityScore"`
	SourceType       SourceKind `json:"sourceType"`
	IsRegionalSource bool       `json:"isRegionalSource"`
	RelevantQuote    string     `json:"relevantQuote"`
	PublicationDate  string     `json:"publicationDate,omitempty"`
	AccessDate       string     `json:"accessDate"`
}

// Verdict is the per-claim outcome classification.
type Verdict string

const (
	VerdictVerified      Verdict = "VERIFIED"
	VerdictFalse         Verdict = "FALSE"
	VerdictPartiallyTrue Verdict = "PARTIALLY_TRUE"
	VerdictUnverified    Verdict = "UNVERIFIED"
	VerdictOpinion       Verdict = "OPINION"
)

// Valid reports whether v is one of the known verdicts.
func (v Verdict) Valid() bool {
	switch v {
	case VerdictVerified, VerdictFalse, VerdictPartiallyTrue, VerdictUnverified, VerdictOpinion:
		return true
	}
	return false
}

// ClaimVerdict is the verification outcome for a single claim.
type ClaimVerdict struct {
	ClaimText         string   `json:"claimText"`
	Verdict           Verdict  `json:"verdict"`
	Confidence        int      `json:"confidence"`
	SupportingSources []string `json:"supportingSources"`
	Evidence          string   `json:"evidence"`
}

// ConflictRecord describes a disagreement between sources, or between the content and a sanity rule.
type ConflictRecord struct {
	Topic                 string   `json:"topic"`
	ConflictingStatements []string `json:"conflictingStatements"`
	Sources               []string `json:"sources"`
}

// SourceVerificationResult is the Source Verifier's output for one request.
type SourceVerificationResult struct {
	Credibility int              `json:"credibility"`
	Verdicts    []ClaimVerdict   `json:"verdicts"`
	Sources     []SourceRecord   `json:"sources"`
	Conflicts   []ConflictRecord `json:"conflicts"`
	Summary     string           `json:"summary"`
	Confidence  int              `json:"confidence"`
}

// ClampScore bounds a score to the closed range [0,100].
func ClampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
