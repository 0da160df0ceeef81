package types

import "unicode/utf8"

// PreviewLength is the number of characters kept in VerificationResult.ContentPreview.
const PreviewLength = 100

// IntegrityRecord is a tamper-evident digest of a finished verification.
type IntegrityRecord struct {
	Hash      string `json:"hash"`
	Algorithm string `json:"algorithm"`
	Timestamp string `json:"timestamp"`
}

// VerificationResult is the final, write-once output of a verification run.
type VerificationResult struct {
	ID                    string                   `json:"id"`
	TrustScore            int                      `json:"trustScore"`
	TrustLevel            string                   `json:"trustLevel"`
	SanityCheck           SanityReport             `json:"sanityCheck"`
	SourceVerification    SourceVerificationResult `json:"sourceVerification"`
	SentimentAnalysis     SentimentResult          `json:"sentimentAnalysis"`
	FactCheck             FactCheckResult          `json:"factCheck"`
	SourceCredibility     SourceCredibilityResult  `json:"sourceCredibility"`
	ContentClassification ContentClassification    `json:"contentClassification"`
	Integrity             IntegrityRecord          `json:"integrity"`
	ProcessingTime        int64                    `json:"processingTime"`
	Timestamp             string                   `json:"timestamp"`
	ContentPreview        string                   `json:"contentPreview"`
	ContentType           ContentType              `json:"contentType"`
}

// Preview returns the first PreviewLength characters of content, with "..." appended when truncated.
func Preview(content string) string {
	if utf8.RuneCountInString(content) <= PreviewLength {
		return content
	}
	runes := []rune(content)
	return string(runes[:PreviewLength]) + "..."
}
