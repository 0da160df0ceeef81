package verifier

import (
	"fmt"
	"strings"

	"github.com/jonathan/trustcheck/internal/types"
)

const (
	// GeneralVerificationClaim labels the single verdict of a citation-only result.
	GeneralVerificationClaim = "General content verification"
	// SanityConflictTopic is the topic of conflicts synthesised from sanity issues.
	SanityConflictTopic = "Content analysis"
	// SanityConflictSource is the source of conflicts synthesised from sanity issues.
	SanityConflictSource = "Internal validation"
	// NoSourcesEvidence is the verdict evidence when nothing could be checked.
	NoSourcesEvidence = "No sources available for verification"
)

// sanityFallback builds the result used when no claim produced evidence.
// Every claim is UNVERIFIED when the content passed the sanity battery and
// FALSE when it did not.
func (v *Verifier) sanityFallback(in Input) types.SourceVerificationResult {
	report := in.Sanity

	score := v.opts.FallbackCleanCredibility
	verdict := types.VerdictUnverified
	if !report.IsClean {
		score = v.opts.FallbackUncleanCredibility
		verdict = types.VerdictFalse
	}

	evidenceText := NoSourcesEvidence
	if len(report.Issues) > 0 {
		evidenceText = strings.Join(report.Issues, "; ")
	}

	verdicts := make([]types.ClaimVerdict, 0, len(in.Claims))
	for _, claim := range in.Claims {
		verdicts = append(verdicts, types.ClaimVerdict{
			ClaimText:         claim,
			Verdict:           verdict,
			Confidence:        report.Confidence,
			SupportingSources: []string{},
			Evidence:          evidenceText,
		})
	}

	summary := "No sources found to verify this content. Treat with caution."
	if len(report.Issues) > 0 {
		summary = fmt.Sprintf("Content failed basic verification checks: %s", strings.Join(report.Issues, ", "))
	}

	return types.SourceVerificationResult{
		Credibility: score,
		Verdicts:    verdicts,
		Sources:     []types.SourceRecord{},
		Conflicts:   sanityConflicts(report),
		Summary:     summary,
		Confidence:  report.Confidence,
	}
}

// sanityConflicts turns each sanity issue into a conflict record.
func sanityConflicts(report types.SanityReport) []types.ConflictRecord {
	conflicts := make([]types.ConflictRecord, 0, len(report.Issues))
	for _, issue := range report.Issues {
		conflicts = append(conflicts, types.ConflictRecord{
			Topic:                 SanityConflictTopic,
			ConflictingStatements: []string{issue},
			Sources:               []string{SanityConflictSource},
		})
	}
	return conflicts
}
