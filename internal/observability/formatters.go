// Package observability provides formatted output utilities for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/trustcheck/internal/history"
	"github.com/jonathan/trustcheck/internal/pipeline"
	"github.com/jonathan/trustcheck/internal/pipeline/steps"
	"github.com/jonathan/trustcheck/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for the CLI
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	for _, line := range lines {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-3]) + "..."
}

// PrintResult outputs the full human-readable report for a verification.
func (p *Printer) PrintResult(result *types.VerificationResult) {
	if result == nil {
		return
	}
	p.PrintSummary(result)
	p.PrintSanity(result.SanityCheck)
	p.PrintVerdicts(result.SourceVerification)
	p.PrintSources(result.SourceVerification.Sources)
	p.PrintAnalyses(result)
}

// PrintSummary outputs the score, level and integrity digest.
func (p *Printer) PrintSummary(result *types.VerificationResult) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Trust Score:  %d/100 (%s)\n", result.TrustScore, result.TrustLevel))
	sb.WriteString(fmt.Sprintf("Content:      %s\n", result.ContentPreview))
	sb.WriteString(fmt.Sprintf("Type:         %s\n", result.ContentType))
	sb.WriteString(fmt.Sprintf("Processed in: %dms\n", result.ProcessingTime))
	sb.WriteString(fmt.Sprintf("ID:           %s\n", result.ID))
	sb.WriteString(fmt.Sprintf("Digest:       %s", result.Integrity.Hash))

	p.printBox("VERIFICATION RESULT", sb.String())
}

// PrintSanity outputs the sanity battery outcome.
func (p *Printer) PrintSanity(report types.SanityReport) {
	var sb strings.Builder
	if report.IsClean {
		sb.WriteString("✅ No impossibilities detected\n")
	} else {
		for _, issue := range report.Issues {
			sb.WriteString(fmt.Sprintf("⚠ %s\n", issue))
		}
	}
	sb.WriteString(fmt.Sprintf("Confidence: %d%%", report.Confidence))

	p.printBox("SANITY CHECK", sb.String())
}

// PrintVerdicts outputs the per-claim verdicts and any conflicts.
func (p *Printer) PrintVerdicts(sv types.SourceVerificationResult) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Credibility: %d  Confidence: %d\n", sv.Credibility, sv.Confidence))
	sb.WriteString(sv.Summary + "\n")

	if len(sv.Verdicts) > 0 {
		sb.WriteString("\n")
		count := min(len(sv.Verdicts), maxItemsToShow)
		for i := 0; i < count; i++ {
			v := sv.Verdicts[i]
			sb.WriteString(fmt.Sprintf("%s %s (%d%%)\n", verdictIcon(v.Verdict), v.Verdict, v.Confidence))
			sb.WriteString(fmt.Sprintf("  %s\n", v.ClaimText))
		}
		if len(sv.Verdicts) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(sv.Verdicts)-maxItemsToShow))
		}
	}

	for _, c := range sv.Conflicts {
		sb.WriteString(fmt.Sprintf("\nConflict: %s\n", c.Topic))
		for _, s := range c.ConflictingStatements {
			sb.WriteString(fmt.Sprintf("  • %s\n", s))
		}
	}

	p.printBox("SOURCE VERIFICATION", sb.String())
}

func verdictIcon(v types.Verdict) string {
	switch v {
	case types.VerdictVerified:
		return "✓"
	case types.VerdictFalse:
		return "✗"
	case types.VerdictPartiallyTrue:
		return "~"
	case types.VerdictOpinion:
		return "»"
	default:
		return "?"
	}
}

// PrintSources outputs the cited evidence, most credible first as given.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintSources(sources []types.SourceRecord) {
	if len(sources) == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "NO SOURCES CITED")
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	count := min(len(sources), maxItemsToShow)
	for i := 0; i < count; i++ {
		s := sources[i]
		regional := ""
		if s.IsRegionalSource {
			regional = ", regional"
		}
		sb.WriteString(fmt.Sprintf("%d. %s [%d, %s%s]\n", i+1, s.Domain, s.CredibilityScore, s.SourceType, regional))
		if s.Title != "" {
			sb.WriteString(fmt.Sprintf("   %s\n", s.Title))
		}
	}
	if len(sources) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more\n", len(sources)-maxItemsToShow))
	}

	p.printBox("SOURCES", sb.String())
}

// PrintAnalyses outputs the independent analysis branches.
func (p *Printer) PrintAnalyses(result *types.VerificationResult) {
	var sb strings.Builder

	s := result.SentimentAnalysis
	sb.WriteString(fmt.Sprintf("Sentiment:      %s (%d, confidence %.2f)\n", s.Label, s.Score, s.Confidence))
	if s.Toxicity == types.ToxicityUnavailable {
		sb.WriteString("Toxicity:       n/a\n")
	} else {
		sb.WriteString(fmt.Sprintf("Toxicity:       %d\n", s.Toxicity))
	}

	fc := result.FactCheck
	sb.WriteString(fmt.Sprintf("Fact-check:     %d (%d claims rated)\n", fc.Score, len(fc.Claims)))
	sb.WriteString(fmt.Sprintf("  %s\n", fc.Summary))

	sc := result.SourceCredibility
	sb.WriteString(fmt.Sprintf("Credibility:    %d over %d domain(s)\n", sc.Score, len(sc.Domains)))

	c := result.ContentClassification
	sb.WriteString(fmt.Sprintf("Classification: %s (%d%%), readability %d, %s", c.Type, c.Confidence, c.Readability, c.Language))

	p.printBox("ANALYSES", sb.String())
}

// PrintDomain outputs a single authority-table verdict.
func (p *Printer) PrintDomain(d types.DomainCredibility) {
	p.printBox("DOMAIN CREDIBILITY", fmt.Sprintf("Domain:      %s\nCredibility: %d\nType:        %s",
		d.Domain, d.Credibility, d.Type))
}

// PrintStats outputs history statistics.
func (p *Printer) PrintStats(stats history.Stats) {
	p.printBox("HISTORY", fmt.Sprintf(
		"Verifications:     %d\nToday:             %d\nAverage score:     %d\nAverage response:  %dms",
		stats.TotalVerifications, stats.TodayCount, stats.AverageTrustScore, stats.AverageResponseTime))
}

// PrintHistory outputs one line per stored result.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintHistory(results []types.VerificationResult) {
	if len(results) == 0 {
		fmt.Fprintln(p.out, "No verifications recorded.")
		return
	}
	for _, r := range results {
		fmt.Fprintf(p.out, "%s  %3d  %-14s  %s\n", r.Timestamp, r.TrustScore, r.TrustLevel, truncate(r.ContentPreview, boxWidth))
	}
}

// PrintProgress outputs a single pipeline progress line.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintProgress(event pipeline.ProgressEvent) {
	icon := "•"
	switch event.Status {
	case steps.StatusCompleted:
		icon = "✓"
	case steps.StatusFailed:
		icon = "✗"
	case steps.StatusSkipped:
		icon = "-"
	}
	fmt.Fprintf(p.out, "%s %-24s %s\n", icon, event.Step, event.Message)
}
