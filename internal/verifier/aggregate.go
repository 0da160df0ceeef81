package verifier

import (
	"time"
	"unicode/utf8"

	"github.com/jonathan/trustcheck/internal/credibility"
	"github.com/jonathan/trustcheck/internal/evidence"
	"github.com/jonathan/trustcheck/internal/types"
)

const (
	// QuoteLength bounds SourceRecord.RelevantQuote for citation-derived sources.
	QuoteLength = 300
	// DefaultCitationTitle names citations that arrive without a title.
	DefaultCitationTitle = "Source"
)

// Aggregator merges provider-declared sources with automatic citations.
type Aggregator struct {
	assessor *credibility.Assessor
	now      func() time.Time
}

// NewAggregator creates an Aggregator. A nil assessor uses the embedded table.
func NewAggregator(assessor *credibility.Assessor, now func() time.Time) *Aggregator {
	if assessor == nil {
		assessor = credibility.NewAssessor(nil)
	}
	if now == nil {
		now = time.Now
	}
	return &Aggregator{assessor: assessor, now: now}
}

// Merge deduplicates sources by normalised URL. Declared sources are added
// first and are never overwritten by citations; fields the provider left
// empty are filled from the credibility assessor.
func (a *Aggregator) Merge(declared []declaredSource, citations []evidence.Citation, region types.Region) []types.SourceRecord {
	accessDate := a.now().UTC().Format("2006-01-02")
	seen := make(map[string]bool)
	sources := make([]types.SourceRecord, 0, len(declared)+len(citations))

	for _, d := range declared {
		key := credibility.NormalizeURL(d.URL)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		sources = append(sources, a.fromDeclared(d, region, accessDate))
	}

	for _, c := range citations {
		key := credibility.NormalizeURL(c.URL)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		sources = append(sources, a.fromCitation(c, region, accessDate))
	}
	return sources
}

func (a *Aggregator) fromDeclared(d declaredSource, region types.Region, accessDate string) types.SourceRecord {
	assessment := a.assessor.Assess(d.URL)

	record := types.SourceRecord{
		URL:              d.URL,
		Title:            d.Title,
		Domain:           d.Domain,
		CredibilityScore: scoreOf(d.CredibilityScore, assessment.Score),
		SourceType:       types.SourceKind(d.SourceType),
		RelevantQuote:    truncateRunes(d.RelevantQuote, QuoteLength),
		AccessDate:       accessDate,
	}
	if record.Domain == "" {
		record.Domain = assessment.Domain
	}
	if !validKind(record.SourceType) {
		record.SourceType = assessment.Type
	}
	if d.PublicationDate != nil {
		record.PublicationDate = *d.PublicationDate
	}
	switch {
	case d.IsRegionalSource != nil:
		record.IsRegionalSource = *d.IsRegionalSource
	case d.IsNigerianSource != nil:
		record.IsRegionalSource = *d.IsNigerianSource
	default:
		record.IsRegionalSource = a.isRegional(d.URL, region)
	}
	return record
}

func (a *Aggregator) fromCitation(c evidence.Citation, region types.Region, accessDate string) types.SourceRecord {
	assessment := a.assessor.Assess(c.URL)
	title := c.Title
	if title == "" {
		title = DefaultCitationTitle
	}
	return types.SourceRecord{
		URL:              c.URL,
		Title:            title,
		Domain:           assessment.Domain,
		CredibilityScore: assessment.Score,
		SourceType:       assessment.Type,
		IsRegionalSource: a.isRegional(c.URL, region),
		RelevantQuote:    truncateRunes(c.Text, QuoteLength),
		AccessDate:       accessDate,
	}
}

// isRegional checks the focus region, or every known region when the request
// is global.
func (a *Aggregator) isRegional(url string, region types.Region) bool {
	if region == "" || region == types.RegionGlobal {
		return a.assessor.IsRegionalAnywhere(url)
	}
	return a.assessor.IsRegional(url, region)
}

// CitationCredibility scores a citation-only result: the rounded mean source
// credibility, raised to opts.HighCredibilityFloor when any source reaches
// opts.HighCredibilityThreshold. Without sources it is opts.EmptyCitationCredibility.
func CitationCredibility(sources []types.SourceRecord, opts Options) int {
	if len(sources) == 0 {
		return opts.EmptyCitationCredibility
	}
	total := 0
	high := false
	for _, s := range sources {
		total += s.CredibilityScore
		if s.CredibilityScore >= opts.HighCredibilityThreshold {
			high = true
		}
	}
	mean := (total + len(sources)/2) / len(sources)
	if high {
		mean = max(mean, opts.HighCredibilityFloor)
	}
	return types.ClampScore(mean)
}

func validKind(k types.SourceKind) bool {
	switch k {
	case types.SourceKindNews, types.SourceKindGovernment, types.SourceKindAcademic,
		types.SourceKindSocial, types.SourceKindBlog, types.SourceKindUnknown:
		return true
	}
	return false
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
