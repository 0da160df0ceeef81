package credibility

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jonathan/trustcheck/internal/types"
)

// Rule names the lookup stage that produced an Assessment.
type Rule string

const (
	RuleAuthority Rule = "authority"
	RuleSuffix    Rule = "suffix"
	RuleKeyword   Rule = "keyword"
	RuleDefault   Rule = "default"
)

// Assessment is the credibility verdict for a single domain.
type Assessment struct {
	Domain string
	Score  int
	Type   types.SourceKind
	Rule   Rule
}

// Assessor scores domains against an authority table. It holds no mutable
// state, so the same input always produces the same Assessment.
type Assessor struct {
	table *Table
	// suffixes sorted longest first so ".gov.ng" is tried before ".ng"-style patterns
	suffixes []TLDPattern
}

// NewAssessor creates an Assessor over table, or the embedded table when nil.
func NewAssessor(table *Table) *Assessor {
	if table == nil {
		table = DefaultTable()
	}
	suffixes := append([]TLDPattern(nil), table.TLDPatterns...)
	sort.SliceStable(suffixes, func(i, j int) bool { return len(suffixes[i].Suffix) > len(suffixes[j].Suffix) })
	return &Assessor{table: table, suffixes: suffixes}
}

// Assess scores a URL or bare domain.
func (a *Assessor) Assess(urlOrDomain string) Assessment {
	domain := ExtractDomain(urlOrDomain)

	if group, ok := a.lookupGroup(domain); ok {
		return Assessment{Domain: domain, Score: group.Score, Type: group.Type, Rule: RuleAuthority}
	}

	for _, p := range a.suffixes {
		if strings.HasSuffix(domain, p.Suffix) {
			return Assessment{Domain: domain, Score: p.Score, Type: p.Type, Rule: RuleSuffix}
		}
	}

	for _, term := range a.table.Keywords.Terms {
		if term != "" && strings.Contains(domain, term) {
			return Assessment{Domain: domain, Score: a.table.Keywords.Score, Type: a.table.Keywords.Type, Rule: RuleKeyword}
		}
	}

	return Assessment{Domain: domain, Score: a.table.Default.Score, Type: a.table.Default.Type, Rule: RuleDefault}
}

// lookupGroup finds the most specific authority entry for domain.
func (a *Assessor) lookupGroup(domain string) (DomainGroup, bool) {
	if domain == "" {
		return DomainGroup{}, false
	}
	var (
		best    DomainGroup
		bestLen int
	)
	for _, group := range a.table.DomainGroups {
		for _, candidate := range group.Domains {
			if domainMatches(domain, candidate) && len(candidate) > bestLen {
				best, bestLen = group, len(candidate)
			}
		}
	}
	return best, bestLen > 0
}

// IsRegional reports whether domain belongs to the outlets of region.
func (a *Assessor) IsRegional(urlOrDomain string, region types.Region) bool {
	domain := ExtractDomain(urlOrDomain)
	for _, candidate := range a.table.Regional[string(region)] {
		if domainMatches(domain, candidate) {
			return true
		}
	}
	return false
}

// IsRegionalAnywhere reports whether domain is a regional outlet of any configured region.
func (a *Assessor) IsRegionalAnywhere(urlOrDomain string) bool {
	for region := range a.table.Regional {
		if a.IsRegional(urlOrDomain, types.Region(region)) {
			return true
		}
	}
	return false
}

// DomainFilters returns the search allowlist for a region and set of source types.
// Regional outlets come first, followed by the base list and any requested categories.
func (a *Assessor) DomainFilters(region types.Region, sourceTypes []types.SourceType) []string {
	f := a.table.SearchFilters

	var domains []string
	domains = append(domains, f.Regional[string(region)]...)
	domains = append(domains, f.Base...)
	for _, st := range sourceTypes {
		switch st {
		case types.SourceTypeGovernment:
			domains = append(domains, f.Government...)
		case types.SourceTypeAcademic:
			domains = append(domains, f.Academic...)
		case types.SourceTypeMedical:
			domains = append(domains, f.Medical...)
		}
	}

	seen := make(map[string]bool, len(domains))
	out := domains[:0]
	for _, d := range domains {
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	return out
}

// Report assesses every distinct domain among urls and summarises them.
// The score is the mean credibility; with no domains the table default is
// reported and Domains is empty.
func (a *Assessor) Report(urls []string) types.SourceCredibilityResult {
	seen := make(map[string]bool)
	domains := make([]types.DomainCredibility, 0, len(urls))
	total := 0
	for _, u := range urls {
		assessment := a.Assess(u)
		if assessment.Domain == "" || seen[assessment.Domain] {
			continue
		}
		seen[assessment.Domain] = true
		domains = append(domains, types.DomainCredibility{
			Domain:      assessment.Domain,
			Credibility: assessment.Score,
			Type:        assessment.Type,
		})
		total += assessment.Score
	}

	if len(domains) == 0 {
		return types.SourceCredibilityResult{
			Score:   a.table.Default.Score,
			Domains: domains,
			Summary: "No source domains available to assess",
		}
	}

	score := (total + len(domains)/2) / len(domains)
	high := 0
	for _, d := range domains {
		if d.Credibility >= 80 {
			high++
		}
	}
	return types.SourceCredibilityResult{
		Score:   types.ClampScore(score),
		Domains: domains,
		Summary: fmt.Sprintf("Assessed %d domain(s); %d rated highly credible", len(domains), high),
	}
}
