// Package sanity screens content for statements that are impossible on their face.
package sanity

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/trustcheck/internal/types"
)

// Issue category prefixes. Conflict records built from sanity issues carry these
// prefixes, which is how the trust calculator recognises them.
const (
	CategoryGeographic = "Geographic impossibility"
	CategoryTimeline   = "Timeline error"
	CategoryScientific = "Scientifically false claim"
)

// Categories lists every sanity issue category.
var Categories = []string{CategoryGeographic, CategoryTimeline, CategoryScientific}

// Options tunes the checker. Zero values fall back to DefaultOptions.
type Options struct {
	BaseConfidence  int
	PenaltyPerIssue int
	MinConfidence   int
	// Now supplies the current time for the timeline check.
	Now func() time.Time
	// FalseClaims are lower-case phrases that are categorically false.
	FalseClaims []string
	// WarmCountries are places where cold-climate terms are impossible.
	WarmCountries []string
	// ColdTerms are word stems exclusive to cold climates; inflections such
	// as "snowy" or "glaciers" match too.
	ColdTerms []string
	// ColdTermExceptions are words that start with a cold term but are not
	// weather, such as "snowden".
	ColdTermExceptions []string
}

// DefaultOptions returns the stock battery configuration.
func DefaultOptions() Options {
	return Options{
		BaseConfidence:  90,
		PenaltyPerIssue: 20,
		MinConfidence:   10,
		Now:             time.Now,
		FalseClaims: []string{
			"earth is flat",
			"sun orbits earth",
			"gravity does not exist",
		},
		WarmCountries: []string{
			"nigeria", "ghana", "togo", "benin", "senegal", "gambia",
			"liberia", "sierra leone", "singapore",
		},
		ColdTerms:          []string{"snow", "snowfall", "blizzard", "sleet", "frost", "glacier", "ice storm"},
		ColdTermExceptions: []string{"snowden", "frostburg"},
	}
}

// Finding is one failed check. Severity counts distinct offending tokens.
type Finding struct {
	Issue    string
	Severity int
}

var yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// Checker runs the sanity battery.
type Checker struct {
	opts           Options
	warmRegex      *regexp.Regexp
	coldRegex      *regexp.Regexp
	coldExceptions map[string]bool
}

// New creates a Checker, filling unset options from DefaultOptions.
func New(opts Options) *Checker {
	def := DefaultOptions()
	if opts.BaseConfidence == 0 {
		opts.BaseConfidence = def.BaseConfidence
	}
	if opts.PenaltyPerIssue == 0 {
		opts.PenaltyPerIssue = def.PenaltyPerIssue
	}
	if opts.MinConfidence == 0 {
		opts.MinConfidence = def.MinConfidence
	}
	if opts.Now == nil {
		opts.Now = def.Now
	}
	if opts.FalseClaims == nil {
		opts.FalseClaims = def.FalseClaims
	}
	if opts.WarmCountries == nil {
		opts.WarmCountries = def.WarmCountries
	}
	if opts.ColdTerms == nil {
		opts.ColdTerms = def.ColdTerms
	}
	if opts.ColdTermExceptions == nil {
		opts.ColdTermExceptions = def.ColdTermExceptions
	}

	exceptions := make(map[string]bool, len(opts.ColdTermExceptions))
	for _, w := range opts.ColdTermExceptions {
		exceptions[strings.ToLower(strings.TrimSpace(w))] = true
	}

	return &Checker{
		opts:           opts,
		warmRegex:      alternation(opts.WarmCountries, ""),
		coldRegex:      alternation(opts.ColdTerms, `\w*\b`),
		coldExceptions: exceptions,
	}
}

// Check runs every check against content and summarises the findings.
func (c *Checker) Check(content string) types.SanityReport {
	findings := c.Findings(content)

	issues := make([]string, 0, len(findings))
	severity := 0
	for _, f := range findings {
		issues = append(issues, f.Issue)
		severity += f.Severity
	}

	confidence := c.opts.BaseConfidence
	if severity > 0 {
		confidence = max(c.opts.MinConfidence, c.opts.BaseConfidence-c.opts.PenaltyPerIssue*severity)
	}

	return types.SanityReport{
		IsClean:    len(findings) == 0,
		Issues:     issues,
		Confidence: types.ClampScore(confidence),
	}
}

// Findings returns the raw findings, at most one per check.
func (c *Checker) Findings(content string) []Finding {
	lower := strings.ToLower(content)

	var findings []Finding
	for _, check := range []func(string, string) *Finding{c.checkGeography, c.checkTimeline, c.checkFalseClaims} {
		if f := check(content, lower); f != nil {
			findings = append(findings, *f)
		}
	}
	return findings
}

func (c *Checker) checkGeography(_, lower string) *Finding {
	if c.warmRegex == nil || c.coldRegex == nil {
		return nil
	}
	place := c.warmRegex.FindString(lower)
	if place == "" {
		return nil
	}
	var terms []string
	for _, term := range unique(c.coldRegex.FindAllString(lower, -1)) {
		if !c.coldExceptions[term] {
			terms = append(terms, term)
		}
	}
	if len(terms) == 0 {
		return nil
	}
	return &Finding{
		Issue:    fmt.Sprintf("%s: %s does not experience %s", CategoryGeographic, titleCase(place), strings.Join(terms, ", ")),
		Severity: 1,
	}
}

func (c *Checker) checkTimeline(content, _ string) *Finding {
	currentYear := c.opts.Now().Year()

	var future []string
	for _, token := range unique(yearPattern.FindAllString(content, -1)) {
		year, err := strconv.Atoi(token)
		if err == nil && year > currentYear {
			future = append(future, token)
		}
	}
	if len(future) == 0 {
		return nil
	}
	sort.Strings(future)

	issue := fmt.Sprintf("%s: Year %s is in the future", CategoryTimeline, future[0])
	if len(future) > 1 {
		issue = fmt.Sprintf("%s: Years %s are in the future", CategoryTimeline, strings.Join(future, ", "))
	}
	return &Finding{Issue: issue, Severity: len(future)}
}

func (c *Checker) checkFalseClaims(_, lower string) *Finding {
	var matched []string
	for _, claim := range c.opts.FalseClaims {
		if claim != "" && strings.Contains(lower, strings.ToLower(claim)) {
			matched = append(matched, claim)
		}
	}
	if len(matched) == 0 {
		return nil
	}
	return &Finding{
		Issue:    fmt.Sprintf("%s: %s", CategoryScientific, strings.Join(matched, ", ")),
		Severity: len(matched),
	}
}

// IsViolation reports whether text carries a sanity category.
func IsViolation(text string) bool {
	lower := strings.ToLower(text)
	for _, category := range Categories {
		if strings.Contains(lower, strings.ToLower(category)) {
			return true
		}
	}
	return false
}

// alternation builds a regex matching any of words from a word start,
// followed by suffix.
func alternation(words []string, suffix string) *regexp.Regexp {
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.TrimSpace(strings.ToLower(w)); w != "" {
			quoted = append(quoted, regexp.QuoteMeta(w))
		}
	}
	if len(quoted) == 0 {
		return nil
	}
	// longest first so "snowfall" wins over "snow"
	sort.Slice(quoted, func(i, j int) bool { return len(quoted[i]) > len(quoted[j]) })
	return regexp.MustCompile(`\b(` + strings.Join(quoted, "|") + `)` + suffix)
}

func unique(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
