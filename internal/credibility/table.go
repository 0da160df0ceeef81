// Package credibility maps source domains to a credibility score and source type.
package credibility

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jonathan/trustcheck/internal/types"
)

//go:embed authority.yaml
var defaultTableYAML []byte

// DomainGroup is a set of domains sharing a fixed score and type.
type DomainGroup struct {
	Category string           `yaml:"category"`
	Type     types.SourceKind `yaml:"type"`
	Score    int              `yaml:"score"`
	Domains  []string         `yaml:"domains"`
}

// TLDPattern scores every domain ending in Suffix.
type TLDPattern struct {
	Suffix string           `yaml:"suffix"`
	Type   types.SourceKind `yaml:"type"`
	Score  int              `yaml:"score"`
}

// KeywordRule scores domains whose name contains one of Terms.
type KeywordRule struct {
	Type  types.SourceKind `yaml:"type"`
	Score int              `yaml:"score"`
	Terms []string         `yaml:"terms"`
}

// SearchFilters lists the domains handed to evidence providers as a search allowlist.
type SearchFilters struct {
	Base       []string            `yaml:"base"`
	Regional   map[string][]string `yaml:"regional"`
	Government []string            `yaml:"government"`
	Academic   []string            `yaml:"academic"`
	Medical    []string            `yaml:"medical"`
}

// Table is the domain authority table.
type Table struct {
	Default struct {
		Score int              `yaml:"score"`
		Type  types.SourceKind `yaml:"type"`
	} `yaml:"default"`
	DomainGroups  []DomainGroup       `yaml:"domain_groups"`
	TLDPatterns   []TLDPattern        `yaml:"tld_patterns"`
	Keywords      KeywordRule         `yaml:"keywords"`
	Regional      map[string][]string `yaml:"regional"`
	SearchFilters SearchFilters       `yaml:"search_filters"`
}

// DefaultTable returns the embedded authority table.
func DefaultTable() *Table {
	table, err := ParseTable(defaultTableYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded authority table is invalid: %v", err))
	}
	return table
}

// LoadTable reads an authority table from a YAML file.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read authority table %s: %w", path, err)
	}
	return ParseTable(data)
}

// ParseTable decodes and validates an authority table.
func ParseTable(data []byte) (*Table, error) {
	var table Table
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to parse authority table: %w", err)
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	table.normalize()
	return &table, nil
}

// Validate checks that every score is within [0,100].
func (t *Table) Validate() error {
	check := func(where string, score int) error {
		if score < 0 || score > 100 {
			return fmt.Errorf("authority table: %s score %d out of range [0,100]", where, score)
		}
		return nil
	}
	if err := check("default", t.Default.Score); err != nil {
		return err
	}
	for _, g := range t.DomainGroups {
		if err := check("group "+g.Category, g.Score); err != nil {
			return err
		}
	}
	for _, p := range t.TLDPatterns {
		if err := check("suffix "+p.Suffix, p.Score); err != nil {
			return err
		}
	}
	return check("keywords", t.Keywords.Score)
}

func (t *Table) normalize() {
	if t.Default.Type == "" {
		t.Default.Type = types.SourceKindUnknown
	}
	for i := range t.DomainGroups {
		for j, d := range t.DomainGroups[i].Domains {
			t.DomainGroups[i].Domains[j] = strings.ToLower(strings.TrimSpace(d))
		}
	}
	for i := range t.TLDPatterns {
		suffix := strings.ToLower(strings.TrimSpace(t.TLDPatterns[i].Suffix))
		if !strings.HasPrefix(suffix, ".") {
			suffix = "." + suffix
		}
		t.TLDPatterns[i].Suffix = suffix
	}
	for i, term := range t.Keywords.Terms {
		t.Keywords.Terms[i] = strings.ToLower(term)
	}
}
