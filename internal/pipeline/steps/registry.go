// Package steps provides step definitions and dependency validation for the
// verification pipeline.
package steps

import (
	"fmt"
	"sort"
)

// Step names
const (
	Ingest         = "ingest"
	ExtractClaims  = "extract_claims"
	SanityCheck    = "sanity_check"
	Credibility    = "source_credibility"
	Evidence       = "source_verification"
	Sentiment      = "sentiment_analysis"
	FactCheck      = "fact_check"
	Classification = "content_classification"
	Scoring        = "trust_score"
	Integrity      = "integrity"
	History        = "history"
)

// Step categories
const (
	CategoryIngestion    = "ingestion"
	CategoryVerification = "verification"
	CategoryAnalysis     = "analysis"
	CategoryScoring      = "scoring"
	CategoryPersistence  = "persistence"
)

// Step statuses
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusSkipped    = "skipped"
)

// StepDefinition defines metadata for a pipeline step
type StepDefinition struct {
	Name         string
	Category     string
	Dependencies []string
}

// StepRegistry holds all step definitions
var StepRegistry = map[string]StepDefinition{
	Ingest: {
		Name:     Ingest,
		Category: CategoryIngestion,
	},
	ExtractClaims: {
		Name:         ExtractClaims,
		Category:     CategoryIngestion,
		Dependencies: []string{Ingest},
	},
	SanityCheck: {
		Name:         SanityCheck,
		Category:     CategoryVerification,
		Dependencies: []string{Ingest},
	},
	Credibility: {
		Name:         Credibility,
		Category:     CategoryVerification,
		Dependencies: []string{Evidence},
	},
	Evidence: {
		Name:         Evidence,
		Category:     CategoryVerification,
		Dependencies: []string{ExtractClaims, SanityCheck},
	},
	Sentiment: {
		Name:         Sentiment,
		Category:     CategoryAnalysis,
		Dependencies: []string{Ingest},
	},
	FactCheck: {
		Name:         FactCheck,
		Category:     CategoryAnalysis,
		Dependencies: []string{ExtractClaims},
	},
	Classification: {
		Name:         Classification,
		Category:     CategoryAnalysis,
		Dependencies: []string{Ingest},
	},
	Scoring: {
		Name:         Scoring,
		Category:     CategoryScoring,
		Dependencies: []string{SanityCheck, Credibility, Evidence, Sentiment, FactCheck, Classification},
	},
	Integrity: {
		Name:         Integrity,
		Category:     CategoryScoring,
		Dependencies: []string{Scoring},
	},
	History: {
		Name:         History,
		Category:     CategoryPersistence,
		Dependencies: []string{Integrity},
	},
}

// DependencyError represents a dependency validation error
type DependencyError struct {
	Step                string
	MissingDependencies []string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("step %s: missing dependencies: %v", e.Step, e.MissingDependencies)
}

// Completed is the set of steps that have finished in a run.
type Completed map[string]bool

// ValidateDependencies checks if all required dependencies for a step are completed
func ValidateDependencies(done Completed, stepName string) error {
	def, ok := StepRegistry[stepName]
	if !ok {
		return fmt.Errorf("unknown step: %s", stepName)
	}

	var missing []string
	for _, dep := range def.Dependencies {
		if !done[dep] {
			missing = append(missing, dep)
		}
	}
	if len(missing) > 0 {
		return &DependencyError{Step: stepName, MissingDependencies: missing}
	}
	return nil
}

// GetAvailableSteps returns steps that can be executed (dependencies met), sorted by name
func GetAvailableSteps(done Completed) []string {
	var available []string
	for stepName := range StepRegistry {
		if done[stepName] {
			continue
		}
		if ValidateDependencies(done, stepName) != nil {
			continue
		}
		available = append(available, stepName)
	}
	sort.Strings(available)
	return available
}

// GetBlockedSteps returns steps that are blocked (dependencies not met), sorted by name
func GetBlockedSteps(done Completed) []string {
	var blocked []string
	for stepName := range StepRegistry {
		if done[stepName] {
			continue
		}
		if ValidateDependencies(done, stepName) != nil {
			blocked = append(blocked, stepName)
		}
	}
	sort.Strings(blocked)
	return blocked
}

// Order returns every registered step in an order that satisfies all
// dependencies. Steps that become available together are sorted by name.
func Order() []string {
	done := make(Completed, len(StepRegistry))
	order := make([]string, 0, len(StepRegistry))
	for len(order) < len(StepRegistry) {
		next := GetAvailableSteps(done)
		if len(next) == 0 {
			// unreachable unless the registry has a cycle
			break
		}
		for _, s := range next {
			done[s] = true
			order = append(order, s)
		}
	}
	return order
}
