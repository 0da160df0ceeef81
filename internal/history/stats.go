package history

import (
	"math"
	"strings"
	"time"

	"github.com/jonathan/trustcheck/internal/types"
)

// PageSize is the default number of results per page.
const PageSize = 10

// Stats summarises a set of verification results.
type Stats struct {
	TotalVerifications  int `json:"totalVerifications"`
	TodayCount          int `json:"todayCount"`
	AverageTrustScore   int `json:"averageTrustScore"`
	AverageResponseTime int `json:"averageResponseTime"`
}

// ExportDocument is the downloadable history snapshot.
type ExportDocument struct {
	Stats         Stats                      `json:"stats"`
	Verifications []types.VerificationResult `json:"verifications"`
	ExportDate    string                     `json:"exportDate"`
}

// ComputeStats derives Stats from results. "Today" is the calendar day of
// now in now's location; results with unparseable timestamps are not counted
// towards it.
func ComputeStats(results []types.VerificationResult, now time.Time) Stats {
	stats := Stats{TotalVerifications: len(results)}
	if len(results) == 0 {
		return stats
	}

	y, m, d := now.Date()
	var trust, elapsed float64
	for _, r := range results {
		trust += float64(r.TrustScore)
		elapsed += float64(r.ProcessingTime)

		ts, err := time.Parse(time.RFC3339Nano, r.Timestamp)
		if err != nil {
			continue
		}
		ry, rm, rd := ts.In(now.Location()).Date()
		if ry == y && rm == m && rd == d {
			stats.TodayCount++
		}
	}

	n := float64(len(results))
	stats.AverageTrustScore = int(math.Round(trust / n))
	stats.AverageResponseTime = int(math.Round(elapsed / n))
	return stats
}

// Filter keeps results whose preview or id contains query, ignoring case.
// An empty query keeps everything.
func Filter(results []types.VerificationResult, query string) []types.VerificationResult {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return results
	}
	out := make([]types.VerificationResult, 0, len(results))
	for _, r := range results {
		if strings.Contains(strings.ToLower(r.ContentPreview), query) ||
			strings.Contains(strings.ToLower(r.ID), query) {
			out = append(out, r)
		}
	}
	return out
}

// Page returns the 1-based page of results and the total page count.
// Out-of-range pages are empty.
func Page(results []types.VerificationResult, page, size int) ([]types.VerificationResult, int) {
	if size <= 0 {
		size = PageSize
	}
	pages := (len(results) + size - 1) / size
	if page < 1 || page > pages {
		return []types.VerificationResult{}, pages
	}
	start := (page - 1) * size
	end := min(start+size, len(results))
	return results[start:end], pages
}

// Export bundles results with their stats.
func Export(results []types.VerificationResult, now time.Time) ExportDocument {
	if results == nil {
		results = []types.VerificationResult{}
	}
	return ExportDocument{
		Stats:         ComputeStats(results, now),
		Verifications: results,
		ExportDate:    now.UTC().Format(time.RFC3339Nano),
	}
}
