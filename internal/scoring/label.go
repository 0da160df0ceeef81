package scoring

// Trust level labels.
const (
	LevelHigh   = "High Trust"
	LevelMedium = "Medium Trust"
	LevelLow    = "Low Trust"
)

// Label buckets a trust score for display.
func Label(score int) string {
	switch {
	case score >= 80:
		return LevelHigh
	case score >= 60:
		return LevelMedium
	default:
		return LevelLow
	}
}
