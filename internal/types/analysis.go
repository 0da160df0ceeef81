package types

// SentimentLabel is the polarity bucket of a SentimentResult.
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNegative SentimentLabel = "negative"
	SentimentNeutral  SentimentLabel = "neutral"
)

// ToxicityUnavailable marks SentimentResult.Toxicity when no toxicity classifier answered.
const ToxicityUnavailable = -1

// SentimentResult is the output of the sentiment analysis branch.
// Score maps polarity onto 0-100 with 50 as neutral; Confidence is 0-1.
type SentimentResult struct {
	Score      int            `json:"score"`
	Label      SentimentLabel `json:"label"`
	Confidence float64        `json:"confidence"`
	Toxicity   int            `json:"toxicity"`
}

// FactCheckedClaim is a claim as rated by an independent fact-check provider.
type FactCheckedClaim struct {
	Text        string   `json:"text"`
	Verdict     Verdict  `json:"verdict"`
	Confidence  int      `json:"confidence"`
	Sources     []string `json:"sources"`
	Explanation string   `json:"explanation"`
}

// FactCheckResult is the output of the fact-check branch.
type FactCheckResult struct {
	Score      int                `json:"score"`
	Claims     []FactCheckedClaim `json:"claims"`
	Sources    []string           `json:"sources"`
	Summary    string             `json:"summary"`
	Confidence int                `json:"confidence"`
	Verified   bool               `json:"verified"`
}

// DomainCredibility is the assessed credibility of a single domain.
type DomainCredibility struct {
	Domain      string     `json:"domain"`
	Credibility int        `json:"credibility"`
	Type        SourceKind `json:"type"`
}

// SourceCredibilityResult summarises the credibility of every domain tied to the content.
type SourceCredibilityResult struct {
	Score   int                 `json:"score"`
	Domains []DomainCredibility `json:"domains"`
	Summary string              `json:"summary"`
}

// ClassificationType is the factual/opinion bucket of content.
type ClassificationType string

const (
	ClassificationFactual ClassificationType = "factual"
	ClassificationOpinion ClassificationType = "opinion"
	ClassificationMixed   ClassificationType = "mixed"
)

// ContentClassification is the output of the classification branch.
type ContentClassification struct {
	Type        ClassificationType `json:"type"`
	Confidence  int                `json:"confidence"`
	Readability int                `json:"readability"`
	Language    string             `json:"language"`
}

// TrustScoreInputs gathers every signal the Trust Score Calculator consumes.
type TrustScoreInputs struct {
	Sanity             SanityReport
	SourceVerification SourceVerificationResult
	Sentiment          SentimentResult
	FactCheck          FactCheckResult
	SourceCredibility  SourceCredibilityResult
	Classification     ContentClassification
}
