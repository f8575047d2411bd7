package types

// PassingScore is the minimum score an individual reviewer must award for
// the artifact to pass that reviewer's check.
const PassingScore = 90

// Confidence labels derived from the mean reviewer score.
const (
	ConfidenceHigh   = "High"
	ConfidenceMedium = "Medium"
	ConfidenceLow    = "Low"
)

// Decision labels for an aggregated quality evaluation.
const (
	DecisionApproved         = "APPROVED"
	DecisionNeedsImprovement = "NEEDS IMPROVEMENT"
)

// Review is one reviewer's assessment of an artifact. Reviews are
// ephemeral: they are produced and consumed within a single gate
// evaluation and logged, never persisted as entities.
type Review struct {
	Reviewer     string   `json:"reviewer"`
	Score        int      `json:"score"` // 0-100
	Passes       bool     `json:"passes"`
	Strengths    []string `json:"strengths"`
	Issues       []string `json:"issues"`
	Improvements []string `json:"improvements"`
	Verdict      string   `json:"verdict"`
	Reasoning    string   `json:"reasoning"`
}

// QualityResult aggregates the reviews of one gate evaluation. Passes is
// the AND of the individual reviewer passes and is deliberately independent
// of OverallScore; the two signals answer different questions ("is every
// dimension acceptable" vs "how good overall") and may disagree.
type QualityResult struct {
	OverallScore   float64  `json:"overall_score"`
	Passes         bool     `json:"passes"`
	PassCount      int      `json:"pass_count"`
	Decision       string   `json:"decision"`
	Confidence     string   `json:"confidence"`
	Recommendation string   `json:"recommendation"`
	Reviews        []Review `json:"reviews"`
	Improvements   []string `json:"improvements,omitempty"` // "[Reviewer] text", deduplicated
}
