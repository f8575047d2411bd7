package quality

import (
	"context"

	"github.com/jonathan/product-forge/internal/llm"
	"github.com/jonathan/product-forge/internal/prompts"
	"github.com/jonathan/product-forge/internal/schemas"
	"github.com/jonathan/product-forge/internal/types"
)

// LLMRater reviews artifacts through the content generator from one named
// perspective.
type LLMRater struct {
	name   string
	focus  string
	client llm.Client
	tier   llm.ModelTier
}

// NewLLMRater constructs a generator-backed rater with the given identity
// and review focus.
func NewLLMRater(name, focus string, client llm.Client, tier llm.ModelTier) *LLMRater {
	return &LLMRater{name: name, focus: focus, client: client, tier: tier}
}

// DefaultRaters returns the standard trio of independent reviewer
// perspectives used by the production gate.
func DefaultRaters(client llm.Client) []Rater {
	return []Rater{
		NewLLMRater("ValueReviewer", "buyer value and market fit", client, llm.TierAdvanced),
		NewLLMRater("ClarityReviewer", "clarity, structure, and tone", client, llm.TierAdvanced),
		NewLLMRater("CompletenessReviewer", "completeness and delivery readiness", client, llm.TierAdvanced),
	}
}

// Name returns the rater's reviewer identity
func (r *LLMRater) Name() string {
	return r.name
}

// reviewResponse is the expected generator JSON for a review.
type reviewResponse struct {
	Score        int      `json:"score"`
	Strengths    []string `json:"strengths"`
	Issues       []string `json:"issues"`
	Improvements []string `json:"improvements"`
	Verdict      string   `json:"verdict"`
	Reasoning    string   `json:"reasoning"`
}

// Review evaluates the artifact against its requirements and returns a
// scored Review. Passes is derived from the score, never reported by the
// model directly.
func (r *LLMRater) Review(ctx context.Context, artifact, requirements string) (*types.Review, error) {
	template := prompts.MustGet("quality.json", "review-artifact")
	prompt := prompts.Format(template, map[string]string{
		"Reviewer":     r.name,
		"Focus":        r.focus,
		"Requirements": requirements,
		"Artifact":     artifact,
	})

	raw, err := r.client.GenerateJSON(ctx, prompt, r.tier)
	if err != nil {
		return nil, err
	}

	cleaned := llm.CleanJSONBlock(raw)
	if err := schemas.Validate(schemas.ReviewSchema, cleaned); err != nil {
		return nil, err
	}

	var resp reviewResponse
	if err := llm.DecodeJSON(cleaned, &resp); err != nil {
		return nil, err
	}

	return &types.Review{
		Reviewer:     r.name,
		Score:        resp.Score,
		Passes:       resp.Score >= types.PassingScore,
		Strengths:    resp.Strengths,
		Issues:       resp.Issues,
		Improvements: resp.Improvements,
		Verdict:      resp.Verdict,
		Reasoning:    resp.Reasoning,
	}, nil
}
