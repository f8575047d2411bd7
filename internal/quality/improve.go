package quality

import (
	"context"
	"strings"

	"github.com/jonathan/product-forge/internal/llm"
	"github.com/jonathan/product-forge/internal/prompts"
	"github.com/jonathan/product-forge/internal/types"
)

// Improver revises an artifact using the feedback from a failed gate
// evaluation.
type Improver interface {
	Improve(ctx context.Context, artifact string, result *types.QualityResult) (string, error)
}

// ImproverFunc adapts a function to the Improver interface
type ImproverFunc func(ctx context.Context, artifact string, result *types.QualityResult) (string, error)

// Improve calls f(ctx, artifact, result)
func (f ImproverFunc) Improve(ctx context.Context, artifact string, result *types.QualityResult) (string, error) {
	return f(ctx, artifact, result)
}

// LLMImprover rewrites artifacts through the content generator.
type LLMImprover struct {
	client llm.Client
	tier   llm.ModelTier
}

// NewLLMImprover constructs a generator-backed improver
func NewLLMImprover(client llm.Client, tier llm.ModelTier) *LLMImprover {
	return &LLMImprover{client: client, tier: tier}
}

// Improve returns a revised artifact addressing the collected reviewer
// feedback.
func (i *LLMImprover) Improve(ctx context.Context, artifact string, result *types.QualityResult) (string, error) {
	template := prompts.MustGet("quality.json", "improve-artifact")
	prompt := prompts.Format(template, map[string]string{
		"Artifact": artifact,
		"Feedback": strings.Join(result.Improvements, "\n"),
	})
	return i.client.GenerateContent(ctx, prompt, i.tier)
}
