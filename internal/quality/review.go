// Package quality implements the multi-rater quality gate and the bounded
// improve/retry workflow that decides ship/no-ship for generated artifacts.
package quality

import (
	"fmt"

	"github.com/jonathan/product-forge/internal/types"
)

// Aggregate combines individual reviews into a single QualityResult.
//
// OverallScore is the plain arithmetic mean and feeds the confidence
// label; Passes is the AND over the individual reviewer passes. The two
// signals are kept independent on purpose and may disagree: a high mean
// with one failing reviewer yields High confidence and Passes=false.
func Aggregate(reviews []types.Review) *types.QualityResult {
	result := &types.QualityResult{
		Passes:  true,
		Reviews: reviews,
	}

	total := 0
	for _, r := range reviews {
		total += r.Score
		if r.Passes {
			result.PassCount++
		} else {
			result.Passes = false
		}
	}
	if len(reviews) > 0 {
		result.OverallScore = float64(total) / float64(len(reviews))
	} else {
		result.Passes = false
	}

	switch {
	case result.OverallScore >= 90:
		result.Confidence = types.ConfidenceHigh
	case result.OverallScore >= 80:
		result.Confidence = types.ConfidenceMedium
	default:
		result.Confidence = types.ConfidenceLow
	}

	if result.Passes {
		result.Decision = types.DecisionApproved
		result.Recommendation = fmt.Sprintf("All %d reviewers passed the artifact; ready to ship.", len(reviews))
	} else {
		result.Decision = types.DecisionNeedsImprovement
		result.Recommendation = fmt.Sprintf("%d of %d reviewers passed; address the collected feedback and re-evaluate.",
			result.PassCount, len(reviews))
		result.Improvements = collectImprovements(reviews)
	}

	return result
}

// collectImprovements builds a deduplicated, reviewer-prefixed feedback
// list from the failing reviewers' issues and improvements. Identical
// strings collapse; first occurrence order is preserved.
func collectImprovements(reviews []types.Review) []string {
	seen := make(map[string]bool)
	var feedback []string

	add := func(reviewer, text string) {
		entry := fmt.Sprintf("[%s] %s", reviewer, text)
		if seen[entry] {
			return
		}
		seen[entry] = true
		feedback = append(feedback, entry)
	}

	for _, r := range reviews {
		if r.Passes {
			continue
		}
		for _, issue := range r.Issues {
			add(r.Reviewer, issue)
		}
		for _, improvement := range r.Improvements {
			add(r.Reviewer, improvement)
		}
	}
	return feedback
}
