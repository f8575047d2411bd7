package observability

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/product-forge/internal/pipeline"
	"github.com/jonathan/product-forge/internal/quality"
	"github.com/jonathan/product-forge/internal/stage"
	"github.com/jonathan/product-forge/internal/types"
)

func TestPrintCycleSummary(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintCycleSummary(&pipeline.Summary{
		Started:  time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
		Duration: 1200 * time.Millisecond,
		Results: map[string]stage.Result{
			"discoverer": {Attempted: 3, Produced: 2, Filtered: 1},
			"creator":    {Skipped: true},
			"lister":     {Attempted: 2, Produced: 1, Failed: 1},
		},
		Errors: []pipeline.StageFailure{
			{Stage: "lister", Message: errors.New("platform timeout").Error()},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "CYCLE SUMMARY")
	assert.Contains(t, out, "3 attempted, 2 produced")
	assert.Contains(t, out, "1 filtered")
	assert.Contains(t, out, "skipped (queue full)")
	assert.Contains(t, out, "lister: platform timeout")
}

func TestPrintCycleSummary_ExtraStagesListedAfterPipeline(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintCycleSummary(&pipeline.Summary{
		Started:  time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
		Duration: time.Second,
		Results: map[string]stage.Result{
			"discoverer": {Attempted: 1, Produced: 1},
			"pruner":     {Attempted: 5, Produced: 5},
			"archiver":   {Attempted: 2, Produced: 2},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "pruner:")
	assert.Contains(t, out, "archiver:")
	// Pipeline stages come first, the rest alphabetically.
	assert.Less(t, strings.Index(out, "discoverer:"), strings.Index(out, "archiver:"))
	assert.Less(t, strings.Index(out, "archiver:"), strings.Index(out, "pruner:"))
}

func TestPrintCycleSummary_NilIsNoop(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintCycleSummary(nil)
	assert.Empty(t, buf.String())
}

func TestPrintQualityResult(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintQualityResult(&types.QualityResult{
		OverallScore: 87.3,
		Passes:       false,
		PassCount:    2,
		Decision:     types.DecisionNeedsImprovement,
		Confidence:   types.ConfidenceMedium,
		Reviews: []types.Review{
			{Reviewer: "Value", Score: 92, Passes: true},
			{Reviewer: "Clarity", Score: 78, Passes: false},
			{Reviewer: "Completeness", Score: 92, Passes: true},
		},
		Improvements: []string{"[Clarity] Shorten the intro section"},
	})

	out := buf.String()
	assert.Contains(t, out, "87.3")
	assert.Contains(t, out, types.DecisionNeedsImprovement)
	assert.Contains(t, out, "2/3 raters passed")
	assert.Contains(t, out, "✗ Clarity")
	assert.Contains(t, out, "✓ Value")
	assert.Contains(t, out, "[Clarity] Shorten the intro section")
}

func TestPrintOutcome(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintOutcome(&quality.Outcome{
		Approved: false,
		Retries:  2,
		Reason:   quality.RejectedReason,
		Result:   &types.QualityResult{OverallScore: 74.0, Confidence: types.ConfidenceLow},
	})

	out := buf.String()
	assert.Contains(t, out, "REJECTED")
	assert.Contains(t, out, "Improvement cycles: 2")
	assert.Contains(t, out, quality.RejectedReason)
}

func TestPrintStatusReport(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintStatusReport(&StatusReport{
		Opportunities: []StatusCount{{Status: "discovered", Count: 4}, {Status: "completed", Count: 7}},
		Products:      []StatusCount{{Status: "created", Count: 2}},
		Listings:      []StatusCount{{Status: "published", Count: 1}},
	})

	out := buf.String()
	assert.Contains(t, out, "FACTORY STATUS")
	assert.Contains(t, out, "discovered")
	// Lines are boxed and padded, so match loosely on the total count.
	totalLine := false
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "total") && strings.Contains(line, "11") {
			totalLine = true
		}
	}
	assert.True(t, totalLine, "opportunities total should sum to 11")
}
