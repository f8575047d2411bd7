package quality

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/product-forge/internal/events"
	"github.com/jonathan/product-forge/internal/stage"
	"github.com/jonathan/product-forge/internal/types"
)

// GateSource identifies the quality gate in events.
const GateSource = "quality_gate"

// RaterCount is the fixed number of independent raters per evaluation.
const RaterCount = 3

// Rater is one independent reviewer of an artifact. Raters are pure
// functions of (artifact, requirements) with no shared mutable state, so
// the gate runs them in parallel.
type Rater interface {
	Name() string
	Review(ctx context.Context, artifact, requirements string) (*types.Review, error)
}

// Gate fans an artifact out to its raters concurrently and aggregates
// their reviews into one ship/no-ship decision.
type Gate struct {
	raters      []Rater
	sink        events.Sink
	callTimeout time.Duration
}

// NewGate constructs a quality gate. Exactly RaterCount raters are
// required; there is no partial-result handling to fall back on.
func NewGate(raters []Rater, sink events.Sink, callTimeout time.Duration) (*Gate, error) {
	if len(raters) != RaterCount {
		return nil, fmt.Errorf("quality gate requires exactly %d raters, got %d", RaterCount, len(raters))
	}
	if sink == nil {
		sink = events.Discard
	}
	return &Gate{raters: raters, sink: sink, callTimeout: callTimeout}, nil
}

// Evaluate runs all raters concurrently and waits for every review. A
// failure of any rater call fails the whole evaluation as a StageError;
// no defaulted scores are substituted.
func (g *Gate) Evaluate(ctx context.Context, artifact, requirements string) (*types.QualityResult, error) {
	reviews := make([]types.Review, len(g.raters))

	eg, egCtx := errgroup.WithContext(ctx)
	for i, rater := range g.raters {
		eg.Go(func() error {
			callCtx := egCtx
			if g.callTimeout > 0 {
				var cancel context.CancelFunc
				callCtx, cancel = context.WithTimeout(egCtx, g.callTimeout)
				defer cancel()
			}

			review, err := rater.Review(callCtx, artifact, requirements)
			if err != nil {
				return fmt.Errorf("rater %s: %w", rater.Name(), err)
			}
			reviews[i] = *review
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, &stage.StageError{Stage: GateSource, Cause: err}
	}

	result := Aggregate(reviews)
	g.sink.Record(ctx, events.Event{
		Source: GateSource,
		Name:   events.GateEvaluated,
		Status: events.StatusOK,
		Metadata: map[string]any{
			"overall_score": result.OverallScore,
			"passes":        result.Passes,
			"pass_count":    result.PassCount,
			"decision":      result.Decision,
			"confidence":    result.Confidence,
		},
	})
	return result, nil
}
