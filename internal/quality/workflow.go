package quality

import (
	"context"
	"time"

	"github.com/jonathan/product-forge/internal/events"
	"github.com/jonathan/product-forge/internal/stage"
	"github.com/jonathan/product-forge/internal/types"
)

// WorkflowSource identifies the improve/retry controller in events.
const WorkflowSource = "quality_workflow"

// DefaultMaxRetries is the default number of improvement cycles before an
// artifact is rejected.
const DefaultMaxRetries = 2

// RejectedReason is attached to outcomes that exhaust their improvement
// budget.
const RejectedReason = "max improvement attempts reached"

// Outcome is the terminal result of one workflow run. Rejection is a
// normal business outcome requiring manual follow-up, never an error.
type Outcome struct {
	Approved bool                 `json:"approved"`
	Artifact string               `json:"artifact"`
	Result   *types.QualityResult `json:"result"`
	Retries  int                  `json:"retries"`
	Reason   string               `json:"reason,omitempty"`
}

// Workflow drives the quality gate through a bounded number of improvement
// cycles: at most maxRetries+1 gate evaluations and maxRetries improve
// calls, with no other exit path.
type Workflow struct {
	gate        *Gate
	improver    Improver
	sink        events.Sink
	maxRetries  int
	callTimeout time.Duration
}

// WorkflowOptions holds the immutable configuration for a Workflow.
type WorkflowOptions struct {
	MaxRetries  int           // improvement cycles before rejection
	CallTimeout time.Duration // per improve call
}

// NewWorkflow constructs the improve/retry controller.
func NewWorkflow(gate *Gate, improver Improver, sink events.Sink, opts WorkflowOptions) *Workflow {
	if opts.MaxRetries < 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if sink == nil {
		sink = events.Discard
	}
	return &Workflow{
		gate:        gate,
		improver:    improver,
		sink:        sink,
		maxRetries:  opts.MaxRetries,
		callTimeout: opts.CallTimeout,
	}
}

// Run evaluates the artifact, improving and re-evaluating until it is
// approved or the retry budget is exhausted. Gate and improver failures
// surface as StageErrors; a rejected artifact does not.
func (w *Workflow) Run(ctx context.Context, artifact, requirements string) (*Outcome, error) {
	current := artifact
	retries := 0

	for {
		result, err := w.gate.Evaluate(ctx, current, requirements)
		if err != nil {
			return nil, err
		}

		if result.Passes {
			w.sink.Record(ctx, events.Event{
				Source: WorkflowSource,
				Name:   events.ArtifactApproved,
				Status: events.StatusOK,
				Metadata: map[string]any{
					"retries":       retries,
					"overall_score": result.OverallScore,
				},
			})
			return &Outcome{
				Approved: true,
				Artifact: current,
				Result:   result,
				Retries:  retries,
			}, nil
		}

		if retries == w.maxRetries {
			w.sink.Record(ctx, events.Event{
				Source: WorkflowSource,
				Name:   events.ArtifactRejected,
				Status: events.StatusFailed,
				Metadata: map[string]any{
					"retries":       retries,
					"overall_score": result.OverallScore,
					"reason":        RejectedReason,
				},
			})
			return &Outcome{
				Approved: false,
				Artifact: current,
				Result:   result,
				Retries:  retries,
				Reason:   RejectedReason,
			}, nil
		}

		improved, err := w.improve(ctx, current, result)
		if err != nil {
			return nil, &stage.StageError{Stage: WorkflowSource, Cause: err}
		}
		current = improved
		retries++

		w.sink.Record(ctx, events.Event{
			Source:   WorkflowSource,
			Name:     events.ArtifactImproved,
			Status:   events.StatusOK,
			Metadata: map[string]any{"retries": retries},
		})
	}
}

// improve runs the improver under the configured timeout.
func (w *Workflow) improve(ctx context.Context, artifact string, result *types.QualityResult) (string, error) {
	if w.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.callTimeout)
		defer cancel()
	}
	return w.improver.Improve(ctx, artifact, result)
}
