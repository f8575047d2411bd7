// Package pipeline provides the high-level orchestration for the product factory.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonathan/product-forge/internal/events"
	"github.com/jonathan/product-forge/internal/stage"
)

// Source identifies the orchestrator in events.
const Source = "orchestrator"

// Stage is one step of the factory cycle. Run reports what the stage did
// this cycle; an error means the stage could not make progress at all,
// not that an individual item failed.
type Stage interface {
	Name() string
	Run(ctx context.Context) (stage.Result, error)
}

// StageFailure records a stage that could not run during a cycle.
type StageFailure struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// Summary is the outcome of one full cycle across all stages.
type Summary struct {
	Started  time.Time               `json:"started"`
	Duration time.Duration           `json:"duration"`
	Results  map[string]stage.Result `json:"results"`
	Errors   []StageFailure          `json:"errors,omitempty"`
}

// Orchestrator runs the factory stages in pipeline order. Stages are
// isolated: a failure in one never prevents the others from running,
// because each operates on items the previous cycles already persisted.
type Orchestrator struct {
	stages []Stage
	sink   events.Sink

	// running guards continuous mode against overlapping cycles when a
	// cycle outlasts the tick interval.
	running sync.Mutex
}

// NewOrchestrator builds an orchestrator over the given stages, run in
// the order provided.
func NewOrchestrator(stages []Stage, sink events.Sink) *Orchestrator {
	if sink == nil {
		sink = events.Discard
	}
	return &Orchestrator{stages: stages, sink: sink}
}

// RunCycle executes every stage once, in order, and returns the combined
// summary. Stage errors are collected, never returned: the summary's
// Errors list is the only failure channel, so callers always get a full
// picture of the cycle.
func (o *Orchestrator) RunCycle(ctx context.Context) Summary {
	summary := Summary{
		Started: time.Now(),
		Results: make(map[string]stage.Result, len(o.stages)),
	}

	for _, s := range o.stages {
		result, err := s.Run(ctx)
		summary.Results[s.Name()] = result
		if err != nil {
			summary.Errors = append(summary.Errors, StageFailure{
				Stage:   s.Name(),
				Message: err.Error(),
			})
		}
	}

	summary.Duration = time.Since(summary.Started)

	status := events.StatusOK
	if len(summary.Errors) > 0 {
		status = events.StatusFailed
	}
	o.sink.Record(ctx, events.Event{
		Source: Source,
		Name:   events.CycleCompleted,
		Status: status,
		Metadata: map[string]any{
			"duration_ms": summary.Duration.Milliseconds(),
			"stage_count": len(o.stages),
			"error_count": len(summary.Errors),
		},
	})

	return summary
}

// RunContinuous runs a cycle immediately and then once per interval until
// the context is cancelled. If a cycle is still in flight when the ticker
// fires, that fire is skipped rather than queued. Each summary is passed
// to onCycle if set.
func (o *Orchestrator) RunContinuous(ctx context.Context, interval time.Duration, onCycle func(Summary)) error {
	if interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", interval)
	}

	runOnce := func() {
		if !o.running.TryLock() {
			o.sink.Record(ctx, events.Event{
				Source:   Source,
				Name:     events.StageSkipped,
				Status:   events.StatusSkipped,
				Metadata: map[string]any{"reason": "previous cycle still running"},
			})
			return
		}
		defer o.running.Unlock()

		summary := o.RunCycle(ctx)
		if onCycle != nil {
			onCycle(summary)
		}
	}

	runOnce()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			runOnce()
		}
	}
}
