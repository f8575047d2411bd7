// Package events defines the domain events emitted by the pipeline stages
// and controllers, decoupling business logic from how events are persisted.
package events

import "context"

// Event names emitted by the pipeline.
const (
	StageSkipped          = "stage_skipped"
	ItemClaimed           = "item_claimed"
	ItemFailed            = "item_failed"
	OpportunityDiscovered = "opportunity_discovered"
	CandidateRejected     = "candidate_rejected"
	ProductCreated        = "product_created"
	ListingPublished      = "listing_published"
	ListingDrafted        = "listing_drafted"
	GateEvaluated         = "gate_evaluated"
	ArtifactImproved      = "artifact_improved"
	ArtifactApproved      = "artifact_approved"
	ArtifactRejected      = "artifact_rejected"
	CycleCompleted        = "cycle_completed"
)

// Event statuses.
const (
	StatusOK      = "success"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// Event is a single domain event. Metadata is free-form and serialized by
// the sink.
type Event struct {
	Source   string
	Name     string
	Status   string
	Metadata map[string]any
}

// Sink receives domain events. Sinks are observational: they must not
// influence pipeline control flow, and emit never returns an error.
type Sink interface {
	Record(ctx context.Context, e Event)
}

// SinkFunc adapts a function to the Sink interface
type SinkFunc func(ctx context.Context, e Event)

// Record calls f(ctx, e)
func (f SinkFunc) Record(ctx context.Context, e Event) {
	f(ctx, e)
}

// Discard is a Sink that drops all events. Useful in tests.
var Discard Sink = SinkFunc(func(context.Context, Event) {})

// actionLogger is the subset of the repository the log sink needs.
type actionLogger interface {
	LogAction(ctx context.Context, source, event, status string, metadata map[string]any) error
}

// NewActionLogSink returns a Sink that persists events to the append-only
// action log. Persistence errors are swallowed; the log is best effort.
func NewActionLogSink(log actionLogger) Sink {
	return SinkFunc(func(ctx context.Context, e Event) {
		_ = log.LogAction(ctx, e.Source, e.Name, e.Status, e.Metadata)
	})
}
