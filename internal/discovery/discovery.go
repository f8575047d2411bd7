// Package discovery implements the first pipeline stage: sampling candidate
// categories, scoring their market demand, and persisting the survivors as
// opportunities.
package discovery

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/jonathan/product-forge/internal/catalog"
	"github.com/jonathan/product-forge/internal/events"
	"github.com/jonathan/product-forge/internal/llm"
	"github.com/jonathan/product-forge/internal/prompts"
	"github.com/jonathan/product-forge/internal/schemas"
	"github.com/jonathan/product-forge/internal/stage"
	"github.com/jonathan/product-forge/internal/types"
)

// Source identifies this stage in events and cycle summaries.
const Source = "discoverer"

// Store is the narrow repository contract the discovery stage depends on.
type Store interface {
	CountOpportunitiesByStatus(ctx context.Context, status types.OpportunityStatus) (int, error)
	CreateOpportunity(ctx context.Context, o *types.Opportunity) (*types.Opportunity, error)
}

// Options holds the immutable configuration for a Discoverer.
type Options struct {
	MaxQueue       int           // backpressure: max pending discovered opportunities
	ItemsPerCycle  int           // candidates to attempt per run
	TrendThreshold int           // candidates scoring below this vanish
	CallTimeout    time.Duration // per external call
	Catalog        []catalog.Category
	Seed           int64 // 0 means seed from the clock
}

// Discoverer produces Opportunity entities from the category catalog.
type Discoverer struct {
	store Store
	gen   llm.Client
	sink  events.Sink
	opts  Options
	rng   *rand.Rand
}

// New constructs a discovery stage. The options object is copied and never
// mutated afterwards.
func New(store Store, gen llm.Client, sink events.Sink, opts Options) *Discoverer {
	if len(opts.Catalog) == 0 {
		opts.Catalog = catalog.Default
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if sink == nil {
		sink = events.Discard
	}
	return &Discoverer{
		store: store,
		gen:   gen,
		sink:  sink,
		opts:  opts,
		rng:   rand.New(rand.NewSource(seed)),
	}
}

// Name reports the stage name used in events and cycle summaries.
func (d *Discoverer) Name() string {
	return Source
}

// trendResponse is the expected generator JSON for a trend score.
type trendResponse struct {
	Score     int    `json:"score"`
	Rationale string `json:"rationale"`
}

// Run executes one gated discovery pass. Per-candidate failures are
// isolated; only repository-level failures abort the stage.
func (d *Discoverer) Run(ctx context.Context) (stage.Result, error) {
	countCtx, cancel := stage.WithTimeout(ctx, d.opts.CallTimeout)
	queueSize, err := d.store.CountOpportunitiesByStatus(countCtx, types.OpportunityDiscovered)
	cancel()
	if err != nil {
		return stage.Result{}, &stage.StageError{Stage: Source, Cause: err}
	}

	gate := stage.Gate{QueueSize: queueSize, MaxQueue: d.opts.MaxQueue}
	candidates := catalog.Sample(d.opts.Catalog, d.opts.ItemsPerCycle, d.rng)

	result := stage.Run(ctx, gate, len(candidates), func(ctx context.Context, i int) error {
		return d.processCandidate(ctx, candidates[i])
	})

	if result.Skipped {
		d.sink.Record(ctx, events.Event{
			Source: Source,
			Name:   events.StageSkipped,
			Status: events.StatusSkipped,
			Metadata: map[string]any{
				"queue_size": queueSize,
				"max_queue":  d.opts.MaxQueue,
			},
		})
	}
	return result, nil
}

// processCandidate asks the generator for a description and a trend score,
// filters low scorers, and persists the survivors as discovered.
func (d *Discoverer) processCandidate(ctx context.Context, c catalog.Category) error {
	description, err := d.describe(ctx, c)
	if err != nil {
		return d.failCandidate(ctx, c, "describe", err)
	}

	trend, err := d.scoreTrend(ctx, c)
	if err != nil {
		return d.failCandidate(ctx, c, "score trend", err)
	}

	if trend.Score < d.opts.TrendThreshold {
		// Rejected candidates are never persisted, not even as failed;
		// they simply vanish from the cycle.
		d.sink.Record(ctx, events.Event{
			Source: Source,
			Name:   events.CandidateRejected,
			Status: events.StatusSkipped,
			Metadata: map[string]any{
				"type":      c.Type,
				"niche":     c.Niche,
				"score":     trend.Score,
				"threshold": d.opts.TrendThreshold,
			},
		})
		return stage.ErrFiltered
	}

	opp, err := d.persist(ctx, &types.Opportunity{
		Type:        c.Type,
		Niche:       c.Niche,
		Title:       candidateTitle(c),
		Description: description,
		TrendScore:  trend.Score,
	})
	if err != nil {
		return d.failCandidate(ctx, c, "persist", err)
	}

	d.sink.Record(ctx, events.Event{
		Source: Source,
		Name:   events.OpportunityDiscovered,
		Status: events.StatusOK,
		Metadata: map[string]any{
			"opportunity_id": opp.ID.String(),
			"type":           c.Type,
			"niche":          c.Niche,
			"trend_score":    trend.Score,
		},
	})
	return nil
}

// persist stores a surviving candidate under the call timeout.
func (d *Discoverer) persist(ctx context.Context, o *types.Opportunity) (*types.Opportunity, error) {
	ctx, cancel := stage.WithTimeout(ctx, d.opts.CallTimeout)
	defer cancel()
	return d.store.CreateOpportunity(ctx, o)
}

// describe requests a short candidate description from the generator.
func (d *Discoverer) describe(ctx context.Context, c catalog.Category) (string, error) {
	ctx, cancel := stage.WithTimeout(ctx, d.opts.CallTimeout)
	defer cancel()

	template := prompts.MustGet("discovery.json", "describe-candidate")
	prompt := prompts.Format(template, map[string]string{
		"Type":  c.Type,
		"Niche": c.Niche,
	})
	return d.gen.GenerateContent(ctx, prompt, llm.TierLite)
}

// scoreTrend requests and validates a 0-100 trend score from the generator.
func (d *Discoverer) scoreTrend(ctx context.Context, c catalog.Category) (*trendResponse, error) {
	ctx, cancel := stage.WithTimeout(ctx, d.opts.CallTimeout)
	defer cancel()

	template := prompts.MustGet("discovery.json", "score-trend")
	prompt := prompts.Format(template, map[string]string{
		"Type":  c.Type,
		"Niche": c.Niche,
	})

	raw, err := d.gen.GenerateJSON(ctx, prompt, llm.TierLite)
	if err != nil {
		return nil, err
	}

	cleaned := llm.CleanJSONBlock(raw)
	if err := schemas.Validate(schemas.TrendScoreSchema, cleaned); err != nil {
		return nil, err
	}

	var trend trendResponse
	if err := llm.DecodeJSON(cleaned, &trend); err != nil {
		return nil, err
	}
	return &trend, nil
}

// failCandidate records the failure and wraps it as an ItemError. Nothing
// is persisted for a failed candidate; it owns no entity yet.
func (d *Discoverer) failCandidate(ctx context.Context, c catalog.Category, op string, cause error) error {
	d.sink.Record(ctx, events.Event{
		Source: Source,
		Name:   events.ItemFailed,
		Status: events.StatusFailed,
		Metadata: map[string]any{
			"type":  c.Type,
			"niche": c.Niche,
			"op":    op,
			"error": cause.Error(),
		},
	})
	return &stage.ItemError{Kind: "candidate", ID: c.Type + "/" + c.Niche, Op: op, Cause: cause}
}

// candidateTitle builds a stable opportunity title from a category.
func candidateTitle(c catalog.Category) string {
	return fmt.Sprintf("%s: %s", c.Type, c.Niche)
}
