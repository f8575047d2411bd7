// Package creation implements the second pipeline stage: claiming
// discovered opportunities and turning them into Product entities via the
// content generator.
package creation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jonathan/product-forge/internal/events"
	"github.com/jonathan/product-forge/internal/llm"
	"github.com/jonathan/product-forge/internal/prompts"
	"github.com/jonathan/product-forge/internal/schemas"
	"github.com/jonathan/product-forge/internal/stage"
	"github.com/jonathan/product-forge/internal/types"
)

// Source identifies this stage in events and cycle summaries.
const Source = "creator"

// Store is the narrow repository contract the creation stage depends on.
type Store interface {
	CountProductsByStatus(ctx context.Context, status types.ProductStatus) (int, error)
	ListOpportunitiesByStatus(ctx context.Context, status types.OpportunityStatus, limit int) ([]types.Opportunity, error)
	UpdateOpportunityStatus(ctx context.Context, id uuid.UUID, status types.OpportunityStatus) (*types.Opportunity, error)
	CreateProduct(ctx context.Context, p *types.Product) (*types.Product, error)
}

// Options holds the immutable configuration for a Creator.
type Options struct {
	MaxQueue      int           // backpressure: max pending created products
	ItemsPerCycle int           // opportunities to attempt per run
	MinFeatures   int           // drafts with fewer features fail validation
	CallTimeout   time.Duration // per external call
}

// Creator consumes discovered opportunities and produces products.
type Creator struct {
	store    Store
	gen      llm.Client
	sink     events.Sink
	opts     Options
	validate *validator.Validate
}

// New constructs a creation stage.
func New(store Store, gen llm.Client, sink events.Sink, opts Options) *Creator {
	if sink == nil {
		sink = events.Discard
	}
	return &Creator{
		store:    store,
		gen:      gen,
		sink:     sink,
		opts:     opts,
		validate: validator.New(),
	}
}

// Name reports the stage name used in events and cycle summaries.
func (c *Creator) Name() string {
	return Source
}

// Run executes one gated creation pass: read the oldest discovered
// opportunities, claim each before doing external work, and persist the
// resulting products. Per-item failures mark the opportunity failed and
// the loop continues.
func (c *Creator) Run(ctx context.Context) (stage.Result, error) {
	countCtx, cancel := stage.WithTimeout(ctx, c.opts.CallTimeout)
	queueSize, err := c.store.CountProductsByStatus(countCtx, types.ProductCreated)
	cancel()
	if err != nil {
		return stage.Result{}, &stage.StageError{Stage: Source, Cause: err}
	}

	gate := stage.Gate{QueueSize: queueSize, MaxQueue: c.opts.MaxQueue}
	if gate.Closed() {
		c.sink.Record(ctx, events.Event{
			Source: Source,
			Name:   events.StageSkipped,
			Status: events.StatusSkipped,
			Metadata: map[string]any{
				"queue_size": queueSize,
				"max_queue":  c.opts.MaxQueue,
			},
		})
		return stage.Result{Skipped: true}, nil
	}

	listCtx, cancel := stage.WithTimeout(ctx, c.opts.CallTimeout)
	opportunities, err := c.store.ListOpportunitiesByStatus(listCtx, types.OpportunityDiscovered, c.opts.ItemsPerCycle)
	cancel()
	if err != nil {
		return stage.Result{}, &stage.StageError{Stage: Source, Cause: err}
	}

	result := stage.Run(ctx, gate, len(opportunities), func(ctx context.Context, i int) error {
		return c.processOpportunity(ctx, &opportunities[i])
	})
	return result, nil
}

// processOpportunity claims one opportunity, generates a product draft,
// validates it, and persists the product.
func (c *Creator) processOpportunity(ctx context.Context, opp *types.Opportunity) error {
	// Claim before any external work to narrow the double-processing window.
	if _, err := c.setStatus(ctx, opp.ID, types.OpportunityInProgress); err != nil {
		return c.failOpportunity(ctx, opp, "claim", err, false)
	}
	c.sink.Record(ctx, events.Event{
		Source:   Source,
		Name:     events.ItemClaimed,
		Status:   events.StatusOK,
		Metadata: map[string]any{"opportunity_id": opp.ID.String()},
	})

	draft, err := c.generateDraft(ctx, opp)
	if err != nil {
		return c.failOpportunity(ctx, opp, "generate draft", err, true)
	}

	if err := c.validateDraft(draft); err != nil {
		return c.failOpportunity(ctx, opp, "validate draft", err, true)
	}

	description, err := c.writeDescription(ctx, opp, draft)
	if err != nil {
		return c.failOpportunity(ctx, opp, "write description", err, true)
	}
	draft.Description = description

	product, err := c.persistProduct(ctx, &types.Product{
		OpportunityID:  opp.ID,
		Title:          draft.Title,
		Description:    draft.Description,
		Features:       draft.Features,
		SuggestedPrice: draft.SuggestedPrice,
	})
	if err != nil {
		return c.failOpportunity(ctx, opp, "persist product", err, true)
	}

	if _, err := c.setStatus(ctx, opp.ID, types.OpportunityCompleted); err != nil {
		// The product exists; losing the completion mark is logged but the
		// item still counts as produced.
		c.sink.Record(ctx, events.Event{
			Source:   Source,
			Name:     events.ItemFailed,
			Status:   events.StatusFailed,
			Metadata: map[string]any{"opportunity_id": opp.ID.String(), "op": "complete", "error": err.Error()},
		})
	}

	c.sink.Record(ctx, events.Event{
		Source: Source,
		Name:   events.ProductCreated,
		Status: events.StatusOK,
		Metadata: map[string]any{
			"product_id":     product.ID.String(),
			"opportunity_id": opp.ID.String(),
			"features":       len(product.Features),
		},
	})
	return nil
}

// setStatus updates an opportunity's status under the call timeout.
func (c *Creator) setStatus(ctx context.Context, id uuid.UUID, status types.OpportunityStatus) (*types.Opportunity, error) {
	ctx, cancel := stage.WithTimeout(ctx, c.opts.CallTimeout)
	defer cancel()
	return c.store.UpdateOpportunityStatus(ctx, id, status)
}

// persistProduct stores a validated product under the call timeout.
func (c *Creator) persistProduct(ctx context.Context, p *types.Product) (*types.Product, error) {
	ctx, cancel := stage.WithTimeout(ctx, c.opts.CallTimeout)
	defer cancel()
	return c.store.CreateProduct(ctx, p)
}

// generateDraft requests a structured product draft from the generator and
// checks it against the embedded schema before decoding.
func (c *Creator) generateDraft(ctx context.Context, opp *types.Opportunity) (*types.ProductDraft, error) {
	ctx, cancel := stage.WithTimeout(ctx, c.opts.CallTimeout)
	defer cancel()

	template := prompts.MustGet("creation.json", "draft-product")
	prompt := prompts.Format(template, map[string]string{
		"Type":        opp.Type,
		"Niche":       opp.Niche,
		"Title":       opp.Title,
		"Description": opp.Description,
		"MinFeatures": strconv.Itoa(c.opts.MinFeatures),
	})

	raw, err := c.gen.GenerateJSON(ctx, prompt, llm.TierStandard)
	if err != nil {
		return nil, err
	}

	cleaned := llm.CleanJSONBlock(raw)
	if err := schemas.Validate(schemas.ProductDraftSchema, cleaned); err != nil {
		return nil, err
	}

	var draft types.ProductDraft
	if err := llm.DecodeJSON(cleaned, &draft); err != nil {
		return nil, err
	}
	return &draft, nil
}

// writeDescription requests a dedicated sales description for the
// validated draft. It replaces the draft's own summary on the persisted
// product.
func (c *Creator) writeDescription(ctx context.Context, opp *types.Opportunity, draft *types.ProductDraft) (string, error) {
	ctx, cancel := stage.WithTimeout(ctx, c.opts.CallTimeout)
	defer cancel()

	template := prompts.MustGet("creation.json", "write-description")
	prompt := prompts.Format(template, map[string]string{
		"Type":  opp.Type,
		"Niche": opp.Niche,
		"Title": draft.Title,
	})
	return c.gen.GenerateContent(ctx, prompt, llm.TierStandard)
}

// validateDraft enforces the configured feature minimum. A thin draft is a
// per-item failure, never a stage failure.
func (c *Creator) validateDraft(draft *types.ProductDraft) error {
	if err := c.validate.Var(draft.Features, fmt.Sprintf("min=%d,dive,required", c.opts.MinFeatures)); err != nil {
		return fmt.Errorf("draft has %d features, need at least %d: %w",
			len(draft.Features), c.opts.MinFeatures, err)
	}
	return nil
}

// failOpportunity marks the opportunity failed (when it was claimed),
// records the failure, and wraps it as an ItemError.
func (c *Creator) failOpportunity(ctx context.Context, opp *types.Opportunity, op string, cause error, claimed bool) error {
	if claimed {
		_, _ = c.setStatus(ctx, opp.ID, types.OpportunityFailed)
	}
	c.sink.Record(ctx, events.Event{
		Source: Source,
		Name:   events.ItemFailed,
		Status: events.StatusFailed,
		Metadata: map[string]any{
			"opportunity_id": opp.ID.String(),
			"op":             op,
			"error":          cause.Error(),
		},
	})
	return &stage.ItemError{Kind: "opportunity", ID: opp.ID.String(), Op: op, Cause: cause}
}
