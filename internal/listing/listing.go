// Package listing implements the third pipeline stage: publishing created
// products through a marketplace collaborator, with a manual-instruction
// fallback when no collaborator is available.
package listing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/product-forge/internal/events"
	"github.com/jonathan/product-forge/internal/llm"
	"github.com/jonathan/product-forge/internal/prompts"
	"github.com/jonathan/product-forge/internal/stage"
	"github.com/jonathan/product-forge/internal/types"
)

// Source identifies this stage in events and cycle summaries.
const Source = "lister"

// ManualPlatform is the platform recorded for draft listings awaiting
// manual completion.
const ManualPlatform = "manual"

// Store is the narrow repository contract the listing stage depends on.
type Store interface {
	ListProductsByStatus(ctx context.Context, status types.ProductStatus, limit int) ([]types.Product, error)
	UpdateProductStatus(ctx context.Context, id uuid.UUID, status types.ProductStatus) (*types.Product, error)
	CreateListing(ctx context.Context, l *types.Listing) (*types.Listing, error)
}

// Options holds the immutable configuration for a Lister.
type Options struct {
	ItemsPerCycle int           // products to attempt per run
	CallTimeout   time.Duration // per external call
}

// Lister drains created products into listings. The stage is ungated: it
// only consumes queued work, so backpressure is applied upstream.
type Lister struct {
	store    Store
	gen      llm.Client
	merchant Merchant
	sink     events.Sink
	opts     Options
}

// New constructs a listing stage. A nil merchant behaves as Unavailable.
func New(store Store, gen llm.Client, merchant Merchant, sink events.Sink, opts Options) *Lister {
	if merchant == nil {
		merchant = Unavailable
	}
	if sink == nil {
		sink = events.Discard
	}
	return &Lister{
		store:    store,
		gen:      gen,
		merchant: merchant,
		sink:     sink,
		opts:     opts,
	}
}

// Name reports the stage name used in events and cycle summaries.
func (l *Lister) Name() string {
	return Source
}

// Run executes one listing pass over the oldest created products.
func (l *Lister) Run(ctx context.Context) (stage.Result, error) {
	listCtx, cancel := stage.WithTimeout(ctx, l.opts.CallTimeout)
	products, err := l.store.ListProductsByStatus(listCtx, types.ProductCreated, l.opts.ItemsPerCycle)
	cancel()
	if err != nil {
		return stage.Result{}, &stage.StageError{Stage: Source, Cause: err}
	}

	result := stage.Run(ctx, stage.Gate{}, len(products), func(ctx context.Context, i int) error {
		return l.processProduct(ctx, &products[i])
	})
	return result, nil
}

// processProduct claims one product and takes the primary listing path,
// falling back to manual instructions when the merchant is unavailable.
func (l *Lister) processProduct(ctx context.Context, product *types.Product) error {
	// Claim before any external work.
	if _, err := l.setStatus(ctx, product.ID, types.ProductListing); err != nil {
		return l.failProduct(ctx, product, "claim", err, false)
	}
	l.sink.Record(ctx, events.Event{
		Source:   Source,
		Name:     events.ItemClaimed,
		Status:   events.StatusOK,
		Metadata: map[string]any{"product_id": product.ID.String()},
	})

	attempt, err := l.attemptPrimary(ctx, product)
	if err != nil {
		return l.failProduct(ctx, product, "attempt listing", err, true)
	}

	if attempt != nil {
		return l.publishPrimary(ctx, product, attempt)
	}
	return l.publishDraft(ctx, product)
}

// attemptPrimary runs the merchant call under the configured timeout.
func (l *Lister) attemptPrimary(ctx context.Context, product *types.Product) (*types.ListingResult, error) {
	ctx, cancel := stage.WithTimeout(ctx, l.opts.CallTimeout)
	defer cancel()
	return l.merchant.AttemptListing(ctx, product)
}

// setStatus updates a product's status under the call timeout.
func (l *Lister) setStatus(ctx context.Context, id uuid.UUID, status types.ProductStatus) (*types.Product, error) {
	ctx, cancel := stage.WithTimeout(ctx, l.opts.CallTimeout)
	defer cancel()
	return l.store.UpdateProductStatus(ctx, id, status)
}

// persistListing stores a listing row under the call timeout.
func (l *Lister) persistListing(ctx context.Context, listing *types.Listing) (*types.Listing, error) {
	ctx, cancel := stage.WithTimeout(ctx, l.opts.CallTimeout)
	defer cancel()
	return l.store.CreateListing(ctx, listing)
}

// publishPrimary persists a listing from a successful merchant response.
func (l *Lister) publishPrimary(ctx context.Context, product *types.Product, attempt *types.ListingResult) error {
	status := attempt.Status
	if status == "" {
		status = types.ListingPublished
	}

	created, err := l.persistListing(ctx, &types.Listing{
		ProductID: product.ID,
		Platform:  attempt.Platform,
		URL:       attempt.URL,
		Status:    status,
	})
	if err != nil {
		return l.failProduct(ctx, product, "persist listing", err, true)
	}

	if _, err := l.setStatus(ctx, product.ID, types.ProductListed); err != nil {
		return l.failProduct(ctx, product, "mark listed", err, true)
	}

	l.sink.Record(ctx, events.Event{
		Source: Source,
		Name:   events.ListingPublished,
		Status: events.StatusOK,
		Metadata: map[string]any{
			"product_id": product.ID.String(),
			"listing_id": created.ID.String(),
			"platform":   attempt.Platform,
			"url":        attempt.URL,
		},
	})
	return nil
}

// publishDraft generates manual instructions and persists a draft listing.
// A draft is a valid near-terminal state awaiting manual completion, not a
// failure.
func (l *Lister) publishDraft(ctx context.Context, product *types.Product) error {
	instructions, err := l.manualInstructions(ctx, product)
	if err != nil {
		return l.failProduct(ctx, product, "manual instructions", err, true)
	}

	created, err := l.persistListing(ctx, &types.Listing{
		ProductID: product.ID,
		Platform:  ManualPlatform,
		Status:    types.ListingDraft,
	})
	if err != nil {
		return l.failProduct(ctx, product, "persist draft listing", err, true)
	}

	if _, err := l.setStatus(ctx, product.ID, types.ProductStatusDraft); err != nil {
		return l.failProduct(ctx, product, "mark draft", err, true)
	}

	l.sink.Record(ctx, events.Event{
		Source: Source,
		Name:   events.ListingDrafted,
		Status: events.StatusOK,
		Metadata: map[string]any{
			"product_id":   product.ID.String(),
			"listing_id":   created.ID.String(),
			"instructions": instructions,
		},
	})
	return nil
}

// manualInstructions asks the generator for operator-facing listing steps.
func (l *Lister) manualInstructions(ctx context.Context, product *types.Product) (string, error) {
	ctx, cancel := stage.WithTimeout(ctx, l.opts.CallTimeout)
	defer cancel()

	template := prompts.MustGet("listing.json", "manual-instructions")
	prompt := prompts.Format(template, map[string]string{
		"Title":       product.Title,
		"Description": product.Description,
		"Price":       fmt.Sprintf("%.2f", product.SuggestedPrice),
	})
	return l.gen.GenerateContent(ctx, prompt, llm.TierLite)
}

// failProduct marks the product failed (when claimed), records the failure,
// and wraps it as an ItemError.
func (l *Lister) failProduct(ctx context.Context, product *types.Product, op string, cause error, claimed bool) error {
	if claimed {
		_, _ = l.setStatus(ctx, product.ID, types.ProductFailed)
	}
	l.sink.Record(ctx, events.Event{
		Source: Source,
		Name:   events.ItemFailed,
		Status: events.StatusFailed,
		Metadata: map[string]any{
			"product_id": product.ID.String(),
			"op":         op,
			"error":      cause.Error(),
		},
	})
	return &stage.ItemError{Kind: "product", ID: product.ID.String(), Op: op, Cause: cause}
}
