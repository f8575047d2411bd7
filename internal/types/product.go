package types

import (
	"time"

	"github.com/google/uuid"
)

// ProductStatus is the lifecycle status of a Product.
// Transitions are monotonic: created -> listing -> listed|draft|failed.
type ProductStatus string

// Product lifecycle states.
const (
	ProductCreated     ProductStatus = "created"
	ProductListing     ProductStatus = "listing"
	ProductListed      ProductStatus = "listed"
	ProductStatusDraft ProductStatus = "draft"
	ProductFailed      ProductStatus = "failed"
)

// Product is a generated artifact derived from a completed Opportunity.
// OpportunityID is a weak reference; the product does not own the opportunity.
type Product struct {
	ID             uuid.UUID     `json:"id"`
	OpportunityID  uuid.UUID     `json:"opportunity_id"`
	Title          string        `json:"title"`
	Description    string        `json:"description"`
	Features       []string      `json:"features"`
	SuggestedPrice float64       `json:"suggested_price"`
	Status         ProductStatus `json:"status"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// NextProductStatuses describes the legal transitions out of each status.
var NextProductStatuses = map[ProductStatus][]ProductStatus{
	ProductCreated:     {ProductListing},
	ProductListing:     {ProductListed, ProductStatusDraft, ProductFailed},
	ProductListed:      {},
	ProductStatusDraft: {},
	ProductFailed:      {},
}

// CanTransition reports whether a product may move from one status to another.
func (s ProductStatus) CanTransition(to ProductStatus) bool {
	for _, next := range NextProductStatuses[s] {
		if next == to {
			return true
		}
	}
	return false
}

// ProductDraft is the structured artifact returned by the content generator
// for the creation stage, before it is persisted as a Product.
type ProductDraft struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Features       []string `json:"features"`
	SuggestedPrice float64  `json:"suggested_price"`
}
