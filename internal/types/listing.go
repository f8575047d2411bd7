package types

import (
	"time"

	"github.com/google/uuid"
)

// ListingStatus is the lifecycle status of a Listing.
type ListingStatus string

// Listing lifecycle states.
const (
	ListingDraft     ListingStatus = "draft"
	ListingPublished ListingStatus = "published"
	ListingFailed    ListingStatus = "failed"
)

// Listing is a sales-channel record pointing at a Product. Sales and
// revenue start at zero and are mutated later by payment webhooks, which
// are outside this system.
type Listing struct {
	ID        uuid.UUID     `json:"id"`
	ProductID uuid.UUID     `json:"product_id"`
	Platform  string        `json:"platform"`
	URL       string        `json:"url,omitempty"` // empty until published
	Status    ListingStatus `json:"status"`
	Sales     int           `json:"sales"`
	Revenue   float64       `json:"revenue"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// ListingResult is what a marketplace collaborator returns for a successful
// primary listing attempt. A nil result means "use the manual fallback".
type ListingResult struct {
	URL      string        `json:"url"`
	Platform string        `json:"platform"`
	Status   ListingStatus `json:"status"`
}
