// Package types defines the core domain entities shared across the pipeline stages.
package types

import (
	"time"

	"github.com/google/uuid"
)

// OpportunityStatus is the lifecycle status of an Opportunity.
// Transitions are monotonic: discovered -> in_progress -> completed|failed.
type OpportunityStatus string

// Opportunity lifecycle states.
const (
	OpportunityDiscovered OpportunityStatus = "discovered"
	OpportunityInProgress OpportunityStatus = "in_progress"
	OpportunityCompleted  OpportunityStatus = "completed"
	OpportunityFailed     OpportunityStatus = "failed"
)

// Opportunity is a candidate product idea surfaced by the discovery stage.
// Created by discovery, claimed and terminated by creation; never deleted.
type Opportunity struct {
	ID          uuid.UUID         `json:"id"`
	Type        string            `json:"type"`
	Niche       string            `json:"niche"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	TrendScore  int               `json:"trend_score"` // 0-100
	Status      OpportunityStatus `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// NextOpportunityStatuses describes the legal transitions out of each status.
// Terminal statuses map to an empty list.
var NextOpportunityStatuses = map[OpportunityStatus][]OpportunityStatus{
	OpportunityDiscovered: {OpportunityInProgress},
	OpportunityInProgress: {OpportunityCompleted, OpportunityFailed},
	OpportunityCompleted:  {},
	OpportunityFailed:     {},
}

// CanTransition reports whether an opportunity may move from one status to another.
func (s OpportunityStatus) CanTransition(to OpportunityStatus) bool {
	for _, next := range NextOpportunityStatuses[s] {
		if next == to {
			return true
		}
	}
	return false
}
