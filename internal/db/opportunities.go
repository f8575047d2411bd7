package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/product-forge/internal/types"
)

// -----------------------------------------------------------------------------
// Opportunity Methods
// -----------------------------------------------------------------------------

const opportunityColumns = `id, type, niche, title, description, trend_score, status, created_at, updated_at`

func scanOpportunity(row pgx.Row) (*types.Opportunity, error) {
	var o types.Opportunity
	err := row.Scan(&o.ID, &o.Type, &o.Niche, &o.Title, &o.Description,
		&o.TrendScore, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// CreateOpportunity persists a newly discovered opportunity with status "discovered"
func (db *DB) CreateOpportunity(ctx context.Context, o *types.Opportunity) (*types.Opportunity, error) {
	row := db.pool.QueryRow(ctx,
		`INSERT INTO opportunities (type, niche, title, description, trend_score, status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+opportunityColumns,
		o.Type, o.Niche, o.Title, o.Description, o.TrendScore, types.OpportunityDiscovered,
	)
	created, err := scanOpportunity(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create opportunity: %w", err)
	}
	return created, nil
}

// GetOpportunityByID retrieves a single opportunity, or nil if absent
func (db *DB) GetOpportunityByID(ctx context.Context, id uuid.UUID) (*types.Opportunity, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+opportunityColumns+` FROM opportunities WHERE id = $1`, id)
	o, err := scanOpportunity(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get opportunity: %w", err)
	}
	return o, nil
}

// ListOpportunitiesByStatus returns up to limit opportunities in the given
// status, oldest first.
func (db *DB) ListOpportunitiesByStatus(ctx context.Context, status types.OpportunityStatus, limit int) ([]types.Opportunity, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+opportunityColumns+`
		 FROM opportunities WHERE status = $1
		 ORDER BY created_at ASC LIMIT $2`,
		status, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list opportunities: %w", err)
	}
	defer rows.Close()

	var result []types.Opportunity
	for rows.Next() {
		o, err := scanOpportunity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan opportunity: %w", err)
		}
		result = append(result, *o)
	}
	return result, rows.Err()
}

// CountOpportunitiesByStatus returns the number of opportunities in a status
func (db *DB) CountOpportunitiesByStatus(ctx context.Context, status types.OpportunityStatus) (int, error) {
	var count int
	err := db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM opportunities WHERE status = $1`, status,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count opportunities: %w", err)
	}
	return count, nil
}

// UpdateOpportunityStatus moves an opportunity to a new status. The status
// model is one-directional; callers claim before doing external work.
func (db *DB) UpdateOpportunityStatus(ctx context.Context, id uuid.UUID, status types.OpportunityStatus) (*types.Opportunity, error) {
	row := db.pool.QueryRow(ctx,
		`UPDATE opportunities SET status = $1, updated_at = NOW()
		 WHERE id = $2
		 RETURNING `+opportunityColumns,
		status, id,
	)
	o, err := scanOpportunity(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("opportunity %s not found", id)
		}
		return nil, fmt.Errorf("failed to update opportunity status: %w", err)
	}
	return o, nil
}
