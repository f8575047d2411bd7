package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/product-forge/internal/types"
)

// -----------------------------------------------------------------------------
// Listing Methods
// -----------------------------------------------------------------------------

const listingColumns = `id, product_id, platform, url, status, sales, revenue, created_at, updated_at`

func scanListing(row pgx.Row) (*types.Listing, error) {
	var l types.Listing
	var url *string
	err := row.Scan(&l.ID, &l.ProductID, &l.Platform, &url, &l.Status,
		&l.Sales, &l.Revenue, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if url != nil {
		l.URL = *url
	}
	return &l, nil
}

// CreateListing persists a listing row. Sales and revenue always start at
// zero; payment webhooks mutate them later, outside this system.
func (db *DB) CreateListing(ctx context.Context, l *types.Listing) (*types.Listing, error) {
	var url *string
	if l.URL != "" {
		url = &l.URL
	}

	row := db.pool.QueryRow(ctx,
		`INSERT INTO listings (product_id, platform, url, status, sales, revenue)
		 VALUES ($1, $2, $3, $4, 0, 0)
		 RETURNING `+listingColumns,
		l.ProductID, l.Platform, url, l.Status,
	)
	created, err := scanListing(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}
	return created, nil
}

// ListListingsByProduct returns all listings for a product, oldest first
func (db *DB) ListListingsByProduct(ctx context.Context, productID uuid.UUID) ([]types.Listing, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE product_id = $1 ORDER BY created_at ASC`,
		productID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}
	defer rows.Close()

	var result []types.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		result = append(result, *l)
	}
	return result, rows.Err()
}

// CountListingsByStatus returns the number of listings in a status
func (db *DB) CountListingsByStatus(ctx context.Context, status types.ListingStatus) (int, error) {
	var count int
	err := db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM listings WHERE status = $1`, status,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count listings: %w", err)
	}
	return count, nil
}
