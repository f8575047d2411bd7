package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/product-forge/internal/types"
)

// -----------------------------------------------------------------------------
// Product Methods
// -----------------------------------------------------------------------------

const productColumns = `id, opportunity_id, title, description, features, suggested_price, status, created_at, updated_at`

func scanProduct(row pgx.Row) (*types.Product, error) {
	var p types.Product
	var featuresJSON []byte
	err := row.Scan(&p.ID, &p.OpportunityID, &p.Title, &p.Description,
		&featuresJSON, &p.SuggestedPrice, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if featuresJSON != nil {
		_ = json.Unmarshal(featuresJSON, &p.Features)
	}
	return &p, nil
}

// CreateProduct persists a generated product with status "created"
func (db *DB) CreateProduct(ctx context.Context, p *types.Product) (*types.Product, error) {
	featuresJSON, err := json.Marshal(p.Features)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal features: %w", err)
	}

	row := db.pool.QueryRow(ctx,
		`INSERT INTO products (opportunity_id, title, description, features, suggested_price, status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+productColumns,
		p.OpportunityID, p.Title, p.Description, featuresJSON, p.SuggestedPrice, types.ProductCreated,
	)
	created, err := scanProduct(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return created, nil
}

// GetProductByID retrieves a single product, or nil if absent
func (db *DB) GetProductByID(ctx context.Context, id uuid.UUID) (*types.Product, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return p, nil
}

// ListProductsByStatus returns up to limit products in the given status,
// oldest first.
func (db *DB) ListProductsByStatus(ctx context.Context, status types.ProductStatus, limit int) ([]types.Product, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+productColumns+`
		 FROM products WHERE status = $1
		 ORDER BY created_at ASC LIMIT $2`,
		status, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var result []types.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

// CountProductsByStatus returns the number of products in a status
func (db *DB) CountProductsByStatus(ctx context.Context, status types.ProductStatus) (int, error) {
	var count int
	err := db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM products WHERE status = $1`, status,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}

// UpdateProductStatus moves a product to a new status
func (db *DB) UpdateProductStatus(ctx context.Context, id uuid.UUID, status types.ProductStatus) (*types.Product, error) {
	row := db.pool.QueryRow(ctx,
		`UPDATE products SET status = $1, updated_at = NOW()
		 WHERE id = $2
		 RETURNING `+productColumns,
		status, id,
	)
	p, err := scanProduct(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("product %s not found", id)
		}
		return nil, fmt.Errorf("failed to update product status: %w", err)
	}
	return p, nil
}
