package listing

import (
	"context"

	"github.com/jonathan/product-forge/internal/types"
)

// Merchant is the marketplace collaborator contract. A nil result with a
// nil error means the primary path is unavailable and the stage should
// fall back to manual instructions; an error means the attempt itself
// failed.
type Merchant interface {
	AttemptListing(ctx context.Context, product *types.Product) (*types.ListingResult, error)
}

// MerchantFunc adapts a function to the Merchant interface
type MerchantFunc func(ctx context.Context, product *types.Product) (*types.ListingResult, error)

// AttemptListing calls f(ctx, product)
func (f MerchantFunc) AttemptListing(ctx context.Context, product *types.Product) (*types.ListingResult, error) {
	return f(ctx, product)
}

// Unavailable is a Merchant with no marketplace integration configured;
// every product takes the manual fallback path.
var Unavailable Merchant = MerchantFunc(func(context.Context, *types.Product) (*types.ListingResult, error) {
	return nil, nil
})
