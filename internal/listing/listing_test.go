package listing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/product-forge/internal/events"
	"github.com/jonathan/product-forge/internal/llm"
	"github.com/jonathan/product-forge/internal/stage"
	"github.com/jonathan/product-forge/internal/types"
)

// MockGenerator implements llm.Client for testing
type MockGenerator struct {
	GenerateContentFunc func(ctx context.Context, prompt string, tier llm.ModelTier) (string, error)
}

func (m *MockGenerator) GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	if m.GenerateContentFunc != nil {
		return m.GenerateContentFunc(ctx, prompt, tier)
	}
	return "1. Upload the file.\n2. Set the price.", nil
}

func (m *MockGenerator) GenerateJSON(context.Context, string, llm.ModelTier) (string, error) {
	return "", nil
}

func (m *MockGenerator) GetModel(llm.ModelTier) string { return "mock-model" }
func (m *MockGenerator) Close() error                  { return nil }

// MockStore implements Store for testing
type MockStore struct {
	ListFunc          func(ctx context.Context, status types.ProductStatus, limit int) ([]types.Product, error)
	CreateListingFunc func(ctx context.Context, l *types.Listing) (*types.Listing, error)

	StatusHistory map[uuid.UUID][]types.ProductStatus
	Listings      []types.Listing
}

func NewMockStore() *MockStore {
	return &MockStore{StatusHistory: make(map[uuid.UUID][]types.ProductStatus)}
}

func (m *MockStore) ListProductsByStatus(ctx context.Context, status types.ProductStatus, limit int) ([]types.Product, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, status, limit)
	}
	return nil, nil
}

func (m *MockStore) UpdateProductStatus(_ context.Context, id uuid.UUID, status types.ProductStatus) (*types.Product, error) {
	m.StatusHistory[id] = append(m.StatusHistory[id], status)
	return &types.Product{ID: id, Status: status}, nil
}

func (m *MockStore) CreateListing(ctx context.Context, l *types.Listing) (*types.Listing, error) {
	if m.CreateListingFunc != nil {
		return m.CreateListingFunc(ctx, l)
	}
	created := *l
	created.ID = uuid.New()
	m.Listings = append(m.Listings, created)
	return &created, nil
}

func testOptions() Options {
	return Options{ItemsPerCycle: 5, CallTimeout: time.Second}
}

func createdProducts(n int) []types.Product {
	products := make([]types.Product, 0, n)
	for i := 0; i < n; i++ {
		products = append(products, types.Product{
			ID:             uuid.New(),
			Title:          "Budget Planner",
			Description:    "A planner.",
			SuggestedPrice: 19,
			Status:         types.ProductCreated,
		})
	}
	return products
}

func TestRun_PrimaryPathPublishes(t *testing.T) {
	products := createdProducts(1)
	store := NewMockStore()
	store.ListFunc = func(context.Context, types.ProductStatus, int) ([]types.Product, error) {
		return products, nil
	}
	merchant := MerchantFunc(func(_ context.Context, p *types.Product) (*types.ListingResult, error) {
		return &types.ListingResult{URL: "https://market.example/p/1", Platform: "gumroad", Status: types.ListingPublished}, nil
	})

	l := New(store, &MockGenerator{}, merchant, events.Discard, testOptions())
	result, err := l.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Produced)
	require.Len(t, store.Listings, 1)
	assert.Equal(t, types.ListingPublished, store.Listings[0].Status)
	assert.Equal(t, "https://market.example/p/1", store.Listings[0].URL)
	assert.Zero(t, store.Listings[0].Sales)
	assert.Zero(t, store.Listings[0].Revenue)
	assert.Equal(t,
		[]types.ProductStatus{types.ProductListing, types.ProductListed},
		store.StatusHistory[products[0].ID])
}

func TestRun_NilMerchantResultFallsBackToDraft(t *testing.T) {
	products := createdProducts(3)
	store := NewMockStore()
	store.ListFunc = func(context.Context, types.ProductStatus, int) ([]types.Product, error) {
		return products, nil
	}

	l := New(store, &MockGenerator{}, Unavailable, events.Discard, testOptions())
	result, err := l.Run(context.Background())
	require.NoError(t, err)

	// Every product becomes draft, never failed, and each has a draft
	// listing row.
	assert.Equal(t, 3, result.Produced)
	require.Len(t, store.Listings, 3)
	for _, listing := range store.Listings {
		assert.Equal(t, types.ListingDraft, listing.Status)
		assert.Equal(t, ManualPlatform, listing.Platform)
		assert.Empty(t, listing.URL)
	}
	for _, p := range products {
		assert.Equal(t,
			[]types.ProductStatus{types.ProductListing, types.ProductStatusDraft},
			store.StatusHistory[p.ID])
	}
}

func TestRun_MerchantErrorMarksProductFailed(t *testing.T) {
	products := createdProducts(2)
	store := NewMockStore()
	store.ListFunc = func(context.Context, types.ProductStatus, int) ([]types.Product, error) {
		return products, nil
	}
	calls := 0
	merchant := MerchantFunc(func(context.Context, *types.Product) (*types.ListingResult, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("marketplace 500")
		}
		return &types.ListingResult{URL: "https://market.example/p/2", Platform: "gumroad", Status: types.ListingPublished}, nil
	})

	l := New(store, &MockGenerator{}, merchant, events.Discard, testOptions())
	result, err := l.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, result.Produced)
	assert.Equal(t,
		[]types.ProductStatus{types.ProductListing, types.ProductFailed},
		store.StatusHistory[products[0].ID])
	assert.Equal(t,
		[]types.ProductStatus{types.ProductListing, types.ProductListed},
		store.StatusHistory[products[1].ID])
}

func TestRun_FallbackGeneratorFailureMarksProductFailed(t *testing.T) {
	products := createdProducts(1)
	store := NewMockStore()
	store.ListFunc = func(context.Context, types.ProductStatus, int) ([]types.Product, error) {
		return products, nil
	}
	gen := &MockGenerator{
		GenerateContentFunc: func(context.Context, string, llm.ModelTier) (string, error) {
			return "", errors.New("api unavailable")
		},
	}

	l := New(store, gen, Unavailable, events.Discard, testOptions())
	result, err := l.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Failed)
	assert.Empty(t, store.Listings)
	assert.Equal(t,
		[]types.ProductStatus{types.ProductListing, types.ProductFailed},
		store.StatusHistory[products[0].ID])
}

func TestRun_RepositoryListFailureIsStageError(t *testing.T) {
	store := NewMockStore()
	store.ListFunc = func(context.Context, types.ProductStatus, int) ([]types.Product, error) {
		return nil, errors.New("connection refused")
	}

	l := New(store, &MockGenerator{}, Unavailable, events.Discard, testOptions())
	_, err := l.Run(context.Background())
	require.Error(t, err)

	var stageErr *stage.StageError
	assert.True(t, errors.As(err, &stageErr))
	assert.Equal(t, Source, stageErr.Stage)
}
