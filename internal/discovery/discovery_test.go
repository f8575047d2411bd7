package discovery

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/product-forge/internal/catalog"
	"github.com/jonathan/product-forge/internal/events"
	"github.com/jonathan/product-forge/internal/llm"
	"github.com/jonathan/product-forge/internal/stage"
	"github.com/jonathan/product-forge/internal/types"
)

// MockGenerator implements llm.Client for testing
type MockGenerator struct {
	GenerateContentFunc func(ctx context.Context, prompt string, tier llm.ModelTier) (string, error)
	GenerateJSONFunc    func(ctx context.Context, prompt string, tier llm.ModelTier) (string, error)
}

func (m *MockGenerator) GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	if m.GenerateContentFunc != nil {
		return m.GenerateContentFunc(ctx, prompt, tier)
	}
	return "A useful digital product.", nil
}

func (m *MockGenerator) GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	if m.GenerateJSONFunc != nil {
		return m.GenerateJSONFunc(ctx, prompt, tier)
	}
	return `{"score": 80, "rationale": "steady demand"}`, nil
}

func (m *MockGenerator) GetModel(llm.ModelTier) string { return "mock-model" }
func (m *MockGenerator) Close() error                  { return nil }

// MockStore implements Store for testing
type MockStore struct {
	CountFunc  func(ctx context.Context, status types.OpportunityStatus) (int, error)
	CreateFunc func(ctx context.Context, o *types.Opportunity) (*types.Opportunity, error)

	Created []types.Opportunity
}

func (m *MockStore) CountOpportunitiesByStatus(ctx context.Context, status types.OpportunityStatus) (int, error) {
	if m.CountFunc != nil {
		return m.CountFunc(ctx, status)
	}
	return 0, nil
}

func (m *MockStore) CreateOpportunity(ctx context.Context, o *types.Opportunity) (*types.Opportunity, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, o)
	}
	created := *o
	created.ID = uuid.New()
	created.Status = types.OpportunityDiscovered
	m.Created = append(m.Created, created)
	return &created, nil
}

func testOptions() Options {
	return Options{
		MaxQueue:       10,
		ItemsPerCycle:  2,
		TrendThreshold: 70,
		CallTimeout:    time.Second,
		Catalog: []catalog.Category{
			{Type: "ebook", Niche: "alpha"},
			{Type: "course", Niche: "beta"},
		},
		Seed: 42,
	}
}

func TestRun_Backpressure(t *testing.T) {
	tests := []struct {
		name      string
		queueSize int
		skipped   bool
	}{
		{name: "Queue at threshold", queueSize: 10, skipped: true},
		{name: "Queue above threshold", queueSize: 15, skipped: true},
		{name: "Queue below threshold", queueSize: 9, skipped: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &MockStore{
				CountFunc: func(context.Context, types.OpportunityStatus) (int, error) {
					return tt.queueSize, nil
				},
			}
			d := New(store, &MockGenerator{}, events.Discard, testOptions())

			result, err := d.Run(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.skipped, result.Skipped)
			if tt.skipped {
				assert.Empty(t, store.Created, "a skipped run must persist nothing")
				assert.Zero(t, result.Attempted)
			}
		})
	}
}

func TestRun_PersistsSurvivorsAsDiscovered(t *testing.T) {
	store := &MockStore{}
	d := New(store, &MockGenerator{}, events.Discard, testOptions())

	result, err := d.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Produced)
	require.Len(t, store.Created, 2)
	for _, o := range store.Created {
		assert.Equal(t, types.OpportunityDiscovered, o.Status)
		assert.Equal(t, 80, o.TrendScore)
		assert.NotEmpty(t, o.Description)
	}
}

func TestRun_LowTrendCandidatesVanish(t *testing.T) {
	gen := &MockGenerator{
		GenerateJSONFunc: func(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
			if strings.Contains(prompt, "alpha") {
				return `{"score": 40, "rationale": "fading"}`, nil
			}
			return `{"score": 90, "rationale": "hot"}`, nil
		},
	}
	store := &MockStore{}
	var rejected []events.Event
	sink := events.SinkFunc(func(_ context.Context, e events.Event) {
		if e.Name == events.CandidateRejected {
			rejected = append(rejected, e)
		}
	})

	d := New(store, gen, sink, testOptions())
	result, err := d.Run(context.Background())
	require.NoError(t, err)

	// The low scorer is filtered, not failed, and no row exists for it.
	assert.Equal(t, 1, result.Produced)
	assert.Equal(t, 1, result.Filtered)
	assert.Zero(t, result.Failed)
	require.Len(t, store.Created, 1)
	assert.Equal(t, "beta", store.Created[0].Niche)
	assert.Len(t, rejected, 1)
}

func TestRun_GeneratorFailureIsolatedPerCandidate(t *testing.T) {
	gen := &MockGenerator{
		GenerateContentFunc: func(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
			if strings.Contains(prompt, "alpha") {
				return "", errors.New("api unavailable")
			}
			return "A useful digital product.", nil
		},
	}
	store := &MockStore{}
	d := New(store, gen, events.Discard, testOptions())

	result, err := d.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Attempted)
	assert.Equal(t, 1, result.Produced)
	assert.Equal(t, 1, result.Failed)
	assert.Len(t, store.Created, 1)
}

func TestRun_MalformedTrendJSONIsItemError(t *testing.T) {
	gen := &MockGenerator{
		GenerateJSONFunc: func(context.Context, string, llm.ModelTier) (string, error) {
			return "not json", nil
		},
	}
	store := &MockStore{}
	d := New(store, gen, events.Discard, testOptions())

	result, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Failed)
	assert.Empty(t, store.Created)
}

func TestRun_RepositoryCountFailureIsStageError(t *testing.T) {
	store := &MockStore{
		CountFunc: func(context.Context, types.OpportunityStatus) (int, error) {
			return 0, errors.New("connection refused")
		},
	}
	d := New(store, &MockGenerator{}, events.Discard, testOptions())

	_, err := d.Run(context.Background())
	require.Error(t, err)

	var stageErr *stage.StageError
	assert.True(t, errors.As(err, &stageErr))
	assert.Equal(t, Source, stageErr.Stage)
}

func TestRun_HungRepositoryCountTimesOut(t *testing.T) {
	store := &MockStore{
		CountFunc: func(ctx context.Context, _ types.OpportunityStatus) (int, error) {
			// Simulate a hung connection: block until the call deadline.
			<-ctx.Done()
			return 0, ctx.Err()
		},
	}
	opts := testOptions()
	opts.CallTimeout = 20 * time.Millisecond
	d := New(store, &MockGenerator{}, events.Discard, opts)

	_, err := d.Run(context.Background())
	require.Error(t, err)

	var stageErr *stage.StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, Source, stageErr.Stage)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, store.Created)
}
