package catalog

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSample_WithoutReplacement(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	sample := Sample(Default, 5, rng)
	assert.Len(t, sample, 5)

	seen := make(map[Category]bool)
	for _, c := range sample {
		assert.False(t, seen[c], "category %v sampled twice", c)
		seen[c] = true
	}
}

func TestSample_BoundedByCatalogSize(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	small := []Category{{Type: "ebook", Niche: "a"}, {Type: "course", Niche: "b"}}

	sample := Sample(small, 10, rng)
	assert.Len(t, sample, 2)
}

func TestSample_EdgeCases(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	assert.Nil(t, Sample(Default, 0, rng))
	assert.Nil(t, Sample(nil, 3, rng))
}

func TestSample_DeterministicForSeed(t *testing.T) {
	a := Sample(Default, 4, rand.New(rand.NewSource(42)))
	b := Sample(Default, 4, rand.New(rand.NewSource(42)))
	assert.Equal(t, a, b)
}
