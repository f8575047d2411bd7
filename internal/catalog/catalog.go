// Package catalog holds the static category catalog the discovery stage
// samples candidates from.
package catalog

import "math/rand"

// Category is one candidate product category: a product type paired with a
// buyer niche.
type Category struct {
	Type  string
	Niche string
}

// Default is the built-in category catalog. Randomized sampling over it
// exists only so successive cycles do not keep surfacing the same
// candidates; it makes no fairness guarantee.
var Default = []Category{
	{Type: "ebook", Niche: "personal finance for freelancers"},
	{Type: "ebook", Niche: "meal prep for busy parents"},
	{Type: "ebook", Niche: "remote team management"},
	{Type: "template", Niche: "notion project trackers"},
	{Type: "template", Niche: "freelance client onboarding"},
	{Type: "template", Niche: "wedding planning spreadsheets"},
	{Type: "prompt-pack", Niche: "real estate listing copy"},
	{Type: "prompt-pack", Niche: "small business social media"},
	{Type: "prompt-pack", Niche: "job application materials"},
	{Type: "course", Niche: "intro to home automation"},
	{Type: "course", Niche: "etsy shop fundamentals"},
	{Type: "checklist", Niche: "saas product launches"},
	{Type: "checklist", Niche: "podcast episode production"},
	{Type: "checklist", Niche: "airbnb host turnovers"},
}

// Sample returns up to n categories drawn without replacement using rng.
// The source catalog is never mutated.
func Sample(categories []Category, n int, rng *rand.Rand) []Category {
	if n <= 0 || len(categories) == 0 {
		return nil
	}
	if n > len(categories) {
		n = len(categories)
	}

	indexes := rng.Perm(len(categories))[:n]
	sample := make([]Category, 0, n)
	for _, i := range indexes {
		sample = append(sample, categories[i])
	}
	return sample
}
