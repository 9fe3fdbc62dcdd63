// Package highlights derives the short badges shown on a plant card.
package highlights

import (
	"cmp"
	"slices"

	"PlantScout/internal/domain"
)

const maxHighlights = 3

type tier struct {
	min       int
	highlight domain.Highlight
}

// Checked top down; the first tier whose minimum is met wins.
var ratingTiers = []struct {
	field func(domain.Plant) *domain.Rating
	tiers []tier
}{
	{
		field: func(p domain.Plant) *domain.Rating { return p.PollinatorRating },
		tiers: []tier{
			{8, domain.Highlight{Label: "Great for pollinators", Category: domain.HighlightGreat, Priority: 1003}},
			{6, domain.Highlight{Label: "Good for pollinators", Category: domain.HighlightGood, Priority: 503}},
		},
	},
	{
		field: func(p domain.Plant) *domain.Rating { return p.BirdRating },
		tiers: []tier{
			{8, domain.Highlight{Label: "Great for birds", Category: domain.HighlightGreat, Priority: 1002}},
			{6, domain.Highlight{Label: "Good for birds", Category: domain.HighlightGood, Priority: 502}},
		},
	},
	{
		field: func(p domain.Plant) *domain.Rating { return p.AnimalRating },
		tiers: []tier{
			{8, domain.Highlight{Label: "Great for animals", Category: domain.HighlightGreat, Priority: 1001}},
			{6, domain.Highlight{Label: "Good for animals", Category: domain.HighlightGood, Priority: 501}},
		},
	},
	{
		field: func(p domain.Plant) *domain.Rating { return p.SpreadRating },
		tiers: []tier{
			{8, domain.Highlight{Label: "Spreads aggressively", Category: domain.HighlightWorse, Priority: 3000}},
			{6, domain.Highlight{Label: "Spreads aggressively", Category: domain.HighlightBad, Priority: 3000}},
		},
	},
	{
		field: func(p domain.Plant) *domain.Rating { return p.DeerResistanceRating },
		tiers: []tier{
			{8, domain.Highlight{Label: "Deer resistant", Category: domain.HighlightGreat, Priority: 2000}},
			{6, domain.Highlight{Label: "Mildly deer resistant", Category: domain.HighlightGood, Priority: 900}},
		},
	},
}

var (
	growsInShade     = domain.Highlight{Label: "Grows in shade", Category: domain.HighlightGood, Priority: 3}
	growsInPartShade = domain.Highlight{Label: "Grows in partial shade", Category: domain.HighlightGood, Priority: 2}
	growsInDrySoil   = domain.Highlight{Label: "Grows in dry soil", Category: domain.HighlightGood, Priority: 1}
)

// Generate returns up to three highlights, best categories first.
func Generate(plant domain.Plant) []domain.Highlight {
	list := fromRatings(plant)
	if len(list) == 0 {
		list = fillers(plant)
	}
	if len(list) == 0 {
		return nil
	}

	slices.SortStableFunc(list, func(a, b domain.Highlight) int {
		return cmp.Compare(b.Priority, a.Priority)
	})
	if len(list) > maxHighlights {
		list = list[:maxHighlights]
	}

	slices.SortStableFunc(list, func(a, b domain.Highlight) int {
		if c := cmp.Compare(b.Category.Rank(), a.Category.Rank()); c != 0 {
			return c
		}
		return cmp.Compare(b.Priority, a.Priority)
	})
	return list
}

func fromRatings(plant domain.Plant) []domain.Highlight {
	var list []domain.Highlight
	for _, r := range ratingTiers {
		rating := r.field(plant)
		if rating == nil {
			continue
		}
		for _, t := range r.tiers {
			if rating.Rating >= t.min {
				list = append(list, t.highlight)
				break
			}
		}
	}
	return list
}

func fillers(plant domain.Plant) []domain.Highlight {
	var list []domain.Highlight
	switch {
	case slices.Contains(plant.Shades, domain.ShadeLots):
		list = append(list, growsInShade)
	case slices.Contains(plant.Shades, domain.ShadeSome):
		list = append(list, growsInPartShade)
	}
	if slices.Contains(plant.Moistures, domain.MoistureNone) {
		list = append(list, growsInDrySoil)
	}
	return list
}
